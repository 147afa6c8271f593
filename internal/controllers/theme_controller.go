package controllers

import (
	"errors"
	"net/url"
	"sort"

	"github.com/fika/fika-prep/pkg/artifacts"
	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// SnapshotSource yields the artifacts of the last completed run.
type SnapshotSource interface {
	Read() (artifacts.Snapshot, error)
}

// ThemeController serves the generated theme and bucket artifacts read-only.
type ThemeController struct {
	source SnapshotSource
}

type ThemeControllerDependencies struct {
	Source SnapshotSource
}

func NewThemeController(deps ThemeControllerDependencies) *ThemeController {
	return &ThemeController{
		source: deps.Source,
	}
}

type ThemeSummary struct {
	Theme string `json:"theme"`
	Items int    `json:"items"`
}

type ThemeResponse struct {
	Theme string                   `json:"theme"`
	Items []artifacts.PlannerEntry `json:"items"`
}

type BucketSummary struct {
	Bucket taxonomy.BucketKey `json:"bucket"`
	Labels int                `json:"labels"`
}

type LabelResponse struct {
	Label    taxonomy.Label       `json:"label"`
	Buckets  []taxonomy.BucketKey `json:"buckets"`
	Themes   []string             `json:"themes"`
	Excluded bool                 `json:"excluded"`
	Unique   bool                 `json:"unique"`
}

func (c *ThemeController) snapshot() (artifacts.Snapshot, error) {
	snapshot, err := c.source.Read()
	if errors.Is(err, artifacts.ErrNotGenerated) {
		return artifacts.Snapshot{}, fiber.NewError(fiber.StatusServiceUnavailable, "Artifacts have not been generated yet")
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to read artifacts")
		return artifacts.Snapshot{}, fiber.NewError(fiber.StatusInternalServerError, "Failed to read artifacts")
	}
	return snapshot, nil
}

// ListThemes returns every theme with its item count.
func (c *ThemeController) ListThemes(ctx fiber.Ctx) error {
	snapshot, err := c.snapshot()
	if err != nil {
		return err
	}

	themes := make([]ThemeSummary, 0, len(snapshot.Planner))
	for theme, entries := range snapshot.Planner {
		themes = append(themes, ThemeSummary{Theme: theme, Items: len(entries)})
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i].Theme < themes[j].Theme })

	return ctx.JSON(fiber.Map{"themes": themes})
}

// GetTheme returns the labels and slugs of one theme.
func (c *ThemeController) GetTheme(ctx fiber.Ctx) error {
	snapshot, err := c.snapshot()
	if err != nil {
		return err
	}

	theme := ctx.Params("theme")
	entries, ok := snapshot.Planner[theme]
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Theme not found")
	}

	return ctx.JSON(ThemeResponse{Theme: theme, Items: entries})
}

// ListBuckets returns every positive bucket with its label count.
func (c *ThemeController) ListBuckets(ctx fiber.Ctx) error {
	snapshot, err := c.snapshot()
	if err != nil {
		return err
	}

	bucketList := make([]BucketSummary, 0, len(snapshot.BucketIndex))
	for bucket, labels := range snapshot.BucketIndex {
		bucketList = append(bucketList, BucketSummary{Bucket: bucket, Labels: len(labels)})
	}
	sort.Slice(bucketList, func(i, j int) bool { return bucketList[i].Bucket < bucketList[j].Bucket })

	return ctx.JSON(fiber.Map{
		"buckets":       bucketList,
		"exclude_final": len(snapshot.ExcludeFinal),
		"unique":        len(snapshot.Unique),
	})
}

// GetLabel explains where one label ended up.
func (c *ThemeController) GetLabel(ctx fiber.Ctx) error {
	snapshot, err := c.snapshot()
	if err != nil {
		return err
	}

	raw, err := url.PathUnescape(ctx.Params("label"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid label")
	}
	label := taxonomy.Normalize(raw)

	response := LabelResponse{
		Label:    label,
		Buckets:  snapshot.LabelIndex[label],
		Themes:   []string{},
		Excluded: contains(snapshot.ExcludeFinal, label),
		Unique:   contains(snapshot.Unique, label),
	}
	if response.Buckets == nil {
		response.Buckets = []taxonomy.BucketKey{}
	}

	if len(response.Buckets) == 0 && !response.Excluded && !response.Unique {
		return fiber.NewError(fiber.StatusNotFound, "Label not found")
	}

	for theme, entries := range snapshot.Planner {
		for _, entry := range entries {
			if entry.Label == label {
				response.Themes = append(response.Themes, theme)
				break
			}
		}
	}
	sort.Strings(response.Themes)

	return ctx.JSON(response)
}

func contains(labels []taxonomy.Label, label taxonomy.Label) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
