package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fika/fika-prep/pkg/buckets"
	"github.com/fika/fika-prep/pkg/policy"
	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/rs/zerolog/log"
)

const (
	ExcludeFinalFileName = "exclude_final.txt"
	UniqueFileName       = "unique.txt"
	BucketIndexFileName  = "bucket_index.json"
	LabelIndexFileName   = "label_index.json"
	PlannerDirName       = "planner"
	PlannerIndexFileName = "planner_index.json"
	ErrorLogFileName     = "classify_errors.log"
)

// PlannerEntry is one label of a theme in the cross-theme planner index.
type PlannerEntry struct {
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// ThemeDocument is the structured form of one theme list.
type ThemeDocument struct {
	Theme string   `json:"theme"`
	Items []string `json:"items"`
}

// Writer lays out every generated file under one output directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) Dir() string {
	return w.dir
}

func (w *Writer) PlannerDir() string {
	return filepath.Join(w.dir, PlannerDirName)
}

func (w *Writer) PolicyPath() string {
	return filepath.Join(w.PlannerDir(), policy.FileName)
}

// BucketPath maps a bucket key to its list file: meal.txt or attractions/<sub>.txt.
func (w *Writer) BucketPath(key taxonomy.BucketKey) string {
	if key.IsAttraction() {
		return filepath.Join(w.dir, "attractions", key.Sub()+".txt")
	}
	return filepath.Join(w.dir, string(key)+".txt")
}

// WritePartition writes the per-bucket lists, the reserved group lists and both indices.
func (w *Writer) WritePartition(p buckets.Partition) error {
	for _, key := range p.Keys() {
		if err := writeList(w.BucketPath(key), p.Buckets[key]); err != nil {
			return err
		}
	}

	if err := writeList(filepath.Join(w.dir, ExcludeFinalFileName), p.ExcludeFinal); err != nil {
		return err
	}
	if err := writeList(filepath.Join(w.dir, UniqueFileName), p.Unique); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(w.dir, BucketIndexFileName), p.BucketIndex()); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(w.dir, LabelIndexFileName), p.LabelIndex); err != nil {
		return err
	}

	log.Info().
		Str("dir", w.dir).
		Int("labels", len(p.LabelIndex)).
		Int("exclude_final", len(p.ExcludeFinal)).
		Int("unique", len(p.Unique)).
		Msg("Wrote bucket artifacts")

	return nil
}

// WriteThemes writes <theme>.txt, <theme>.json and the planner index.
func (w *Writer) WriteThemes(results []policy.ThemeResult) error {
	index := make(map[string][]PlannerEntry, len(results))

	for _, result := range results {
		base := filepath.Join(w.PlannerDir(), result.Theme)
		if err := writeList(base+".txt", result.Items); err != nil {
			return err
		}

		items := append([]string{}, result.Items...)
		if err := writeJSON(base+".json", ThemeDocument{Theme: result.Theme, Items: items}); err != nil {
			return err
		}

		entries := make([]PlannerEntry, len(result.Items))
		for i, label := range result.Items {
			entries[i] = PlannerEntry{Label: label, Slug: taxonomy.Slug(label)}
		}
		index[result.Theme] = entries
	}

	if err := writeJSON(filepath.Join(w.PlannerDir(), PlannerIndexFileName), index); err != nil {
		return err
	}

	log.Info().Str("dir", w.PlannerDir()).Int("themes", len(results)).Msg("Wrote theme artifacts")
	return nil
}

// writeList writes labels newline-joined without a trailing newline.
func writeList(path string, labels []taxonomy.Label) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(labels, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, bytes.TrimRight(buf.Bytes(), "\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
