package policy

import (
	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/rs/zerolog/log"
)

// ThemeResult is the filtered label list of one theme.
type ThemeResult struct {
	Theme string
	Items []taxonomy.Label
}

type EngineDependencies struct {
	Config       Config
	LabelIndex   map[taxonomy.Label][]taxonomy.BucketKey
	ExcludeFinal []taxonomy.Label
	Unique       []taxonomy.Label
	Overrides    Overrides
}

// Engine filters the label index into theme lists. It holds no mutable state.
type Engine struct {
	config       Config
	labelIndex   map[taxonomy.Label][]taxonomy.BucketKey
	excludeFinal map[taxonomy.Label]struct{}
	unique       map[taxonomy.Label]struct{}
	overrides    Overrides
}

func NewEngine(deps EngineDependencies) *Engine {
	return &Engine{
		config:       deps.Config,
		labelIndex:   deps.LabelIndex,
		excludeFinal: labelSet(deps.ExcludeFinal),
		unique:       labelSet(deps.Unique),
		overrides:    deps.Overrides.normalized(),
	}
}

// BuildThemeList returns the sorted labels admitted to theme.
//
// A label is dropped when it is blacklisted, in exclude_final, in unique without
// being whitelisted, shares no bucket with the theme, or matches a block term
// without being whitelisted. The whitelist never admits a label whose buckets
// miss the theme.
func (e *Engine) BuildThemeList(theme string) ([]taxonomy.Label, error) {
	resolved, err := e.config.Resolve(theme)
	if err != nil {
		return nil, err
	}

	var out []taxonomy.Label
	for label, buckets := range e.labelIndex {
		if e.overrides.Blacklisted(label) {
			continue
		}
		if _, ok := e.excludeFinal[taxonomy.Normalize(label)]; ok {
			continue
		}

		whitelisted := e.overrides.Whitelisted(label)
		if _, ok := e.unique[taxonomy.Normalize(label)]; ok && !whitelisted {
			continue
		}
		if !resolved.Allows(buckets) {
			continue
		}
		if !whitelisted && resolved.Blocked(label) {
			continue
		}

		out = append(out, label)
	}

	return taxonomy.SortLabels(out), nil
}

// BuildAll builds every theme in policy declaration order.
func (e *Engine) BuildAll() ([]ThemeResult, error) {
	results := make([]ThemeResult, 0, len(e.config.Themes))
	for _, theme := range e.config.Themes.Names() {
		items, err := e.BuildThemeList(theme)
		if err != nil {
			return nil, err
		}

		log.Debug().Str("theme", theme).Int("items", len(items)).Msg("Built theme list")
		results = append(results, ThemeResult{Theme: theme, Items: items})
	}
	return results, nil
}
