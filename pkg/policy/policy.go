package policy

import (
	"errors"
	"fmt"

	"github.com/fika/fika-prep/pkg/taxonomy"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownTheme   = errors.New("unknown theme")
	ErrDuplicateTheme = errors.New("duplicate theme")
)

// Config is the planner policy document.
type Config struct {
	Defaults Defaults `yaml:"defaults" json:"defaults"`
	Themes   Themes   `yaml:"themes" json:"themes"`
}

// Defaults apply to every theme unless a theme overrides them.
type Defaults struct {
	IncludeBuckets []taxonomy.BucketKey `yaml:"include_buckets" json:"include_buckets"`
	ExcludeGroups  []taxonomy.BucketKey `yaml:"exclude_groups" json:"exclude_groups"`
	BlockTerms     []string             `yaml:"block_terms" json:"block_terms"`
}

// ThemeOverride adjusts the defaults for one theme.
type ThemeOverride struct {
	IncludeOnlyBuckets []taxonomy.BucketKey `yaml:"include_only_buckets,omitempty" json:"include_only_buckets,omitempty"`
	AlsoAllowBuckets   []taxonomy.BucketKey `yaml:"also_allow_buckets,omitempty" json:"also_allow_buckets,omitempty"`
	ExtraBlockTerms    []string             `yaml:"extra_block_terms,omitempty" json:"extra_block_terms,omitempty"`
}

// Theme is a named override.
type Theme struct {
	Name     string
	Override ThemeOverride
}

// Themes keeps the declaration order of the policy's themes mapping.
type Themes []Theme

// Names returns the theme names in declaration order.
func (t Themes) Names() []string {
	names := make([]string, len(t))
	for i, theme := range t {
		names[i] = theme.Name
	}
	return names
}

// Lookup returns the override declared for name.
func (t Themes) Lookup(name string) (ThemeOverride, bool) {
	for _, theme := range t {
		if theme.Name == name {
			return theme.Override, true
		}
	}
	return ThemeOverride{}, false
}

func (t *Themes) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("themes: expected a mapping, got %s", kindName(node.Kind))
	}

	themes := make(Themes, 0, len(node.Content)/2)
	seen := make(map[string]struct{}, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTheme, name)
		}
		seen[name] = struct{}{}

		var override ThemeOverride
		if err := node.Content[i+1].Decode(&override); err != nil {
			return fmt.Errorf("theme %s: %w", name, err)
		}
		themes = append(themes, Theme{Name: name, Override: override})
	}

	*t = themes
	return nil
}

func (t Themes) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, theme := range t {
		value := &yaml.Node{}
		if err := value.Encode(theme.Override); err != nil {
			return nil, fmt.Errorf("theme %s: %w", theme.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: theme.Name},
			value,
		)
	}
	return node, nil
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "mapping"
	}
}

// Check verifies that every bucket the policy names belongs to tax.
func (c Config) Check(tax taxonomy.Taxonomy) error {
	var errs []error

	for _, key := range c.Defaults.IncludeBuckets {
		if !tax.IsPositive(key) {
			errs = append(errs, fmt.Errorf("defaults.include_buckets: unknown bucket %q", key))
		}
	}
	for _, key := range c.Defaults.ExcludeGroups {
		if !key.IsReserved() {
			errs = append(errs, fmt.Errorf("defaults.exclude_groups: %q is not a reserved group", key))
		}
	}
	for _, theme := range c.Themes {
		for _, key := range theme.Override.IncludeOnlyBuckets {
			if !tax.IsPositive(key) {
				errs = append(errs, fmt.Errorf("themes.%s.include_only_buckets: unknown bucket %q", theme.Name, key))
			}
		}
		for _, key := range theme.Override.AlsoAllowBuckets {
			if !tax.IsPositive(key) {
				errs = append(errs, fmt.Errorf("themes.%s.also_allow_buckets: unknown bucket %q", theme.Name, key))
			}
		}
	}

	return errors.Join(errs...)
}
