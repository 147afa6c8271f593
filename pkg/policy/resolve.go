package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fika/fika-prep/pkg/taxonomy"
)

// Resolved is the effective rule set of one theme.
type Resolved struct {
	Theme   string
	Allowed map[taxonomy.BucketKey]struct{}
	Blocks  []*regexp.Regexp
}

// Resolve computes the allowed buckets and the compiled block terms of theme.
// include_only_buckets replaces the default include set; also_allow_buckets adds to it.
func (c Config) Resolve(theme string) (Resolved, error) {
	override, ok := c.Themes.Lookup(theme)
	if !ok {
		return Resolved{}, fmt.Errorf("%w: %s", ErrUnknownTheme, theme)
	}

	include := c.Defaults.IncludeBuckets
	if len(override.IncludeOnlyBuckets) > 0 {
		include = override.IncludeOnlyBuckets
	}

	allowed := make(map[taxonomy.BucketKey]struct{}, len(include)+len(override.AlsoAllowBuckets))
	for _, key := range include {
		allowed[key] = struct{}{}
	}
	for _, key := range override.AlsoAllowBuckets {
		allowed[key] = struct{}{}
	}

	terms := make([]string, 0, len(c.Defaults.BlockTerms)+len(override.ExtraBlockTerms))
	terms = append(terms, c.Defaults.BlockTerms...)
	terms = append(terms, override.ExtraBlockTerms...)

	blocks := make([]*regexp.Regexp, 0, len(terms))
	for _, term := range terms {
		pattern, err := regexp.Compile("(?i)" + term)
		if err != nil {
			return Resolved{}, fmt.Errorf("theme %s: invalid block term %q: %w", theme, term, err)
		}
		blocks = append(blocks, pattern)
	}

	return Resolved{Theme: theme, Allowed: allowed, Blocks: blocks}, nil
}

// Allows reports whether any of buckets is allowed by the theme.
func (r Resolved) Allows(buckets []taxonomy.BucketKey) bool {
	for _, key := range buckets {
		if _, ok := r.Allowed[key]; ok {
			return true
		}
	}
	return false
}

// Blocked reports whether label matches a block term. Underscores count as spaces.
func (r Resolved) Blocked(label taxonomy.Label) bool {
	text := strings.ReplaceAll(strings.ToLower(label), "_", " ")
	for _, pattern := range r.Blocks {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
