package taxonomy

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

// BucketKey identifies one tourism bucket or one of the reserved groups.
type BucketKey string

const (
	BucketMeal          BucketKey = "meal"
	BucketAccommodation BucketKey = "accommodation"

	BucketFoodCulinary    BucketKey = "attractions/food_culinary"
	BucketAdventure       BucketKey = "attractions/adventure"
	BucketArtMuseums      BucketKey = "attractions/art_museums"
	BucketFamily          BucketKey = "attractions/family"
	BucketCulturalHistory BucketKey = "attractions/cultural_history"
	BucketNature          BucketKey = "attractions/nature"
	BucketNightlife       BucketKey = "attractions/nightlife"
	BucketRelax           BucketKey = "attractions/relax"
	BucketReligiousSites  BucketKey = "attractions/religious_sites"
	BucketShopping        BucketKey = "attractions/shopping"

	// GroupUnique holds labels with no confident positive match.
	GroupUnique BucketKey = "unique"
	// GroupExclude holds labels that are explicitly non-touristic.
	GroupExclude BucketKey = "exclude"
)

// AttractionsPrefix is the path prefix shared by every attraction bucket.
const AttractionsPrefix = "attractions/"

// Label is a normalized place-category string.
type Label = string

var whitespacePattern = regexp.MustCompile(`\s+`)

// Normalize case-folds a raw label and collapses its whitespace.
func Normalize(raw string) Label {
	return whitespacePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), " ")
}

// Slug returns the URL-safe form of a label used by the planner index.
func Slug(label Label) string {
	return slug.Make(Normalize(label))
}

// IsReserved reports whether key is one of the reserved pseudo-buckets.
func (k BucketKey) IsReserved() bool {
	return k == GroupUnique || k == GroupExclude
}

// IsAttraction reports whether key lives under the attractions/ prefix.
func (k BucketKey) IsAttraction() bool {
	return strings.HasPrefix(string(k), AttractionsPrefix)
}

// Sub returns the attraction sub-name ("nature" for "attractions/nature"), or the key itself.
func (k BucketKey) Sub() string {
	return strings.TrimPrefix(string(k), AttractionsPrefix)
}

// Bucket pairs a key with the description shown to the classifier.
type Bucket struct {
	Key         BucketKey
	Description string
}

// Example is a worked example used to steer the classifier.
type Example struct {
	Label   Label
	Buckets []BucketKey
}

// Taxonomy is the closed, immutable bucket vocabulary threaded into every component.
type Taxonomy struct {
	positive []Bucket
	reserved []Bucket
	examples []Example
	allowed  map[BucketKey]struct{}
}

// New builds a taxonomy from its positive buckets, reserved groups and worked examples.
func New(positive, reserved []Bucket, examples []Example) Taxonomy {
	allowed := make(map[BucketKey]struct{}, len(positive)+len(reserved))
	for _, b := range positive {
		allowed[b.Key] = struct{}{}
	}
	for _, b := range reserved {
		allowed[b.Key] = struct{}{}
	}

	return Taxonomy{
		positive: append([]Bucket(nil), positive...),
		reserved: append([]Bucket(nil), reserved...),
		examples: append([]Example(nil), examples...),
		allowed:  allowed,
	}
}

// PositiveKeys returns the positive bucket keys in declaration order.
func (t Taxonomy) PositiveKeys() []BucketKey {
	keys := make([]BucketKey, len(t.positive))
	for i, b := range t.positive {
		keys[i] = b.Key
	}
	return keys
}

// Guide returns every bucket with its description, positive buckets first.
func (t Taxonomy) Guide() []Bucket {
	guide := make([]Bucket, 0, len(t.positive)+len(t.reserved))
	guide = append(guide, t.positive...)
	return append(guide, t.reserved...)
}

// Examples returns the worked examples.
func (t Taxonomy) Examples() []Example {
	return append([]Example(nil), t.examples...)
}

// Allows reports whether key belongs to the closed taxonomy or the reserved groups.
func (t Taxonomy) Allows(key BucketKey) bool {
	_, ok := t.allowed[key]
	return ok
}

// IsPositive reports whether key is an allowed, non-reserved bucket.
func (t Taxonomy) IsPositive(key BucketKey) bool {
	return t.Allows(key) && !key.IsReserved()
}

// Filter keeps the allowed keys of raw in order, dropping unknown names and duplicates.
func (t Taxonomy) Filter(raw []string) []BucketKey {
	out := make([]BucketKey, 0, len(raw))
	seen := make(map[BucketKey]struct{}, len(raw))
	for _, r := range raw {
		key := BucketKey(strings.TrimSpace(r))
		if !t.Allows(key) {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
