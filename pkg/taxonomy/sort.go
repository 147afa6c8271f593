package taxonomy

import (
	"sort"
	"strings"
)

// SortLabels returns the distinct labels of in, ordered case-insensitively.
// Ties between labels that differ only in case fall back to byte order so the
// result is stable across runs.
func SortLabels(in []Label) []Label {
	seen := make(map[Label]struct{}, len(in))
	out := make([]Label, 0, len(in))
	for _, l := range in {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}

	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i]), strings.ToLower(out[j])
		if li != lj {
			return li < lj
		}
		return out[i] < out[j]
	})
	return out
}

// SortKeys orders bucket keys lexically.
func SortKeys(in []BucketKey) []BucketKey {
	out := append([]BucketKey(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
