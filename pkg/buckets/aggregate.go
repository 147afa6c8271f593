package buckets

import (
	"github.com/fika/fika-prep/pkg/checkpoint"
	"github.com/fika/fika-prep/pkg/taxonomy"
)

// Partition is the whole-vocabulary bucket assignment. Every vocabulary label
// is in at least one positive bucket, in ExcludeFinal, or in Unique, with
// positive membership taking precedence over both reserved groups.
type Partition struct {
	// Buckets lists the labels of every positive bucket, keyed in taxonomy order.
	Buckets map[taxonomy.BucketKey][]taxonomy.Label

	// ExcludeFinal are labels marked exclude and not in any positive bucket.
	ExcludeFinal []taxonomy.Label

	// Unique are labels marked unique plus every unplaced vocabulary label.
	Unique []taxonomy.Label

	// LabelIndex maps each positively bucketed label to its sorted buckets.
	LabelIndex map[taxonomy.Label][]taxonomy.BucketKey

	order []taxonomy.BucketKey
}

// Keys returns the positive bucket keys in taxonomy order.
func (p Partition) Keys() []taxonomy.BucketKey {
	return append([]taxonomy.BucketKey(nil), p.order...)
}

// BucketIndex returns bucket -> labels for every positive bucket, including empty ones.
func (p Partition) BucketIndex() map[taxonomy.BucketKey][]taxonomy.Label {
	index := make(map[taxonomy.BucketKey][]taxonomy.Label, len(p.order))
	for _, key := range p.order {
		index[key] = append([]taxonomy.Label{}, p.Buckets[key]...)
	}
	return index
}

// Aggregate rebuilds the partition from the vocabulary and the replayed checkpoint.
// Labels that only appear in the checkpoint still take part; bucket names
// outside the taxonomy are ignored. A label marked both exclude and unique
// lands in ExcludeFinal only.
func Aggregate(tax taxonomy.Taxonomy, vocabulary []taxonomy.Label, state checkpoint.State) Partition {
	assigned := make(map[taxonomy.BucketKey][]taxonomy.Label)
	matched := make(map[taxonomy.Label]struct{})
	marked := map[taxonomy.BucketKey]map[taxonomy.Label]struct{}{
		taxonomy.GroupExclude: {},
		taxonomy.GroupUnique:  {},
	}

	for label, keys := range state {
		for _, key := range keys {
			switch {
			case tax.IsPositive(key):
				assigned[key] = append(assigned[key], label)
				matched[label] = struct{}{}
			case key == taxonomy.GroupExclude || key == taxonomy.GroupUnique:
				marked[key][label] = struct{}{}
			}
		}
	}

	var excludeFinal []taxonomy.Label
	for label := range marked[taxonomy.GroupExclude] {
		if _, ok := matched[label]; !ok {
			excludeFinal = append(excludeFinal, label)
		}
	}
	excludeFinal = taxonomy.SortLabels(excludeFinal)

	excluded := make(map[taxonomy.Label]struct{}, len(excludeFinal))
	for _, label := range excludeFinal {
		excluded[label] = struct{}{}
	}

	unplaced := func(label taxonomy.Label) bool {
		_, isMatched := matched[label]
		_, isExcluded := excluded[label]
		return !isMatched && !isExcluded
	}

	var unique []taxonomy.Label
	for label := range marked[taxonomy.GroupUnique] {
		if unplaced(label) {
			unique = append(unique, label)
		}
	}
	for _, label := range vocabulary {
		if unplaced(label) {
			unique = append(unique, label)
		}
	}

	order := tax.PositiveKeys()
	partition := Partition{
		Buckets:      make(map[taxonomy.BucketKey][]taxonomy.Label, len(order)),
		ExcludeFinal: excludeFinal,
		Unique:       taxonomy.SortLabels(unique),
		LabelIndex:   make(map[taxonomy.Label][]taxonomy.BucketKey),
		order:        order,
	}

	for _, key := range order {
		labels := taxonomy.SortLabels(assigned[key])
		partition.Buckets[key] = labels
		for _, label := range labels {
			partition.LabelIndex[label] = append(partition.LabelIndex[label], key)
		}
	}
	for label, keys := range partition.LabelIndex {
		partition.LabelIndex[label] = taxonomy.SortKeys(keys)
	}

	return partition
}
