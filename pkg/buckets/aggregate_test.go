package buckets

import (
	"testing"

	"github.com/fika/fika-prep/pkg/checkpoint"
	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_EndToEndScenario(t *testing.T) {
	tax := taxonomy.Default()
	vocabulary := []taxonomy.Label{"pub", "banquet hall", "dessert shop"}
	state := checkpoint.State{
		"pub":          {taxonomy.BucketMeal, taxonomy.BucketNightlife},
		"banquet hall": {taxonomy.GroupExclude},
		"dessert shop": {taxonomy.BucketFoodCulinary},
	}

	p := Aggregate(tax, vocabulary, state)

	assert.Equal(t, []taxonomy.Label{"pub"}, p.Buckets[taxonomy.BucketMeal])
	assert.Equal(t, []taxonomy.Label{"pub"}, p.Buckets[taxonomy.BucketNightlife])
	assert.Equal(t, []taxonomy.Label{"dessert shop"}, p.Buckets[taxonomy.BucketFoodCulinary])
	assert.Equal(t, []taxonomy.Label{"banquet hall"}, p.ExcludeFinal)
	assert.Empty(t, p.Unique)

	assert.Equal(t, []taxonomy.BucketKey{taxonomy.BucketNightlife, taxonomy.BucketMeal}, p.LabelIndex["pub"])
	assert.NotContains(t, p.LabelIndex, "banquet hall")
}

func TestAggregate_PositiveOverridesExclude(t *testing.T) {
	p := Aggregate(taxonomy.Default(), []taxonomy.Label{"banquet hall"}, checkpoint.State{
		"banquet hall": {taxonomy.GroupExclude, taxonomy.BucketMeal},
	})

	assert.Equal(t, []taxonomy.Label{"banquet hall"}, p.Buckets[taxonomy.BucketMeal])
	assert.Empty(t, p.ExcludeFinal)
	assert.Empty(t, p.Unique)
}

func TestAggregate_UniqueGroup(t *testing.T) {
	vocabulary := []taxonomy.Label{"bookstore", "pub", "never classified", "mystery", "Arcade"}
	state := checkpoint.State{
		"bookstore":  {taxonomy.GroupUnique},
		"pub":        {taxonomy.BucketMeal, taxonomy.GroupUnique},
		"mystery":    {},
		"laundromat": {taxonomy.GroupExclude, taxonomy.GroupUnique},
		"old label":  {taxonomy.GroupUnique},
	}

	p := Aggregate(taxonomy.Default(), vocabulary, state)

	assert.Equal(t, []taxonomy.Label{"Arcade", "bookstore", "mystery", "never classified", "old label"}, p.Unique)
	assert.Equal(t, []taxonomy.Label{"laundromat"}, p.ExcludeFinal)
	assert.Equal(t, []taxonomy.Label{"pub"}, p.Buckets[taxonomy.BucketMeal])
}

func TestAggregate_IgnoresUnknownBuckets(t *testing.T) {
	p := Aggregate(taxonomy.Default(), []taxonomy.Label{"casino"}, checkpoint.State{
		"casino": {"attractions/casinos"},
	})

	for _, key := range p.Keys() {
		assert.NotContains(t, p.Buckets[key], "casino")
	}
	assert.Equal(t, []taxonomy.Label{"casino"}, p.Unique)
	assert.Empty(t, p.LabelIndex)
}

func TestAggregate_CoveragePartition(t *testing.T) {
	vocabulary := []taxonomy.Label{"pub", "banquet hall", "dessert shop", "bookstore", "warehouse", "temple", "unknown", "spa"}
	state := checkpoint.State{
		"pub":          {taxonomy.BucketMeal, taxonomy.BucketNightlife},
		"banquet hall": {taxonomy.GroupExclude, taxonomy.BucketMeal},
		"dessert shop": {taxonomy.BucketFoodCulinary, taxonomy.GroupUnique},
		"bookstore":    {taxonomy.GroupUnique},
		"warehouse":    {taxonomy.GroupExclude},
		"temple":       {taxonomy.BucketReligiousSites},
		"spa":          {"attractions/spa", taxonomy.GroupExclude, taxonomy.GroupUnique},
	}

	p := Aggregate(taxonomy.Default(), vocabulary, state)

	positive := map[taxonomy.Label]bool{}
	for _, key := range p.Keys() {
		for _, label := range p.Buckets[key] {
			positive[label] = true
		}
	}
	inExclude := toSet(p.ExcludeFinal)
	inUnique := toSet(p.Unique)

	for _, label := range vocabulary {
		count := 0
		for _, in := range []bool{positive[label], inExclude[label], inUnique[label]} {
			if in {
				count++
			}
		}
		assert.Equal(t, 1, count, "label %q must be in exactly one group", label)
	}
}

func TestAggregate_BucketIndexHasEveryBucket(t *testing.T) {
	tax := taxonomy.Default()
	p := Aggregate(tax, []taxonomy.Label{"pub"}, checkpoint.State{"pub": {taxonomy.BucketMeal}})

	index := p.BucketIndex()
	require.Len(t, index, len(tax.PositiveKeys()))
	assert.Equal(t, []taxonomy.Label{"pub"}, index[taxonomy.BucketMeal])
	assert.NotNil(t, index[taxonomy.BucketShopping])
	assert.Empty(t, index[taxonomy.BucketShopping])
}

func TestAggregate_Deterministic(t *testing.T) {
	tax := taxonomy.Default()
	vocabulary := []taxonomy.Label{"pub", "bar", "Beer Hall", "club"}
	state := checkpoint.State{
		"pub":       {taxonomy.BucketNightlife},
		"bar":       {taxonomy.BucketNightlife},
		"Beer Hall": {taxonomy.BucketNightlife},
		"club":      {taxonomy.BucketNightlife},
	}

	first := Aggregate(tax, vocabulary, state)
	for i := 0; i < 10; i++ {
		again := Aggregate(tax, vocabulary, state)
		assert.Equal(t, first.Buckets, again.Buckets)
	}
	assert.Equal(t, []taxonomy.Label{"bar", "Beer Hall", "club", "pub"}, first.Buckets[taxonomy.BucketNightlife])
}

func toSet(labels []taxonomy.Label) map[taxonomy.Label]bool {
	set := make(map[taxonomy.Label]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}
	return set
}
