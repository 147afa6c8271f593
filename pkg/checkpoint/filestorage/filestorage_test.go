package filestorage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fika/fika-prep/pkg/checkpoint"
	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "text", DefaultFileName))
	require.NoError(t, err)
	return store
}

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	store := newStore(t)

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestStore_AppendThenLoad(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Append(ctx, []checkpoint.Record{
		{Label: "pub", Buckets: []taxonomy.BucketKey{taxonomy.BucketMeal, taxonomy.BucketNightlife}},
		{Label: "banquet hall", Buckets: []taxonomy.BucketKey{taxonomy.GroupExclude}},
		{Label: "mystery", Buckets: nil},
	}))

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []taxonomy.BucketKey{taxonomy.BucketMeal, taxonomy.BucketNightlife}, state["pub"])
	assert.Equal(t, []taxonomy.BucketKey{taxonomy.GroupExclude}, state["banquet hall"])
	assert.Equal(t, []taxonomy.BucketKey{}, state["mystery"])

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `{"label":"mystery","buckets":[]}`)
}

func TestStore_LaterEntriesWin(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Append(ctx, []checkpoint.Record{
		{Label: "banquet hall", Buckets: []taxonomy.BucketKey{taxonomy.GroupExclude}},
	}))
	require.NoError(t, store.Append(ctx, []checkpoint.Record{
		{Label: "banquet hall", Buckets: []taxonomy.BucketKey{taxonomy.BucketMeal}},
	}))

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []taxonomy.BucketKey{taxonomy.BucketMeal}, state["banquet hall"])

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(raw), "\n"), "entries are appended, never rewritten")
}

func TestStore_SkipsMalformedLines(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	content := strings.Join([]string{
		`{"label":"pub","buckets":["meal"]}`,
		`not json at all`,
		`{"buckets":["meal"]}`,
		``,
		`{"label":"temple"}`,
		`{"label":"mall","buckets":["attractions/shopping"]`,
	}, "\n")
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0644))

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, state, 2)
	assert.Equal(t, []taxonomy.BucketKey{taxonomy.BucketMeal}, state["pub"])
	assert.Equal(t, []taxonomy.BucketKey{}, state["temple"])
}

func TestStore_SkipsOversizedLines(t *testing.T) {
	garbage := strings.Repeat("x", 2<<20)

	tests := []struct {
		name    string
		content string
	}{
		{
			name: "oversized line in the middle",
			content: `{"label":"pub","buckets":["meal"]}` + "\n" + garbage + "\n" +
				`{"label":"temple","buckets":["attractions/religious_sites"]}` + "\n",
		},
		{
			name: "oversized torn final line",
			content: `{"label":"pub","buckets":["meal"]}` + "\n" +
				`{"label":"temple","buckets":["attractions/religious_sites"]}` + "\n" + garbage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			require.NoError(t, os.WriteFile(store.Path(), []byte(tt.content), 0644))

			state, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, checkpoint.State{
				"pub":    {taxonomy.BucketMeal},
				"temple": {taxonomy.BucketReligiousSites},
			}, state)
		})
	}
}

func TestStore_AppendAfterTornLine(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	torn := `{"label":"pub","buckets":["meal"]}` + "\n" + `{"label":"ma`
	require.NoError(t, os.WriteFile(store.Path(), []byte(torn), 0644))

	require.NoError(t, store.Append(ctx, []checkpoint.Record{
		{Label: "mall", Buckets: []taxonomy.BucketKey{taxonomy.BucketShopping}},
	}))

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, state, 2)
	assert.Equal(t, []taxonomy.BucketKey{taxonomy.BucketMeal}, state["pub"])
	assert.Equal(t, []taxonomy.BucketKey{taxonomy.BucketShopping}, state["mall"])
}

func TestStore_ResumeAgreesAcrossProcesses(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Append(ctx, []checkpoint.Record{
		{Label: "pub", Buckets: []taxonomy.BucketKey{taxonomy.BucketMeal}},
	}))

	other, err := New(store.Path())
	require.NoError(t, err)

	labels := []taxonomy.Label{"pub", "temple", "mall"}

	first, err := store.Load(ctx)
	require.NoError(t, err)
	second, err := other.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, checkpoint.Remaining(first, labels), checkpoint.Remaining(second, labels))
	assert.Equal(t, []taxonomy.Label{"temple", "mall"}, checkpoint.Remaining(first, labels))
}
