package boltdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fika/fika-prep/pkg/checkpoint"
	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func TestStore_AppendLoadAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "assignments.db")

	store, err := New(path)
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx, []checkpoint.Record{
		{Label: "pub", Buckets: []taxonomy.BucketKey{taxonomy.BucketMeal, taxonomy.BucketNightlife}},
		{Label: "banquet hall", Buckets: []taxonomy.BucketKey{taxonomy.GroupExclude}},
	}))
	require.NoError(t, store.Append(ctx, []checkpoint.Record{
		{Label: "banquet hall", Buckets: []taxonomy.BucketKey{taxonomy.BucketMeal}},
	}))
	require.NoError(t, store.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	state, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, state, 2)
	assert.Equal(t, []taxonomy.BucketKey{taxonomy.BucketMeal}, state["banquet hall"])
	assert.Equal(t, []taxonomy.BucketKey{taxonomy.BucketMeal, taxonomy.BucketNightlife}, state["pub"])
}

func TestStore_SkipsUnreadableEntries(t *testing.T) {
	ctx := context.Background()

	store, err := New(filepath.Join(t.TempDir(), "assignments.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketAssignments)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		if err := bucket.Put(seqKey(seq), []byte("{broken")); err != nil {
			return err
		}
		// Short keys only appear in hand-modified files.
		return bucket.Put([]byte{0x01}, []byte("{also broken"))
	}))
	require.NoError(t, store.Append(ctx, []checkpoint.Record{
		{Label: "temple", Buckets: []taxonomy.BucketKey{taxonomy.BucketReligiousSites}},
	}))

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, checkpoint.State{"temple": {taxonomy.BucketReligiousSites}}, state)
}
