package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fika/fika-prep/pkg/checkpoint"
	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"
)

// DefaultFileName is the bolt checkpoint name inside the output directory.
const DefaultFileName = "_ai_assignments.db"

var bucketAssignments = []byte("assignments")

// Store keeps the checkpoint log in a bbolt file. Entries are keyed by the
// bucket sequence, so existing keys are never overwritten and iteration order
// is append order.
type Store struct {
	db *bolt.DB
}

func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	db, err := bolt.Open(path, 0644, &bolt.Options{
		Timeout:      5 * time.Second,
		FreelistType: bolt.FreelistArrayType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt checkpoint: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAssignments)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize bolt checkpoint: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context) (checkpoint.State, error) {
	state := checkpoint.State{}

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAssignments).ForEach(func(k, v []byte) error {
			record, err := checkpoint.DecodeRecord(v)
			if err != nil {
				log.Debug().Err(err).Hex("key", k).Msg("Skipping unreadable checkpoint entry")
				return nil
			}
			state.Apply(record)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load bolt checkpoint: %w", err)
	}

	return state, nil
}

func (s *Store) Append(ctx context.Context, records []checkpoint.Record) error {
	if len(records) == 0 {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketAssignments)
		for _, r := range records {
			data, err := checkpoint.EncodeRecord(r)
			if err != nil {
				return err
			}

			seq, err := bucket.NextSequence()
			if err != nil {
				return fmt.Errorf("failed to allocate checkpoint sequence: %w", err)
			}

			if err := bucket.Put(seqKey(seq), data); err != nil {
				return fmt.Errorf("failed to append checkpoint record %q: %w", r.Label, err)
			}
		}
		return nil
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
