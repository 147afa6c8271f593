package inmemory

import (
	"context"
	"sync"

	"github.com/fika/fika-prep/pkg/checkpoint"
)

// Store keeps the checkpoint log in process memory.
type Store struct {
	mu      sync.RWMutex
	entries [][]byte
}

func New() *Store {
	return &Store{}
}

func (s *Store) Load(ctx context.Context) (checkpoint.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := checkpoint.State{}
	for _, entry := range s.entries {
		record, err := checkpoint.DecodeRecord(entry)
		if err != nil {
			continue
		}
		state.Apply(record)
	}
	return state, nil
}

func (s *Store) Append(ctx context.Context, records []checkpoint.Record) error {
	encoded := make([][]byte, 0, len(records))
	for _, r := range records {
		data, err := checkpoint.EncodeRecord(r)
		if err != nil {
			return err
		}
		encoded = append(encoded, data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, encoded...)
	return nil
}

// AppendRaw stores an entry verbatim, bypassing encoding.
func (s *Store) AppendRaw(entry []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, append([]byte(nil), entry...))
}

// Len returns the number of stored entries, including unreadable ones.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

func (s *Store) Close() error {
	return nil
}
