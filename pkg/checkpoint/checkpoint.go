package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fika/fika-prep/pkg/taxonomy"
)

var (
	// ErrMissingLabel is returned when a stored record carries no label.
	ErrMissingLabel = errors.New("checkpoint record has no label")

	// ErrUnknownBackend is returned for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown checkpoint backend")
)

// Record is the durable unit of the checkpoint log.
type Record struct {
	Label   taxonomy.Label       `json:"label" bson:"label"`
	Buckets []taxonomy.BucketKey `json:"buckets" bson:"buckets"`
}

// State is the replayed checkpoint: the last recorded buckets per label.
type State map[taxonomy.Label][]taxonomy.BucketKey

// Store is an append-only log of classification records.
type Store interface {
	// Load replays the whole log. Entries that fail to decode are skipped.
	Load(ctx context.Context) (State, error)

	// Append adds one entry per record after every existing entry.
	Append(ctx context.Context, records []Record) error

	Close() error
}

// Apply merges records into the state, later records replacing earlier ones.
func (s State) Apply(records ...Record) {
	for _, r := range records {
		s[r.Label] = append([]taxonomy.BucketKey{}, r.Buckets...)
	}
}

// Has reports whether label has been classified before.
func (s State) Has(label taxonomy.Label) bool {
	_, ok := s[label]
	return ok
}

// Remaining returns the labels not yet present in the state, preserving input order.
func Remaining(state State, labels []taxonomy.Label) []taxonomy.Label {
	remaining := make([]taxonomy.Label, 0, len(labels))
	for _, l := range labels {
		if !state.Has(l) {
			remaining = append(remaining, l)
		}
	}
	return remaining
}

// EncodeRecord serializes a record as a single JSON line without the trailing newline.
func EncodeRecord(r Record) ([]byte, error) {
	if r.Buckets == nil {
		r.Buckets = []taxonomy.BucketKey{}
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkpoint record %q: %w", r.Label, err)
	}
	return data, nil
}

// DecodeRecord parses one stored entry. The label is normalized like vocabulary
// labels; a missing buckets field decodes as empty.
func DecodeRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("failed to decode checkpoint record: %w", err)
	}

	r.Label = taxonomy.Normalize(r.Label)
	if r.Label == "" {
		return Record{}, ErrMissingLabel
	}

	if r.Buckets == nil {
		r.Buckets = []taxonomy.BucketKey{}
	}
	return r, nil
}
