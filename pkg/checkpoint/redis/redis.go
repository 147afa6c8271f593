package redis

import (
	"context"
	"fmt"

	"github.com/fika/fika-prep/pkg/checkpoint"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultKey is the list key holding the checkpoint log.
const DefaultKey = "fika:ai_assignments"

// Store keeps the checkpoint log as a Redis list. Append only ever RPUSHes,
// so list order is log order.
type Store struct {
	client *redis.Client
	key    string
}

type StoreDependencies struct {
	Client *redis.Client
	Key    string
}

func New(deps StoreDependencies) *Store {
	key := deps.Key
	if key == "" {
		key = DefaultKey
	}

	return &Store{
		client: deps.Client,
		key:    key,
	}
}

// NewFromURL connects to the Redis instance described by a redis:// URL.
func NewFromURL(ctx context.Context, url, key string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return New(StoreDependencies{Client: client, Key: key}), nil
}

func (s *Store) Load(ctx context.Context) (checkpoint.State, error) {
	entries, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint list %s: %w", s.key, err)
	}

	state := checkpoint.State{}
	for i, entry := range entries {
		record, err := checkpoint.DecodeRecord([]byte(entry))
		if err != nil {
			log.Debug().Err(err).Int("index", i).Str("key", s.key).Msg("Skipping unreadable checkpoint entry")
			continue
		}
		state.Apply(record)
	}

	return state, nil
}

func (s *Store) Append(ctx context.Context, records []checkpoint.Record) error {
	if len(records) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(records))
	for _, r := range records {
		data, err := checkpoint.EncodeRecord(r)
		if err != nil {
			return err
		}
		values = append(values, string(data))
	}

	// A single RPUSH is atomic, so a batch lands whole or not at all.
	if err := s.client.RPush(ctx, s.key, values...).Err(); err != nil {
		return fmt.Errorf("failed to append to checkpoint list %s: %w", s.key, err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
