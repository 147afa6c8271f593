package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/fika/fika-prep/pkg/checkpoint"
	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/rs/zerolog/log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const aiAssignmentsCollection = "ai_assignments"

type entry struct {
	Seq       int64                `bson:"seq"`
	Label     taxonomy.Label       `bson:"label"`
	Buckets   []taxonomy.BucketKey `bson:"buckets"`
	CreatedAt time.Time            `bson:"created_at"`
}

// Store keeps the checkpoint log as insert-only documents ordered by seq.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// New connects to uri and uses the ai_assignments collection of database.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	store := &Store{
		client:     client,
		collection: client.Database(database).Collection(aiAssignmentsCollection),
	}
	store.ensureIndexes(ctx)

	return store, nil
}

func (s *Store) ensureIndexes(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create indexes for ai_assignments")
	}
}

func (s *Store) Load(ctx context.Context) (checkpoint.State, error) {
	cursor, err := s.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoint entries: %w", err)
	}
	defer cursor.Close(ctx)

	state := checkpoint.State{}
	for cursor.Next(ctx) {
		var e entry
		if err := cursor.Decode(&e); err != nil || e.Label == "" {
			log.Debug().Err(err).Msg("Skipping unreadable checkpoint entry")
			continue
		}
		state.Apply(checkpoint.Record{Label: e.Label, Buckets: e.Buckets})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checkpoint entries: %w", err)
	}

	return state, nil
}

func (s *Store) Append(ctx context.Context, records []checkpoint.Record) error {
	if len(records) == 0 {
		return nil
	}

	next, err := s.nextSeq(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	docs := make([]interface{}, len(records))
	for i, r := range records {
		buckets := r.Buckets
		if buckets == nil {
			buckets = []taxonomy.BucketKey{}
		}
		docs[i] = entry{
			Seq:       next + int64(i),
			Label:     r.Label,
			Buckets:   buckets,
			CreatedAt: now,
		}
	}

	if _, err := s.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to append checkpoint entries: %w", err)
	}

	return nil
}

func (s *Store) nextSeq(ctx context.Context) (int64, error) {
	var last entry
	err := s.collection.FindOne(ctx, bson.D{}, options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})).Decode(&last)
	if err == mongo.ErrNoDocuments {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read last checkpoint sequence: %w", err)
	}
	return last.Seq + 1, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.client.Disconnect(ctx)
}
