package publish

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/fika/fika-prep/pkg/artifacts"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

const DefaultTable = "themes"

var ErrNothingToPublish = errors.New("no themes to publish")

var displayNames = map[string]string{
	"shopping":  "Shopping",
	"food_tour": "Food & Culinary",
	"culture":   "Cultural & History",
	"nature":    "Nature & Parks",
	"adventure": "Adventure",
	"nightlife": "Nightlife",
	"relax":     "Relax & Leisure",
	"family":    "Family Attractions",
	"stay":      "Places to Stay",
}

// Theme is one row of the themes table.
type Theme struct {
	Key               string
	DisplayName       string
	CategoryWhitelist []string
}

// DisplayName returns the human-readable theme name, title-casing unknown keys.
func DisplayName(key string) string {
	if name, ok := displayNames[key]; ok {
		return name
	}

	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// Rows builds one row per theme of the planner index, ordered by key.
func Rows(planner map[string][]artifacts.PlannerEntry) []Theme {
	keys := make([]string, 0, len(planner))
	for key := range planner {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]Theme, 0, len(keys))
	for _, key := range keys {
		whitelist := make([]string, len(planner[key]))
		for i, entry := range planner[key] {
			whitelist[i] = strings.ToLower(entry.Label)
		}
		rows = append(rows, Theme{Key: key, DisplayName: DisplayName(key), CategoryWhitelist: whitelist})
	}
	return rows
}

type PublisherDependencies struct {
	Conn  *pgx.Conn
	Table string
}

// Publisher upserts theme rows into Postgres.
type Publisher struct {
	conn  *pgx.Conn
	table string
}

func NewPublisher(deps PublisherDependencies) *Publisher {
	table := deps.Table
	if table == "" {
		table = DefaultTable
	}
	return &Publisher{conn: deps.Conn, table: table}
}

// Connect opens a connection to databaseURL.
func Connect(ctx context.Context, databaseURL string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return conn, nil
}

// EnsureTable creates the themes table when it does not exist.
func (p *Publisher) EnsureTable(ctx context.Context) error {
	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			category_whitelist TEXT[] NOT NULL,
			category_weights JSONB
		)
	`, pgx.Identifier{p.table}.Sanitize())

	if _, err := p.conn.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create %s table: %w", p.table, err)
	}
	return nil
}

// Publish upserts every row in one transaction. Existing category_weights are kept.
func (p *Publisher) Publish(ctx context.Context, rows []Theme) error {
	if len(rows) == 0 {
		return ErrNothingToPublish
	}

	upsertSQL := fmt.Sprintf(`
		INSERT INTO %s (key, display_name, category_whitelist)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET display_name = EXCLUDED.display_name,
			category_whitelist = EXCLUDED.category_whitelist
	`, pgx.Identifier{p.table}.Sanitize())

	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertSQL, row.Key, row.DisplayName, row.CategoryWhitelist)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert themes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit themes: %w", err)
	}

	log.Info().Str("table", p.table).Int("themes", len(rows)).Msg("Upserted themes")
	return nil
}
