// Package history keeps finished mixes in Postgres.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/saaga0h/paintmix-platform/internal/color"
	"github.com/saaga0h/paintmix-platform/internal/mixing"
	"github.com/saaga0h/paintmix-platform/internal/paint"
)

// DB is the part of postgres.Client the history needs
type DB interface {
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	Migrate(ctx context.Context, lockID int64, statements ...string) error
}

// schemaLockID is the advisory lock held while the history schema is created
const schemaLockID int64 = 0x7061696e746d6978

var schema = []string{`
	CREATE TABLE IF NOT EXISTS mix_results (
		id                  UUID PRIMARY KEY,
		hall                TEXT NOT NULL,
		machine             TEXT NOT NULL,
		pot                 TEXT NOT NULL,
		color               TEXT NOT NULL,
		ingredient_names    TEXT[] NOT NULL,
		ingredient_colors   TEXT[] NOT NULL,
		ingredient_textures TEXT[] NOT NULL,
		base_seconds        INTEGER NOT NULL,
		effective_seconds   INTEGER NOT NULL,
		started_at          TIMESTAMPTZ NOT NULL,
		completed_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS mix_results_completed_at_idx ON mix_results (completed_at DESC)`,
}

// Entry is one stored mix
type Entry struct {
	Hall    string           `json:"hall"`
	Machine string           `json:"machine"`
	Pot     string           `json:"pot"`
	Result  mixing.MixResult `json:"result"`
}

// Store writes and reads mix history
type Store struct {
	db     DB
	logger *slog.Logger
}

// NewStore creates a history store
func NewStore(db DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// EnsureSchema creates the table when it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.db.Migrate(ctx, schemaLockID, schema...); err != nil {
		return fmt.Errorf("failed to create mix_results schema: %w", err)
	}
	return nil
}

// Record stores a finished mix. Recording the same result twice is a no-op.
func (s *Store) Record(ctx context.Context, e Entry) error {
	query := `
		INSERT INTO mix_results (
			id, hall, machine, pot, color,
			ingredient_names, ingredient_colors, ingredient_textures,
			base_seconds, effective_seconds, started_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`

	r := e.Result
	names := make([]string, len(r.Ingredients))
	colors := make([]string, len(r.Ingredients))
	textures := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		names[i] = ing.Name
		colors[i] = ing.Color.String()
		textures[i] = string(ing.Texture)
	}

	_, err := s.db.Exec(ctx, query,
		r.ID.String(),
		e.Hall,
		e.Machine,
		e.Pot,
		r.Color.String(),
		pq.Array(names),
		pq.Array(colors),
		pq.Array(textures),
		r.BaseSeconds,
		r.EffectiveSeconds,
		r.StartedAt,
		r.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert mix result %s: %w", r.ID, err)
	}

	s.logger.Debug("Mix result recorded", "id", r.ID, "hall", e.Hall, "color", r.Color.String())
	return nil
}

// Recent returns up to limit results, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, hall, machine, pot, color,
		       ingredient_names, ingredient_colors, ingredient_textures,
		       base_seconds, effective_seconds, started_at, completed_at
		FROM mix_results
		ORDER BY completed_at DESC
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query mix results: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                       Entry
			id, mixed               string
			names, colors, textures []string
			startedAt, completedAt  time.Time
		)
		if err := rows.Scan(&id, &e.Hall, &e.Machine, &e.Pot, &mixed,
			pq.Array(&names), pq.Array(&colors), pq.Array(&textures),
			&e.Result.BaseSeconds, &e.Result.EffectiveSeconds, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mix result: %w", err)
		}

		if e.Result.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid mix result id %q: %w", id, err)
		}
		if e.Result.Color, err = color.ParseRGB(mixed); err != nil {
			return nil, fmt.Errorf("mix result %s: %w", id, err)
		}
		e.Result.Ingredients, err = snapshots(names, colors, textures)
		if err != nil {
			return nil, fmt.Errorf("mix result %s: %w", id, err)
		}
		e.Result.StartedAt = startedAt
		e.Result.CompletedAt = completedAt
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mix results: %w", err)
	}
	return entries, nil
}

func snapshots(names, colors, textures []string) ([]mixing.IngredientSnapshot, error) {
	if len(names) != len(colors) || len(names) != len(textures) {
		return nil, fmt.Errorf("ingredient arrays differ in length: %d/%d/%d", len(names), len(colors), len(textures))
	}
	out := make([]mixing.IngredientSnapshot, len(names))
	for i := range names {
		c, err := color.ParseRGB(colors[i])
		if err != nil {
			return nil, err
		}
		out[i] = mixing.IngredientSnapshot{Name: names[i], Color: c, Texture: paint.Texture(textures[i])}
	}
	return out, nil
}
