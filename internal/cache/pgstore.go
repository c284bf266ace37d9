package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/2kai2kai2/cartographer/internal/gamedate"
	"github.com/2kai2kai2/cartographer/internal/history"
	"github.com/2kai2kai2/cartographer/internal/savegame"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool and pgx.Tx the stores use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const timelineSchema = `
CREATE TABLE IF NOT EXISTS timeline_cache (
	hash       TEXT PRIMARY KEY,
	game       TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date   TEXT NOT NULL,
	encoding   TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PGStore keeps encoded timelines in the timeline_cache table.
type PGStore struct {
	db DBTX
}

// NewPGStore creates a timeline store over db.
func NewPGStore(db DBTX) *PGStore {
	return &PGStore{db: db}
}

// EnsureSchema creates the timeline_cache table if it does not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, timelineSchema); err != nil {
		return fmt.Errorf("create timeline_cache: %w", err)
	}
	return nil
}

// Load fetches the timeline stored under hash. A miss is not an error.
func (s *PGStore) Load(ctx context.Context, hash string) (*history.Serialized, bool, error) {
	var game, start, end string
	out := &history.Serialized{}
	err := s.db.QueryRow(ctx,
		`SELECT game, start_date, end_date, encoding, payload FROM timeline_cache WHERE hash = $1`,
		hash,
	).Scan(&game, &start, &end, &out.Encoding, &out.Payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load timeline: %w", err)
	}

	out.Game = savegame.Game(game)
	if out.StartDate, err = gamedate.Parse(start); err != nil {
		return nil, false, fmt.Errorf("load timeline start date: %w", err)
	}
	if out.EndDate, err = gamedate.Parse(end); err != nil {
		return nil, false, fmt.Errorf("load timeline end date: %w", err)
	}
	return out, true, nil
}

// Save stores t under hash, replacing any earlier entry.
func (s *PGStore) Save(ctx context.Context, hash string, t *history.Serialized) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO timeline_cache (hash, game, start_date, end_date, encoding, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (hash) DO UPDATE SET
			encoding = EXCLUDED.encoding,
			payload = EXCLUDED.payload`,
		hash, string(t.Game), t.StartDate.String(), t.EndDate.String(), t.Encoding, t.Payload,
	)
	if err != nil {
		return fmt.Errorf("save timeline: %w", err)
	}
	return nil
}

// Prune drops all but the newest keep entries.
func (s *PGStore) Prune(ctx context.Context, keep int) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM timeline_cache WHERE hash NOT IN (
			SELECT hash FROM timeline_cache ORDER BY created_at DESC LIMIT $1
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune timeline cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
