package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2kai2kai2/cartographer/internal/savegame"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var schema = []string{
	`DO $$ BEGIN
		CREATE TYPE game_type AS ENUM ('eu4', 'stellaris');
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,
	`CREATE TABLE IF NOT EXISTS games (
		game_id   BIGSERIAL PRIMARY KEY,
		server_id BIGINT,
		game_type game_type NOT NULL DEFAULT 'eu4'
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		game_id   BIGINT NOT NULL REFERENCES games(game_id) ON DELETE CASCADE,
		user_id   BIGINT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		tag       CHAR(3) NOT NULL,
		PRIMARY KEY (game_id, user_id),
		UNIQUE (game_id, tag)
	)`,
}

// Store persists games and reservations in PostgreSQL.
type Store struct {
	db  DB
	now func() time.Time
}

// NewStore creates a store over a pool or a single connection.
func NewStore(db DB) *Store {
	return &Store{db: db, now: time.Now}
}

// EnsureSchema creates the enum and tables if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure reservations schema: %w", err)
		}
	}
	return nil
}

// CreateGame opens a new reservation sheet.
func (s *Store) CreateGame(ctx context.Context, serverID *int64, game savegame.Game) (*Game, error) {
	if game != savegame.EU4 && game != savegame.Stellaris {
		return nil, fmt.Errorf("create game: unsupported game type %q", game)
	}
	g := &Game{ServerID: serverID, Type: game}
	err := s.db.QueryRow(ctx,
		`INSERT INTO games (server_id, game_type) VALUES ($1, $2::game_type) RETURNING game_id`,
		serverID, string(game),
	).Scan(&g.ID)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	log.Info().Int64("game", g.ID).Str("type", string(game)).Msg("Created reservation game")
	return g, nil
}

// GetGame loads a game by id.
func (s *Store) GetGame(ctx context.Context, gameID int64) (*Game, error) {
	g := &Game{ID: gameID}
	var gameType string
	err := s.db.QueryRow(ctx,
		`SELECT server_id, game_type::text FROM games WHERE game_id = $1`, gameID,
	).Scan(&g.ServerID, &gameType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get game %d: %w", gameID, ErrGameNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get game %d: %w", gameID, err)
	}
	g.Type = savegame.Game(gameType)
	return g, nil
}

// Reserve claims tag for the user and returns the game's reservations afterwards.
// The rules are checked against the current rows inside one transaction.
func (s *Store) Reserve(ctx context.Context, gameID, userID int64, tag string) ([]Reservation, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reserve: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkGame(ctx, tx, gameID); err != nil {
		return nil, err
	}
	current, err := list(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}

	tag, err = NormalizeTag(tag)
	if err != nil {
		return nil, err
	}
	r := Reservation{GameID: gameID, UserID: userID, Timestamp: s.now().UTC(), Tag: tag}
	if err := NewBook(current).Reserve(r); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reservations (game_id, user_id, timestamp, tag)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id, user_id) DO UPDATE SET
			timestamp = EXCLUDED.timestamp,
			tag = EXCLUDED.tag`,
		r.GameID, r.UserID, r.Timestamp, r.Tag,
	)
	if err != nil {
		return nil, tagConflict(err, r.Tag, "insert reservation")
	}

	after, err := list(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, tagConflict(err, r.Tag, "commit reserve")
	}

	log.Info().Int64("game", gameID).Int64("user", userID).Str("tag", r.Tag).Msg("Tag reserved")
	return after, nil
}

// uniqueViolation is the PostgreSQL error code for a broken UNIQUE constraint.
const uniqueViolation = "23505"

// tagConflict reports a concurrent claim that beat ours to UNIQUE (game_id, tag) as ErrTagTaken.
func tagConflict(err error, tag, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrTagTaken, tag)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func checkGame(ctx context.Context, tx pgx.Tx, gameID int64) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM games WHERE game_id = $1)`, gameID).Scan(&exists); err != nil {
		return fmt.Errorf("check game %d: %w", gameID, err)
	}
	if !exists {
		return fmt.Errorf("reserve in game %d: %w", gameID, ErrGameNotFound)
	}
	return nil
}

// Unreserve drops the user's reservation and returns what is left.
func (s *Store) Unreserve(ctx context.Context, gameID, userID int64) ([]Reservation, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin unreserve: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM reservations WHERE game_id = $1 AND user_id = $2`, gameID, userID)
	if err != nil {
		return nil, fmt.Errorf("delete reservation: %w", err)
	}
	after, err := list(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit unreserve: %w", err)
	}

	log.Info().Int64("game", gameID).Int64("user", userID).Int64("removed", tag.RowsAffected()).Msg("Reservation removed")
	return after, nil
}

// List returns a game's reservations ordered by timestamp.
func (s *Store) List(ctx context.Context, gameID int64) ([]Reservation, error) {
	return list(ctx, s.db, gameID)
}

// All returns every reservation, grouped by game.
func (s *Store) All(ctx context.Context) ([]Reservation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT game_id, user_id, timestamp, tag
		FROM reservations
		ORDER BY game_id, timestamp`)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	return scanReservations(rows)
}

// DeleteGame removes a game; its reservations go with it.
func (s *Store) DeleteGame(ctx context.Context, gameID int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM games WHERE game_id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("delete game %d: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete game %d: %w", gameID, ErrGameNotFound)
	}
	log.Info().Int64("game", gameID).Msg("Deleted reservation game")
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func list(ctx context.Context, q querier, gameID int64) ([]Reservation, error) {
	rows, err := q.Query(ctx, `
		SELECT game_id, user_id, timestamp, tag
		FROM reservations
		WHERE game_id = $1
		ORDER BY timestamp ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	return scanReservations(rows)
}

func scanReservations(rows pgx.Rows) ([]Reservation, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Reservation, error) {
		var r Reservation
		err := row.Scan(&r.GameID, &r.UserID, &r.Timestamp, &r.Tag)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan reservations: %w", err)
	}
	return out, nil
}
