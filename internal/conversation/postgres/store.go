// Package postgres persists Aura chat history in PostgreSQL.
//
// Every [Store.Save] writes a new snapshot: one chat_sessions row keyed by a
// random UUID and one chat_turns row per turn. [Store.Load] reads the most
// recent snapshot, so earlier sessions stay queryable for auditing.
//
//	store, err := postgres.NewStore(ctx, dsn)
//	turns, err := store.Load(ctx)
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/aura/internal/conversation"
)

var _ conversation.Store = (*Store)(nil)

const ddl = `
CREATE TABLE IF NOT EXISTS chat_sessions (
    id        UUID         PRIMARY KEY,
    saved_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_chat_sessions_saved_at
    ON chat_sessions (saved_at DESC);

CREATE TABLE IF NOT EXISTS chat_turns (
    session_id  UUID     NOT NULL REFERENCES chat_sessions (id) ON DELETE CASCADE,
    position    INTEGER  NOT NULL,
    role        TEXT     NOT NULL,
    content     TEXT     NOT NULL,
    PRIMARY KEY (session_id, position)
);
`

// Store implements conversation.Store on a pgx connection pool. All methods
// are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to dsn, verifies the connection, and creates the tables
// when they do not exist yet.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres history: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres history: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Migrate creates the history tables. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres history: migrate: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// Ping reports whether the database is reachable. Used by the readiness check.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Load implements conversation.Store.
func (s *Store) Load(ctx context.Context) ([]conversation.Turn, error) {
	const latest = `SELECT id FROM chat_sessions ORDER BY saved_at DESC LIMIT 1`

	var id uuid.UUID
	err := s.pool.QueryRow(ctx, latest).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return []conversation.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres history: find latest session: %w", err)
	}
	return s.LoadSession(ctx, id)
}

// LoadSession returns the turns of one saved snapshot.
func (s *Store) LoadSession(ctx context.Context, id uuid.UUID) ([]conversation.Turn, error) {
	const q = `
		SELECT role, content
		FROM   chat_turns
		WHERE  session_id = $1
		ORDER  BY position`

	rows, err := s.pool.Query(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("postgres history: load session %s: %w", id, err)
	}
	turns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (conversation.Turn, error) {
		var t conversation.Turn
		err := row.Scan(&t.Role, &t.Content)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres history: scan turns: %w", err)
	}
	if turns == nil {
		turns = []conversation.Turn{}
	}
	return turns, nil
}

// Save implements conversation.Store. The snapshot is written in a single
// transaction.
func (s *Store) Save(ctx context.Context, turns []conversation.Turn) error {
	_, err := s.SaveSession(ctx, turns)
	return err
}

// SaveSession writes turns as a new snapshot and returns its ID.
func (s *Store) SaveSession(ctx context.Context, turns []conversation.Turn) (uuid.UUID, error) {
	id := uuid.New()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("postgres history: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO chat_sessions (id) VALUES ($1)`, id); err != nil {
		return uuid.Nil, fmt.Errorf("postgres history: insert session: %w", err)
	}
	if len(turns) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"chat_turns"},
			[]string{"session_id", "position", "role", "content"},
			pgx.CopyFromSlice(len(turns), func(i int) ([]any, error) {
				return []any{id, i, turns[i].Role, turns[i].Content}, nil
			}),
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("postgres history: copy turns: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("postgres history: commit: %w", err)
	}
	return id, nil
}
