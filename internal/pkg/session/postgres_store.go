// internal/pkg/session/postgres_store.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps session slots in a table so sessions survive a Redis
// flush. It is normally wrapped behind a FallbackStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the backing table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS gateway_sessions (
			sid        TEXT        NOT NULL,
			slot       TEXT        NOT NULL,
			value      TEXT        NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (sid, slot)
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure session schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, sid, slot string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM gateway_sessions
		 WHERE sid = $1 AND slot = $2 AND expires_at > now()`,
		sid, slot).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session slot: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, sid, slot, value string, ttl time.Duration) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO gateway_sessions (sid, slot, value, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (sid, slot)
		 DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		sid, slot, value, time.Now().Add(ttl))
	if err != nil {
		return fmt.Errorf("failed to write session slot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, sid string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM gateway_sessions WHERE sid = $1`, sid)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
