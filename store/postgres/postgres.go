// Package postgres provides a PostgreSQL-backed KV, for deployments
// that already keep durable per-session state in Postgres.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veldt-labs/transcribe/store"
)

// Store is a PostgreSQL-backed KV.
type Store struct {
	pool        *pgxpool.Pool
	tablePrefix string
}

var _ store.KV = (*Store)(nil)

// Option configures Store.
type Option func(*Store)

// WithTablePrefix sets the table name prefix (default "transcribe_").
func WithTablePrefix(prefix string) Option {
	return func(s *Store) { s.tablePrefix = prefix }
}

// New creates a new PostgreSQL-backed KV.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{
		pool:        pool,
		tablePrefix: "transcribe_",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) recordsTable() string { return s.tablePrefix + "records" }

// EnsureSchema creates the required table if it doesn't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	q := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`, s.recordsTable())
	if _, err := s.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("transcribe/postgres: ensure schema: %w", err)
	}
	return nil
}

// Get returns the value stored under key, or store.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.recordsTable()),
		key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("transcribe/postgres: get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`
			INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		`, s.recordsTable()),
		key, value,
	)
	if err != nil {
		return fmt.Errorf("transcribe/postgres: set %s: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.recordsTable()),
		key,
	)
	if err != nil {
		return fmt.Errorf("transcribe/postgres: delete %s: %w", key, err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
