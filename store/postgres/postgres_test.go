//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veldt-labs/transcribe/store"
	storepg "github.com/veldt-labs/transcribe/store/postgres"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "postgres://localhost:5432/transcribe_test?sslmode=disable"
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("pgxpool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		t.Fatalf("postgres not available: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func newTestStore(t *testing.T, pool *pgxpool.Pool) *storepg.Store {
	t.Helper()
	// Use a unique prefix per test to avoid collisions.
	prefix := fmt.Sprintf("test_%s_", t.Name())
	s := storepg.New(pool, storepg.WithTablePrefix(prefix))
	ctx := context.Background()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %srecords", prefix))
	})
	return s
}

func TestRoundTrip(t *testing.T) {
	pool := newTestPool(t)
	s := newTestStore(t, pool)
	ctx := context.Background()

	if _, err := s.Get(ctx, "k"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, "k", []byte{0x01, 0x0a}); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(v) != string([]byte{0x01, 0x0a}) {
		t.Fatalf("unexpected value %v", v)
	}

	// Overwrite.
	if err := s.Set(ctx, "k", []byte("replaced")); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err = s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(v) != "replaced" {
		t.Fatalf("unexpected value %q", v)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
