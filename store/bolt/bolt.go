// Package bolt provides a bbolt-backed KV for single-file durable
// persistence without an external service.
package bolt

import (
	"context"
	"fmt"

	bbolt "go.etcd.io/bbolt"

	"github.com/veldt-labs/transcribe/store"
)

// Store is a bbolt-backed KV.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

var _ store.KV = (*Store)(nil)

// Option configures Store.
type Option func(*Store)

// WithBucket sets the bucket name (default "transcribe").
func WithBucket(name string) Option {
	return func(s *Store) { s.bucket = []byte(name) }
}

// Open opens (or creates) the database file at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("transcribe/bolt: open %s: %w", path, err)
	}

	s := &Store{
		db:     db,
		bucket: []byte("transcribe"),
	}
	for _, opt := range opts {
		opt(s)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("transcribe/bolt: create bucket: %w", err)
	}
	return s, nil
}

// Get returns the value stored under key, or store.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return store.ErrNotFound
		}
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("transcribe/bolt: set %s: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key.
func (s *Store) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("transcribe/bolt: delete %s: %w", key, err)
	}
	return nil
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}
