package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/transcribe/store"
	storeredis "github.com/veldt-labs/transcribe/store/redis"
)

func newTestStore(t *testing.T, opts ...storeredis.Option) (*storeredis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return storeredis.New(client, opts...), mr
}

func TestRedis_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", []byte{0x01, 0x0a}))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x0a}, v)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRedis_KeysAreNamespaced(t *testing.T) {
	s, mr := newTestStore(t, storeredis.WithKeyPrefix("session42:"))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "trial", []byte("v")))
	assert.True(t, mr.Exists("session42:trial"))

	// Two prefixes over the same server do not collide.
	other := storeredis.New(
		goredis.NewClient(&goredis.Options{Addr: mr.Addr()}),
		storeredis.WithKeyPrefix("session43:"),
	)
	_, err := other.Get(ctx, "trial")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
