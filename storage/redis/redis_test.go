package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreflow/coreflow/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return WithClient(client, "redis", "coreflow:", 0)
}

func TestStore_BytesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteBytes(ctx, "out/result.bin", []byte("data"), false))

	data, err := s.ReadBytes(ctx, "out/result.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
}

func TestStore_WriteNoOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteBytes(ctx, "k", []byte("1"), false))

	err := s.WriteBytes(ctx, "k", []byte("2"), false)
	require.Error(t, err)
}

func TestStore_Ls(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteBytes(ctx, "dir/a", []byte("1"), false))
	require.NoError(t, s.WriteBytes(ctx, "dir/b", []byte("2"), false))
	require.NoError(t, s.WriteBytes(ctx, "other/c", []byte("3"), false))

	entries, err := s.Ls(ctx, "dir")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStore_ReadMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ReadBytes(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
