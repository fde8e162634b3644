package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreflow/coreflow/storage"
)

func TestStore_BytesRoundTrip(t *testing.T) {
	s, err := New(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.WriteBytes(ctx, "a/b", []byte("v1"), false))

	data, err := s.ReadBytes(ctx, "a/b")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)
}

func TestStore_WriteNoOverwrite(t *testing.T) {
	s, err := New(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.WriteBytes(ctx, "k", []byte("1"), false))
	err = s.WriteBytes(ctx, "k", []byte("2"), false)
	require.Error(t, err)
}

func TestStore_Ls(t *testing.T) {
	s, err := New(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.WriteBytes(ctx, "dir/a", []byte("1"), false))
	require.NoError(t, s.WriteBytes(ctx, "dir/b", []byte("2"), false))

	entries, err := s.Ls(ctx, "dir")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStore_ReadMissing(t *testing.T) {
	s, err := New(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.ReadBytes(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
