package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreflow/coreflow/storage"
	"github.com/coreflow/coreflow/storage/memory"
)

func TestRegistry_ResolvesByKey(t *testing.T) {
	reg := storage.NewRegistry("mem")
	m := memory.New("mem")
	reg.RegisterFile(m)
	reg.RegisterData(m)

	fs, err := reg.GetFileStorage("mem")
	require.NoError(t, err)
	assert.NotNil(t, fs)

	ds, err := reg.GetDataStorage("mem")
	require.NoError(t, err)
	assert.NotNil(t, ds)

	assert.Equal(t, "mem", reg.DefaultStorageKey())
	assert.Equal(t, "csv", reg.DefaultStorageFormat())
}

func TestRegistry_UnknownKey(t *testing.T) {
	reg := storage.NewRegistry("mem")
	_, err := reg.GetFileStorage("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
