package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/storage"
)

func TestNew_CreatesBaseDir(t *testing.T) {
	dir := t.TempDir() + "/root"
	s, err := New("file", dir)
	require.NoError(t, err)
	require.NotNil(t, s)

	exists, err := s.Exists(context.Background(), "/")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_BytesRoundTrip(t *testing.T) {
	s, err := New("file", t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.WriteBytes(ctx, "a/b.bin", []byte("payload"), false))

	data, err := s.ReadBytes(ctx, "a/b.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestStore_TableCSVRoundTrip(t *testing.T) {
	s, err := New("file", t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	schema := graph.TableSchema{Fields: []graph.Field{
		{Name: "id", Type: graph.FieldInt},
		{Name: "val", Type: graph.FieldString},
	}}
	tbl := storage.Table{
		Schema: schema,
		Rows: []storage.Row{
			{"id": int64(1), "val": "x"},
			{"id": int64(2), "val": "y"},
		},
	}

	require.NoError(t, s.WriteTable(ctx, "t1.csv", "csv", tbl, nil, false))

	out, err := s.ReadTable(ctx, "t1.csv", "csv", schema, nil)
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, int64(1), out.Rows[0]["id"])
	assert.Equal(t, "x", out.Rows[0]["val"])
}

func TestStore_ReadMissing(t *testing.T) {
	s, err := New("file", t.TempDir())
	require.NoError(t, err)

	_, err = s.ReadBytes(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_WriteNoOverwrite(t *testing.T) {
	s, err := New("file", t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.WriteBytes(ctx, "f", []byte("1"), false))
	err = s.WriteBytes(ctx, "f", []byte("2"), false)
	require.Error(t, err)
}
