package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/storage"
)

func TestStore_TableRoundTrip(t *testing.T) {
	s, err := New(Options{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	schema := graph.TableSchema{Fields: []graph.Field{
		{Name: "id", Type: graph.FieldInt},
		{Name: "val", Type: graph.FieldString},
	}}
	tbl := storage.Table{
		Schema: schema,
		Rows: []storage.Row{
			{"id": float64(1), "val": "a"},
		},
	}

	require.NoError(t, s.WriteTable(ctx, "t1", "json", tbl, nil, false))

	out, err := s.ReadTable(ctx, "t1", "json", schema, nil)
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows, out.Rows)
}

func TestStore_WriteNoOverwrite(t *testing.T) {
	s, err := New(Options{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	tbl := storage.Table{Schema: graph.TableSchema{Fields: []graph.Field{{Name: "id", Type: graph.FieldInt}}}}
	require.NoError(t, s.WriteTable(ctx, "t1", "json", tbl, nil, false))

	err = s.WriteTable(ctx, "t1", "json", tbl, nil, false)
	require.Error(t, err)
}

func TestStore_ReadMissing(t *testing.T) {
	s, err := New(Options{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.ReadTable(context.Background(), "missing", "json", graph.TableSchema{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
