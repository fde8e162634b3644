package modelapi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/modelapi"
	"github.com/coreflow/coreflow/storage"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func TestLocalRunContext_ParameterAndTables(t *testing.T) {
	def := graph.ModelDef{
		Parameters: map[string]graph.ParamDef{"factor": {Type: "int"}},
		Inputs:     map[string]graph.IODef{"rows": {}},
		Outputs:    map[string]graph.IODef{"rows": {}},
	}
	inputs := map[string]storage.Table{
		"rows": {Rows: []storage.Row{{"id": 1}}},
	}
	ctx := modelapi.NewLocalRunContext(def, map[string]any{"factor": 2}, inputs, nopLogger{})

	v, err := ctx.GetParameter("factor")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	tbl, err := ctx.GetTable("rows")
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 1)

	require.NoError(t, ctx.PutTable("rows", storage.Table{Rows: []storage.Row{{"id": 2}}}))
	assert.Contains(t, ctx.Outputs(), "rows")
}

func TestLocalRunContext_UnknownParameter(t *testing.T) {
	ctx := modelapi.NewLocalRunContext(graph.ModelDef{}, nil, nil, nopLogger{})
	_, err := ctx.GetParameter("missing")
	require.Error(t, err)
}

func TestLocalRunContext_DuplicateOutput(t *testing.T) {
	def := graph.ModelDef{Outputs: map[string]graph.IODef{"rows": {}}}
	ctx := modelapi.NewLocalRunContext(def, nil, nil, nopLogger{})
	require.NoError(t, ctx.PutTable("rows", storage.Table{}))
	err := ctx.PutTable("rows", storage.Table{})
	require.Error(t, err)
}

func TestLocalRunContext_MissingRequiredInput(t *testing.T) {
	def := graph.ModelDef{Inputs: map[string]graph.IODef{"rows": {}}}
	ctx := modelapi.NewLocalRunContext(def, nil, nil, nopLogger{})
	_, err := ctx.GetTable("rows")
	require.Error(t, err)
}
