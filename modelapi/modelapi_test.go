package modelapi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/modelapi"
)

type identityModel struct{}

func (identityModel) Define() graph.ModelDef {
	return graph.ModelDef{
		Inputs:  map[string]graph.IODef{"rows": {}},
		Outputs: map[string]graph.IODef{"rows": {}},
	}
}

func (identityModel) RunModel(context.Context, modelapi.RunContext) error { return nil }

func TestLocalLoader_LoadUnregistered(t *testing.T) {
	loader := modelapi.NewLocalLoader()
	_, err := loader.LoadModelClass("job1", graph.ModelDef{EntryPoint: "nope.Model"})
	require.Error(t, err)

	var loadErr *modelapi.LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestLocalLoader_RegisterAndLoad(t *testing.T) {
	modelapi.Register("test.identity", func() modelapi.Model { return identityModel{} })

	loader := modelapi.NewLocalLoader()
	require.NoError(t, loader.CreateScope("job1"))
	defer loader.DestroyScope("job1")

	cls, err := loader.LoadModelClass("job1", graph.ModelDef{EntryPoint: "test.identity"})
	require.NoError(t, err)
	assert.Equal(t, "test.identity", cls.EntryPoint)

	def, err := loader.ScanModel("job1", "test.identity", cls)
	require.NoError(t, err)
	assert.Contains(t, def.Inputs, "rows")
}
