package graphbuild_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/graphbuild"
	"github.com/coreflow/coreflow/jobdef"
)

func runModelSpec() jobdef.Spec {
	return jobdef.Spec{
		JobID: "job1",
		Type:  jobdef.JobRunModel,
		Target: jobdef.Selector{ObjectType: "MODEL", ObjectID: "model1"},
		Parameters: map[string]jobdef.Value{
			"factor": {Type: "int", Value: 2},
		},
		Inputs: map[string]jobdef.DataSelector{
			"rows": {Selector: jobdef.Selector{ObjectID: "data_in"}},
		},
		Outputs: map[string]jobdef.DataSelector{
			"result": {Selector: jobdef.Selector{ObjectID: "data_out"}},
		},
		Objects: map[string]jobdef.Object{
			"model1": {Type: "MODEL", ModelDef: &graph.ModelDef{
				EntryPoint: "test.Model",
				Parameters: map[string]graph.ParamDef{"factor": {Type: "int"}},
				Inputs:     map[string]graph.IODef{"rows": {}},
				Outputs:    map[string]graph.IODef{"result": {}},
			}},
			"data_in":  {Type: "DATA", DataDef: &jobdef.DataDef{StorageKey: "default"}},
			"data_out": {Type: "DATA", DataDef: &jobdef.DataDef{StorageKey: "default"}},
		},
	}
}

func TestBuild_RunModelJob(t *testing.T) {
	spec := runModelSpec()
	spec.Objects["data_in"] = jobdef.Object{Type: "DATA", DataDef: &jobdef.DataDef{StorageKey: "default"}}
	spec.Objects["data_out"] = jobdef.Object{Type: "DATA", DataDef: &jobdef.DataDef{StorageKey: "default"}}

	g, err := graphbuild.Build(spec, graphbuild.ResultSpec{})
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	order, err := g.TopoOrder()
	require.NoError(t, err)
	assert.NotEmpty(t, order)

	var sawRunModel, sawSaveData, sawBuildResult bool
	for _, n := range g.Nodes {
		switch n.Kind {
		case graph.KindRunModel:
			sawRunModel = true
		case graph.KindSaveData:
			sawSaveData = true
		case graph.KindBuildJobResult:
			sawBuildResult = true
		}
	}
	assert.True(t, sawRunModel)
	assert.True(t, sawSaveData)
	assert.True(t, sawBuildResult)
}

func TestBuild_RunModelJobWithSavedResult(t *testing.T) {
	spec := runModelSpec()
	spec.Objects["data_in"] = jobdef.Object{Type: "DATA", DataDef: &jobdef.DataDef{StorageKey: "default"}}
	spec.Objects["data_out"] = jobdef.Object{Type: "DATA", DataDef: &jobdef.DataDef{StorageKey: "default"}}

	g, err := graphbuild.Build(spec, graphbuild.ResultSpec{SaveResult: true, Dir: "/tmp/out", Format: "yaml"})
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	var sawSaveJobResult bool
	for _, n := range g.Nodes {
		if n.Kind == graph.KindSaveJobResult {
			sawSaveJobResult = true
		}
	}
	assert.True(t, sawSaveJobResult)
}

func TestBuild_UnsupportedJobType(t *testing.T) {
	spec := jobdef.Spec{JobID: "job1", Type: jobdef.JobRunFlow}
	_, err := graphbuild.Build(spec, graphbuild.ResultSpec{})
	require.Error(t, err)
}

func TestBuild_ImportModelJob(t *testing.T) {
	spec := jobdef.Spec{
		JobID:  "job2",
		Type:   jobdef.JobImportModel,
		Target: jobdef.Selector{ObjectID: "model1"},
		Objects: map[string]jobdef.Object{
			"model1": {Type: "MODEL", ModelDef: &graph.ModelDef{EntryPoint: "test.Model"}},
		},
	}

	g, err := graphbuild.Build(spec, graphbuild.ResultSpec{})
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	var sawImport bool
	for _, n := range g.Nodes {
		if n.Kind == graph.KindImportModel {
			sawImport = true
		}
	}
	assert.True(t, sawImport)
}
