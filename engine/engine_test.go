package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreflow/coreflow/actor"
	"github.com/coreflow/coreflow/engine"
	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/graphbuild"
	"github.com/coreflow/coreflow/jobdef"
	"github.com/coreflow/coreflow/modelapi"
	"github.com/coreflow/coreflow/storage"
	"github.com/coreflow/coreflow/storage/memory"
)

type doubleModel struct{}

func (doubleModel) Define() graph.ModelDef {
	return graph.ModelDef{
		Parameters: map[string]graph.ParamDef{"factor": {Type: "int"}},
		Inputs:     map[string]graph.IODef{"rows": {}},
		Outputs:    map[string]graph.IODef{"result": {}},
	}
}

func (doubleModel) RunModel(_ context.Context, rc modelapi.RunContext) error {
	tbl, err := rc.GetTable("rows")
	if err != nil {
		return err
	}
	return rc.PutTable("result", tbl)
}

// optionalOutputModel declares one required and one optional output but
// only ever produces the required one (spec §8 scenario 5).
type optionalOutputModel struct{}

func (optionalOutputModel) Define() graph.ModelDef {
	return graph.ModelDef{
		Inputs: map[string]graph.IODef{"rows": {}},
		Outputs: map[string]graph.IODef{
			"result": {},
			"extra":  {Optional: true},
		},
	}
}

func (optionalOutputModel) RunModel(_ context.Context, rc modelapi.RunContext) error {
	tbl, err := rc.GetTable("rows")
	if err != nil {
		return err
	}
	return rc.PutTable("result", tbl)
}

type failingModel struct{}

func (failingModel) Define() graph.ModelDef {
	return graph.ModelDef{Inputs: map[string]graph.IODef{}, Outputs: map[string]graph.IODef{"result": {}}}
}

func (failingModel) RunModel(context.Context, modelapi.RunContext) error {
	return assert.AnError
}

func runModelSpec(jobID, entryPoint string) jobdef.Spec {
	return jobdef.Spec{
		JobID: jobID,
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
				EntryPoint: entryPoint,
				Parameters: map[string]graph.ParamDef{"factor": {Type: "int"}},
				Inputs:     map[string]graph.IODef{"rows": {}},
				Outputs:    map[string]graph.IODef{"result": {}},
			}},
			"data_in":  {Type: "DATA", DataDef: &jobdef.DataDef{StorageKey: "default"}},
			"data_out": {Type: "DATA", DataDef: &jobdef.DataDef{StorageKey: "default"}},
		},
	}
}

func newTestEngine(t *testing.T) (*actor.System, *engine.Engine) {
	t.Helper()

	store := memory.New("default")
	reg := storage.NewRegistry("default")
	reg.RegisterData(store)
	reg.RegisterFile(store)

	schema := graph.TableSchema{Fields: []graph.Field{{Name: "id", Type: graph.FieldInt}}}
	require.NoError(t, store.WriteTable(context.Background(), "data_in", "csv",
		storage.Table{Schema: schema, Rows: []storage.Row{{"id": 1}}}, nil, true))

	loader := modelapi.NewLocalLoader()
	sys := actor.New(nil)
	eng := engine.New(loader, reg, nil, graphbuild.ResultSpec{})
	require.NoError(t, eng.Attach(sys))

	return sys, eng
}

func runSystem(t *testing.T, sys *actor.System) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sys.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func TestEngine_RunModelJobSucceeds(t *testing.T) {
	modelapi.Register("engine_test.Double", func() modelapi.Model { return doubleModel{} })

	sys, eng := newTestEngine(t)
	stop := runSystem(t, sys)
	defer stop()

	eng.Submit("job1", runModelSpec("job1", "engine_test.Double"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := eng.Wait(ctx, "job1")
	require.NoError(t, err)
	require.True(t, result.Succeeded, "%v", result.Err)
}

func TestEngine_RunModelJobFails(t *testing.T) {
	modelapi.Register("engine_test.Failing", func() modelapi.Model { return failingModel{} })

	sys, eng := newTestEngine(t)
	stop := runSystem(t, sys)
	defer stop()

	spec := runModelSpec("job2", "engine_test.Failing")
	spec.Inputs = map[string]jobdef.DataSelector{}
	spec.Objects["model1"] = jobdef.Object{Type: "MODEL", ModelDef: &graph.ModelDef{
		EntryPoint: "engine_test.Failing",
		Outputs:    map[string]graph.IODef{"result": {}},
	}}

	eng.Submit("job2", spec)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := eng.Wait(ctx, "job2")
	require.NoError(t, err)
	assert.False(t, result.Succeeded)
	assert.Error(t, result.Err)
}

// TestEngine_OptionalOutputJobSucceeds covers spec §8 scenario 5: a model
// declares one required and one optional output and emits only the
// required one; the job still succeeds and only the produced output
// appears in the result map.
func TestEngine_OptionalOutputJobSucceeds(t *testing.T) {
	modelapi.Register("engine_test.OptionalOutput", func() modelapi.Model { return optionalOutputModel{} })

	sys, eng := newTestEngine(t)
	stop := runSystem(t, sys)
	defer stop()

	spec := jobdef.Spec{
		JobID:  "job3",
		Type:   jobdef.JobRunModel,
		Target: jobdef.Selector{ObjectType: "MODEL", ObjectID: "model1"},
		Inputs: map[string]jobdef.DataSelector{
			"rows": {Selector: jobdef.Selector{ObjectID: "data_in"}},
		},
		Outputs: map[string]jobdef.DataSelector{
			"result": {Selector: jobdef.Selector{ObjectID: "data_out"}},
		},
		Objects: map[string]jobdef.Object{
			"model1": {Type: "MODEL", ModelDef: &graph.ModelDef{
				EntryPoint: "engine_test.OptionalOutput",
				Inputs:     map[string]graph.IODef{"rows": {}},
				Outputs: map[string]graph.IODef{
					"result": {},
					"extra":  {Optional: true},
				},
			}},
			"data_in":  {Type: "DATA", DataDef: &jobdef.DataDef{StorageKey: "default"}},
			"data_out": {Type: "DATA", DataDef: &jobdef.DataDef{StorageKey: "default"}},
		},
	}

	eng.Submit("job3", spec)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := eng.Wait(ctx, "job3")
	require.NoError(t, err)
	require.True(t, result.Succeeded, "%v", result.Err)

	jobResult, err := result.Context.JobResult()
	require.NoError(t, err)
	_, hasResult := jobResult.Objects["result"]
	_, hasExtra := jobResult.Objects["extra"]
	assert.True(t, hasResult)
	assert.False(t, hasExtra)
}
