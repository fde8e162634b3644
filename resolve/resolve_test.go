package resolve_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/jobresult"
	"github.com/coreflow/coreflow/modelapi"
	"github.com/coreflow/coreflow/resolve"
	"github.com/coreflow/coreflow/storage"
	"github.com/coreflow/coreflow/storage/memory"
)

// fakeNodeContext is a flat map-backed NodeContext, enough to exercise one
// node function at a time without a full scheduler.
type fakeNodeContext struct {
	ns      *graph.Namespace
	results map[graph.NodeID]any
}

func newFakeNodeContext(ns *graph.Namespace) *fakeNodeContext {
	return &fakeNodeContext{ns: ns, results: make(map[graph.NodeID]any)}
}

func (f *fakeNodeContext) put(id graph.NodeID, v any) { f.results[id] = v }

func (f *fakeNodeContext) Lookup(id graph.NodeID) (any, error) {
	v, ok := f.results[id]
	if !ok {
		return nil, fmt.Errorf("node %s not available", id)
	}
	return v, nil
}

func (f *fakeNodeContext) Namespace() *graph.Namespace { return f.ns }

func (f *fakeNodeContext) Items() map[graph.NodeID]any { return f.results }

func TestResolve_StaticValueAndIdentity(t *testing.T) {
	ns := graph.RootNamespace("job1")
	r := resolve.New("job1", nil, nil, nil)

	valID := graph.NewNodeID("val", ns, graph.ResultValue)
	valNode := graph.NewNode(valID, graph.KindStaticValue, graph.StaticValuePayload{Value: 42})

	fn, err := r.Resolve(valNode)
	require.NoError(t, err)
	got, err := fn(context.Background(), newFakeNodeContext(ns))
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	idID := graph.NewNodeID("alias", ns, graph.ResultValue)
	idNode := graph.NewNode(idID, graph.KindIdentity, graph.IdentityPayload{Source: valID})
	idFn, err := r.Resolve(idNode)
	require.NoError(t, err)

	nc := newFakeNodeContext(ns)
	nc.put(valID, 42)
	got, err = idFn(context.Background(), nc)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestResolve_KeyedItem(t *testing.T) {
	ns := graph.RootNamespace("job1")
	r := resolve.New("job1", nil, nil, nil)

	bundleID := graph.NewNodeID("bundle", ns, graph.ResultObjectBundle)
	keyID := graph.NewNodeID("x", ns, graph.ResultValue)
	keyNode := graph.NewNode(keyID, graph.KindKeyedItem, graph.KeyedItemPayload{Source: bundleID, Key: "x"})

	fn, err := r.Resolve(keyNode)
	require.NoError(t, err)

	nc := newFakeNodeContext(ns)
	nc.put(bundleID, map[string]any{"x": "hello"})
	got, err := fn(context.Background(), nc)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	nc2 := newFakeNodeContext(ns)
	nc2.put(bundleID, map[string]any{"y": "nope"})
	_, err = fn(context.Background(), nc2)
	require.Error(t, err)
}

func TestResolve_LoadAndSaveData(t *testing.T) {
	ns := graph.RootNamespace("job1")
	store := memory.New("mem")
	reg := storage.NewRegistry("mem")
	reg.RegisterData(store)
	reg.RegisterFile(store)
	r := resolve.New("job1", nil, reg, nil)

	schema := graph.TableSchema{Fields: []graph.Field{{Name: "id", Type: graph.FieldInt}}}
	require.NoError(t, store.WriteTable(context.Background(), "in.csv", "csv",
		storage.Table{Schema: schema, Rows: []storage.Row{{"id": 1}}}, nil, true))

	specID := graph.NewNodeID("in:SPEC", ns, graph.ResultDataSpec)
	loadID := graph.NewNodeID("in:LOAD", ns, graph.ResultDataItem)
	loadNode := graph.NewNode(loadID, graph.KindLoadData, graph.LoadDataPayload{Spec: specID})

	fn, err := r.Resolve(loadNode)
	require.NoError(t, err)

	nc := newFakeNodeContext(ns)
	nc.put(specID, graph.DataSpec{Schema: schema, Path: "in.csv", Format: "csv", StorageKey: "mem"})
	got, err := fn(context.Background(), nc)
	require.NoError(t, err)
	tbl := got.(storage.Table)
	assert.Len(t, tbl.Rows, 1)

	outSpecID := graph.NewNodeID("out:SPEC", ns, graph.ResultDataSpec)
	itemID := graph.NewNodeID("out:ITEM", ns, graph.ResultDataItem)
	saveID := graph.NewNodeID("out:SAVE", ns, graph.ResultDataResult)
	saveNode := graph.NewNode(saveID, graph.KindSaveData, graph.SaveDataPayload{Spec: outSpecID, Item: itemID})

	saveFn, err := r.Resolve(saveNode)
	require.NoError(t, err)

	nc.put(outSpecID, graph.DataSpec{Schema: schema, Path: "out.csv", Format: "csv", StorageKey: "mem"})
	nc.put(itemID, tbl)
	result, err := saveFn(context.Background(), nc)
	require.NoError(t, err)
	def := result.(jobresult.ObjectDefinition)
	assert.Equal(t, "out.csv", def.Path)

	stored, err := store.ReadTable(context.Background(), "out.csv", "csv", schema, nil)
	require.NoError(t, err)
	assert.Len(t, stored.Rows, 1)
}

type echoModel struct{}

func (echoModel) Define() graph.ModelDef {
	return graph.ModelDef{
		Parameters: map[string]graph.ParamDef{"factor": {Type: "int"}},
		Inputs:     map[string]graph.IODef{"rows": {}},
		Outputs:    map[string]graph.IODef{"rows": {}},
	}
}

func (echoModel) RunModel(_ context.Context, rc modelapi.RunContext) error {
	tbl, err := rc.GetTable("rows")
	if err != nil {
		return err
	}
	return rc.PutTable("rows", tbl)
}

func TestResolve_RunModel(t *testing.T) {
	modelapi.Register("resolve_test.Echo", func() modelapi.Model { return echoModel{} })
	ns := graph.RootNamespace("job1")
	loader := modelapi.NewLocalLoader()
	require.NoError(t, loader.CreateScope("job1"))

	r := resolve.New("job1", loader, nil, nil)

	inputID := graph.NewNodeID("rows", ns, graph.ResultDataView)
	def := graph.ModelDef{
		EntryPoint: "resolve_test.Echo",
		Parameters: map[string]graph.ParamDef{},
		Inputs:     map[string]graph.IODef{"rows": {}},
		Outputs:    map[string]graph.IODef{"rows": {}},
	}
	modelID := graph.NewNodeID("Echo", ns, graph.ResultViewBundle)
	modelNode := graph.NewNode(modelID, graph.KindRunModel, graph.RunModelPayload{
		ModelScope: "job1",
		ModelDef:   def,
		ParamIDs:   map[string]graph.NodeID{},
		InputIDs:   map[string]graph.NodeID{"rows": inputID},
	})

	fn, err := r.Resolve(modelNode)
	require.NoError(t, err)

	nc := newFakeNodeContext(ns)
	nc.put(inputID, storage.Table{Rows: []storage.Row{{"id": 1}}})
	got, err := fn(context.Background(), nc)
	require.NoError(t, err)

	bundle := got.(map[string]any)
	tbl := bundle["rows"].(storage.Table)
	assert.Len(t, tbl.Rows, 1)
}

func TestResolve_UnregisteredRunModelFailsAtResolve(t *testing.T) {
	ns := graph.RootNamespace("job1")
	loader := modelapi.NewLocalLoader()
	r := resolve.New("job1", loader, nil, nil)

	modelID := graph.NewNodeID("Nope", ns, graph.ResultViewBundle)
	modelNode := graph.NewNode(modelID, graph.KindRunModel, graph.RunModelPayload{
		ModelDef: graph.ModelDef{EntryPoint: "nope.Model"},
	})

	_, err := r.Resolve(modelNode)
	require.Error(t, err)
}
