// Package graphbuild lowers a job specification into the typed dataflow
// graph the engine schedules. Each job gets its own root namespace; a
// calculation job pushes a fresh sub-context, wires parameters and inputs,
// runs the target model, then wires outputs and pops back out, mirroring
// the push/exec/pop shape used for every nested execution scope.
package graphbuild

import (
	"fmt"
	"strings"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/jobdef"
)

// ResultSpec controls whether and how the job's final result is persisted.
type ResultSpec struct {
	SaveResult bool
	Dir        string
	Format     string
}

// Build lowers spec into a complete, validated graph ready for the engine.
func Build(spec jobdef.Spec, resultSpec ResultSpec) (*graph.Graph, error) {
	switch spec.Type {
	case jobdef.JobImportModel:
		return buildImportModelJob(spec, resultSpec)
	case jobdef.JobRunModel:
		return buildCalculationJob(spec, resultSpec)
	default:
		return nil, fmt.Errorf("graphbuild: job type %s not supported", spec.Type)
	}
}

func buildImportModelJob(spec jobdef.Spec, resultSpec ResultSpec) (*graph.Graph, error) {
	ns := graph.RootNamespace(spec.JobID)

	obj, ok := spec.Objects[spec.Target.ObjectID]
	if !ok || obj.Type != "MODEL" || obj.ModelDef == nil {
		return nil, fmt.Errorf("graphbuild: import target %s is not a model definition", spec.Target.ObjectID)
	}

	g := graph.NewGraph(graph.NewNodeID("", ns, graph.ResultNone))

	pushID, pushNodes := buildContextPush(ns, nil, nil)
	for _, n := range pushNodes {
		g.Add(n)
	}

	importID := graph.NewNodeID("trac_import_model", ns, graph.ResultModelDef)
	importNode := graph.NewNode(importID, graph.KindImportModel, graph.ImportModelPayload{
		ModelScope: spec.JobID,
		Import: graph.ModelImport{
			EntryPoint: obj.ModelDef.EntryPoint,
		},
	}).Depend(pushID, graph.DepHard)
	g.Add(importNode)

	buildResultID := graph.NewNodeID("trac_build_result", ns, graph.ResultJobResult)
	buildResultNode := graph.NewNode(buildResultID, graph.KindBuildJobResult, graph.BuildJobResultPayload{
		JobID:     spec.JobID,
		ResultIDs: map[string]graph.NodeID{},
		ExtraIDs:  []graph.NodeID{importID},
	}).Depend(importID, graph.DepHard)
	g.Add(buildResultNode)

	finalID := buildResultID
	if resultSpec.SaveResult {
		saveID := graph.NewNodeID("trac_save_result", ns, graph.ResultNone)
		saveNode := graph.NewNode(saveID, graph.KindSaveJobResult, graph.SaveJobResultPayload{
			Result: buildResultID, Dir: resultSpec.Dir, Format: resultSpec.Format,
		}).Depend(buildResultID, graph.DepHard)
		g.Add(saveNode)
		finalID = saveID
	}

	popID, popNodes := buildContextPop(ns, nil, finalID)
	for _, n := range popNodes {
		g.Add(n)
	}
	g.RootID = popID

	return g, g.Validate()
}

func buildCalculationJob(spec jobdef.Spec, resultSpec ResultSpec) (*graph.Graph, error) {
	ns := graph.RootNamespace(spec.JobID)
	g := graph.NewGraph(graph.NewNodeID("", ns, graph.ResultNone))

	pushID, pushNodes := buildContextPush(ns, nil, nil)
	for _, n := range pushNodes {
		g.Add(n)
	}

	paramRoot, err := buildJobParameters(g, spec, ns, pushID)
	if err != nil {
		return nil, err
	}

	inputRoot, err := buildJobInputs(g, spec, ns, paramRoot)
	if err != nil {
		return nil, err
	}

	obj, ok := spec.Objects[spec.Target.ObjectID]
	if !ok || obj.Type != "MODEL" || obj.ModelDef == nil {
		return nil, fmt.Errorf("graphbuild: run target %s is not a model definition", spec.Target.ObjectID)
	}
	modelID, err := buildModel(g, spec, ns, inputRoot, *obj.ModelDef)
	if err != nil {
		return nil, err
	}

	resultIDs, err := buildJobOutputs(g, spec, ns, modelID)
	if err != nil {
		return nil, err
	}

	buildResultID := graph.NewNodeID("trac_build_result", ns, graph.ResultJobResult)
	buildResultNode := graph.NewNode(buildResultID, graph.KindBuildJobResult, graph.BuildJobResultPayload{
		JobID:     spec.JobID,
		ResultIDs: resultIDs,
	}).Depend(modelID, graph.DepHard)
	for _, rid := range resultIDs {
		buildResultNode.Depend(rid, graph.DepHard)
	}
	g.Add(buildResultNode)

	finalID := buildResultID
	if resultSpec.SaveResult {
		saveID := graph.NewNodeID("trac_save_result", ns, graph.ResultNone)
		saveNode := graph.NewNode(saveID, graph.KindSaveJobResult, graph.SaveJobResultPayload{
			Result: buildResultID, Dir: resultSpec.Dir, Format: resultSpec.Format,
		}).Depend(buildResultID, graph.DepHard)
		g.Add(saveNode)
		finalID = saveID
	}

	popID, popNodes := buildContextPop(ns, nil, finalID)
	for _, n := range popNodes {
		g.Add(n)
	}
	g.RootID = popID

	return g, g.Validate()
}

// buildContextPush opens a namespace, remapping any outer node ids onto
// inner names via a KeyedItem marker per mapped entry (extracting that
// name from the push node's result), and returns the
// push node's id along with every node created. priorRoot is nil for the
// outermost push of a job, which has no dependencies of its own.
func buildContextPush(ns *graph.Namespace, mapping map[string]graph.NodeID, priorRoot *graph.NodeID) (graph.NodeID, map[graph.NodeID]*graph.Node) {
	pushID := graph.NewNodeID("trac_ctx_push", ns, graph.ResultObjectBundle)
	pushMapping := make(map[graph.NodeID]graph.NodeID, len(mapping))
	nodes := make(map[graph.NodeID]*graph.Node, len(mapping)+1)

	for name, outerID := range mapping {
		innerID := graph.NewNodeID(name, ns, outerID.ResultKind)
		pushMapping[innerID] = outerID
		marker := graph.NewNode(innerID, graph.KindKeyedItem, graph.KeyedItemPayload{Source: pushID, Key: name}).
			Depend(pushID, graph.DepHard)
		nodes[innerID] = marker
	}

	pushNode := graph.NewNode(pushID, graph.KindContextPush, graph.ContextPushPayload{
		Namespace: ns, Mapping: pushMapping,
	})
	if priorRoot != nil {
		pushNode.Depend(*priorRoot, graph.DepHard)
	}
	nodes[pushID] = pushNode

	return pushID, nodes
}

// buildContextPop closes a namespace, remapping inner ids back onto outer
// names.
func buildContextPop(ns *graph.Namespace, mapping map[string]graph.NodeID, priorRoot graph.NodeID) (graph.NodeID, map[graph.NodeID]*graph.Node) {
	outerNS := ns.Pop()
	popID := graph.NewNodeID("trac_ctx_pop", ns, graph.ResultObjectBundle)
	popMapping := make(map[graph.NodeID]graph.NodeID, len(mapping))
	nodes := make(map[graph.NodeID]*graph.Node, len(mapping)+1)

	for name, innerID := range mapping {
		outerID := graph.NewNodeID(name, outerNS, innerID.ResultKind)
		popMapping[outerID] = innerID
		marker := graph.NewNode(outerID, graph.KindKeyedItem, graph.KeyedItemPayload{Source: popID, Key: name}).
			Depend(popID, graph.DepHard)
		nodes[outerID] = marker
	}

	popNode := graph.NewNode(popID, graph.KindContextPop, graph.ContextPopPayload{
		Namespace: ns, Mapping: popMapping,
	}).Depend(priorRoot, graph.DepHard)
	nodes[popID] = popNode

	return popID, nodes
}

func buildJobParameters(g *graph.Graph, spec jobdef.Spec, ns *graph.Namespace, priorRoot graph.NodeID) (graph.NodeID, error) {
	if len(spec.Parameters) == 0 {
		return priorRoot, nil
	}

	bundle := make(map[string]any, len(spec.Parameters))
	for name, v := range spec.Parameters {
		bundle[name] = v.Value
	}

	paramsID := graph.NewNodeID("trac_job_params", ns, graph.ResultObjectBundle)
	paramsNode := graph.NewNode(paramsID, graph.KindStaticValue, graph.StaticValuePayload{Value: bundle}).
		Depend(priorRoot, graph.DepHard)
	g.Add(paramsNode)

	for name := range spec.Parameters {
		paramID := graph.NewNodeID(name, ns, graph.ResultValue)
		paramNode := graph.NewNode(paramID, graph.KindKeyedItem, graph.KeyedItemPayload{
			Source: paramsID, Key: name,
		}).Depend(paramsID, graph.DepHard)
		g.Add(paramNode)
	}

	return priorRoot, nil
}

func buildJobInputs(g *graph.Graph, spec jobdef.Spec, ns *graph.Namespace, priorRoot graph.NodeID) (graph.NodeID, error) {
	for inputName, sel := range spec.Inputs {
		dataDef, storageKey, err := resolveDataDef(spec, sel)
		if err != nil {
			return priorRoot, fmt.Errorf("graphbuild: input %s: %w", inputName, err)
		}

		specID := graph.NewNodeID(inputName+":SPEC", ns, graph.ResultDataSpec)
		specNode := graph.NewNode(specID, graph.KindStaticValue, graph.StaticValuePayload{
			Value: graph.DataSpec{Schema: dataDef.Schema, Path: dataDef.Path, Format: dataDef.Format, StorageKey: storageKey},
		}).Depend(priorRoot, graph.DepHard)
		g.Add(specNode)

		loadID := graph.NewNodeID(inputName+":LOAD", ns, graph.ResultDataItem)
		loadNode := graph.NewNode(loadID, graph.KindLoadData, graph.LoadDataPayload{Spec: specID}).
			Depend(specID, graph.DepHard)
		g.Add(loadNode)

		viewID := graph.NewNodeID(inputName, ns, graph.ResultDataView)
		viewNode := graph.NewNode(viewID, graph.KindDataView, graph.DataViewPayload{
			Schema: dataDef.Schema, Root: loadID,
		}).Depend(loadID, graph.DepHard)
		g.Add(viewNode)
	}

	return priorRoot, nil
}

func resolveDataDef(spec jobdef.Spec, sel jobdef.DataSelector) (*jobdef.DataDef, string, error) {
	obj, ok := spec.Objects[sel.Selector.ObjectID]
	if !ok || obj.DataDef == nil {
		return nil, "", fmt.Errorf("data object %s not found", sel.Selector.ObjectID)
	}
	storageKey := obj.DataDef.StorageKey
	if storageKey == "" {
		storageKey = sel.StorageKey
	}
	// A data object without a Path is stored under its object id.
	def := *obj.DataDef
	if def.Path == "" {
		def.Path = sel.Selector.ObjectID
	}
	return &def, storageKey, nil
}

func buildModel(g *graph.Graph, spec jobdef.Spec, ns *graph.Namespace, priorRoot graph.NodeID, def graph.ModelDef) (graph.NodeID, error) {
	paramIDs := make(map[string]graph.NodeID, len(def.Parameters))
	for name := range def.Parameters {
		paramIDs[name] = graph.NewNodeID(name, ns, graph.ResultValue)
	}
	inputIDs := make(map[string]graph.NodeID, len(def.Inputs))
	for name := range def.Inputs {
		inputIDs[name] = graph.NewNodeID(name, ns, graph.ResultDataView)
	}

	modelName := entryPointName(def.EntryPoint)
	modelID := graph.NewNodeID(modelName, ns, graph.ResultViewBundle)
	modelNode := graph.NewNode(modelID, graph.KindRunModel, graph.RunModelPayload{
		ModelScope: spec.JobID,
		ModelDef:   def,
		ParamIDs:   paramIDs,
		InputIDs:   inputIDs,
	}).Depend(priorRoot, graph.DepHard)
	for _, id := range paramIDs {
		modelNode.Depend(id, graph.DepHard)
	}
	for _, id := range inputIDs {
		modelNode.Depend(id, graph.DepHard)
	}
	g.Add(modelNode)

	for outputName := range def.Outputs {
		outputID := graph.NewNodeID(outputName, ns, graph.ResultDataView)
		outputNode := graph.NewNode(outputID, graph.KindKeyedItem, graph.KeyedItemPayload{
			Source: modelID, Key: outputName,
		}).Depend(modelID, graph.DepHard)
		g.Add(outputNode)
	}

	return modelID, nil
}

func entryPointName(entryPoint string) string {
	parts := strings.Split(entryPoint, ".")
	return parts[len(parts)-1]
}

func buildJobOutputs(g *graph.Graph, spec jobdef.Spec, ns *graph.Namespace, modelID graph.NodeID) (map[string]graph.NodeID, error) {
	resultIDs := make(map[string]graph.NodeID, len(spec.Outputs))

	for outputName, sel := range spec.Outputs {
		viewID := graph.NewNodeID(outputName, ns, graph.ResultDataView)

		specID := graph.NewNodeID(outputName+":SPEC", ns, graph.ResultDataSpec)
		var specNode *graph.Node
		if sel.DynamicAlloc {
			specNode = graph.NewNode(specID, graph.KindDynamicDataSpec, graph.DynamicDataSpecPayload{
				View:       viewID,
				StorageKey: sel.StorageKey,
			}).Depend(viewID, graph.DepHard)
		} else {
			dataDef, storageKey, err := resolveDataDef(spec, sel)
			if err != nil {
				return nil, fmt.Errorf("graphbuild: output %s: %w", outputName, err)
			}
			specNode = graph.NewNode(specID, graph.KindStaticValue, graph.StaticValuePayload{
				Value: graph.DataSpec{Schema: dataDef.Schema, Path: dataDef.Path, Format: dataDef.Format, StorageKey: storageKey},
			}).Depend(viewID, graph.DepHard)
		}
		g.Add(specNode)

		itemID := graph.NewNodeID(outputName+":ITEM", ns, graph.ResultDataItem)
		itemNode := graph.NewNode(itemID, graph.KindDataItem, graph.DataItemPayload{View: viewID}).
			Depend(viewID, graph.DepHard)
		g.Add(itemNode)

		saveID := graph.NewNodeID(outputName+":SAVE", ns, graph.ResultDataResult)
		saveNode := graph.NewNode(saveID, graph.KindSaveData, graph.SaveDataPayload{
			Spec: specID, Item: itemID,
		}).Depend(specID, graph.DepHard).Depend(itemID, graph.DepHard)
		g.Add(saveNode)

		resultIDs[outputName] = saveID
	}

	return resultIDs, nil
}
