package engine

import (
	"fmt"
	"reflect"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/jobresult"
	"github.com/coreflow/coreflow/modelapi"
	"github.com/coreflow/coreflow/storage"
)

// checkResultKind verifies a node's produced value against the ResultKind
// declared on its NodeID, the single validation path spec.md's design
// notes ask for in place of the original's inconsistent per-callsite type
// checks. ResultAny and ResultValue accept anything, since StaticValue
// payloads are themselves caller-supplied values of unknown static shape.
func checkResultKind(kind graph.ResultKind, v any) error {
	switch kind {
	case graph.ResultAny, graph.ResultValue:
		return nil
	case graph.ResultNone:
		if v != nil {
			return fmt.Errorf("engine: expected no result, got %T", v)
		}
		return nil
	case graph.ResultDataSpec:
		return typeCheck[graph.DataSpec](kind, v)
	case graph.ResultDataView, graph.ResultDataItem:
		return typeCheck[storage.Table](kind, v)
	case graph.ResultDataResult:
		return typeCheck[jobresult.ObjectDefinition](kind, v)
	case graph.ResultModelDef:
		return typeCheck[graph.ModelDef](kind, v)
	case graph.ResultModelClass:
		return typeCheck[modelapi.Class](kind, v)
	case graph.ResultViewBundle, graph.ResultObjectBundle:
		// Bundle-kind nodes are produced either as map[string]any (RunModel
		// outputs) or as a more concretely typed map carried straight
		// through from a StaticValue payload (e.g. job parameters); any map
		// shape satisfies the "bundle" contract, since KeyedItem extraction
		// indexes it by string key regardless of the value type.
		if v == nil || reflect.ValueOf(v).Kind() != reflect.Map {
			return fmt.Errorf("engine: result kind %s expects a map, got %T", kind, v)
		}
		return nil
	case graph.ResultJobResult:
		return typeCheck[jobresult.Result](kind, v)
	default:
		return nil
	}
}

func typeCheck[T any](kind graph.ResultKind, v any) error {
	if _, ok := v.(T); !ok {
		return fmt.Errorf("engine: result kind %s expects %T, got %T", kind, *new(T), v)
	}
	return nil
}
