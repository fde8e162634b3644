package resolve

import (
	"context"
	"fmt"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/modelapi"
	"github.com/coreflow/coreflow/storage"
)

func (r *Resolver) importModelFunc(n *graph.Node) NodeFunction {
	p := n.Payload.(graph.ImportModelPayload)
	return func(_ context.Context, nc NodeContext) (any, error) {
		stub := graph.ModelDef{EntryPoint: p.Import.EntryPoint}

		class, err := r.models.LoadModelClass(p.ModelScope, stub)
		if err != nil {
			return nil, fmt.Errorf("resolve: ImportModel: %w", err)
		}
		def, err := r.models.ScanModel(p.ModelScope, p.Import.EntryPoint, class)
		if err != nil {
			return nil, fmt.Errorf("resolve: ImportModel scan: %w", err)
		}
		return def, nil
	}
}

// runModelFunc eagerly loads the model class at resolve time, matching the
// function resolver loading it before the node ever runs: a model that
// cannot be loaded fails fast during graph preparation, not mid-execution.
func (r *Resolver) runModelFunc(n *graph.Node) (NodeFunction, error) {
	p := n.Payload.(graph.RunModelPayload)

	class, err := r.models.LoadModelClass(p.ModelScope, p.ModelDef)
	if err != nil {
		return nil, fmt.Errorf("resolve: RunModel: %w", err)
	}
	model := class.New()

	return func(ctx context.Context, nc NodeContext) (any, error) {
		params := make(map[string]any, len(p.ParamIDs))
		for name, id := range p.ParamIDs {
			v, err := nc.Lookup(id)
			if err != nil {
				return nil, err
			}
			params[name] = v
		}

		inputs := make(map[string]storage.Table, len(p.InputIDs))
		for name, id := range p.InputIDs {
			v, err := nc.Lookup(id)
			if err != nil {
				return nil, err
			}
			tbl, ok := v.(storage.Table)
			if !ok {
				return nil, fmt.Errorf("resolve: RunModel input %s is not a table", id)
			}
			inputs[name] = tbl
		}

		rc := modelapi.NewLocalRunContext(p.ModelDef, params, inputs, r.logger)

		if err := model.RunModel(ctx, rc); err != nil {
			return nil, fmt.Errorf("resolve: model execution failed: %w", err)
		}

		outputs := make(map[string]any, len(p.ModelDef.Outputs))
		for name, tbl := range rc.Outputs() {
			outputs[name] = tbl
		}
		for name, def := range p.ModelDef.Outputs {
			if _, ok := outputs[name]; ok {
				continue
			}
			if def.Optional {
				outputs[name] = storage.Table{}
				continue
			}
			return nil, fmt.Errorf("resolve: model did not produce declared output %q", name)
		}

		return outputs, nil
	}, nil
}
