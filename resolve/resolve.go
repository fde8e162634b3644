// Package resolve maps a graph node onto an executable NodeFunction. Most
// node kinds resolve to a stateless function of the node's own payload;
// kinds that need a live resource (storage, a loaded model class) are
// resolved against the Resolver's job-scoped dependencies instead.
package resolve

import (
	"context"
	"fmt"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/jobresult"
	"github.com/coreflow/coreflow/log"
	"github.com/coreflow/coreflow/modelapi"
	"github.com/coreflow/coreflow/storage"
)

// NodeContext is the read-only view of sibling results a NodeFunction is
// given to evaluate one node. It is scoped to a single graph; lookups
// outside the graph are a caller bug, not a runtime condition.
type NodeContext interface {
	// Lookup returns the result of a dependency by id, or an error when
	// that node has no result. It does not check the result kind; the
	// scheduler checks that once, when the node completes.
	Lookup(id graph.NodeID) (any, error)
	// Namespace returns the namespace the node being evaluated lives in.
	Namespace() *graph.Namespace
	// Items returns every available result in the graph, keyed by node
	// id. No node function in this package calls it.
	Items() map[graph.NodeID]any
}

// NodeFunction is the executable behaviour behind one graph node.
type NodeFunction func(ctx context.Context, nc NodeContext) (any, error)

// Resolver maps nodes to functions. It is constructed once per job because
// RunModel resolution needs to eagerly load the model class, which in turn
// requires the job's model-loader scope to already exist.
type Resolver struct {
	models  modelapi.Loader
	storage *storage.Registry
	logger  log.Logger
	jobID   string
}

// New creates a resolver scoped to one job.
func New(jobID string, models modelapi.Loader, reg *storage.Registry, logger log.Logger) *Resolver {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Resolver{jobID: jobID, models: models, storage: reg, logger: logger}
}

// Resolve returns the NodeFunction for n, loading whatever external
// resource its kind requires.
func (r *Resolver) Resolve(n *graph.Node) (NodeFunction, error) {
	switch n.Kind {
	case graph.KindNoop, graph.KindBundleItem:
		return noopFunc, nil
	case graph.KindStaticValue:
		return staticValueFunc(n), nil
	case graph.KindIdentity:
		return identityFunc(n), nil
	case graph.KindKeyedItem:
		return keyedItemFunc(n), nil
	case graph.KindContextPush:
		return contextPushFunc(n), nil
	case graph.KindContextPop:
		return contextPopFunc(n), nil
	case graph.KindDataView:
		return dataViewFunc(n), nil
	case graph.KindDataItem:
		return dataItemFunc(n), nil
	case graph.KindBuildJobResult:
		return buildJobResultFunc(n), nil
	case graph.KindSaveJobResult:
		return r.saveJobResultFunc(n), nil
	case graph.KindLoadData:
		return r.loadDataFunc(n), nil
	case graph.KindSaveData:
		return r.saveDataFunc(n), nil
	case graph.KindDynamicDataSpec:
		return r.dynamicDataSpecFunc(n), nil
	case graph.KindImportModel:
		return r.importModelFunc(n), nil
	case graph.KindRunModel:
		return r.runModelFunc(n)
	default:
		return nil, fmt.Errorf("resolve: no function for node kind %s", n.Kind)
	}
}

func noopFunc(context.Context, NodeContext) (any, error) { return nil, nil }

func staticValueFunc(n *graph.Node) NodeFunction {
	p := n.Payload.(graph.StaticValuePayload)
	return func(context.Context, NodeContext) (any, error) {
		return p.Value, nil
	}
}

func identityFunc(n *graph.Node) NodeFunction {
	p := n.Payload.(graph.IdentityPayload)
	return func(_ context.Context, nc NodeContext) (any, error) {
		return nc.Lookup(p.Source)
	}
}

func keyedItemFunc(n *graph.Node) NodeFunction {
	p := n.Payload.(graph.KeyedItemPayload)
	return func(_ context.Context, nc NodeContext) (any, error) {
		v, err := nc.Lookup(p.Source)
		if err != nil {
			return nil, err
		}
		bundle, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("resolve: KeyedItem source %s is not a bundle", p.Source)
		}
		item, ok := bundle[p.Key]
		if !ok {
			return nil, fmt.Errorf("resolve: KeyedItem source %s has no key %q", p.Source, p.Key)
		}
		return item, nil
	}
}

func contextPushFunc(n *graph.Node) NodeFunction {
	p := n.Payload.(graph.ContextPushPayload)
	return func(_ context.Context, nc NodeContext) (any, error) {
		bundle := make(map[string]any, len(p.Mapping))
		for inner, outer := range p.Mapping {
			v, err := nc.Lookup(outer)
			if err != nil {
				return nil, err
			}
			bundle[inner.Name] = v
		}
		return bundle, nil
	}
}

func contextPopFunc(n *graph.Node) NodeFunction {
	p := n.Payload.(graph.ContextPopPayload)
	return func(_ context.Context, nc NodeContext) (any, error) {
		bundle := make(map[string]any, len(p.Mapping))
		for outer, inner := range p.Mapping {
			v, err := nc.Lookup(inner)
			if err != nil {
				return nil, err
			}
			bundle[outer.Name] = v
		}
		return bundle, nil
	}
}

func dataViewFunc(n *graph.Node) NodeFunction {
	p := n.Payload.(graph.DataViewPayload)
	return func(_ context.Context, nc NodeContext) (any, error) {
		root, err := nc.Lookup(p.Root)
		if err != nil {
			return nil, err
		}
		tbl, ok := root.(storage.Table)
		if !ok {
			return nil, fmt.Errorf("resolve: DataView root %s is not a table", p.Root)
		}
		if len(tbl.Schema.Fields) == 0 {
			tbl.Schema = p.Schema
		}
		return tbl, nil
	}
}

func dataItemFunc(n *graph.Node) NodeFunction {
	p := n.Payload.(graph.DataItemPayload)
	return func(_ context.Context, nc NodeContext) (any, error) {
		return nc.Lookup(p.View)
	}
}

func buildJobResultFunc(n *graph.Node) NodeFunction {
	p := n.Payload.(graph.BuildJobResultPayload)
	return func(_ context.Context, nc NodeContext) (any, error) {
		result := jobresult.Result{JobID: p.JobID, Status: jobresult.StatusSucceeded, Objects: map[string]jobresult.ObjectDefinition{}}
		for name, id := range p.ResultIDs {
			v, err := nc.Lookup(id)
			if err != nil {
				return nil, err
			}
			def, ok := v.(jobresult.ObjectDefinition)
			if ok {
				result.Objects[name] = def
			}
		}
		for _, id := range p.ExtraIDs {
			if _, err := nc.Lookup(id); err != nil {
				return nil, err
			}
		}
		return result, nil
	}
}

func (r *Resolver) saveJobResultFunc(n *graph.Node) NodeFunction {
	p := n.Payload.(graph.SaveJobResultPayload)
	return func(_ context.Context, nc NodeContext) (any, error) {
		v, err := nc.Lookup(p.Result)
		if err != nil {
			return nil, err
		}
		result, ok := v.(jobresult.Result)
		if !ok {
			return nil, fmt.Errorf("resolve: SaveJobResult source %s is not a result", p.Result)
		}
		path, err := result.Save(p.Dir, jobresult.ParseFormat(p.Format))
		if err != nil {
			return nil, err
		}
		r.logger.Info("saved job result for %s to %s", p.Result, path)
		return nil, nil
	}
}
