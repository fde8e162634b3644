package resolve

import (
	"context"
	"fmt"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/jobresult"
	"github.com/coreflow/coreflow/storage"
)

func (r *Resolver) loadDataFunc(n *graph.Node) NodeFunction {
	p := n.Payload.(graph.LoadDataPayload)
	return func(ctx context.Context, nc NodeContext) (any, error) {
		spec, err := lookupDataSpec(nc, p.Spec)
		if err != nil {
			return nil, err
		}
		ds, err := r.storage.GetDataStorage(spec.StorageKey)
		if err != nil {
			return storage.Table{}, fmt.Errorf("resolve: LoadData: %w", err)
		}
		return ds.ReadTable(ctx, spec.Path, spec.Format, spec.Schema, nil)
	}
}

func (r *Resolver) saveDataFunc(n *graph.Node) NodeFunction {
	p := n.Payload.(graph.SaveDataPayload)
	return func(ctx context.Context, nc NodeContext) (any, error) {
		spec, err := lookupDataSpec(nc, p.Spec)
		if err != nil {
			return nil, err
		}
		itemVal, err := nc.Lookup(p.Item)
		if err != nil {
			return nil, err
		}
		table, ok := itemVal.(storage.Table)
		if !ok {
			return nil, fmt.Errorf("resolve: SaveData item %s is not a table", p.Item)
		}

		ds, err := r.storage.GetDataStorage(spec.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("resolve: SaveData: %w", err)
		}
		if err := ds.WriteTable(ctx, spec.Path, spec.Format, table, nil, true); err != nil {
			return nil, err
		}

		return jobresult.ObjectDefinition{
			Type:      jobresult.ObjectData,
			Path:      spec.Path,
			StorageID: spec.StorageKey,
		}, nil
	}
}

func (r *Resolver) dynamicDataSpecFunc(n *graph.Node) NodeFunction {
	p := n.Payload.(graph.DynamicDataSpecPayload)
	return func(_ context.Context, nc NodeContext) (any, error) {
		view, err := nc.Lookup(p.View)
		if err != nil {
			return nil, err
		}
		tbl, ok := view.(storage.Table)
		if !ok {
			return nil, fmt.Errorf("resolve: DynamicDataSpec view %s is not a table", p.View)
		}

		storageKey := p.StorageKey
		if storageKey == "" {
			storageKey = r.storage.DefaultStorageKey()
		}
		format := r.storage.DefaultStorageFormat()
		path := fmt.Sprintf("%s/%s.%s", r.jobID, p.DataObjectID, format)
		if p.DataObjectID == "" {
			path = fmt.Sprintf("%s/%s.%s", r.jobID, p.View.Name, format)
		}

		return graph.DataSpec{Schema: tbl.Schema, Path: path, Format: format, StorageKey: storageKey}, nil
	}
}

func lookupDataSpec(nc NodeContext, id graph.NodeID) (graph.DataSpec, error) {
	v, err := nc.Lookup(id)
	if err != nil {
		return graph.DataSpec{}, err
	}
	spec, ok := v.(graph.DataSpec)
	if !ok {
		return graph.DataSpec{}, fmt.Errorf("resolve: node %s is not a data spec", id)
	}
	return spec, nil
}
