package engine

import "github.com/coreflow/coreflow/graph"

// nodeContextImpl is the resolve.NodeContext a NodeProcessor hands to a
// node function: a read-only view of one snapshot of the scheduler state.
type nodeContextImpl struct {
	ns  *graph.Namespace
	ctx *Context
}

func (n *nodeContextImpl) Lookup(id graph.NodeID) (any, error) {
	return n.ctx.Result(id)
}

func (n *nodeContextImpl) Namespace() *graph.Namespace { return n.ns }

func (n *nodeContextImpl) Items() map[graph.NodeID]any {
	items := make(map[graph.NodeID]any, len(n.ctx.Succeeded))
	for id := range n.ctx.Succeeded {
		items[id] = n.ctx.Nodes[id].Result
	}
	return items
}
