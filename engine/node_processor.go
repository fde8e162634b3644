package engine

import (
	"context"

	"github.com/coreflow/coreflow/actor"
	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/log"
)

// nodeProcessor runs exactly one node's function and reports the outcome
// to its parent GraphProcessor, then stops itself. It never outlives that
// single evaluation.
type nodeProcessor struct {
	parent actor.ID
	id     graph.NodeID
	node   *Node
	gctx   *Context
	logger log.Logger
}

func (p *nodeProcessor) Handlers() map[string]actor.Handler {
	return map[string]actor.Handler{
		string(actor.SigStart): p.evaluate,
	}
}

func (p *nodeProcessor) evaluate(ctx *actor.Context, _ actor.Msg) error {
	logNodeStart(p.logger, p.node.Def)

	nc := &nodeContextImpl{ns: p.node.Def.ID.Namespace, ctx: p.gctx}
	result, err := p.node.Function(context.Background(), nc)

	if err != nil {
		logNodeFailed(p.logger, p.node.Def, err)
	} else {
		logNodeSucceeded(p.logger, p.node.Def)
	}

	ctx.Send(p.parent, "node_result", p.id, result, err)
	_ = ctx.StopSelf()
	return nil
}
