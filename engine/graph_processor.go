package engine

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/coreflow/coreflow/actor"
	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/log"
)

// graphProcessor drives one job's graph to completion: each time a node
// finishes it recomputes which pending nodes are now viable (propagating
// failures to a fixed point first) and spawns a nodeProcessor for each.
type graphProcessor struct {
	parent actor.ID
	jobID  string
	gctx   *Context
	logger log.Logger
}

func (g *graphProcessor) Handlers() map[string]actor.Handler {
	return map[string]actor.Handler{
		string(actor.SigStart): g.onStart,
		"node_result":          g.onNodeResult,
	}
}

// Signatures validates node_result's id/err positions; the result itself
// (args[1]) is left unchecked since a node's produced value can be any
// ResultKind-satisfying shape, checked separately by checkResultKind.
func (g *graphProcessor) Signatures() map[string]actor.Signature {
	return map[string]actor.Signature{
		"node_result": {Arity: 3, Types: []reflect.Type{reflect.TypeOf(graph.NodeID{}), nil, actor.ErrType}},
	}
}

func (g *graphProcessor) onStart(ctx *actor.Context, _ actor.Msg) error {
	g.submitViable(ctx)
	return nil
}

func (g *graphProcessor) onNodeResult(ctx *actor.Context, msg actor.Msg) error {
	id := msg.Args[0].(graph.NodeID)
	result := msg.Args[1]
	var err error
	if msg.Args[2] != nil {
		err = msg.Args[2].(error)
	}

	g.gctx = g.gctx.complete(id, result, err)
	g.submitViable(ctx)
	return nil
}

// submitViable advances the graph, spawns a nodeProcessor for every node
// that just became viable, and checks whether the job as a whole is done.
func (g *graphProcessor) submitViable(ctx *actor.Context) {
	next, viable := g.gctx.advance()
	g.gctx = next

	for _, id := range viable {
		node := g.gctx.Nodes[id]
		np := &nodeProcessor{parent: ctx.Self(), id: id, node: node, gctx: g.gctx, logger: g.logger}
		if _, err := ctx.Spawn("node", "node", np); err != nil {
			g.gctx = g.gctx.complete(id, nil, fmt.Errorf("engine: spawning node processor: %w", err))
		}
	}

	g.checkStatus(ctx)
}

func (g *graphProcessor) checkStatus(ctx *actor.Context) {
	switch {
	case g.gctx.Deadlocked():
		ctx.Send(g.parent, "job_failed", fmt.Errorf("engine: deadlock, %d node(s) pending with none active", len(g.gctx.Pending)))
		_ = ctx.StopSelf()
	case g.gctx.Done():
		if errs := g.gctx.Errors(); len(errs) > 0 {
			ctx.Send(g.parent, "job_failed", combineErrors(errs))
		} else {
			ctx.Send(g.parent, "job_succeeded", g.gctx)
		}
		_ = ctx.StopSelf()
	}
}

func combineErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return fmt.Errorf("engine: job suffered %d errors: %w", len(errs), errors.Join(errs...))
}
