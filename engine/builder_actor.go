package engine

import (
	"fmt"

	"github.com/coreflow/coreflow/actor"
	"github.com/coreflow/coreflow/graphbuild"
	"github.com/coreflow/coreflow/jobdef"
	"github.com/coreflow/coreflow/resolve"
)

// graphBuilderActor lowers a job spec to a graph and resolves every node's
// function, then hands the prepared Context to its parent. It never
// outlives that one pass.
type graphBuilderActor struct {
	parent     actor.ID
	spec       jobdef.Spec
	resultSpec graphbuild.ResultSpec
	resolver   *resolve.Resolver
}

func (b *graphBuilderActor) Handlers() map[string]actor.Handler {
	return map[string]actor.Handler{
		string(actor.SigStart): b.onStart,
	}
}

func (b *graphBuilderActor) onStart(ctx *actor.Context, _ actor.Msg) error {
	g, err := graphbuild.Build(b.spec, b.resultSpec)
	if err != nil {
		ctx.Send(b.parent, "job_failed", fmt.Errorf("engine: building graph: %w", err))
		return ctx.StopSelf()
	}
	if err := g.Validate(); err != nil {
		ctx.Send(b.parent, "job_failed", fmt.Errorf("engine: invalid graph: %w", err))
		return ctx.StopSelf()
	}

	gctx, err := NewContext(g, b.resolver)
	if err != nil {
		ctx.Send(b.parent, "job_failed", fmt.Errorf("engine: resolving graph: %w", err))
		return ctx.StopSelf()
	}

	ctx.Send(b.parent, "job_graph", gctx)
	return ctx.StopSelf()
}
