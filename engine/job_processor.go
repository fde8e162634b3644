package engine

import (
	"reflect"

	"github.com/coreflow/coreflow/actor"
	"github.com/coreflow/coreflow/graphbuild"
	"github.com/coreflow/coreflow/jobdef"
	"github.com/coreflow/coreflow/log"
	"github.com/coreflow/coreflow/modelapi"
	"github.com/coreflow/coreflow/resolve"
)

// jobProcessor owns one job's lifecycle: it creates the model scope,
// builds and resolves the graph, runs it to completion through a
// graphProcessor child, then tears the scope down and reports upward.
type jobProcessor struct {
	parent     actor.ID
	jobID      string
	spec       jobdef.Spec
	resultSpec graphbuild.ResultSpec
	resolver   *resolve.Resolver
	models     modelapi.Loader
	logger     log.Logger
}

func (j *jobProcessor) Handlers() map[string]actor.Handler {
	return map[string]actor.Handler{
		string(actor.SigStart): j.onStart,
		string(actor.SigStop):  j.onStop,
		"job_graph":            j.onJobGraph,
		"job_succeeded":        j.onJobSucceeded,
		"job_failed":           j.onJobFailed,
	}
}

// Signatures covers the ordinary (non-signal) messages a jobProcessor
// receives; actor:start/actor:stop are dispatched through the lifecycle
// path and never reach this check.
func (j *jobProcessor) Signatures() map[string]actor.Signature {
	return map[string]actor.Signature{
		"job_graph":     {Arity: 1, Types: []reflect.Type{reflect.TypeOf(&Context{})}},
		"job_succeeded": {Arity: 1, Types: []reflect.Type{reflect.TypeOf(&Context{})}},
		"job_failed":    {Arity: 1, Types: []reflect.Type{actor.ErrType}},
	}
}

func (j *jobProcessor) onStart(ctx *actor.Context, _ actor.Msg) error {
	if err := j.models.CreateScope(j.jobID); err != nil {
		return err
	}
	_, err := ctx.Spawn("builder", "builder", &graphBuilderActor{
		parent:     ctx.Self(),
		spec:       j.spec,
		resultSpec: j.resultSpec,
		resolver:   j.resolver,
	})
	return err
}

func (j *jobProcessor) onStop(_ *actor.Context, _ actor.Msg) error {
	return j.models.DestroyScope(j.jobID)
}

func (j *jobProcessor) onJobGraph(ctx *actor.Context, msg actor.Msg) error {
	gctx := msg.Args[0].(*Context)
	_, err := ctx.Spawn("graph", "graph", &graphProcessor{
		parent: ctx.Self(),
		jobID:  j.jobID,
		gctx:   gctx,
		logger: j.logger,
	})
	return err
}

func (j *jobProcessor) onJobSucceeded(ctx *actor.Context, msg actor.Msg) error {
	ctx.Send(j.parent, "job_succeeded", j.jobID, msg.Args[0])
	return ctx.StopSelf()
}

func (j *jobProcessor) onJobFailed(ctx *actor.Context, msg actor.Msg) error {
	ctx.Send(j.parent, "job_failed", j.jobID, msg.Args[0])
	return ctx.StopSelf()
}
