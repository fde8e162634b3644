package engine

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/coreflow/coreflow/actor"
	"github.com/coreflow/coreflow/graphbuild"
	"github.com/coreflow/coreflow/jobdef"
	"github.com/coreflow/coreflow/log"
	"github.com/coreflow/coreflow/modelapi"
	"github.com/coreflow/coreflow/resolve"
	"github.com/coreflow/coreflow/storage"
)

// JobResult is the outcome of one submitted job: either a completed
// Context (every node resolved, no errors) or the error that stopped it.
type JobResult struct {
	JobID     string
	Succeeded bool
	Context   *Context
	Err       error
}

// Engine is the top-level actor a runtime process spawns once: it accepts
// job submissions, spawns one jobProcessor per job, and tracks completion
// so callers outside the actor system can wait on a result.
type Engine struct {
	models     modelapi.Loader
	storageReg *storage.Registry
	logger     log.Logger
	resultSpec graphbuild.ResultSpec

	sys  *actor.System
	self actor.ID

	mu      sync.Mutex
	results map[string]*JobResult
	waiters map[string][]chan struct{}
}

// New creates an engine not yet attached to any actor system.
func New(models modelapi.Loader, reg *storage.Registry, logger log.Logger, resultSpec graphbuild.ResultSpec) *Engine {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Engine{
		models:     models,
		storageReg: reg,
		logger:     logger,
		resultSpec: resultSpec,
		results:    make(map[string]*JobResult),
		waiters:    make(map[string][]chan struct{}),
	}
}

// Attach spawns the engine as a child of the system's root actor. Submit
// must not be called before Attach.
func (e *Engine) Attach(sys *actor.System) error {
	id, err := sys.Spawn(actor.Root, "engine", "engine", e)
	if err != nil {
		return err
	}
	e.sys = sys
	e.self = id
	return nil
}

// ID returns the engine's own actor address, assigned by Attach.
func (e *Engine) ID() actor.ID {
	return e.self
}

func (e *Engine) Handlers() map[string]actor.Handler {
	return map[string]actor.Handler{
		"submit_job":    e.onSubmitJob,
		"job_succeeded": e.onJobSucceeded,
		"job_failed":    e.onJobFailed,
	}
}

// Signatures declares the expected arity and, where one concrete type
// applies, the argument types of every message the engine accepts, so the
// dispatcher rejects a malformed message before onSubmitJob/onJobSucceeded/
// onJobFailed ever see it.
func (e *Engine) Signatures() map[string]actor.Signature {
	stringType := reflect.TypeOf("")
	return map[string]actor.Signature{
		"submit_job":    {Arity: 2, Types: []reflect.Type{stringType, reflect.TypeOf(jobdef.Spec{})}},
		"job_succeeded": {Arity: 2, Types: []reflect.Type{stringType, reflect.TypeOf(&Context{})}},
		"job_failed":    {Arity: 2, Types: []reflect.Type{stringType, actor.ErrType}},
	}
}

// Submit enqueues a job for execution and returns immediately. Results are
// retrieved through Wait or Result.
func (e *Engine) Submit(jobID string, spec jobdef.Spec) {
	e.sys.Send(e.self, e.self, "submit_job", jobID, spec)
}

func (e *Engine) onSubmitJob(ctx *actor.Context, msg actor.Msg) error {
	jobID := msg.Args[0].(string)
	spec := msg.Args[1].(jobdef.Spec)

	if err := jobdef.Validate(spec); err != nil {
		e.finish(jobID, nil, err)
		return nil
	}

	resolver := resolve.New(jobID, e.models, e.storageReg, e.logger)
	_, err := ctx.Spawn(jobID, "job", &jobProcessor{
		parent:     ctx.Self(),
		jobID:      jobID,
		spec:       spec,
		resultSpec: e.resultSpec,
		resolver:   resolver,
		models:     e.models,
		logger:     e.logger,
	})
	if err != nil {
		e.finish(jobID, nil, fmt.Errorf("engine: spawning job: %w", err))
	}
	return nil
}

func (e *Engine) onJobSucceeded(_ *actor.Context, msg actor.Msg) error {
	jobID := msg.Args[0].(string)
	gctx := msg.Args[1].(*Context)
	e.finish(jobID, gctx, nil)
	return nil
}

func (e *Engine) onJobFailed(_ *actor.Context, msg actor.Msg) error {
	jobID := msg.Args[0].(string)
	jobErr := msg.Args[1].(error)
	e.finish(jobID, nil, jobErr)
	return nil
}

func (e *Engine) finish(jobID string, gctx *Context, err error) {
	e.mu.Lock()
	e.results[jobID] = &JobResult{JobID: jobID, Succeeded: err == nil, Context: gctx, Err: err}
	waiters := e.waiters[jobID]
	delete(e.waiters, jobID)
	e.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}

// Result returns the recorded outcome of jobID, if it has completed.
func (e *Engine) Result(jobID string) (*JobResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.results[jobID]
	return r, ok
}

// Wait blocks until jobID completes or ctx is cancelled.
func (e *Engine) Wait(ctx context.Context, jobID string) (*JobResult, error) {
	e.mu.Lock()
	if r, ok := e.results[jobID]; ok {
		e.mu.Unlock()
		return r, nil
	}
	ch := make(chan struct{})
	e.waiters[jobID] = append(e.waiters[jobID], ch)
	e.mu.Unlock()

	select {
	case <-ch:
		e.mu.Lock()
		r := e.results[jobID]
		e.mu.Unlock()
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
