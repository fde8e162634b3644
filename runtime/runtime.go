// Package runtime is the process-control wrapper around the engine: it
// owns the actor system's dispatcher goroutine, prepares and tears down
// the scratch directory, and exposes a synchronous submit/wait API to
// whatever hosts the runtime (a CLI, a service, a test).
package runtime

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/coreflow/coreflow/actor"
	"github.com/coreflow/coreflow/engine"
	"github.com/coreflow/coreflow/graphbuild"
	"github.com/coreflow/coreflow/jobdef"
	"github.com/coreflow/coreflow/jobresult"
	"github.com/coreflow/coreflow/log"
	"github.com/coreflow/coreflow/modelapi"
	"github.com/coreflow/coreflow/storage"
)

// Config holds the runtime's own settings; system/job configuration
// parsing is the embedding application's concern, not the core's.
type Config struct {
	ScratchDir        string
	ScratchDirPersist bool
	JobResultDir      string
	JobResultFormat   string

	// EnvFile, if set, is loaded into the process environment during
	// PreStart. Missing files are not an error; an explicit path that
	// fails to parse is.
	EnvFile string
}

// Runtime owns one actor system and one engine for the lifetime of a
// process (or a test).
type Runtime struct {
	cfg     Config
	models  modelapi.Loader
	storage *storage.Registry
	logger  log.Logger

	scratchDir      string
	scratchProvided bool

	sys *actor.System
	eng *engine.Engine

	mu      sync.Mutex
	cancel  context.CancelFunc
	runDone chan error
}

// New creates a runtime around an already-constructed model loader and
// storage registry. Parsing those from system configuration is external
// to the core.
func New(cfg Config, models modelapi.Loader, storageReg *storage.Registry, logger log.Logger) *Runtime {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Runtime{cfg: cfg, models: models, storage: storageReg, logger: logger}
}

// PreStart prepares the scratch directory. Call before Start; safe to call
// more than once.
func (r *Runtime) PreStart() error {
	if err := r.loadEnvFile(); err != nil {
		return err
	}

	if r.cfg.ScratchDir != "" {
		r.scratchDir = r.cfg.ScratchDir
		r.scratchProvided = true
	} else {
		dir, err := os.MkdirTemp("", "coreflow_scratch_")
		if err != nil {
			return fmt.Errorf("runtime: creating scratch directory: %w", err)
		}
		r.scratchDir = dir
	}

	info, err := os.Stat(r.scratchDir)
	if err != nil {
		return fmt.Errorf("runtime: scratch directory %s does not exist: %w", r.scratchDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("runtime: scratch directory %s is not a directory", r.scratchDir)
	}

	probe := r.scratchDir + "/.coreflow_write_test"
	if err := os.WriteFile(probe, []byte{1, 2, 3}, 0o600); err != nil {
		return fmt.Errorf("runtime: scratch directory %s is not writable: %w", r.scratchDir, err)
	}
	_ = os.Remove(probe)

	r.logger.Info("runtime: using scratch directory %s", r.scratchDir)
	return nil
}

func (r *Runtime) loadEnvFile() error {
	if r.cfg.EnvFile == "" {
		return nil
	}
	if _, err := os.Stat(r.cfg.EnvFile); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(r.cfg.EnvFile); err != nil {
		return fmt.Errorf("runtime: loading env file %s: %w", r.cfg.EnvFile, err)
	}
	r.logger.Info("runtime: loaded environment from %s", r.cfg.EnvFile)
	return nil
}

// Start spawns the engine actor and launches the dispatcher goroutine. If
// wait is true, Start blocks briefly until the engine actor reports
// RUNNING.
func (r *Runtime) Start(wait bool) error {
	r.logger.Info("runtime: starting engine")

	r.sys = actor.New(r.logger)
	r.eng = engine.New(r.models, r.storage, r.logger, graphbuild.ResultSpec{
		SaveResult: r.cfg.JobResultDir != "",
		Dir:        r.cfg.JobResultDir,
		Format:     r.cfg.JobResultFormat,
	})
	if err := r.eng.Attach(r.sys); err != nil {
		return fmt.Errorf("runtime: attaching engine: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancel = cancel
	r.runDone = make(chan error, 1)
	r.mu.Unlock()

	go func() {
		r.runDone <- r.sys.Run(ctx)
	}()

	if wait {
		r.waitRunning(2 * time.Second)
	}
	return nil
}

// waitRunning polls the engine actor's state for up to timeout; the
// dispatcher goroutine processes the spawn's start signal asynchronously,
// so there is a small window where it is not yet RUNNING.
func (r *Runtime) waitRunning(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if st, ok := r.sys.State(r.eng.ID()); ok && st == actor.Running {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

// Stop requests the actor system shut down, waits for the dispatcher
// goroutine to exit, and cleans the scratch directory. dueToError marks
// the shutdown as a response to a previous failure for logging purposes.
func (r *Runtime) Stop(dueToError bool) error {
	if dueToError {
		r.logger.Info("runtime: shutting down in response to an error")
	} else {
		r.logger.Info("runtime: shutting down")
	}

	r.mu.Lock()
	cancel, done := r.cancel, r.runDone
	r.mu.Unlock()

	if cancel == nil {
		r.logger.Warn("runtime: engine was never started")
		r.cleanScratchDir()
		return nil
	}

	cancel()
	err := <-done
	r.cleanScratchDir()

	if err != nil {
		r.logger.Error("runtime: engine went down with an error: %v", err)
		return err
	}
	if dueToError {
		r.logger.Error("runtime: engine went down, a prior job error will be propagated")
	} else {
		r.logger.Info("runtime: engine went down cleanly")
	}
	return nil
}

func (r *Runtime) cleanScratchDir() {
	if r.scratchDir == "" || r.cfg.ScratchDirPersist {
		return
	}
	if r.scratchProvided {
		entries, err := os.ReadDir(r.scratchDir)
		if err == nil {
			for _, e := range entries {
				_ = os.RemoveAll(r.scratchDir + "/" + e.Name())
			}
		}
		return
	}
	_ = os.RemoveAll(r.scratchDir)
}

// SubmitJob enqueues spec for execution and returns its job id.
func (r *Runtime) SubmitJob(spec jobdef.Spec) string {
	r.eng.Submit(spec.JobID, spec)
	return spec.JobID
}

// WaitForJob blocks until jobID completes and returns its assembled
// result, or the error that failed it.
func (r *Runtime) WaitForJob(ctx context.Context, jobID string) (jobresult.Result, error) {
	res, err := r.eng.Wait(ctx, jobID)
	if err != nil {
		return jobresult.Result{}, err
	}
	if !res.Succeeded {
		return jobresult.Result{}, res.Err
	}
	return res.Context.JobResult()
}

// RunUntilDone submits spec, waits for it to complete, then stops the
// runtime, matching the one-shot CLI usage pattern.
func (r *Runtime) RunUntilDone(ctx context.Context, spec jobdef.Spec) (jobresult.Result, error) {
	if err := r.PreStart(); err != nil {
		return jobresult.Result{}, err
	}
	if err := r.Start(true); err != nil {
		return jobresult.Result{}, err
	}

	jobID := r.SubmitJob(spec)
	result, waitErr := r.WaitForJob(ctx, jobID)

	if stopErr := r.Stop(waitErr != nil); stopErr != nil && waitErr == nil {
		return result, stopErr
	}
	return result, waitErr
}
