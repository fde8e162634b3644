package actor

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// WorkerPool bounds how many blocking operations of one actor class (model
// execution, storage I/O) may run concurrently, independent of the single
// dispatcher goroutine that runs everything else.
type WorkerPool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewWorkerPool creates a pool that admits at most size concurrent tasks.
func NewWorkerPool(size int64) *WorkerPool {
	return &WorkerPool{sem: semaphore.NewWeighted(size)}
}

// Submit blocks until a slot is free (or ctx is cancelled), then runs fn on
// a new goroutine, calling done with its result once finished. Submit
// itself does not block on fn's completion.
func (p *WorkerPool) Submit(ctx context.Context, fn func() error, done func(error)) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		done(fn())
	}()
	return nil
}

// Wait blocks until every task submitted to the pool has completed. Used
// during shutdown to avoid abandoning in-flight model runs.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}
