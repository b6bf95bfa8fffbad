// Package worker provides the bounded executor pool that runs scene searches
// in parallel.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
)

// Semaphore provides a counting semaphore for controlling concurrency.
// It bounds concurrent calls into a shared external tool.
type Semaphore struct {
	permits chan struct{}
}

// NewSemaphore creates a new semaphore with the given number of permits.
func NewSemaphore(count int) *Semaphore {
	if count <= 0 {
		count = 1
	}
	s := &Semaphore{
		permits: make(chan struct{}, count),
	}
	for i := 0; i < count; i++ {
		s.permits <- struct{}{}
	}
	return s
}

// Acquire takes a permit, returning ctx.Err() if ctx is done first.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case <-s.permits:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a permit to the semaphore.
func (s *Semaphore) Release() {
	select {
	case s.permits <- struct{}{}:
	default:
		// Semaphore is full, this shouldn't happen in normal use
	}
}

// Task is one unit of work executed by the pool.
type Task func(ctx context.Context) error

// Pool runs tasks on a fixed set of executors fed by a bounded queue.
// Once stopped (explicitly or by a task error), queued tasks that have not
// started are dropped; running tasks finish normally.
type Pool struct {
	tasks   chan Task
	wg      sync.WaitGroup
	stopped atomic.Bool
	dropped atomic.Int64
	err     atomic.Pointer[error]
}

// NewPool starts size executors reading from a queue of queueDepth tasks.
func NewPool(ctx context.Context, size, queueDepth int) *Pool {
	size = max(size, 1)
	queueDepth = max(queueDepth, 0)

	p := &Pool{tasks: make(chan Task, queueDepth)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.execute(ctx)
		}()
	}
	return p
}

func (p *Pool) execute(ctx context.Context) {
	for task := range p.tasks {
		if p.stopped.Load() || ctx.Err() != nil {
			p.dropped.Add(1)
			continue
		}
		if err := task(ctx); err != nil {
			p.setError(err)
			p.stopped.Store(true)
		}
	}
}

func (p *Pool) setError(err error) {
	p.err.CompareAndSwap(nil, &err)
}

// Submit enqueues a task, blocking while the queue is full.
// It returns false if ctx is done or the pool has been stopped.
func (p *Pool) Submit(ctx context.Context, task Task) bool {
	if p.stopped.Load() {
		return false
	}
	select {
	case p.tasks <- task:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop marks the pool as stopped so queued tasks are skipped.
func (p *Pool) Stop() {
	p.stopped.Store(true)
}

// Stopped reports whether the pool stopped accepting work.
func (p *Pool) Stopped() bool {
	return p.stopped.Load()
}

// Wait closes the queue, waits for executors to drain it and returns the
// first task error.
func (p *Pool) Wait() error {
	close(p.tasks)
	p.wg.Wait()
	if e := p.err.Load(); e != nil {
		return *e
	}
	return nil
}

// Dropped returns how many queued tasks were skipped after a stop.
func (p *Pool) Dropped() int {
	return int(p.dropped.Load())
}

// Progress tracks scene search progress.
type Progress struct {
	ScenesComplete int
	ScenesTotal    int
	TrialsRun      int
	TrialsCached   int
	FramesScored   int
}

// Percent returns the completion percentage by scene.
func (p Progress) Percent() float64 {
	if p.ScenesTotal == 0 {
		return 0
	}
	return float64(p.ScenesComplete) / float64(p.ScenesTotal) * 100
}
