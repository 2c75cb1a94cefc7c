// Package workerpool provides a bounded FIFO worker pool.
//
// Submit blocks while the queue is full, so a saturated pool applies
// backpressure to its callers instead of spawning more goroutines.
// Jobs are started in submission order; completion order is not defined.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned by Submit after Close has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Job is a unit of work run on a pool worker.
type Job func()

// Stats is a snapshot of pool counters.
type Stats struct {
	Workers   int
	Queued    int
	Submitted uint64
	Completed uint64
	Panicked  uint64
}

// Pool runs submitted jobs on a fixed number of goroutines.
type Pool struct {
	workers int
	jobs    chan Job
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	onPanic func(recovered any)

	submitted atomic.Uint64
	completed atomic.Uint64
	panicked  atomic.Uint64
}

// Option configures a Pool.
type Option func(*Pool)

// WithPanicHandler sets a function called with the value recovered from a panicking job.
func WithPanicHandler(fn func(recovered any)) Option {
	return func(p *Pool) {
		p.onPanic = fn
	}
}

// New starts a pool with the given number of workers and queue capacity.
// workers <= 0 uses runtime.NumCPU(); queue < 0 is treated as 0 (unbuffered hand-off).
func New(workers, queue int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queue < 0 {
		queue = 0
	}
	p := &Pool{
		workers: workers,
		jobs:    make(chan Job, queue),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit enqueues a job, blocking while the queue is full.
// It returns ctx.Err() if ctx ends before the job is admitted, or ErrPoolClosed.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	if job == nil {
		return fmt.Errorf("workerpool: nil job")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- job:
		p.submitted.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops admission, lets queued jobs finish and waits for the workers to exit.
// Calling Close more than once is a no-op.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Queued:    len(p.jobs),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(job)
	}
}

func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			if p.onPanic != nil {
				p.onPanic(r)
			}
		}
		p.completed.Add(1)
	}()
	job()
}
