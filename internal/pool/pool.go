// Package pool provides a bounded worker pool used to run subscriber
// callbacks off the market-data publisher's goroutine. The queue is MPMC
// and FIFO-approximate; ordering across workers is not guaranteed.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

// Task is a unit of work executed by one worker.
type Task func()

// Pool runs tasks on a fixed set of workers fed from a bounded queue.
// Enqueue is non-blocking (TrySubmit) or bounded-blocking (Submit);
// dequeue blocks until work arrives or shutdown drains the queue.
type Pool struct {
	tasks  chan Task
	group  *errgroup.Group
	logger *slog.Logger

	// mu guards closed and orders Shutdown's channel close after all
	// in-flight sends: senders hold the read side across the send.
	mu       sync.RWMutex
	closed   bool
	panicked atomic.Uint64
}

// New starts workers goroutines consuming from a queue of the given
// capacity. Non-positive workers defaults to GOMAXPROCS; non-positive
// capacity defaults to 1024.
func New(workers, capacity int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if capacity <= 0 {
		capacity = 1024
	}
	p := &Pool{
		tasks:  make(chan Task, capacity),
		group:  &errgroup.Group{},
		logger: logger.With(slog.String("component", "worker_pool")),
	}
	for i := 0; i < workers; i++ {
		p.group.Go(p.worker)
	}
	return p
}

// worker drains the task channel until it is closed.
func (p *Pool) worker() error {
	for task := range p.tasks {
		p.run(task)
	}
	return nil
}

// run executes one task, recovering from panics so a misbehaving callback
// cannot take a worker down.
func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.logger.Error("task panicked", slog.Any("panic", r))
		}
	}()
	task()
}

// Submit enqueues a task, blocking until queue space frees up or ctx is
// done. It returns domain.ErrClosed after Shutdown.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("pool: submit: %w", domain.ErrClosed)
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit enqueues a task without blocking. It returns
// domain.ErrQueueFull when the queue is at capacity and domain.ErrClosed
// after Shutdown.
func (p *Pool) TrySubmit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("pool: try submit: %w", domain.ErrClosed)
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return fmt.Errorf("pool: try submit: %w", domain.ErrQueueFull)
	}
}

// Shutdown stops intake, lets the workers drain every queued task, and
// joins them. It is safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	_ = p.group.Wait()
}

// Panics returns the number of recovered task panics.
func (p *Pool) Panics() uint64 {
	return p.panicked.Load()
}
