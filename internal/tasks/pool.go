package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotex/internal/shared"
)

const (
	DefaultWorkers = 8
	MaxWorkers     = 50
)

// Task is one unit of work run by a [WorkerPool].
type Task func(ctx context.Context) error

// BatchResult counts the outcomes of the tasks submitted between two calls to [WorkerPool.Wait].
type BatchResult struct {
	Succeeded int
	Failed    int
}

// Total returns the number of tasks in the batch.
func (b BatchResult) Total() int { return b.Succeeded + b.Failed }

type namedTask struct {
	name string
	run  Task
}

// WorkerPool runs tasks on a fixed number of goroutines.
//
// Tasks are submitted in batches: [WorkerPool.Wait] blocks until every task submitted since the
// previous Wait has finished. Submit and Wait must be called from the same goroutine.
type WorkerPool struct {
	ctx    context.Context
	size   int
	queue  chan namedTask
	done   chan struct{}
	logger *log.Logger

	mu        sync.RWMutex
	pending   sync.WaitGroup
	workers   sync.WaitGroup
	closeOnce sync.Once

	succeeded atomic.Int64
	failed    atomic.Int64
}

// NewWorkerPool starts workers goroutines (clamped to [1, MaxWorkers], [DefaultWorkers] when <= 0).
//
// Tasks receive ctx. Once ctx is done, queued tasks are counted as failures without running.
func NewWorkerPool(ctx context.Context, workers int, logger *log.Logger) *WorkerPool {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	size := shared.Clamp(workers, DefaultWorkers, 1, MaxWorkers)

	p := &WorkerPool{
		ctx:    ctx,
		size:   size,
		queue:  make(chan namedTask, size),
		done:   make(chan struct{}),
		logger: shared.WithLogger(logger, "component", "pool"),
	}

	for range size {
		p.workers.Add(1)
		go p.work()
	}
	return p
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int { return p.size }

// Submit queues task, blocking while the queue is full.
//
// Returns ctx's error if ctx ends first, or [shared.ErrPoolClosed] once the pool is closed.
func (p *WorkerPool) Submit(ctx context.Context, name string, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	select {
	case <-p.done:
		return shared.ErrPoolClosed
	default:
	}

	p.pending.Add(1)
	select {
	case p.queue <- namedTask{name: name, run: task}:
		return nil
	case <-ctx.Done():
		p.pending.Done()
		return ctx.Err()
	case <-p.done:
		p.pending.Done()
		return shared.ErrPoolClosed
	}
}

// Wait blocks until every task submitted since the last Wait has finished and returns their outcomes.
func (p *WorkerPool) Wait() BatchResult {
	p.pending.Wait()
	return BatchResult{
		Succeeded: int(p.succeeded.Swap(0)),
		Failed:    int(p.failed.Swap(0)),
	}
}

// Close stops the workers and waits for them to exit. Tasks still queued are counted as failures.
//
// Close is idempotent.
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)

		p.mu.Lock()
		defer p.mu.Unlock()

		p.workers.Wait()
		for {
			select {
			case t := <-p.queue:
				p.logger.Debug("task dropped, pool closed", "task", t.name)
				p.failed.Add(1)
				p.pending.Done()
			default:
				return
			}
		}
	})
}

func (p *WorkerPool) work() {
	defer p.workers.Done()

	for {
		select {
		case t := <-p.queue:
			p.execute(t)
		case <-p.done:
			return
		}
	}
}

func (p *WorkerPool) execute(t namedTask) {
	defer p.pending.Done()

	if err := p.ctx.Err(); err != nil {
		p.logger.Debug("task skipped", "task", t.name, "error", err)
		p.failed.Add(1)
		return
	}

	if err := p.safeRun(t); err != nil {
		p.logger.Error("task failed", "task", t.name, "error", err)
		p.failed.Add(1)
		return
	}
	p.succeeded.Add(1)
}

func (p *WorkerPool) safeRun(t namedTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.run(p.ctx)
}
