package tally

import (
	"context"
	"sync"

	"github.com/hyp3rd/tally/internal/sentinel"
)

// JobFunc is a function that can be enqueued in a worker pool.
type JobFunc func(ctx context.Context) error

// WorkerPool runs jobs on a fixed number of goroutines. Job errors are handed to the
// error handler given at construction; a nil handler drops them.
type WorkerPool struct {
	workers int
	jobs    chan JobFunc
	onError func(error)

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex // guards closed against concurrent Enqueue
	closed  bool
	running sync.WaitGroup

	// pending counts enqueued jobs that have not finished. Wait may run while other
	// goroutines enqueue, which a sync.WaitGroup does not allow.
	pendingMu sync.Mutex
	idle      *sync.Cond
	pending   int
}

// NewWorkerPool creates a new worker pool with the given number of workers.
// Fewer than one worker is treated as one.
func NewWorkerPool(workers int, onError func(error)) *WorkerPool {
	workers = max(workers, 1)

	ctx, cancel := context.WithCancel(context.Background())

	pool := &WorkerPool{
		workers: workers,
		jobs:    make(chan JobFunc, workers),
		onError: onError,
		ctx:     ctx,
		cancel:  cancel,
	}
	pool.idle = sync.NewCond(&pool.pendingMu)
	pool.start()

	return pool
}

// Workers returns the number of workers.
func (pool *WorkerPool) Workers() int {
	return pool.workers
}

// Enqueue adds a job to the worker pool. It blocks while the queue is full and
// gives up when ctx is done.
func (pool *WorkerPool) Enqueue(ctx context.Context, job JobFunc) error {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	if pool.closed {
		return sentinel.ErrPoolClosed
	}

	pool.addPending()

	select {
	case pool.jobs <- job:
		return nil
	case <-ctx.Done():
		pool.donePending()

		return ctx.Err()
	}
}

// Wait blocks until no job is queued or running. Jobs enqueued while Wait blocks
// are waited for too.
func (pool *WorkerPool) Wait() {
	pool.pendingMu.Lock()
	defer pool.pendingMu.Unlock()

	for pool.pending > 0 {
		pool.idle.Wait()
	}
}

func (pool *WorkerPool) addPending() {
	pool.pendingMu.Lock()
	pool.pending++
	pool.pendingMu.Unlock()
}

func (pool *WorkerPool) donePending() {
	pool.pendingMu.Lock()
	defer pool.pendingMu.Unlock()

	pool.pending--
	if pool.pending == 0 {
		pool.idle.Broadcast()
	}
}

// Shutdown stops accepting jobs, waits for queued jobs to finish and stops the workers.
// It is safe to call more than once.
func (pool *WorkerPool) Shutdown() {
	pool.mu.Lock()
	if pool.closed {
		pool.mu.Unlock()

		return
	}

	pool.closed = true
	close(pool.jobs)
	pool.mu.Unlock()

	pool.running.Wait()
	pool.cancel()
}

// start starts the worker pool.
func (pool *WorkerPool) start() {
	for range pool.workers {
		pool.running.Go(pool.worker)
	}
}

// worker is the main loop executed by each worker goroutine.
func (pool *WorkerPool) worker() {
	for job := range pool.jobs {
		err := job(pool.ctx)
		if err != nil && pool.onError != nil {
			pool.onError(err)
		}

		pool.donePending()
	}
}
