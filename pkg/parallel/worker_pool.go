package parallel

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool manages a fixed set of worker goroutines fed from a task queue.
// Workers live for the lifetime of the pool, so repeated fork-join batches
// (one per propagation round) reuse them instead of spawning goroutines.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
	panics    atomic.Int64 // Panics recovered from tasks submitted with Submit
}

var (
	// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")
	// ErrPoolClosed is returned by Run when the pool was closed before every task was queued.
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrTaskPanicked is returned by Run when at least one task of the batch panicked.
	ErrTaskPanicked = errors.New("task panicked")
)

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// NewWorkerPool creates a new worker pool with the specified number of workers.
// A non-positive count sizes the pool to runtime.GOMAXPROCS(0).
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}

	pool.start()
	return pool, nil
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Panics returns how many Submit tasks panicked and were recovered.
func (wp *WorkerPool) Panics() int64 {
	return wp.panics.Load()
}

func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		// A panicking task must not take the worker down with it
		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.panics.Add(1)
				}
			}()
			task()
		}()
	}
}

// Submit adds a task to the worker pool.
// Returns false if the pool is closed, true if the task was queued.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}

	wp.taskQueue <- task
	return true
}

// batch tracks one fork-join submission.
type batch struct {
	wg    sync.WaitGroup
	mu    sync.Mutex
	cause error
}

func (b *batch) fail(index int, r any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cause == nil {
		b.cause = fmt.Errorf("%w: task %d: %v", ErrTaskPanicked, index, r)
	}
}

// Run submits every task and blocks until all of them have finished. It is
// the join point of a fork-join step: nothing a task wrote is guaranteed to
// be complete before Run returns, and everything is complete after.
//
// If any task panics, the remaining tasks still run to completion and Run
// returns an error wrapping ErrTaskPanicked.
func (wp *WorkerPool) Run(tasks []func()) error {
	if len(tasks) == 0 {
		return nil
	}

	b := &batch{}
	b.wg.Add(len(tasks))

	for i, task := range tasks {
		queued := wp.Submit(func() {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.fail(i, r)
				}
			}()
			task()
		})
		if !queued {
			// Tasks from i onwards never reached a worker
			b.wg.Add(-(len(tasks) - i))
			b.wg.Wait()
			return ErrPoolClosed
		}
	}

	b.wg.Wait()
	return b.cause
}

// Close shuts down the worker pool and waits for queued tasks to drain.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}
