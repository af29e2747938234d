package parallel

import (
	"errors"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestPool(t *testing.T, workers int) *WorkerPool {
	t.Helper()
	pool, err := NewWorkerPool(workers)
	if err != nil {
		t.Fatalf("NewWorkerPool(%d) failed: %v", workers, err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// TestWorkerPoolSizing tests how the worker count is derived
func TestWorkerPoolSizing(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"explicit", 3, 3},
		{"zero uses GOMAXPROCS", 0, runtime.GOMAXPROCS(0)},
		{"negative uses GOMAXPROCS", -5, runtime.GOMAXPROCS(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newTestPool(t, tt.workers)
			if pool.Workers() != tt.want {
				t.Errorf("Workers() = %d, want %d", pool.Workers(), tt.want)
			}
		})
	}
}

// TestWorkerPoolOverflow tests that absurd worker counts are rejected
func TestWorkerPoolOverflow(t *testing.T) {
	_, err := NewWorkerPool(math.MaxInt)
	if !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("Expected ErrTooManyWorkers, got %v", err)
	}
}

// TestWorkerPoolRunJoinsBatch tests that Run returns only after every task finished
func TestWorkerPoolRunJoinsBatch(t *testing.T) {
	pool := newTestPool(t, 4)

	const numTasks = 64
	results := make([]int, numTasks)
	tasks := make([]func(), numTasks)
	for i := range tasks {
		tasks[i] = func() {
			time.Sleep(time.Millisecond)
			results[i] = i * i
		}
	}

	if err := pool.Run(tasks); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i, got := range results {
		if got != i*i {
			t.Errorf("results[%d] = %d, want %d", i, got, i*i)
		}
	}
}

// TestWorkerPoolRunRepeatedBatches tests that the pool survives many batches
func TestWorkerPoolRunRepeatedBatches(t *testing.T) {
	pool := newTestPool(t, 4)

	var counter atomic.Int64
	for round := 0; round < 50; round++ {
		tasks := make([]func(), 10)
		for i := range tasks {
			tasks[i] = func() { counter.Add(1) }
		}
		if err := pool.Run(tasks); err != nil {
			t.Fatalf("round %d: Run failed: %v", round, err)
		}
		if got := counter.Load(); got != int64((round+1)*10) {
			t.Fatalf("round %d: counter = %d, want %d", round, got, (round+1)*10)
		}
	}
}

// TestWorkerPoolRunPanic tests that a panicking task fails the batch but not the pool
func TestWorkerPoolRunPanic(t *testing.T) {
	pool := newTestPool(t, 2)

	var completed atomic.Int64
	tasks := []func(){
		func() { completed.Add(1) },
		func() { panic("intentional panic") },
		func() { completed.Add(1) },
	}

	err := pool.Run(tasks)
	if !errors.Is(err, ErrTaskPanicked) {
		t.Fatalf("Expected ErrTaskPanicked, got %v", err)
	}
	if completed.Load() != 2 {
		t.Errorf("Expected the other tasks to finish, completed = %d", completed.Load())
	}

	// Pool still usable
	if err := pool.Run([]func(){func() { completed.Add(1) }}); err != nil {
		t.Fatalf("Run after panic failed: %v", err)
	}
}

// TestWorkerPoolRunAfterClose tests that Run refuses work on a closed pool
func TestWorkerPoolRunAfterClose(t *testing.T) {
	pool, err := NewWorkerPool(2)
	if err != nil {
		t.Fatal(err)
	}
	pool.Close()

	err = pool.Run([]func(){func() { t.Error("This task should never execute") }})
	if !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Expected ErrPoolClosed, got %v", err)
	}
	if pool.Run(nil) != nil {
		t.Error("Run(nil) should be a no-op")
	}
}

// TestWorkerPoolSubmitAfterClose tests that submissions after close return false
func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool, err := NewWorkerPool(4)
	if err != nil {
		t.Fatal(err)
	}

	if !pool.Submit(func() { time.Sleep(10 * time.Millisecond) }) {
		t.Error("Task submission before close should succeed")
	}

	pool.Close()

	if pool.Submit(func() { t.Error("This task should never execute") }) {
		t.Error("Task submission after close should return false")
	}
}

// TestWorkerPoolSubmitPanicRecovered tests that panics in submitted tasks don't kill workers
func TestWorkerPoolSubmitPanicRecovered(t *testing.T) {
	pool, err := NewWorkerPool(4)
	if err != nil {
		t.Fatal(err)
	}

	var counter atomic.Int64
	for i := 0; i < 5; i++ {
		pool.Submit(func() { panic("intentional panic") })
	}
	for i := 0; i < 10; i++ {
		pool.Submit(func() { counter.Add(1) })
	}

	pool.Close()

	if counter.Load() != 10 {
		t.Errorf("Expected counter 10, got %d", counter.Load())
	}
	if pool.Panics() != 5 {
		t.Errorf("Expected 5 recovered panics, got %d", pool.Panics())
	}
}

// TestWorkerPoolConcurrentClose tests concurrent close calls
func TestWorkerPoolConcurrentClose(t *testing.T) {
	pool, err := NewWorkerPool(4)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 20; i++ {
		pool.Submit(func() { time.Sleep(time.Millisecond) })
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Close()
		}()
	}
	wg.Wait()
}

// BenchmarkWorkerPoolRun benchmarks fork-join batch overhead
func BenchmarkWorkerPoolRun(b *testing.B) {
	pool, err := NewWorkerPool(0)
	if err != nil {
		b.Fatal(err)
	}
	defer pool.Close()

	tasks := make([]func(), 64)
	for i := range tasks {
		tasks[i] = func() {
			sum := 0
			for j := 0; j < 100; j++ {
				sum += j
			}
			_ = sum
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := pool.Run(tasks); err != nil {
			b.Fatal(err)
		}
	}
}
