package simulation

import (
	"context"
	"sync"
)

// SessionRunner plays session index and returns its result. Each worker gets
// its own runner, so a runner may hold non-thread-safe state such as a policy clone.
type SessionRunner func(index int) SessionResult

// WorkerPool runs independent sessions on a fixed number of goroutines
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// Workers is the pool size
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// Run plays numSessions sessions and returns their results in index order.
// newRunner is called once per worker. progress, when non-nil, is called from
// the calling goroutine after every finished session. When ctx is cancelled,
// pending sessions are skipped and ctx.Err() is returned.
func (wp *WorkerPool) Run(ctx context.Context, numSessions int, newRunner func() SessionRunner, progress ProgressFunc) ([]SessionResult, error) {
	if numSessions <= 0 {
		return []SessionResult{}, nil
	}

	jobs := make(chan int, numSessions)
	results := make(chan sessionItem, numSessions)

	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if numSessions < numActualWorkers {
		numActualWorkers = numSessions
	}

	for i := 0; i < numActualWorkers; i++ {
		run := newRunner()
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, jobs, results, run)
		}()
	}

	for idx := 0; idx < numSessions; idx++ {
		jobs <- idx
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	resultSlice := make([]SessionResult, numSessions)
	done := 0
	for item := range results {
		resultSlice[item.index] = item.result
		done++
		if progress != nil {
			progress(done, numSessions)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return resultSlice, nil
}

type sessionItem struct {
	result SessionResult
	index  int
}

func worker(ctx context.Context, jobs <-chan int, results chan<- sessionItem, run SessionRunner) {
	for idx := range jobs {
		if ctx.Err() != nil {
			continue
		}
		results <- sessionItem{
			index:  idx,
			result: run(idx),
		}
	}
}
