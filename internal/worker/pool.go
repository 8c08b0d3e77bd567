// Package worker runs scenarios concurrently and throttles provider calls.
package worker

import (
	"context"
	"sync"
)

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Job represents a unit of work to be executed
type Job[R Result] interface {
	Execute(ctx context.Context) R
}

// Pool manages a pool of workers that execute jobs concurrently
type Pool[R Result] struct {
	workers    int
	jobQueue   chan Job[R]
	results    chan R
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a new worker pool with the specified number of workers.
// Cancelling parent stops the workers after their current job.
func NewPool[R Result](parent context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool[R]{
		workers:    workers,
		jobQueue:   make(chan Job[R], workers*2), // Buffered to prevent blocking
		results:    make(chan R, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker pool
func (p *Pool[R]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[R]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit submits a job to the pool for execution.
// It returns false if the pool was shut down first.
func (p *Pool[R]) Submit(job Job[R]) bool {
	// select picks randomly among ready cases; check shutdown first
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- job:
		return true
	}
}

// Results exposes results as they arrive; it is closed by Wait or Shutdown
func (p *Pool[R]) Results() <-chan R {
	return p.results
}

// Close signals that no more jobs will be submitted and closes Results
// once every worker has exited.
func (p *Pool[R]) Close() {
	close(p.jobQueue)

	go func() {
		p.wg.Wait()
		p.closeResults()
		p.cancelFunc()
	}()
}

// Wait closes the queue and collects all results in completion order
func (p *Pool[R]) Wait() []R {
	p.Close()

	var results []R
	for result := range p.results {
		results = append(results, result)
	}

	return results
}

// Shutdown shuts down the worker pool immediately
func (p *Pool[R]) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool[R]) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
