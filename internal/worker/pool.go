// Package worker provides the concurrency primitives shared by batch mining:
// a bounded pool of task runners and a throttle that coordinates rate-limit
// backoff between them.
package worker

import (
	"context"
	"sync"
)

// Task is a unit of work executed by the pool
type Task interface {
	Run(ctx context.Context) Outcome
}

// Outcome is the result of a task execution
type Outcome interface {
	Err() error
}

// Pool executes tasks on a fixed number of goroutines
type Pool struct {
	workers   int
	tasks     chan Task
	outcomes  chan Outcome
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool with the given number of workers (minimum 1)
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers:  workers,
		tasks:    make(chan Task, workers*2),
		outcomes: make(chan Outcome, workers*2),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		// Checked with priority: when both the queue and cancellation are
		// ready, select picks randomly and a queued task could still run
		// after Abort.
		if p.ctx.Err() != nil {
			return
		}
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			if p.ctx.Err() != nil {
				return
			}
			outcome := task.Run(p.ctx)
			select {
			case p.outcomes <- outcome:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a task. Submissions after Abort are dropped.
func (p *Pool) Submit(task Task) {
	select {
	case <-p.ctx.Done():
	case p.tasks <- task:
	}
}

// Drain closes the queue, waits for all queued tasks, and returns their
// outcomes in completion order
func (p *Pool) Drain() []Outcome {
	close(p.tasks)

	go func() {
		p.wg.Wait()
		p.closeOutcomes()
	}()

	var outcomes []Outcome
	for outcome := range p.outcomes {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// Abort cancels running tasks and shuts the pool down
func (p *Pool) Abort() {
	p.cancel()
	p.wg.Wait()
	p.closeOutcomes()
}

func (p *Pool) closeOutcomes() {
	p.closeOnce.Do(func() {
		close(p.outcomes)
	})
}
