package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"school-management-platform/internal/infra/logging"
)

// Task is one unit of background work, such as producing marking feedback
// for a graded submission.
type Task func(ctx context.Context) error

// Pool runs submitted tasks on a fixed set of workers. Submissions never
// block the caller: when the queue is full the task is dropped with an
// error instead.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
	quit chan struct{}
	n    int
}

func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{jobs: make(chan Task, workers*4), quit: make(chan struct{}), n: workers}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					if task == nil {
						continue
					}
					if err := task(ctx); err != nil {
						logging.Global.Error().Err(err).Int("worker", id).Msg("background task failed")
					}
				}
			}
		}(i)
	}
}

func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.jobs <- task:
		return nil
	default:
		// lossy on purpose: feedback generation is best-effort
		return errors.New("worker queue full")
	}
}
