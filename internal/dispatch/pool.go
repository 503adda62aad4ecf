package dispatch

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
)

var errPoolClosed = errors.New("dispatch pool closed")

type task struct {
	ctx context.Context
	fn  func(context.Context)
}

// Pool runs submitted work on a fixed set of workers. Work sharing the same
// key always lands on the same worker, so events for one order execute in
// submission order while distinct orders proceed in parallel.
type Pool struct {
	queues []chan task
	logger *logger.Logger

	mu         sync.Mutex
	closed     bool
	submitters sync.WaitGroup
	wg         sync.WaitGroup
}

// NewPool starts workers goroutines each with a bounded queue.
func NewPool(workers, queueDepth int, logg *logger.Logger) (*Pool, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("dispatch workers must be positive")
	}
	if queueDepth <= 0 {
		return nil, fmt.Errorf("dispatch queue depth must be positive")
	}

	p := &Pool{
		queues: make([]chan task, workers),
		logger: logg,
	}
	for i := range p.queues {
		queue := make(chan task, queueDepth)
		p.queues[i] = queue
		p.wg.Add(1)
		go p.run(queue)
	}
	return p, nil
}

func (p *Pool) run(queue chan task) {
	defer p.wg.Done()
	for t := range queue {
		p.execute(t)
	}
}

func (p *Pool) execute(t task) {
	defer func() {
		if r := recover(); r != nil && p.logger != nil {
			p.logger.Error(t.ctx, "dispatch task panicked", fmt.Errorf("%v", r))
		}
	}()
	t.fn(t.ctx)
}

// Submit enqueues fn on the worker owning key, blocking while that worker's
// queue is full. It returns once the task is queued, not once it ran.
func (p *Pool) Submit(ctx context.Context, key string, fn func(context.Context)) error {
	if fn == nil {
		return fmt.Errorf("dispatch task required")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errPoolClosed
	}
	// registered under the same lock that flips closed, so Close waits for
	// this send before closing the queues
	p.submitters.Add(1)
	queue := p.queues[p.workerIndex(key)]
	p.mu.Unlock()
	defer p.submitters.Done()

	select {
	case queue <- task{ctx: ctx, fn: fn}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) workerIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(p.queues)))
}

// Close drains queued work and waits for the workers to finish. Submits
// already in flight complete first; the workers keep draining while Close
// waits for them, so a submitter blocked on a full queue cannot deadlock it.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.submitters.Wait()
	for _, queue := range p.queues {
		close(queue)
	}
	p.wg.Wait()
}
