package worker

import (
	"context"
	"sort"
	"sync"
)

// Job is a unit of work run by the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job produces
type Result interface {
	GetError() error
}

// sequenced tags a job or result with its submission order
type sequenced[T any] struct {
	seq  int
	item T
}

// Pool runs jobs on a fixed number of workers and hands results back in submission order
type Pool struct {
	workers    int
	jobQueue   chan sequenced[Job]
	results    chan sequenced[Result]
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	mu       sync.Mutex
	next     int
	onResult func(Result)
}

// NewPool creates a pool whose jobs run under ctx
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan sequenced[Job], workers*2),
		results:    make(chan sequenced[Result], workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// OnResult registers a callback invoked as each result arrives, in completion order.
// It must be set before Start.
func (p *Pool) OnResult(fn func(Result)) {
	p.onResult = fn
}

// Start launches the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := sequenced[Result]{seq: job.seq, item: job.item.Execute(p.ctx)}
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job; it returns false once the pool's context is done
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}

	p.mu.Lock()
	seq := p.next
	p.next++
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- sequenced[Job]{seq: seq, item: job}:
		return true
	}
}

// Wait closes the queue, waits for the workers and returns results in submission order.
// Submit must not be called after Wait.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)

	go func() {
		p.wg.Wait()
		close(p.results)
	}()

	var collected []sequenced[Result]
	for result := range p.results {
		if p.onResult != nil {
			p.onResult(result.item)
		}
		collected = append(collected, result)
	}
	p.cancelFunc()

	sort.Slice(collected, func(i, j int) bool { return collected[i].seq < collected[j].seq })
	results := make([]Result, len(collected))
	for i, r := range collected {
		results[i] = r.item
	}
	return results
}
