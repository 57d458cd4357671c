package dispatch

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Pool runs submitted tasks on a fixed set of worker goroutines.
// It provides bounded queuing and graceful shutdown.
type Pool struct {
	// Configuration
	queueSize   int
	workerCount int

	// State
	mu      sync.RWMutex // protects queue creation/destruction and sends
	queue   chan func()
	running bool
	wg      sync.WaitGroup

	panicHandler PanicFunc

	// Stats
	submitted   atomic.Uint64
	completed   atomic.Uint64
	panicked    atomic.Uint64
	rejected    atomic.Uint64
	totalTimeNs atomic.Int64
}

// NewPool creates a new worker pool. Call Start before submitting.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		queueSize:   1024,
		workerCount: 4,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithQueueSize sets the task queue size.
func WithQueueSize(size int) PoolOption {
	return func(p *Pool) {
		if size > 0 {
			p.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) PoolOption {
	return func(p *Pool) {
		if count > 0 {
			p.workerCount = count
		}
	}
}

// WithPoolPanicHandler sets the handler for panics escaping a task.
func WithPoolPanicHandler(h PanicFunc) PoolOption {
	return func(p *Pool) {
		p.panicHandler = h
	}
}

// Start starts the workers.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPoolStarted
	}

	p.queue = make(chan func(), p.queueSize)
	p.running = true

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(p.queue)
	}

	return nil
}

// Stop stops the pool gracefully.
// It waits for all queued tasks to complete or until ctx is done.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrPoolStopped
	}
	p.running = false
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the pool accepts tasks.
func (p *Pool) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Submit queues a task. It never blocks: a full queue returns ErrQueueFull.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running {
		p.rejected.Add(1)
		return ErrPoolStopped
	}

	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return nil
	default:
		p.rejected.Add(1)
		return ErrQueueFull
	}
}

func (p *Pool) worker(queue <-chan func()) {
	defer p.wg.Done()
	for task := range queue {
		p.run(task)
	}
}

// run executes one task, recovering panics so a worker never dies.
func (p *Pool) run(task func()) {
	start := time.Now()
	defer func() {
		p.totalTimeNs.Add(time.Since(start).Nanoseconds())
		p.completed.Add(1)
		if r := recover(); r != nil {
			p.panicked.Add(1)
			if p.panicHandler != nil {
				func() {
					defer func() { _ = recover() }()
					p.panicHandler(r, debug.Stack())
				}()
			}
		}
	}()
	task()
}

// Stats returns pool statistics.
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	depth := 0
	if p.queue != nil && p.running {
		depth = len(p.queue)
	}
	p.mu.RUnlock()

	return PoolStats{
		Submitted:     p.submitted.Load(),
		Completed:     p.completed.Load(),
		Panicked:      p.panicked.Load(),
		Rejected:      p.rejected.Load(),
		QueueDepth:    depth,
		TotalDuration: time.Duration(p.totalTimeNs.Load()),
	}
}

// PoolStats contains statistics for a worker pool.
type PoolStats struct {
	// Submitted is the number of tasks accepted into the queue.
	Submitted uint64

	// Completed is the number of tasks that finished, including panics.
	Completed uint64

	// Panicked is the number of tasks that panicked.
	Panicked uint64

	// Rejected is the number of tasks refused (queue full or stopped).
	Rejected uint64

	// QueueDepth is the current number of queued tasks.
	QueueDepth int

	// TotalDuration is the cumulative time spent running tasks.
	TotalDuration time.Duration
}
