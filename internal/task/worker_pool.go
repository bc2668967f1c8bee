package task

import (
	"context"
	"log/slog"
	"sync"
)

// ItemHandler processes one dequeued item on behalf of a worker.
type ItemHandler func(workerID int, item Item)

// WorkerPool manages a pool of worker goroutines that process items
// from a queue. Each worker handles one item at a time.
type WorkerPool struct {
	// queue provides read access to the items to be processed
	queue QueueReader

	// workerCount is the number of concurrent workers to start
	workerCount int

	// handler runs each dequeued item
	handler ItemHandler

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is cancelled by Abort to release idle workers
	ctx    context.Context
	cancel context.CancelFunc

	logger *slog.Logger

	startOnce sync.Once
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 2,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(queue QueueReader, config WorkerPoolConfig, handler ItemHandler, logger *slog.Logger) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		queue:       queue,
		workerCount: workerCount,
		handler:     handler,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// WorkerCount returns the number of workers the pool runs.
func (p *WorkerPool) WorkerCount() int {
	return p.workerCount
}

// Start launches the workers. Calling it more than once has no effect.
func (p *WorkerPool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting worker pool", "worker_count", p.workerCount)
		for i := 0; i < p.workerCount; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
	})
}

// Wait blocks until every worker has exited, which happens once the queue
// is closed and drained. It returns ctx.Err() if ctx is done first; the
// workers keep running in that case.
func (p *WorkerPool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Abort releases idle workers without waiting for the queue to drain.
// Workers in the middle of an item finish it and then exit.
func (p *WorkerPool) Abort() {
	p.cancel()
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		// Stop taking new work once aborted, even if items remain.
		if p.ctx.Err() != nil {
			p.logger.Debug("worker aborted", "worker_id", id)
			return
		}

		item, ok := p.queue.Next(p.ctx)
		if !ok {
			p.logger.Debug("stopping worker", "worker_id", id)
			return
		}

		p.handler(id, item)
	}
}
