package task

import (
	"context"
	"log/slog"
	"sync"
)

// WorkerPool manages a pool of worker goroutines that process tasks
// from a task queue until the queue is closed and drained.
type WorkerPool struct {
	taskQueue   QueueReader
	workerCount int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger

	// errorHandler is called when a task execution fails.
	// If nil, errors are only logged.
	errorHandler func(task Task, err error)
}

// WorkerPoolConfig holds configuration options for the worker pool.
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to
	// start. If zero or negative, defaults to 1.
	WorkerCount int
}

// NewWorkerPool creates a new worker pool with the specified configuration.
// The parent context bounds all task execution; cancelling it stops the
// pool's in-flight work cooperatively.
func NewWorkerPool(parent context.Context, taskQueue QueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(parent)

	return &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// SetErrorHandler sets a custom handler for task execution failures.
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// Start launches the worker goroutines. It returns immediately; callers
// use Wait to block until the queue is closed and drained.
func (p *WorkerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Debug("worker pool started", "worker_count", p.workerCount)
}

// Wait blocks until all workers have exited, which happens once the
// task queue is closed and every remaining task has been processed.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Stop cancels in-flight task contexts and waits for workers to exit.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Debug("worker pool stopped")
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for task := range p.taskQueue.GetChannel() {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("worker shutting down, task skipped",
				"worker_id", id,
				"task_id", task.ID())
			continue
		default:
		}

		p.logger.Debug("worker executing task",
			"worker_id", id,
			"task_id", task.ID(),
			"task_type", task.Type())

		if err := task.Execute(p.ctx); err != nil {
			p.logger.Error("task execution failed",
				"worker_id", id,
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
			if p.errorHandler != nil {
				p.errorHandler(task, err)
			}
		}
	}
}
