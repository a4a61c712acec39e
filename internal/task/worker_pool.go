package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// WorkerPool manages a pool of worker goroutines that process tasks
// from a task queue. Each worker claims a task before executing it, so
// pools in separate processes can safely share one task store. It handles
// graceful shutdown and worker lifecycle.
type WorkerPool struct {
	// taskQueue provides read access to the tasks to be processed
	taskQueue TaskQueueReader

	// store records task status transitions and arbitrates claims
	store TaskStore

	// workerCount is the number of concurrent workers to start
	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is used for cancellation and shutdown signaling
	ctx context.Context

	// cancel is the function to call to cancel the context
	cancel context.CancelFunc

	// logger for structured logging
	logger *slog.Logger

	// errorHandler is called when a task execution fails
	// If nil, errors are only logged
	errorHandler func(task Task, err error)

	// doneHandler is called after a task leaves the pool, whatever the
	// outcome. If nil, nothing extra happens.
	doneHandler func(task Task)
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
func NewWorkerPool(
	taskQueue TaskQueueReader,
	store TaskStore,
	config WorkerPoolConfig,
	logger *slog.Logger,
) *WorkerPool {
	// Apply defaults for invalid config values
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	// Create a cancelable context for shutdown coordination
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		taskQueue:   taskQueue,
		store:       store,
		workerCount: workerCount,
		wg:          sync.WaitGroup{},
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// SetErrorHandler allows setting a custom error handler for task execution failures
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// SetDoneHandler allows setting a callback invoked after each task finishes,
// whether it completed, failed, or was skipped.
func (p *WorkerPool) SetDoneHandler(handler func(task Task)) {
	p.doneHandler = handler
}

// Start launches the worker goroutines. Workers run until the pool is
// stopped or the task queue channel is closed and drained.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", "worker_count", p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels the pool context and waits for all workers to exit.
// Tasks executing at the time of the call observe context cancellation.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// worker consumes tasks from the queue until shutdown
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-p.taskQueue.GetChannel():
			if !ok {
				p.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}

			p.processTask(task, id)
		}
	}
}

// processTask claims and executes a single task, recording the outcome.
// Status updates run on a background context so a terminal status can still
// be written while the pool is shutting down.
func (p *WorkerPool) processTask(task Task, workerID int) {
	logger := p.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	defer func() {
		if p.doneHandler != nil {
			p.doneHandler(task)
		}
	}()

	storeCtx := context.Background()

	if err := p.store.ClaimTask(storeCtx, task.ID()); err != nil {
		if errors.Is(err, ErrTaskNotClaimed) {
			logger.Debug("task already claimed, skipping")
		} else {
			logger.Error("failed to claim task", "error", err)
		}
		return
	}

	logger.Info("processing task")

	err := p.executeTask(task)

	if err != nil {
		if p.ctx.Err() != nil && errors.Is(err, context.Canceled) {
			// Interrupted by shutdown. Put the task back so the next run
			// picks it up instead of recording a spurious failure.
			logger.Info("task interrupted by shutdown, resetting to pending")
			if updateErr := p.store.UpdateTaskStatus(storeCtx, task.ID(), TaskStatusPending,
				"reset after interrupted execution"); updateErr != nil {
				logger.Error("failed to reset interrupted task", "error", updateErr)
			}
			return
		}

		logger.Error("task execution failed", "error", err)
		if updateErr := p.store.UpdateTaskStatus(storeCtx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update task status to failed", "error", updateErr)
		}

		if p.errorHandler != nil {
			p.errorHandler(task, err)
		}
		return
	}

	logger.Info("task completed successfully")
	if updateErr := p.store.UpdateTaskStatus(storeCtx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
		logger.Error("failed to update task status to completed", "error", updateErr)
	}
}

// executeTask runs the task under the pool context, converting panics into
// errors so one bad task cannot take down a worker.
func (p *WorkerPool) executeTask(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return task.Execute(p.ctx)
}
