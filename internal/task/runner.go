package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration

	// PendingPollInterval defines how often to poll the store for pending
	// tasks submitted by other processes. If zero, defaults to 15 seconds.
	PendingPollInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
		PendingPollInterval:    15 * time.Second,
	}
}

// TaskRunner manages background task processing. It owns the in-memory
// queue and worker pool, recovers unfinished tasks at startup, polls the
// store for work submitted by other processes, and resets tasks that have
// been stuck in processing for too long.
type TaskRunner struct {
	store      TaskStore
	queue      *TaskQueue
	pool       *WorkerPool
	factories  map[string]TaskFactory
	inFlight   map[uuid.UUID]struct{}
	mu         sync.Mutex
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	// Apply default intervals if not specified
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	if config.PendingPollInterval == 0 {
		config.PendingPollInterval = 15 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, store, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)

	r := &TaskRunner{
		store:      store,
		queue:      queue,
		pool:       pool,
		factories:  make(map[string]TaskFactory),
		inFlight:   make(map[uuid.UUID]struct{}),
		ctx:        ctx,
		cancelFunc: cancel,
		wg:         sync.WaitGroup{},
		config:     config,
		logger:     logger,
		errHandler: func(task Task, err error) {
			// Default error handler just logs the error
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}

	pool.SetErrorHandler(func(task Task, err error) {
		r.errHandler(task, err)
	})
	pool.SetDoneHandler(r.taskDone)

	return r
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// RegisterFactory registers a task factory used to rebuild executable tasks
// from rows loaded out of the store. Tasks whose type has no registered
// factory are enqueued as loaded.
func (r *TaskRunner) RegisterFactory(factory TaskFactory) {
	r.factories[factory.TaskType()] = factory
	r.logger.Debug("registered task factory", "task_type", factory.TaskType())
}

// Ensure TaskRunner implements TaskSubmitter
var _ TaskSubmitter = (*TaskRunner)(nil)

// Submit adds a new task to the queue
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	// Save task to database first
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	// Then add to in-memory queue
	r.markInFlight(task.ID())
	if err := r.queue.Enqueue(task); err != nil {
		r.clearInFlight(task.ID())
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

// Start recovers unfinished tasks and begins processing
func (r *TaskRunner) Start() error {
	// Recover unfinished tasks from previous runs
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	r.pool.Start()

	// Poll for tasks submitted by other processes
	r.wg.Add(1)
	go r.pendingTaskPoller()

	// Periodically reset tasks stuck in processing
	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the task runner
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.pool.Stop()
	r.queue.Close()
}

// Recover loads any unfinished tasks from the database and requeues them.
// Tasks found in processing state were interrupted by a crash or shutdown
// and are reset to pending before requeueing.
func (r *TaskRunner) Recover() error {
	ctx := context.Background()

	// Get tasks that were in "pending" state
	pendingTasks, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// Get tasks that were in "processing" state (potentially interrupted by a crash)
	processingTasks, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pendingTasks),
		"processing_count", len(processingTasks))

	for _, t := range pendingTasks {
		r.requeue(ctx, t)
	}

	for _, t := range processingTasks {
		// Reset status so the claim check lets a worker pick it up again
		if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusPending, "reset after restart"); err != nil {
			r.logger.Error("failed to reset processing task status",
				"task_id", t.ID(),
				"task_type", t.Type(),
				"error", err)
			continue
		}

		r.requeue(ctx, t)
	}

	return nil
}

// requeue rebuilds the task if a factory is registered and enqueues it,
// tracking it as in flight so the poller does not enqueue it again.
func (r *TaskRunner) requeue(ctx context.Context, t Task) {
	executable := r.rehydrate(ctx, t)
	if executable == nil {
		return
	}

	r.markInFlight(executable.ID())
	if err := r.queue.Enqueue(executable); err != nil {
		r.clearInFlight(executable.ID())
		r.logger.Error("failed to requeue task, queue is full",
			"task_id", executable.ID(),
			"task_type", executable.Type(),
			"error", err)
	}
}

// rehydrate turns a stored task row back into an executable task using the
// registered factory for its type. Tasks with no registered factory pass
// through unchanged. Returns nil when rehydration fails; the task is marked
// failed in that case.
func (r *TaskRunner) rehydrate(ctx context.Context, t Task) Task {
	factory, ok := r.factories[t.Type()]
	if !ok {
		return t
	}

	executable, err := factory.RehydrateTask(t.ID(), t.Payload())
	if err != nil {
		r.logger.Error("failed to rehydrate task",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusFailed,
			fmt.Sprintf("rehydration failed: %v", err)); updateErr != nil {
			r.logger.Error("failed to mark unrehydratable task failed",
				"task_id", t.ID(),
				"error", updateErr)
		}
		return nil
	}

	return executable
}

// pendingTaskPoller periodically scans the store for pending tasks and
// enqueues any that are not already queued in this process. This is how a
// worker process picks up tasks that an API process inserted.
func (r *TaskRunner) pendingTaskPoller() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PendingPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			pendingTasks, err := r.store.GetPendingTasks(ctx)
			if err != nil {
				r.logger.Error("failed to poll for pending tasks", "error", err)
				continue
			}

			for _, t := range pendingTasks {
				if r.isInFlight(t.ID()) {
					continue
				}
				r.requeue(ctx, t)
			}
		}
	}
}

// stuckTaskMonitor periodically checks for tasks that have been in "processing"
// state for too long and resets them so they can be claimed again.
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuckTasks, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", "error", err)
				continue
			}

			if len(stuckTasks) == 0 {
				continue
			}

			r.logger.Info("found stuck tasks", "count", len(stuckTasks))

			for _, t := range stuckTasks {
				// A task still executing in this process is slow, not stuck
				if r.isInFlight(t.ID()) {
					continue
				}

				if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusPending,
					"reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck task status",
						"task_id", t.ID(),
						"task_type", t.Type(),
						"error", err)
					continue
				}

				r.logger.Info("requeueing stuck task",
					"task_id", t.ID(),
					"task_type", t.Type())
				r.requeue(ctx, t)
			}
		}
	}
}

// taskDone is invoked by the worker pool after each task finishes.
func (r *TaskRunner) taskDone(t Task) {
	r.clearInFlight(t.ID())
}

func (r *TaskRunner) markInFlight(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight[id] = struct{}{}
}

func (r *TaskRunner) clearInFlight(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, id)
}

func (r *TaskRunner) isInFlight(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inFlight[id]
	return ok
}
