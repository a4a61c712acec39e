package task

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task row: pending until a worker
// claims it, processing while it runs, then completed or failed.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task types understood by the worker pool. Factories register under these
// names.
const (
	// TaskTypeEmailDelivery sends outbound email.
	TaskTypeEmailDelivery = "email_delivery"

	// TaskTypePostPublish moves a post through its publishing pipeline.
	TaskTypePostPublish = "post_publish"
)

// ErrTaskNotClaimed is returned by TaskStore.ClaimTask when the task was not
// in pending state, meaning another worker already claimed it or it reached a
// terminal state.
var ErrTaskNotClaimed = errors.New("task not claimed")

// Task is a unit of background work.
type Task interface {
	// ID is the stable identifier the task row is keyed by.
	ID() uuid.UUID

	// Type names the factory able to rebuild this task from its payload.
	Type() string

	// Payload is the serialized task input.
	Payload() []byte

	// Status reports the task's current lifecycle state.
	Status() TaskStatus

	// Execute performs the work.
	Execute(ctx context.Context) error
}

// TaskQueueReader is the consuming side of the queue, handed to workers.
type TaskQueueReader interface {
	// GetChannel exposes the queue as a receive-only channel.
	GetChannel() <-chan Task
}

// TaskQueueWriter is the producing side of the queue, handed to services.
type TaskQueueWriter interface {
	// Enqueue adds a task. It fails when the queue is full or closed.
	Enqueue(task Task) error

	// Close stops further submissions.
	Close()
}

// TaskStore defines the interface for persisting tasks.
// The tasks table is the shared work ledger: any process can insert rows and
// any worker process can claim and execute them.
type TaskStore interface {
	// SaveTask inserts the task row carrying the task's current status.
	SaveTask(ctx context.Context, task Task) error

	// ClaimTask atomically transitions the task from pending to processing.
	// Exactly one concurrent caller wins the claim; the rest receive
	// ErrTaskNotClaimed and must skip execution.
	ClaimTask(ctx context.Context, taskID uuid.UUID) error

	// UpdateTaskStatus records a status change, storing errorMsg alongside
	// failed tasks.
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// GetPendingTasks loads every task still waiting for a worker.
	GetPendingTasks(ctx context.Context) ([]Task, error)

	// GetProcessingTasks loads tasks that have sat in processing state
	// longer than olderThan. A zero duration applies no age filter.
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error)

	// WithTx returns a TaskStore that runs its operations on the given
	// transaction. The caller owns commit and rollback.
	WithTx(tx *sql.Tx) TaskStore
}

// TaskFactory creates executable tasks of a single type. Factories carry the
// dependencies (mailers, services) that tasks need, so rows loaded from the
// database can be turned back into something runnable.
type TaskFactory interface {
	// TaskType returns the type identifier of tasks this factory builds
	TaskType() string

	// CreateTask builds a new task with a fresh ID from a serialized payload
	CreateTask(payload []byte) (Task, error)

	// RehydrateTask rebuilds a previously persisted task so it executes
	// under its original ID
	RehydrateTask(id uuid.UUID, payload []byte) (Task, error)
}

// TaskSubmitter accepts tasks for background execution.
type TaskSubmitter interface {
	// Submit persists the task and schedules it for execution
	Submit(ctx context.Context, task Task) error
}
