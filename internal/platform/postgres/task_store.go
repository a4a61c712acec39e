package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/inkwell-api/internal/platform/logger"
	"github.com/phrazzld/inkwell-api/internal/store"
	"github.com/phrazzld/inkwell-api/internal/task"
)

// PostgresTaskStore implements the task.TaskStore interface using PostgreSQL.
// The tasks table doubles as the dispatch ledger between the API and worker
// processes, so every transition here has to stay safe under concurrent
// workers.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore wires the store to a database handle or transaction.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	return &PostgresTaskStore{
		db:     db,
		logger: slog.Default().With(slog.String("component", "task_store")),
	}
}

var _ task.TaskStore = (*PostgresTaskStore)(nil)

// SaveTask inserts the task row carrying the task's current status.
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		t.Payload(),
		t.Status(),
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	return nil
}

// ClaimTask atomically transitions a task from pending to processing.
// The WHERE clause on status makes concurrent claims race safely: only one
// caller updates the row, the rest see zero rows affected and get
// task.ErrTaskNotClaimed.
func (s *PostgresTaskStore) ClaimTask(ctx context.Context, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		task.TaskStatusProcessing,
		time.Now().UTC(),
		taskID,
		task.TaskStatusPending,
	)
	if err != nil {
		log.Error("failed to claim task",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Zero rows means the task is no longer pending: another worker won
		// the claim, or the task already reached a terminal state.
		return task.ErrTaskNotClaimed
	}

	return nil
}

// UpdateTaskStatus records a status change for the task, storing errorMsg in
// the row. Unknown IDs are logged and ignored so status writes from retry
// paths cannot fail on deleted rows.
func (s *PostgresTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		status,
		errorMsg,
		time.Now().UTC(),
		taskID,
	)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		log.Warn("no task row to update",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(status)))
	}

	return nil
}

// GetPendingTasks loads every task still waiting for a worker.
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]task.Task, error) {
	return s.listTasks(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks loads tasks that have sat in processing state longer
// than olderThan. A zero duration applies no age filter.
func (s *PostgresTaskStore) GetProcessingTasks(
	ctx context.Context,
	olderThan time.Duration,
) ([]task.Task, error) {
	return s.listTasks(ctx, task.TaskStatusProcessing, olderThan)
}

// listTasks loads tasks in the given status, oldest first, optionally keeping
// only rows untouched for longer than olderThan.
func (s *PostgresTaskStore) listTasks(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]task.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, type, payload, status, error_message, created_at, updated_at
		FROM tasks
		WHERE status = $1`
	args := []interface{}{status}

	if olderThan > 0 {
		query += ` AND updated_at < $2`
		args = append(args, time.Now().UTC().Add(-olderThan))
	}
	query += `
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []task.Task
	for rows.Next() {
		var row databaseTask
		var errorMessage sql.NullString

		if err := rows.Scan(
			&row.id,
			&row.taskType,
			&row.payload,
			&row.status,
			&errorMessage,
			&row.createdAt,
			&row.updatedAt,
		); err != nil {
			log.Error("failed to scan task row",
				slog.String("status", string(status)),
				slog.String("error", err.Error()))
			return nil, err
		}

		row.errorMessage = errorMessage.String
		tasks = append(tasks, &row)
	}

	if err := rows.Err(); err != nil {
		log.Error("task row iteration failed",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, err
	}

	return tasks, nil
}

// WithTx returns a TaskStore bound to the given transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// databaseTask implements the task.Task interface for tasks loaded from the
// database. It carries the stored row data but no execution logic; the task
// runner swaps it for an executable task via the factory registered for its
// type before dispatch.
type databaseTask struct {
	id           uuid.UUID
	taskType     string
	payload      []byte
	status       task.TaskStatus
	errorMessage string
	createdAt    time.Time
	updatedAt    time.Time
}

func (t *databaseTask) ID() uuid.UUID { return t.id }

func (t *databaseTask) Type() string { return t.taskType }

func (t *databaseTask) Payload() []byte { return t.payload }

func (t *databaseTask) Status() task.TaskStatus { return t.status }

// Execute fails: a databaseTask is inert row data. Reaching this means no
// factory was registered for the task type in this process.
func (t *databaseTask) Execute(ctx context.Context) error {
	return errors.New("no task factory registered for type " + t.taskType)
}
