package task

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockTaskStore is an in-memory TaskStore for tests. Each operation can be
// overridden through its Fn field; unset fields fall back to the built-in
// in-memory behavior.
type MockTaskStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*mockTaskRecord

	SaveFn         func(ctx context.Context, t Task) error
	ClaimFn        func(ctx context.Context, taskID uuid.UUID) error
	UpdateStatusFn func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error
}

// mockTaskRecord pairs a stored task with the time its status last changed,
// which GetProcessingTasks uses to spot stuck tasks.
type mockTaskRecord struct {
	task      *MockTask
	changedAt time.Time
}

var _ TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates an empty store with the default behaviors.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{records: make(map[uuid.UUID]*mockTaskRecord)}
}

// SaveTask stores the task, converting foreign Task implementations into
// MockTasks so later status changes can be applied in place.
func (s *MockTaskStore) SaveTask(ctx context.Context, t Task) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mock, ok := t.(*MockTask)
	if !ok {
		mock = NewMockTask(t.ID(), t.Type(), t.Payload())
		mock.TaskStatus = t.Status()
	}
	s.records[t.ID()] = &mockTaskRecord{task: mock, changedAt: time.Now()}
	return nil
}

// ClaimTask moves a pending task to processing. Any other state, or an
// unknown ID, loses the claim.
func (s *MockTaskStore) ClaimTask(ctx context.Context, taskID uuid.UUID) error {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, taskID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[taskID]
	if !ok || rec.task.TaskStatus != TaskStatusPending {
		return ErrTaskNotClaimed
	}
	rec.task.TaskStatus = TaskStatusProcessing
	rec.changedAt = time.Now()
	return nil
}

// UpdateTaskStatus records the new status. Unknown IDs are a no-op so tests
// do not have to pre-seed every task they touch.
func (s *MockTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, taskID, status, errorMsg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[taskID]
	if !ok {
		return nil
	}
	rec.task.TaskStatus = status
	rec.changedAt = time.Now()
	return nil
}

// GetPendingTasks returns every task currently in the pending state.
func (s *MockTaskStore) GetPendingTasks(ctx context.Context) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []Task
	for _, rec := range s.records {
		if rec.task.Status() == TaskStatusPending {
			pending = append(pending, rec.task)
		}
	}
	return pending, nil
}

// GetProcessingTasks returns processing tasks whose last status change is
// older than the given duration. A zero duration matches all of them.
func (s *MockTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().Add(-olderThan)
	var processing []Task
	for _, rec := range s.records {
		if rec.task.Status() != TaskStatusProcessing {
			continue
		}
		if olderThan == 0 || rec.changedAt.Before(cutoff) {
			processing = append(processing, rec.task)
		}
	}
	return processing, nil
}

// TaskStatusFor reports the stored status of the given task, for assertions.
func (s *MockTaskStore) TaskStatusFor(taskID uuid.UUID) (TaskStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[taskID]
	if !ok {
		return "", false
	}
	return rec.task.Status(), true
}

// SetStatusTime backdates a task's last status change so tests can age it
// past the stuck-task threshold.
func (s *MockTaskStore) SetStatusTime(taskID uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[taskID]; ok {
		rec.changedAt = at
	}
}

// WithTx returns the store unchanged; the mock has no transaction scope.
func (s *MockTaskStore) WithTx(tx *sql.Tx) TaskStore {
	return s
}
