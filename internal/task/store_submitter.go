package task

import (
	"context"
	"fmt"
	"log/slog"
)

// StoreSubmitter is a TaskSubmitter that persists tasks without queueing
// them in the submitting process. API processes running with embedded
// workers disabled use it; the rows sit in pending state until a worker
// process polls them out of the store.
type StoreSubmitter struct {
	store  TaskStore
	logger *slog.Logger
}

// NewStoreSubmitter creates a StoreSubmitter backed by the given store.
func NewStoreSubmitter(store TaskStore, logger *slog.Logger) *StoreSubmitter {
	return &StoreSubmitter{
		store:  store,
		logger: logger.With("component", "store_submitter"),
	}
}

// Ensure StoreSubmitter implements TaskSubmitter
var _ TaskSubmitter = (*StoreSubmitter)(nil)

// Submit saves the task in pending state for an external worker to pick up.
func (s *StoreSubmitter) Submit(ctx context.Context, task Task) error {
	if err := s.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	s.logger.Debug("task persisted for external worker",
		"task_id", task.ID(),
		"task_type", task.Type())
	return nil
}
