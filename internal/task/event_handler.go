package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/inkwell-api/internal/events"
)

// TaskFactoryEventHandler implements the events.EventHandler interface.
// It turns task request events into concrete tasks using the factory
// registered for the event type, then submits them to the task runner.
// Services emit events instead of constructing tasks, so task dependencies
// like the mailer stay out of the service layer.
type TaskFactoryEventHandler struct {
	factories map[string]TaskFactory
	submitter TaskSubmitter
	logger    *slog.Logger
}

// NewTaskFactoryEventHandler creates an event handler that submits created
// tasks to the given submitter. Factories are added with RegisterFactory.
func NewTaskFactoryEventHandler(submitter TaskSubmitter, logger *slog.Logger) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		factories: make(map[string]TaskFactory),
		submitter: submitter,
		logger:    logger.With("component", "task_factory_event_handler"),
	}
}

// RegisterFactory adds a factory for one event/task type.
func (h *TaskFactoryEventHandler) RegisterFactory(factory TaskFactory) {
	h.factories[factory.TaskType()] = factory
	h.logger.Debug("registered task factory for events", "task_type", factory.TaskType())
}

// HandleEvent processes events by creating and submitting tasks.
// Events whose type has no registered factory are ignored so other handlers
// can claim them.
func (h *TaskFactoryEventHandler) HandleEvent(
	ctx context.Context,
	event *events.TaskRequestEvent,
) error {
	factory, ok := h.factories[event.Type]
	if !ok {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	h.logger.Debug("creating task for event",
		"event_type", event.Type,
		"event_id", event.ID)

	task, err := factory.CreateTask(event.Payload)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"event_type", event.Type,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.submitter.Submit(ctx, task); err != nil {
		// A full local queue is not a failure: the task row is already
		// persisted and the pending poller will dispatch it.
		if errors.Is(err, ErrQueueFull) {
			h.logger.Warn("queue full, task left pending for poller",
				"task_id", task.ID(),
				"event_id", event.ID)
			return nil
		}
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted successfully",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"event_id", event.ID)
	return nil
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
