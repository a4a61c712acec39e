package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/inkwell-api/internal/mail"
)

// Status constants shared by the concrete task implementations.
// These match the TaskStatus values defined in task.go.
const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

// Common dependency errors for task construction
var (
	ErrNilMailer       = errors.New("mailer cannot be nil")
	ErrNilPostService  = errors.New("post service cannot be nil")
	ErrNilLogger       = errors.New("logger cannot be nil")
	ErrEmptyRecipient  = errors.New("email recipient cannot be empty")
	ErrEmptyTaskPostID = errors.New("post ID cannot be empty")
)

// emailDeliveryPayload represents the serialized data stored in the task
type emailDeliveryPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailDeliveryTask implements the Task interface for sending a single
// outbound email through the configured mailer.
type EmailDeliveryTask struct {
	id      uuid.UUID
	payload emailDeliveryPayload
	mailer  mail.Mailer
	logger  *slog.Logger
	status  string
}

// NewEmailDeliveryTask creates a new email delivery task
func NewEmailDeliveryTask(
	to, subject, body string,
	mailer mail.Mailer,
	logger *slog.Logger,
) (*EmailDeliveryTask, error) {
	if mailer == nil {
		return nil, ErrNilMailer
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if to == "" {
		return nil, ErrEmptyRecipient
	}

	return &EmailDeliveryTask{
		id: uuid.New(),
		payload: emailDeliveryPayload{
			To:      to,
			Subject: subject,
			Body:    body,
		},
		mailer: mailer,
		logger: logger.With("task_type", TaskTypeEmailDelivery),
		status: statusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *EmailDeliveryTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *EmailDeliveryTask) Type() string {
	return TaskTypeEmailDelivery
}

// Payload returns the task data as a byte slice
func (t *EmailDeliveryTask) Payload() []byte {
	data, err := json.Marshal(t.payload)
	if err != nil {
		// If marshal fails, return an empty payload with error logged
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}

	return data
}

// Status returns the current task status
func (t *EmailDeliveryTask) Status() TaskStatus {
	return TaskStatus(t.status)
}

// Execute sends the email through the mailer. The mailer owns retries for
// transient failures; an error here means delivery was abandoned.
func (t *EmailDeliveryTask) Execute(ctx context.Context) error {
	t.status = statusProcessing
	t.logger.Info("starting email delivery task", "to", t.payload.To)

	if err := ctx.Err(); err != nil {
		t.status = statusFailed
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	msg := mail.Message{
		To:      t.payload.To,
		Subject: t.payload.Subject,
		Body:    t.payload.Body,
	}

	if err := t.mailer.Send(ctx, msg); err != nil {
		t.status = statusFailed
		t.logger.Error("failed to deliver email", "error", err, "to", t.payload.To)
		return fmt.Errorf("failed to deliver email: %w", err)
	}

	t.status = statusCompleted
	t.logger.Info("email delivered", "to", t.payload.To)
	return nil
}

// EmailDeliveryTaskFactory builds EmailDeliveryTask instances, carrying the
// mailer dependency that stored payloads cannot.
type EmailDeliveryTaskFactory struct {
	mailer mail.Mailer
	logger *slog.Logger
}

// NewEmailDeliveryTaskFactory creates a new factory for EmailDeliveryTasks
func NewEmailDeliveryTaskFactory(mailer mail.Mailer, logger *slog.Logger) *EmailDeliveryTaskFactory {
	return &EmailDeliveryTaskFactory{
		mailer: mailer,
		logger: logger.With("component", "email_delivery_task_factory"),
	}
}

// Ensure EmailDeliveryTaskFactory implements TaskFactory
var _ TaskFactory = (*EmailDeliveryTaskFactory)(nil)

// TaskType returns the type identifier of tasks this factory builds
func (f *EmailDeliveryTaskFactory) TaskType() string {
	return TaskTypeEmailDelivery
}

// CreateTask builds a new email delivery task from a serialized payload
func (f *EmailDeliveryTaskFactory) CreateTask(payload []byte) (Task, error) {
	var p emailDeliveryPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal email payload: %w", err)
	}

	return NewEmailDeliveryTask(p.To, p.Subject, p.Body, f.mailer, f.logger)
}

// RehydrateTask rebuilds a persisted email delivery task under its original ID
func (f *EmailDeliveryTaskFactory) RehydrateTask(id uuid.UUID, payload []byte) (Task, error) {
	t, err := f.CreateTask(payload)
	if err != nil {
		return nil, err
	}

	emailTask := t.(*EmailDeliveryTask)
	emailTask.id = id
	return emailTask, nil
}
