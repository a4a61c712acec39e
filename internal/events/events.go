package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventEmitter publishes events to whoever is listening. Services depend on
// this interface so they can request background work without importing the
// task machinery.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventHandler consumes events published through an EventEmitter.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// TaskRequestEvent asks for a background task to be created. The payload is
// kept as raw JSON so the event layer stays ignorant of individual task
// shapes.
type TaskRequestEvent struct {
	// ID uniquely identifies this event.
	ID uuid.UUID `json:"id"`

	// Type names the kind of task being requested, such as "post_publish".
	Type string `json:"type"`

	// Payload holds the task-specific data serialized as JSON.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt records when the event was created.
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskRequestEvent builds an event of the given type, serializing payload
// to JSON.
func NewTaskRequestEvent(eventType string, payload any) (*TaskRequestEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   data,
		CreatedAt: time.Now(),
	}, nil
}

// UnmarshalPayload decodes the event payload into v.
func (e *TaskRequestEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}
