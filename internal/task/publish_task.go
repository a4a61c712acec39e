package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/inkwell-api/internal/domain"
)

// PostPublisher defines the post service operations the publish task needs.
// Declaring it here keeps the task package free of a service dependency.
type PostPublisher interface {
	// GetPost retrieves a post by its ID
	GetPost(ctx context.Context, postID uuid.UUID) (*domain.Post, error)

	// FinalizePublish completes the publishing pipeline for a post that is
	// in publishing state, stamping it with the given publication time
	FinalizePublish(ctx context.Context, postID uuid.UUID, publishedAt time.Time) error

	// MarkPublishFailed records that the publishing pipeline failed for the post
	MarkPublishFailed(ctx context.Context, postID uuid.UUID) error
}

// postPublishPayload represents the serialized data stored in the task
type postPublishPayload struct {
	PostID uuid.UUID `json:"post_id"`
}

// PostPublishTask implements the Task interface for finishing the publishing
// pipeline of a post: computing its reading metadata and stamping the
// publication time.
type PostPublishTask struct {
	id     uuid.UUID
	postID uuid.UUID
	posts  PostPublisher
	logger *slog.Logger
	status string
}

// NewPostPublishTask creates a new post publish task
func NewPostPublishTask(
	postID uuid.UUID,
	posts PostPublisher,
	logger *slog.Logger,
) (*PostPublishTask, error) {
	if posts == nil {
		return nil, ErrNilPostService
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if postID == uuid.Nil {
		return nil, ErrEmptyTaskPostID
	}

	return &PostPublishTask{
		id:     uuid.New(),
		postID: postID,
		posts:  posts,
		logger: logger.With("task_type", TaskTypePostPublish, "post_id", postID),
		status: statusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *PostPublishTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *PostPublishTask) Type() string {
	return TaskTypePostPublish
}

// Payload returns the task data as a byte slice
func (t *PostPublishTask) Payload() []byte {
	payload := postPublishPayload{
		PostID: t.postID,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// If marshal fails, return an empty payload with error logged
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}

	return data
}

// Status returns the current task status
func (t *PostPublishTask) Status() TaskStatus {
	return TaskStatus(t.status)
}

// Execute finishes publishing the post. Re-running against an already
// published post is a no-op, so the task stays safe under at-least-once
// delivery.
func (t *PostPublishTask) Execute(ctx context.Context) error {
	t.status = statusProcessing
	t.logger.Info("starting post publish task")

	if err := ctx.Err(); err != nil {
		t.status = statusFailed
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	post, err := t.posts.GetPost(ctx, t.postID)
	if err != nil {
		t.status = statusFailed
		t.logger.Error("failed to retrieve post", "error", err)
		return fmt.Errorf("failed to retrieve post: %w", err)
	}

	switch post.Status {
	case domain.PostStatusPublished:
		// An earlier attempt already finished; nothing left to do
		t.status = statusCompleted
		t.logger.Info("post already published, skipping")
		return nil
	case domain.PostStatusPublishing:
		// Expected state, continue below
	default:
		t.status = statusFailed
		t.logger.Warn("post not in publishing state", "post_status", string(post.Status))
		return fmt.Errorf("post %s is in %s state, expected %s",
			t.postID, post.Status, domain.PostStatusPublishing)
	}

	if err := t.posts.FinalizePublish(ctx, t.postID, time.Now().UTC()); err != nil {
		// Record the failure on the post so the author can retry
		if markErr := t.posts.MarkPublishFailed(ctx, t.postID); markErr != nil {
			t.logger.Error("failed to mark post publish failed", "error", markErr)
		}
		t.status = statusFailed
		t.logger.Error("failed to finalize publish", "error", err)
		return fmt.Errorf("failed to finalize publish: %w", err)
	}

	t.status = statusCompleted
	t.logger.Info("post published")
	return nil
}

// PostPublishTaskFactory builds PostPublishTask instances, carrying the post
// service dependency that stored payloads cannot.
type PostPublishTaskFactory struct {
	posts  PostPublisher
	logger *slog.Logger
}

// NewPostPublishTaskFactory creates a new factory for PostPublishTasks
func NewPostPublishTaskFactory(posts PostPublisher, logger *slog.Logger) *PostPublishTaskFactory {
	return &PostPublishTaskFactory{
		posts:  posts,
		logger: logger.With("component", "post_publish_task_factory"),
	}
}

// Ensure PostPublishTaskFactory implements TaskFactory
var _ TaskFactory = (*PostPublishTaskFactory)(nil)

// TaskType returns the type identifier of tasks this factory builds
func (f *PostPublishTaskFactory) TaskType() string {
	return TaskTypePostPublish
}

// CreateTask builds a new post publish task from a serialized payload
func (f *PostPublishTaskFactory) CreateTask(payload []byte) (Task, error) {
	var p postPublishPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal post publish payload: %w", err)
	}

	return NewPostPublishTask(p.PostID, f.posts, f.logger)
}

// RehydrateTask rebuilds a persisted post publish task under its original ID
func (f *PostPublishTaskFactory) RehydrateTask(id uuid.UUID, payload []byte) (Task, error) {
	t, err := f.CreateTask(payload)
	if err != nil {
		return nil, err
	}

	publishTask := t.(*PostPublishTask)
	publishTask.id = id
	return publishTask, nil
}
