package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/events"
	"github.com/phrazzld/inkwell-api/internal/platform/logger"
	"github.com/phrazzld/inkwell-api/internal/store"
	"github.com/phrazzld/inkwell-api/internal/task"
)

// Common sentinel errors for PostService
var (
	// ErrPostBeingPublished indicates the post is locked by an in-flight
	// publication and cannot be edited until it resolves.
	ErrPostBeingPublished = errors.New("post is currently being published")
)

// slugRetryLimit bounds how many suffixed slugs are tried when the derived
// slug is taken.
const slugRetryLimit = 3

// PostServiceError wraps errors from the post service with context.
type PostServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for PostServiceError.
func (e *PostServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("post service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("post service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *PostServiceError) Unwrap() error {
	return e.Err
}

// NewPostServiceError creates a new PostServiceError. Sentinel errors the API
// layer maps to status codes pass through unwrapped.
func NewPostServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrDuplicate) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidPostStatusTransition) ||
		errors.Is(err, ErrNotOwned) ||
		errors.Is(err, ErrPostBeingPublished) {
		return err
	}

	return &PostServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// PostRepository defines the repository interface for the service layer.
// It is aligned with store.PostStore plus transaction support.
type PostRepository interface {
	// Create saves a new post to the store
	Create(ctx context.Context, post *domain.Post) error

	// GetByID retrieves a post by its unique ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)

	// Update saves changes to an existing post
	Update(ctx context.Context, post *domain.Post) error

	// Delete removes a post from the store
	Delete(ctx context.Context, id uuid.UUID) error

	// ListPublished retrieves published posts, newest first, optionally
	// filtered by category slug
	ListPublished(ctx context.Context, categorySlug string, limit, offset int) ([]*domain.Post, error)

	// ListByAuthor retrieves the author's posts in any status, newest first
	ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]*domain.Post, error)

	// WithTx returns a new repository instance that uses the provided transaction
	WithTx(tx *sql.Tx) PostRepository

	// DB returns the underlying database connection
	DB() *sql.DB
}

// CategoryRepository defines the category lookups the post service needs.
type CategoryRepository interface {
	// GetByID retrieves a category by its unique ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
}

// PostService provides post-related operations, including the asynchronous
// publication flow.
type PostService interface {
	// CreatePost creates a new draft post for the author.
	CreatePost(
		ctx context.Context,
		authorID uuid.UUID,
		title, body string,
		categoryID *uuid.UUID,
	) (*domain.Post, error)

	// GetPost retrieves a post in any status by its ID.
	GetPost(ctx context.Context, postID uuid.UUID) (*domain.Post, error)

	// GetPublishedPost retrieves a post by ID, treating anything not yet
	// published as absent.
	GetPublishedPost(ctx context.Context, postID uuid.UUID) (*domain.Post, error)

	// ListPublishedPosts lists published posts, newest first, optionally
	// filtered by category slug.
	ListPublishedPosts(
		ctx context.Context,
		categorySlug string,
		limit, offset int,
	) ([]*domain.Post, error)

	// ListPostsByAuthor lists the author's posts in any status, newest first.
	ListPostsByAuthor(
		ctx context.Context,
		authorID uuid.UUID,
		limit, offset int,
	) ([]*domain.Post, error)

	// UpdatePost updates the title, body and category of the author's post.
	// The slug is not regenerated. Posts locked by an in-flight publication
	// cannot be edited.
	UpdatePost(
		ctx context.Context,
		postID, authorID uuid.UUID,
		title, body string,
		categoryID *uuid.UUID,
	) (*domain.Post, error)

	// DeletePost removes the author's post.
	DeletePost(ctx context.Context, postID, authorID uuid.UUID) error

	// PublishPost marks the author's draft or failed post publishing and
	// requests asynchronous publication.
	PublishPost(ctx context.Context, postID, authorID uuid.UUID) (*domain.Post, error)

	// ArchivePost moves the author's published post to archived.
	ArchivePost(ctx context.Context, postID, authorID uuid.UUID) (*domain.Post, error)

	// FinalizePublish completes an asynchronous publication: derived fields
	// are computed and the post becomes published. Called by the publish task.
	FinalizePublish(ctx context.Context, postID uuid.UUID, publishedAt time.Time) error

	// MarkPublishFailed moves a publishing post to failed so the author can
	// retry. Called by the publish task.
	MarkPublishFailed(ctx context.Context, postID uuid.UUID) error
}

// postServiceImpl implements the PostService interface
type postServiceImpl struct {
	postRepo     PostRepository
	categoryRepo CategoryRepository
	eventEmitter events.EventEmitter
	logger       *slog.Logger
}

// The publish task depends on this service through the task.PostPublisher
// interface.
var _ task.PostPublisher = (PostService)(nil)

// NewPostService creates a new PostService.
// It returns an error if any of the required dependencies are nil.
func NewPostService(
	postRepo PostRepository,
	categoryRepo CategoryRepository,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (PostService, error) {
	if postRepo == nil {
		return nil, &PostServiceError{
			Operation: "create_service",
			Message:   "postRepo cannot be nil",
		}
	}
	if categoryRepo == nil {
		return nil, &PostServiceError{
			Operation: "create_service",
			Message:   "categoryRepo cannot be nil",
		}
	}
	if eventEmitter == nil {
		return nil, &PostServiceError{
			Operation: "create_service",
			Message:   "eventEmitter cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &postServiceImpl{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		eventEmitter: eventEmitter,
		logger:       logger.With(slog.String("component", "post_service")),
	}, nil
}

// CreatePost creates a new draft post for the author. When the slug derived
// from the title is taken, a random suffix is appended and the insert retried.
func (s *postServiceImpl) CreatePost(
	ctx context.Context,
	authorID uuid.UUID,
	title, body string,
	categoryID *uuid.UUID,
) (*domain.Post, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.checkCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	post, err := domain.NewPost(authorID, title, body, categoryID)
	if err != nil {
		log.Debug("invalid post data",
			slog.String("error", err.Error()),
			slog.String("author_id", authorID.String()))
		return nil, NewPostServiceError("create_post", "invalid post data", err)
	}

	baseSlug := post.Slug
	for attempt := 0; ; attempt++ {
		err = s.postRepo.Create(ctx, post)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrSlugExists) || attempt >= slugRetryLimit {
			log.Error("failed to create post",
				slog.String("error", err.Error()),
				slog.String("author_id", authorID.String()))
			return nil, NewPostServiceError("create_post", "failed to save post", err)
		}

		// Taken slug: retry with a random suffix.
		post.Slug = baseSlug + "-" + uuid.NewString()[:6]
		log.Debug("slug taken, retrying with suffix",
			slog.String("slug", post.Slug),
			slog.Int("attempt", attempt+1))
	}

	log.Info("post created",
		slog.String("post_id", post.ID.String()),
		slog.String("author_id", authorID.String()),
		slog.String("slug", post.Slug))
	return post, nil
}

// GetPost retrieves a post in any status by its ID.
func (s *postServiceImpl) GetPost(ctx context.Context, postID uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, NewPostServiceError("get_post", "failed to retrieve post", err)
	}
	return post, nil
}

// GetPublishedPost retrieves a published post. Posts in any other status are
// reported as not found so drafts stay invisible to public readers.
func (s *postServiceImpl) GetPublishedPost(
	ctx context.Context,
	postID uuid.UUID,
) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, NewPostServiceError("get_published_post", "failed to retrieve post", err)
	}

	if post.Status != domain.PostStatusPublished {
		return nil, store.ErrPostNotFound
	}

	return post, nil
}

// ListPublishedPosts lists published posts, newest first.
func (s *postServiceImpl) ListPublishedPosts(
	ctx context.Context,
	categorySlug string,
	limit, offset int,
) ([]*domain.Post, error) {
	posts, err := s.postRepo.ListPublished(ctx, categorySlug, limit, offset)
	if err != nil {
		return nil, NewPostServiceError("list_published_posts", "failed to list posts", err)
	}
	return posts, nil
}

// ListPostsByAuthor lists the author's posts in any status, newest first.
func (s *postServiceImpl) ListPostsByAuthor(
	ctx context.Context,
	authorID uuid.UUID,
	limit, offset int,
) ([]*domain.Post, error) {
	posts, err := s.postRepo.ListByAuthor(ctx, authorID, limit, offset)
	if err != nil {
		return nil, NewPostServiceError("list_posts_by_author", "failed to list posts", err)
	}
	return posts, nil
}

// UpdatePost updates the author's post in a transaction. The slug is kept
// stable so published URLs never break.
func (s *postServiceImpl) UpdatePost(
	ctx context.Context,
	postID, authorID uuid.UUID,
	title, body string,
	categoryID *uuid.UUID,
) (*domain.Post, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.checkCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	var updated *domain.Post
	err := store.RunInTransaction(ctx, s.postRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.postRepo.WithTx(tx)

		post, err := s.loadOwnedPost(ctx, txRepo, postID, authorID)
		if err != nil {
			return NewPostServiceError("update_post", "failed to load post", err)
		}

		if post.Status == domain.PostStatusPublishing {
			return ErrPostBeingPublished
		}

		post.Title = title
		post.Body = body
		post.CategoryID = categoryID
		post.UpdatedAt = time.Now().UTC()

		if err := txRepo.Update(ctx, post); err != nil {
			return NewPostServiceError("update_post", "failed to save post", err)
		}

		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("post updated",
		slog.String("post_id", postID.String()),
		slog.String("author_id", authorID.String()))
	return updated, nil
}

// DeletePost removes the author's post in a transaction.
func (s *postServiceImpl) DeletePost(ctx context.Context, postID, authorID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.postRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.postRepo.WithTx(tx)

		if _, err := s.loadOwnedPost(ctx, txRepo, postID, authorID); err != nil {
			return NewPostServiceError("delete_post", "failed to load post", err)
		}

		if err := txRepo.Delete(ctx, postID); err != nil {
			return NewPostServiceError("delete_post", "failed to delete post", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("post deleted",
		slog.String("post_id", postID.String()),
		slog.String("author_id", authorID.String()))
	return nil
}

// PublishPost marks the author's post publishing and emits a publish task
// request. The status change commits before the event is emitted; once the
// row is publishing, a lost event only delays publication until the author
// retries, so emission failures are logged rather than surfaced.
func (s *postServiceImpl) PublishPost(
	ctx context.Context,
	postID, authorID uuid.UUID,
) (*domain.Post, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var publishing *domain.Post
	err := store.RunInTransaction(ctx, s.postRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.postRepo.WithTx(tx)

		post, err := s.loadOwnedPost(ctx, txRepo, postID, authorID)
		if err != nil {
			return NewPostServiceError("publish_post", "failed to load post", err)
		}

		if err := post.UpdateStatus(domain.PostStatusPublishing); err != nil {
			return NewPostServiceError("publish_post", "post cannot start publishing", err)
		}

		if err := txRepo.Update(ctx, post); err != nil {
			return NewPostServiceError("publish_post", "failed to save post", err)
		}

		publishing = post
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("post marked publishing",
		slog.String("post_id", postID.String()),
		slog.String("author_id", authorID.String()))

	s.emitPublishRequested(ctx, postID)
	return publishing, nil
}

// ArchivePost moves the author's published post to archived.
func (s *postServiceImpl) ArchivePost(
	ctx context.Context,
	postID, authorID uuid.UUID,
) (*domain.Post, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var archived *domain.Post
	err := store.RunInTransaction(ctx, s.postRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.postRepo.WithTx(tx)

		post, err := s.loadOwnedPost(ctx, txRepo, postID, authorID)
		if err != nil {
			return NewPostServiceError("archive_post", "failed to load post", err)
		}

		if err := post.UpdateStatus(domain.PostStatusArchived); err != nil {
			return NewPostServiceError("archive_post", "post cannot be archived", err)
		}

		if err := txRepo.Update(ctx, post); err != nil {
			return NewPostServiceError("archive_post", "failed to save post", err)
		}

		archived = post
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("post archived",
		slog.String("post_id", postID.String()),
		slog.String("author_id", authorID.String()))
	return archived, nil
}

// FinalizePublish completes an asynchronous publication. The publish time
// and the derived excerpt and reading time are written together with the
// published status.
func (s *postServiceImpl) FinalizePublish(
	ctx context.Context,
	postID uuid.UUID,
	publishedAt time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.postRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.postRepo.WithTx(tx)

		post, err := txRepo.GetByID(ctx, postID)
		if err != nil {
			return NewPostServiceError("finalize_publish", "failed to load post", err)
		}

		if err := post.Publish(publishedAt); err != nil {
			return NewPostServiceError("finalize_publish", "post cannot be published", err)
		}

		if err := txRepo.Update(ctx, post); err != nil {
			return NewPostServiceError("finalize_publish", "failed to save post", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("post published",
		slog.String("post_id", postID.String()),
		slog.Time("published_at", publishedAt))
	return nil
}

// MarkPublishFailed moves a publishing post to failed.
func (s *postServiceImpl) MarkPublishFailed(ctx context.Context, postID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.postRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.postRepo.WithTx(tx)

		post, err := txRepo.GetByID(ctx, postID)
		if err != nil {
			return NewPostServiceError("mark_publish_failed", "failed to load post", err)
		}

		if err := post.UpdateStatus(domain.PostStatusFailed); err != nil {
			return NewPostServiceError("mark_publish_failed", "post cannot be marked failed", err)
		}

		if err := txRepo.Update(ctx, post); err != nil {
			return NewPostServiceError("mark_publish_failed", "failed to save post", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Warn("post publication failed", slog.String("post_id", postID.String()))
	return nil
}

// loadOwnedPost retrieves a post and verifies the caller owns it.
func (s *postServiceImpl) loadOwnedPost(
	ctx context.Context,
	repo PostRepository,
	postID, authorID uuid.UUID,
) (*domain.Post, error) {
	post, err := repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post.AuthorID != authorID {
		return nil, ErrNotOwned
	}

	return post, nil
}

// checkCategory verifies the referenced category exists. A nil categoryID is
// valid: posts do not have to be categorized.
func (s *postServiceImpl) checkCategory(ctx context.Context, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}

	if _, err := s.categoryRepo.GetByID(ctx, *categoryID); err != nil {
		return NewPostServiceError("check_category", "failed to verify category", err)
	}
	return nil
}

// emitPublishRequested emits the publish task request for the post. Emission
// happens after the status change committed; failures are logged and the
// request still succeeds.
func (s *postServiceImpl) emitPublishRequested(ctx context.Context, postID uuid.UUID) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	payload := struct {
		PostID uuid.UUID `json:"post_id"`
	}{
		PostID: postID,
	}

	event, err := events.NewTaskRequestEvent(task.TaskTypePostPublish, payload)
	if err != nil {
		log.Error("failed to create publish event",
			slog.String("error", err.Error()),
			slog.String("post_id", postID.String()))
		return
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit publish event",
			slog.String("error", err.Error()),
			slog.String("post_id", postID.String()),
			slog.String("event_id", event.ID.String()))
		return
	}

	log.Info("publish event emitted",
		slog.String("post_id", postID.String()),
		slog.String("event_id", event.ID.String()))
}
