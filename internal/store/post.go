package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/inkwell-api/internal/domain"
)

// PostStore defines the interface for post data persistence.
type PostStore interface {
	// Create saves a new post to the store.
	// It handles domain validation internally.
	// Returns ErrSlugExists if the slug is already taken.
	// Returns validation errors from the domain Post if data is invalid.
	Create(ctx context.Context, post *domain.Post) error

	// GetByID retrieves a post by its unique ID.
	// Returns ErrPostNotFound if the post does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)

	// Update saves changes to an existing post.
	// Returns ErrPostNotFound if the post does not exist.
	// Returns ErrSlugExists if updating to a slug that already exists.
	// Returns validation errors if the post data is invalid.
	Update(ctx context.Context, post *domain.Post) error

	// UpdateStatus updates the status of an existing post.
	// Returns ErrPostNotFound if the post does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PostStatus) error

	// Delete removes a post from the store by its ID.
	// Returns ErrPostNotFound if the post does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListPublished retrieves published posts, newest first. When
	// categorySlug is non-empty only posts in that category are returned.
	// Returns an empty slice if no posts match the criteria.
	ListPublished(ctx context.Context, categorySlug string, limit, offset int) ([]*domain.Post, error)

	// ListByAuthor retrieves the author's posts in any status, newest first.
	// Returns an empty slice if the author has no posts.
	ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]*domain.Post, error)

	// WithTx returns a PostStore that runs its operations on the given
	// transaction. The caller owns commit and rollback.
	WithTx(tx *sql.Tx) PostStore
}
