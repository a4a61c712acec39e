package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/store"
)

// NewPostRepositoryAdapter creates a new adapter that allows a store.PostStore
// to be used where a PostRepository is expected.
func NewPostRepositoryAdapter(postStore store.PostStore, db *sql.DB) PostRepository {
	return &postRepositoryAdapter{
		postStore: postStore,
		db:        db,
	}
}

// postRepositoryAdapter adapts a store.PostStore to the PostRepository interface
type postRepositoryAdapter struct {
	postStore store.PostStore
	db        *sql.DB
}

// Create implements PostRepository.Create
func (a *postRepositoryAdapter) Create(ctx context.Context, post *domain.Post) error {
	return a.postStore.Create(ctx, post)
}

// GetByID implements PostRepository.GetByID
func (a *postRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return a.postStore.GetByID(ctx, id)
}

// Update implements PostRepository.Update
func (a *postRepositoryAdapter) Update(ctx context.Context, post *domain.Post) error {
	return a.postStore.Update(ctx, post)
}

// Delete implements PostRepository.Delete
func (a *postRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	return a.postStore.Delete(ctx, id)
}

// ListPublished implements PostRepository.ListPublished
func (a *postRepositoryAdapter) ListPublished(
	ctx context.Context,
	categorySlug string,
	limit, offset int,
) ([]*domain.Post, error) {
	return a.postStore.ListPublished(ctx, categorySlug, limit, offset)
}

// ListByAuthor implements PostRepository.ListByAuthor
func (a *postRepositoryAdapter) ListByAuthor(
	ctx context.Context,
	authorID uuid.UUID,
	limit, offset int,
) ([]*domain.Post, error) {
	return a.postStore.ListByAuthor(ctx, authorID, limit, offset)
}

// WithTx implements PostRepository.WithTx
func (a *postRepositoryAdapter) WithTx(tx *sql.Tx) PostRepository {
	return &postRepositoryAdapter{
		postStore: a.postStore.WithTx(tx),
		db:        a.db,
	}
}

// DB implements PostRepository.DB
func (a *postRepositoryAdapter) DB() *sql.DB {
	return a.db
}
