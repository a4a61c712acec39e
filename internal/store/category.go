package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/inkwell-api/internal/domain"
)

// CategoryStore defines the interface for category data persistence.
type CategoryStore interface {
	// Create saves a new category to the store.
	// It handles domain validation internally.
	// Returns ErrCategoryNameExists if the name is already taken and
	// ErrSlugExists if the derived slug collides.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category by its unique ID.
	// Returns ErrCategoryNotFound if the category does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// GetBySlug retrieves a category by its slug.
	// Returns ErrCategoryNotFound if the category does not exist.
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)

	// List retrieves all categories ordered by name.
	// Returns an empty slice if no categories exist.
	List(ctx context.Context) ([]*domain.Category, error)

	// WithTx returns a CategoryStore that runs its operations on the given
	// transaction. The caller owns commit and rollback.
	WithTx(tx *sql.Tx) CategoryStore
}
