package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/store"
)

// NewUserRepositoryAdapter creates a new adapter that allows a store.UserStore
// to be used where a UserRepository is expected.
func NewUserRepositoryAdapter(userStore store.UserStore, db *sql.DB) UserRepository {
	return &userRepositoryAdapter{
		userStore: userStore,
		db:        db,
	}
}

// userRepositoryAdapter adapts a store.UserStore to the UserRepository interface
type userRepositoryAdapter struct {
	userStore store.UserStore
	db        *sql.DB
}

// GetByID implements UserRepository.GetByID
func (a *userRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return a.userStore.GetByID(ctx, id)
}

// GetByEmail implements UserRepository.GetByEmail
func (a *userRepositoryAdapter) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return a.userStore.GetByEmail(ctx, email)
}

// Update implements UserRepository.Update
func (a *userRepositoryAdapter) Update(ctx context.Context, user *domain.User) error {
	return a.userStore.Update(ctx, user)
}

// WithTx implements UserRepository.WithTx
func (a *userRepositoryAdapter) WithTx(tx *sql.Tx) UserRepository {
	return &userRepositoryAdapter{
		userStore: a.userStore.WithTx(tx),
		db:        a.db,
	}
}

// DB implements UserRepository.DB
func (a *userRepositoryAdapter) DB() *sql.DB {
	return a.db
}
