package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/store"
)

// NewResetTokenRepositoryAdapter creates a new adapter that allows a
// store.PasswordResetTokenStore to be used where a ResetTokenRepository is
// expected.
func NewResetTokenRepositoryAdapter(tokenStore store.PasswordResetTokenStore) ResetTokenRepository {
	return &resetTokenRepositoryAdapter{
		tokenStore: tokenStore,
	}
}

// resetTokenRepositoryAdapter adapts a store.PasswordResetTokenStore to the
// ResetTokenRepository interface
type resetTokenRepositoryAdapter struct {
	tokenStore store.PasswordResetTokenStore
}

// Create implements ResetTokenRepository.Create
func (a *resetTokenRepositoryAdapter) Create(ctx context.Context, token *domain.PasswordResetToken) error {
	return a.tokenStore.Create(ctx, token)
}

// GetByTokenHash implements ResetTokenRepository.GetByTokenHash
func (a *resetTokenRepositoryAdapter) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*domain.PasswordResetToken, error) {
	return a.tokenStore.GetByTokenHash(ctx, tokenHash)
}

// MarkUsed implements ResetTokenRepository.MarkUsed
func (a *resetTokenRepositoryAdapter) MarkUsed(ctx context.Context, id uuid.UUID) error {
	return a.tokenStore.MarkUsed(ctx, id)
}

// WithTx implements ResetTokenRepository.WithTx
func (a *resetTokenRepositoryAdapter) WithTx(tx *sql.Tx) ResetTokenRepository {
	return &resetTokenRepositoryAdapter{
		tokenStore: a.tokenStore.WithTx(tx),
	}
}

// NewSessionRevokerAdapter creates a new adapter that allows a
// store.RefreshTokenStore to be used where a SessionRevoker is expected.
func NewSessionRevokerAdapter(tokenStore store.RefreshTokenStore) SessionRevoker {
	return &sessionRevokerAdapter{
		tokenStore: tokenStore,
	}
}

// sessionRevokerAdapter adapts a store.RefreshTokenStore to the SessionRevoker
// interface
type sessionRevokerAdapter struct {
	tokenStore store.RefreshTokenStore
}

// RevokeAllForUser implements SessionRevoker.RevokeAllForUser
func (a *sessionRevokerAdapter) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return a.tokenStore.RevokeAllForUser(ctx, userID)
}

// WithTx implements SessionRevoker.WithTx
func (a *sessionRevokerAdapter) WithTx(tx *sql.Tx) SessionRevoker {
	return &sessionRevokerAdapter{
		tokenStore: a.tokenStore.WithTx(tx),
	}
}
