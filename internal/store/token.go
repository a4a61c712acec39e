package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/inkwell-api/internal/domain"
)

// RefreshTokenStore defines the interface for refresh token persistence.
// Tokens are recorded at issue time so they can be revoked before their JWT
// expiry; logout and rotation both revoke.
type RefreshTokenStore interface {
	// Create records a newly issued refresh token.
	// Returns validation errors from the domain RefreshToken if data is invalid.
	Create(ctx context.Context, token *domain.RefreshToken) error

	// GetByID retrieves a refresh token record by its ID (the JWT's jti claim).
	// Returns ErrRefreshTokenNotFound if the token does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error)

	// Revoke marks the token revoked. Revoking an already revoked token is
	// a no-op. Returns ErrRefreshTokenNotFound if the token does not exist.
	Revoke(ctx context.Context, id uuid.UUID) error

	// RevokeAllForUser marks every active token belonging to the user
	// revoked. Used when the user's password changes.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error

	// WithTx returns a RefreshTokenStore that runs its operations on the
	// given transaction. The caller owns commit and rollback.
	WithTx(tx *sql.Tx) RefreshTokenStore
}

// PasswordResetTokenStore defines the interface for password reset token
// persistence. Only the SHA-256 digest of a token is ever stored.
type PasswordResetTokenStore interface {
	// Create saves a new password reset token record.
	// Returns validation errors from the domain PasswordResetToken if data is invalid.
	Create(ctx context.Context, token *domain.PasswordResetToken) error

	// GetByTokenHash retrieves a reset token record by the digest of the
	// raw token. Returns ErrResetTokenNotFound if no record matches.
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error)

	// MarkUsed records that the token has redeemed a password reset.
	// Returns ErrResetTokenNotFound if the token does not exist.
	MarkUsed(ctx context.Context, id uuid.UUID) error

	// WithTx returns a PasswordResetTokenStore that runs its operations on
	// the given transaction. The caller owns commit and rollback.
	WithTx(tx *sql.Tx) PasswordResetTokenStore
}
