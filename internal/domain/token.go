package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for token records
var (
	ErrEmptyTokenID     = fmt.Errorf("%w: token ID cannot be empty", ErrValidation)
	ErrEmptyTokenUserID = fmt.Errorf("%w: token user ID cannot be empty", ErrValidation)
	ErrEmptyTokenExpiry = fmt.Errorf("%w: token expiry cannot be empty", ErrValidation)
	ErrEmptyTokenHash   = fmt.Errorf("%w: token hash cannot be empty", ErrValidation)
)

// RefreshToken records an issued refresh token so it can be revoked before
// its JWT expiry. The ID matches the token's jti claim; the token itself is
// never stored.
type RefreshToken struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewRefreshToken creates the stored record for an issued refresh token.
// Returns an error if validation fails.
func NewRefreshToken(id, userID uuid.UUID, expiresAt time.Time) (*RefreshToken, error) {
	token := &RefreshToken{
		ID:        id,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}

	if err := token.Validate(); err != nil {
		return nil, err
	}

	return token, nil
}

// Validate checks if the RefreshToken has valid data.
func (t *RefreshToken) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTokenID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTokenUserID
	}

	if t.ExpiresAt.IsZero() {
		return ErrEmptyTokenExpiry
	}

	return nil
}

// Revoked reports whether the token has been revoked.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

// Expired reports whether the token's expiry has passed at the given time.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// PasswordResetToken stores a digest of an emailed password reset token.
// The raw token exists only in the reset email; TokenHash is its SHA-256
// hex digest.
type PasswordResetToken struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	TokenHash string     `json:"-"` // Never expose the digest in JSON
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewPasswordResetToken creates the stored record for a password reset token.
// Returns an error if validation fails.
func NewPasswordResetToken(userID uuid.UUID, tokenHash string, expiresAt time.Time) (*PasswordResetToken, error) {
	token := &PasswordResetToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}

	if err := token.Validate(); err != nil {
		return nil, err
	}

	return token, nil
}

// Validate checks if the PasswordResetToken has valid data.
func (t *PasswordResetToken) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTokenID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTokenUserID
	}

	if t.TokenHash == "" {
		return ErrEmptyTokenHash
	}

	if t.ExpiresAt.IsZero() {
		return ErrEmptyTokenExpiry
	}

	return nil
}

// Used reports whether the token has already redeemed a password reset.
func (t *PasswordResetToken) Used() bool {
	return t.UsedAt != nil
}

// Expired reports whether the token's expiry has passed at the given time.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
