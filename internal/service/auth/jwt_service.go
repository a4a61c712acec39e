package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenTypeAccess and TokenTypeRefresh are the values carried in a token's
// "type" claim. Validation rejects tokens presented for the wrong purpose.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTService issues and validates the signed tokens used by the API.
// Access tokens authenticate requests; refresh tokens obtain new pairs.
type JWTService interface {
	// GenerateToken creates a signed access token for the given user.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken parses and verifies an access token, returning its claims.
	// Returns ErrExpiredToken, ErrWrongTokenType or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateRefreshToken creates a signed refresh token for the given user.
	// Each refresh token carries a unique ID (jti) so it can be recorded and
	// revoked server-side.
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateRefreshToken parses and verifies a refresh token, returning its
	// claims. Returns ErrExpiredRefreshToken, ErrWrongTokenType or
	// ErrInvalidRefreshToken on failure.
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims holds the validated contents of a token.
type Claims struct {
	// UserID is the authenticated user's ID.
	UserID uuid.UUID

	// TokenType is TokenTypeAccess or TokenTypeRefresh.
	TokenType string

	// Subject is the standard sub claim (the user ID in string form).
	Subject string

	// IssuedAt is when the token was created.
	IssuedAt time.Time

	// ExpiresAt is when the token stops being valid.
	ExpiresAt time.Time

	// ID is the unique token ID (jti). For refresh tokens it keys the
	// server-side revocation record.
	ID string
}
