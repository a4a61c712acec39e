package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/platform/logger"
	"github.com/phrazzld/inkwell-api/internal/store"
)

// PostgresRefreshTokenStore implements the store.RefreshTokenStore interface
// using a PostgreSQL database as the storage backend. Rows are keyed by the
// jti claim of the refresh JWT so revocation checks are a primary key lookup.
type PostgresRefreshTokenStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRefreshTokenStore creates a new PostgreSQL implementation of the
// RefreshTokenStore interface.
func NewPostgresRefreshTokenStore(db store.DBTX) *PostgresRefreshTokenStore {
	if db == nil {
		panic("db cannot be nil")
	}

	return &PostgresRefreshTokenStore{
		db:     db,
		logger: slog.Default().With(slog.String("component", "refresh_token_store")),
	}
}

// Ensure PostgresRefreshTokenStore implements store.RefreshTokenStore interface
var _ store.RefreshTokenStore = (*PostgresRefreshTokenStore)(nil)

// Create implements store.RefreshTokenStore.Create
func (s *PostgresRefreshTokenStore) Create(ctx context.Context, token *domain.RefreshToken) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := token.Validate(); err != nil {
		log.Warn("refresh token validation failed during create",
			slog.String("error", err.Error()),
			slog.String("token_id", token.ID.String()))
		return err
	}

	query := `
		INSERT INTO refresh_tokens (id, user_id, expires_at, revoked_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		token.ID,
		token.UserID,
		token.ExpiresAt,
		token.RevokedAt,
		token.CreatedAt,
	)

	if err != nil {
		log.Error("failed to create refresh token",
			slog.String("error", err.Error()),
			slog.String("token_id", token.ID.String()))
		return MapError(err)
	}

	log.Debug("refresh token recorded",
		slog.String("token_id", token.ID.String()),
		slog.String("user_id", token.UserID.String()))
	return nil
}

// GetByID implements store.RefreshTokenStore.GetByID
// Returns store.ErrRefreshTokenNotFound if the token does not exist.
func (s *PostgresRefreshTokenStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE id = $1
	`

	var token domain.RefreshToken
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&token.ID,
		&token.UserID,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("refresh token not found",
				slog.String("token_id", id.String()))
			return nil, store.ErrRefreshTokenNotFound
		}
		log.Error("failed to get refresh token",
			slog.String("error", err.Error()),
			slog.String("token_id", id.String()))
		return nil, err
	}

	return &token, nil
}

// Revoke implements store.RefreshTokenStore.Revoke
// Revoking an already revoked token keeps the original revocation time.
// Returns store.ErrRefreshTokenNotFound if the token does not exist.
func (s *PostgresRefreshTokenStore) Revoke(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE refresh_tokens
		SET revoked_at = $1
		WHERE id = $2 AND revoked_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to revoke refresh token",
			slog.String("error", err.Error()),
			slog.String("token_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "refresh_token"); err != nil {
		// Distinguish a missing row from an already revoked one.
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return store.ErrRefreshTokenNotFound
		}
		log.Debug("refresh token already revoked",
			slog.String("token_id", id.String()))
		return nil
	}

	log.Info("refresh token revoked",
		slog.String("token_id", id.String()))
	return nil
}

// RevokeAllForUser implements store.RefreshTokenStore.RevokeAllForUser
// It revokes every active token for the user in one statement. Having no
// active tokens is not an error.
func (s *PostgresRefreshTokenStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE refresh_tokens
		SET revoked_at = $1
		WHERE user_id = $2 AND revoked_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), userID)
	if err != nil {
		log.Error("failed to revoke user refresh tokens",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return err
	}

	log.Info("revoked all refresh tokens for user",
		slog.String("user_id", userID.String()),
		slog.Int64("count", rowsAffected))
	return nil
}

// WithTx implements store.RefreshTokenStore.WithTx
func (s *PostgresRefreshTokenStore) WithTx(tx *sql.Tx) store.RefreshTokenStore {
	return &PostgresRefreshTokenStore{
		db:     tx,
		logger: s.logger,
	}
}

// PostgresPasswordResetTokenStore implements the store.PasswordResetTokenStore
// interface using a PostgreSQL database as the storage backend. Only SHA-256
// digests of reset tokens are stored, never the raw token.
type PostgresPasswordResetTokenStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPasswordResetTokenStore creates a new PostgreSQL implementation
// of the PasswordResetTokenStore interface.
func NewPostgresPasswordResetTokenStore(db store.DBTX) *PostgresPasswordResetTokenStore {
	if db == nil {
		panic("db cannot be nil")
	}

	return &PostgresPasswordResetTokenStore{
		db:     db,
		logger: slog.Default().With(slog.String("component", "password_reset_token_store")),
	}
}

// Ensure PostgresPasswordResetTokenStore implements store.PasswordResetTokenStore interface
var _ store.PasswordResetTokenStore = (*PostgresPasswordResetTokenStore)(nil)

// Create implements store.PasswordResetTokenStore.Create
func (s *PostgresPasswordResetTokenStore) Create(ctx context.Context, token *domain.PasswordResetToken) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := token.Validate(); err != nil {
		log.Warn("reset token validation failed during create",
			slog.String("error", err.Error()),
			slog.String("token_id", token.ID.String()))
		return err
	}

	query := `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.UsedAt,
		token.CreatedAt,
	)

	if err != nil {
		log.Error("failed to create reset token",
			slog.String("error", err.Error()),
			slog.String("token_id", token.ID.String()))
		return MapError(err)
	}

	log.Debug("reset token recorded",
		slog.String("token_id", token.ID.String()),
		slog.String("user_id", token.UserID.String()))
	return nil
}

// GetByTokenHash implements store.PasswordResetTokenStore.GetByTokenHash
// Returns store.ErrResetTokenNotFound if no record matches the digest.
func (s *PostgresPasswordResetTokenStore) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, token_hash, expires_at, used_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1
	`

	var token domain.PasswordResetToken
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("reset token not found")
			return nil, store.ErrResetTokenNotFound
		}
		log.Error("failed to get reset token",
			slog.String("error", err.Error()))
		return nil, err
	}

	return &token, nil
}

// MarkUsed implements store.PasswordResetTokenStore.MarkUsed
// Returns store.ErrResetTokenNotFound if the token does not exist.
func (s *PostgresPasswordResetTokenStore) MarkUsed(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE password_reset_tokens
		SET used_at = $1
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to mark reset token used",
			slog.String("error", err.Error()),
			slog.String("token_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "password_reset_token"); err != nil {
		log.Debug("reset token not found for mark used",
			slog.String("token_id", id.String()))
		return store.ErrResetTokenNotFound
	}

	log.Info("reset token marked used",
		slog.String("token_id", id.String()))
	return nil
}

// WithTx implements store.PasswordResetTokenStore.WithTx
func (s *PostgresPasswordResetTokenStore) WithTx(tx *sql.Tx) store.PasswordResetTokenStore {
	return &PostgresPasswordResetTokenStore{
		db:     tx,
		logger: s.logger,
	}
}
