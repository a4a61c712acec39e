package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/inkwell-api/internal/config"
	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/events"
	"github.com/phrazzld/inkwell-api/internal/mail"
	"github.com/phrazzld/inkwell-api/internal/platform/logger"
	"github.com/phrazzld/inkwell-api/internal/store"
	"github.com/phrazzld/inkwell-api/internal/task"
)

// ErrInvalidResetToken indicates the reset token is unknown, expired or
// already used. Callers must not distinguish the three cases.
var ErrInvalidResetToken = errors.New("invalid or expired password reset token")

// resetTokenBytes is the entropy of a raw reset token before hex encoding.
const resetTokenBytes = 32

// appName is used in outgoing email subjects.
const appName = "Inkwell"

// PasswordResetServiceError wraps errors from the password reset service
// with context.
type PasswordResetServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for PasswordResetServiceError.
func (e *PasswordResetServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("password reset %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("password reset %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *PasswordResetServiceError) Unwrap() error {
	return e.Err
}

// NewPasswordResetServiceError creates a new PasswordResetServiceError.
// Sentinel errors the API layer maps to status codes pass through unwrapped.
func NewPasswordResetServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrInvalidResetToken) || errors.Is(err, domain.ErrValidation) {
		return err
	}

	return &PasswordResetServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// UserRepository defines the user lookups and updates the password reset
// service needs. It is aligned with store.UserStore plus transaction support.
type UserRepository interface {
	// GetByID retrieves a user by their unique ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update saves changes to an existing user, hashing a newly set password
	Update(ctx context.Context, user *domain.User) error

	// WithTx returns a new repository instance that uses the provided transaction
	WithTx(tx *sql.Tx) UserRepository

	// DB returns the underlying database connection
	DB() *sql.DB
}

// ResetTokenRepository defines the reset token persistence operations the
// service needs.
type ResetTokenRepository interface {
	// Create saves a new reset token record
	Create(ctx context.Context, token *domain.PasswordResetToken) error

	// GetByTokenHash retrieves a reset token record by the raw token's digest
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error)

	// MarkUsed records that the token has redeemed a password reset
	MarkUsed(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new repository instance that uses the provided transaction
	WithTx(tx *sql.Tx) ResetTokenRepository
}

// SessionRevoker defines the refresh token revocation the service needs when
// a password changes.
type SessionRevoker interface {
	// RevokeAllForUser marks every active refresh token of the user revoked
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error

	// WithTx returns a new revoker instance that uses the provided transaction
	WithTx(tx *sql.Tx) SessionRevoker
}

// PasswordResetService implements the forgot-password flow: a single-use
// reset token is mailed to the account's address and later redeemed for a
// password change.
type PasswordResetService interface {
	// RequestReset issues a reset token for the account with the given email
	// and requests delivery of the reset email. Unknown emails succeed
	// silently so the endpoint cannot be used to probe for accounts.
	RequestReset(ctx context.Context, email string) error

	// ConfirmReset redeems a raw reset token for a password change. The
	// token is consumed and all of the user's refresh tokens are revoked.
	// Returns ErrInvalidResetToken when the token is unknown, expired or
	// already used.
	ConfirmReset(ctx context.Context, rawToken, newPassword string) error
}

// passwordResetServiceImpl implements the PasswordResetService interface
type passwordResetServiceImpl struct {
	userRepo      UserRepository
	resetRepo     ResetTokenRepository
	sessions      SessionRevoker
	eventEmitter  events.EventEmitter
	tokenLifetime time.Duration
	resetBaseURL  string
	logger        *slog.Logger

	// timeFunc returns the current time, injectable for testing
	timeFunc func() time.Time

	// generateToken produces a raw reset token, injectable for testing
	generateToken func() (string, error)
}

// NewPasswordResetService creates a new PasswordResetService.
// It returns an error if any of the required dependencies are nil.
func NewPasswordResetService(
	userRepo UserRepository,
	resetRepo ResetTokenRepository,
	sessions SessionRevoker,
	eventEmitter events.EventEmitter,
	authCfg config.AuthConfig,
	mailCfg config.MailConfig,
	logger *slog.Logger,
) (PasswordResetService, error) {
	if userRepo == nil {
		return nil, &PasswordResetServiceError{
			Operation: "create_service",
			Message:   "userRepo cannot be nil",
		}
	}
	if resetRepo == nil {
		return nil, &PasswordResetServiceError{
			Operation: "create_service",
			Message:   "resetRepo cannot be nil",
		}
	}
	if sessions == nil {
		return nil, &PasswordResetServiceError{
			Operation: "create_service",
			Message:   "sessions cannot be nil",
		}
	}
	if eventEmitter == nil {
		return nil, &PasswordResetServiceError{
			Operation: "create_service",
			Message:   "eventEmitter cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &passwordResetServiceImpl{
		userRepo:      userRepo,
		resetRepo:     resetRepo,
		sessions:      sessions,
		eventEmitter:  eventEmitter,
		tokenLifetime: time.Duration(authCfg.ResetTokenLifetimeMinutes) * time.Minute,
		resetBaseURL:  mailCfg.ResetBaseURL,
		logger:        logger.With(slog.String("component", "password_reset_service")),
		timeFunc:      time.Now,
		generateToken: generateResetToken,
	}, nil
}

// RequestReset issues a reset token and requests the reset email. Only the
// SHA-256 digest of the token is persisted; the raw token leaves the system
// exactly once, inside the emailed link.
func (s *passwordResetServiceImpl) RequestReset(ctx context.Context, email string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Succeed silently: the response must not reveal whether the
			// account exists.
			log.Debug("password reset requested for unknown email")
			return nil
		}
		return NewPasswordResetServiceError("request_reset", "failed to look up user", err)
	}

	rawToken, err := s.generateToken()
	if err != nil {
		return NewPasswordResetServiceError("request_reset", "failed to generate token", err)
	}

	token, err := domain.NewPasswordResetToken(
		user.ID,
		hashResetToken(rawToken),
		s.timeFunc().Add(s.tokenLifetime),
	)
	if err != nil {
		return NewPasswordResetServiceError("request_reset", "invalid token data", err)
	}

	err = store.RunInTransaction(ctx, s.userRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		return s.resetRepo.WithTx(tx).Create(ctx, token)
	})
	if err != nil {
		log.Error("failed to save reset token",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return NewPasswordResetServiceError("request_reset", "failed to save token", err)
	}

	s.emitResetEmail(ctx, user.Email, rawToken)

	log.Info("password reset requested",
		slog.String("user_id", user.ID.String()),
		slog.String("token_id", token.ID.String()))
	return nil
}

// ConfirmReset redeems a reset token for a password change. Token checks,
// the password update, token consumption and session revocation all commit
// in one transaction.
func (s *passwordResetServiceImpl) ConfirmReset(ctx context.Context, rawToken, newPassword string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var userID uuid.UUID
	err := store.RunInTransaction(ctx, s.userRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txUsers := s.userRepo.WithTx(tx)
		txTokens := s.resetRepo.WithTx(tx)
		txSessions := s.sessions.WithTx(tx)

		token, err := txTokens.GetByTokenHash(ctx, hashResetToken(rawToken))
		if err != nil {
			if errors.Is(err, store.ErrResetTokenNotFound) {
				return ErrInvalidResetToken
			}
			return NewPasswordResetServiceError("confirm_reset", "failed to look up token", err)
		}

		if token.Used() || token.Expired(s.timeFunc()) {
			return ErrInvalidResetToken
		}

		user, err := txUsers.GetByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return ErrInvalidResetToken
			}
			return NewPasswordResetServiceError("confirm_reset", "failed to load user", err)
		}

		// The store hashes the new password and runs domain validation.
		user.Password = newPassword
		if err := txUsers.Update(ctx, user); err != nil {
			return NewPasswordResetServiceError("confirm_reset", "failed to update password", err)
		}

		if err := txTokens.MarkUsed(ctx, token.ID); err != nil {
			return NewPasswordResetServiceError("confirm_reset", "failed to consume token", err)
		}

		// A password change ends every session.
		if err := txSessions.RevokeAllForUser(ctx, token.UserID); err != nil {
			return NewPasswordResetServiceError("confirm_reset", "failed to revoke sessions", err)
		}

		userID = token.UserID
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("password reset completed", slog.String("user_id", userID.String()))
	return nil
}

// emitResetEmail requests delivery of the reset email. The token row is
// already committed; a lost event only means the user has to request another
// reset, so emission failures are logged rather than surfaced.
func (s *passwordResetServiceImpl) emitResetEmail(ctx context.Context, to, rawToken string) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	payload := struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}{
		To:      to,
		Subject: mail.FormatResetSubject(appName),
		Body:    mail.FormatResetBody(s.resetBaseURL + "?token=" + rawToken),
	}

	event, err := events.NewTaskRequestEvent(task.TaskTypeEmailDelivery, payload)
	if err != nil {
		log.Error("failed to create reset email event", slog.String("error", err.Error()))
		return
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit reset email event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
		return
	}

	log.Debug("reset email event emitted", slog.String("event_id", event.ID.String()))
}

// hashResetToken returns the hex SHA-256 digest of a raw reset token.
// The digest is what gets stored and looked up.
func hashResetToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

// generateResetToken returns a hex-encoded random token.
func generateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
