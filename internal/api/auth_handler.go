package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/inkwell-api/internal/api/shared"
	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/platform/logger"
	"github.com/phrazzld/inkwell-api/internal/service"
	"github.com/phrazzld/inkwell-api/internal/service/auth"
	"github.com/phrazzld/inkwell-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userStore        store.UserStore
	refreshTokens    store.RefreshTokenStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	resetService     service.PasswordResetService
	db               *sql.DB
	logger           *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// The database handle is needed for the refresh rotation transaction.
func NewAuthHandler(
	userStore store.UserStore,
	refreshTokens store.RefreshTokenStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	resetService service.PasswordResetService,
	db *sql.DB,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userStore:        userStore,
		refreshTokens:    refreshTokens,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		resetService:     resetService,
		db:               db,
		logger:           logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles the /api/auth/register endpoint.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RegisterRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	user, err := domain.NewUser(req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Invalid user data")
		return
	}

	if err := h.userStore.Create(r.Context(), user); err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	resp, err := h.issueTokenPair(r.Context(), h.refreshTokens, user.ID)
	if err != nil {
		log.Error("failed to issue token pair",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// Login handles the /api/auth/login endpoint.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req LoginRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	user, err := h.userStore.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Same response as a wrong password so the endpoint cannot be
			// used to probe for accounts.
			HandleAPIError(w, r, auth.ErrInvalidCredentials, "", shared.WithElevatedLogLevel())
			return
		}
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		HandleAPIError(w, r, auth.ErrInvalidCredentials, "", shared.WithElevatedLogLevel())
		return
	}

	resp, err := h.issueTokenPair(r.Context(), h.refreshTokens, user.ID)
	if err != nil {
		log.Error("failed to issue token pair",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// RefreshToken handles the /api/auth/refresh endpoint. The presented refresh
// token is rotated: its stored record is revoked and a new pair is issued in
// the same transaction.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RefreshTokenRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "", shared.WithElevatedLogLevel())
		return
	}

	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		HandleAPIError(w, r, auth.ErrInvalidRefreshToken, "", shared.WithElevatedLogLevel())
		return
	}

	var resp *AuthResponse
	err = store.RunInTransaction(r.Context(), h.db, func(ctx context.Context, tx *sql.Tx) error {
		txTokens := h.refreshTokens.WithTx(tx)

		record, err := txTokens.GetByID(ctx, tokenID)
		if err != nil {
			if errors.Is(err, store.ErrRefreshTokenNotFound) {
				return auth.ErrInvalidRefreshToken
			}
			return err
		}

		if record.Revoked() {
			return auth.ErrRevokedToken
		}
		if record.UserID != claims.UserID {
			return auth.ErrInvalidRefreshToken
		}

		if err := txTokens.Revoke(ctx, tokenID); err != nil {
			return err
		}

		resp, err = h.issueTokenPair(ctx, txTokens, claims.UserID)
		return err
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to refresh token", shared.WithElevatedLogLevel())
		return
	}

	log.Debug("refresh token rotated", slog.String("user_id", claims.UserID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	})
}

// Logout handles the /api/auth/logout endpoint. It revokes the stored record
// of the presented refresh token; the access token stays valid until expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req LogoutRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		HandleAPIError(w, r, auth.ErrInvalidRefreshToken, "")
		return
	}

	record, err := h.refreshTokens.GetByID(r.Context(), tokenID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to revoke token")
		return
	}

	// Only the token's owner may revoke it, and revoking twice is rejected
	// rather than silently accepted.
	if record.UserID != userID || record.Revoked() {
		HandleAPIError(w, r, auth.ErrInvalidRefreshToken, "")
		return
	}

	if err := h.refreshTokens.Revoke(r.Context(), tokenID); err != nil {
		HandleAPIError(w, r, err, "Failed to revoke token")
		return
	}

	log.Info("user logged out", slog.String("user_id", userID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// RequestPasswordReset handles the /api/auth/password-reset endpoint.
// The response is 202 regardless of whether the email matched an account.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if err := h.resetService.RequestReset(r.Context(), req.Email); err != nil {
		HandleAPIError(w, r, err, "Failed to request password reset")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, MessageResponse{
		Message: "If that account exists, a password reset email has been sent.",
	})
}

// ConfirmPasswordReset handles the /api/auth/password-reset/confirm endpoint.
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if err := h.resetService.ConfirmReset(r.Context(), req.Token, req.NewPassword); err != nil {
		HandleAPIError(w, r, err, "Failed to reset password", shared.WithElevatedLogLevel())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// issueTokenPair generates an access and refresh token for the user and
// records the refresh token so it can be revoked later. The token store is a
// parameter so rotation can record inside its transaction.
func (h *AuthHandler) issueTokenPair(
	ctx context.Context,
	tokens store.RefreshTokenStore,
	userID uuid.UUID,
) (*AuthResponse, error) {
	accessToken, err := h.jwtService.GenerateToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Validating our own tokens recovers the generated claims: the refresh
	// token's jti and expiry for the stored record, the access token's
	// expiry for the response.
	refreshClaims, err := h.jwtService.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	accessClaims, err := h.jwtService.ValidateToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	tokenID, err := uuid.Parse(refreshClaims.ID)
	if err != nil {
		return nil, err
	}

	record, err := domain.NewRefreshToken(tokenID, userID, refreshClaims.ExpiresAt)
	if err != nil {
		return nil, err
	}

	if err := tokens.Create(ctx, record); err != nil {
		return nil, err
	}

	return &AuthResponse{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessClaims.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}
