package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/inkwell-api/internal/api/shared"
	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/mocks"
	"github.com/phrazzld/inkwell-api/internal/service"
	"github.com/phrazzld/inkwell-api/internal/service/auth"
)

// mockResetService implements service.PasswordResetService for testing
type mockResetService struct {
	RequestResetFn func(ctx context.Context, email string) error
	ConfirmResetFn func(ctx context.Context, rawToken, newPassword string) error

	requestedEmail    string
	confirmedToken    string
	confirmedPassword string
}

var _ service.PasswordResetService = (*mockResetService)(nil)

func (m *mockResetService) RequestReset(ctx context.Context, email string) error {
	m.requestedEmail = email
	if m.RequestResetFn != nil {
		return m.RequestResetFn(ctx, email)
	}
	return nil
}

func (m *mockResetService) ConfirmReset(ctx context.Context, rawToken, newPassword string) error {
	m.confirmedToken = rawToken
	m.confirmedPassword = newPassword
	if m.ConfirmResetFn != nil {
		return m.ConfirmResetFn(ctx, rawToken, newPassword)
	}
	return nil
}

// postJSON builds a JSON POST request against the handler under test.
func postJSON(t *testing.T, target string, payload interface{}) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", target, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// authenticate places the user ID in the request context the way the auth
// middleware does.
func authenticate(r *http.Request, userID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
	return r.WithContext(ctx)
}

// newTxDB returns a sqlmock-backed database for handlers that open
// transactions. Callers set the Begin/Commit/Rollback expectations.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

// refreshClaims returns refresh token claims with the given jti.
func refreshClaims(userID, tokenID uuid.UUID) *auth.Claims {
	now := time.Now()
	return &auth.Claims{
		UserID:    userID,
		TokenType: auth.TokenTypeRefresh,
		Subject:   userID.String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
		ID:        tokenID.String(),
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	userStore := mocks.NewMockUserStore()
	tokenStore := mocks.NewMockRefreshTokenStore()
	jwtService := auth.NewMockJWTService()
	passwordVerifier := &mocks.MockPasswordVerifier{ShouldSucceed: true}

	existing, err := domain.NewUser("taken@example.com", "password1234567")
	require.NoError(t, err)
	require.NoError(t, userStore.Create(context.Background(), existing))

	handler := NewAuthHandler(
		userStore, tokenStore, jwtService, passwordVerifier, &mockResetService{}, nil, nil)

	tests := []struct {
		name       string
		payload    map[string]interface{}
		wantStatus int
		wantToken  bool
	}{
		{
			name: "valid registration",
			payload: map[string]interface{}{
				"email":    "test@example.com",
				"password": "password1234567",
			},
			wantStatus: http.StatusCreated,
			wantToken:  true,
		},
		{
			name: "duplicate email",
			payload: map[string]interface{}{
				"email":    "taken@example.com",
				"password": "password1234567",
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "invalid email",
			payload: map[string]interface{}{
				"email":    "invalid-email",
				"password": "password1234567",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "password too short",
			payload: map[string]interface{}{
				"email":    "test2@example.com",
				"password": "short",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "missing email",
			payload: map[string]interface{}{
				"password": "password1234567",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "missing password",
			payload: map[string]interface{}{
				"email": "test3@example.com",
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := postJSON(t, "/api/auth/register", tt.payload)
			recorder := httptest.NewRecorder()

			handler.Register(recorder, req)

			assert.Equal(t, tt.wantStatus, recorder.Code)

			if tt.wantToken {
				var authResp AuthResponse
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&authResp))
				assert.NotEqual(t, uuid.Nil, authResp.UserID)
				assert.Equal(t, "mock-jwt-token", authResp.AccessToken)
				assert.Equal(t, "mock-refresh-token", authResp.RefreshToken)
				assert.NotEmpty(t, authResp.ExpiresAt, "ExpiresAt should be populated")

				assert.NotEmpty(t, tokenStore.Tokens, "the refresh token must be recorded")
			}
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	newHandler := func(t *testing.T, verifier *mocks.MockPasswordVerifier) (*AuthHandler, *mocks.MockUserStore) {
		t.Helper()

		userStore := mocks.NewMockUserStore()
		user, err := domain.NewUser("reader@example.com", "password1234567")
		require.NoError(t, err)
		require.NoError(t, userStore.Create(context.Background(), user))

		handler := NewAuthHandler(
			userStore,
			mocks.NewMockRefreshTokenStore(),
			auth.NewMockJWTService(),
			verifier,
			&mockResetService{},
			nil,
			nil,
		)
		return handler, userStore
	}

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()

		verifier := &mocks.MockPasswordVerifier{ShouldSucceed: true}
		handler, userStore := newHandler(t, verifier)

		req := postJSON(t, "/api/auth/login", map[string]interface{}{
			"email":    "reader@example.com",
			"password": "password1234567",
		})
		recorder := httptest.NewRecorder()

		handler.Login(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)

		var authResp AuthResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&authResp))
		assert.Equal(t, userStore.LastUserID, authResp.UserID)
		assert.Equal(t, "mock-jwt-token", authResp.AccessToken)
		assert.Equal(t, "mock-refresh-token", authResp.RefreshToken)

		assert.Equal(t, 1, verifier.CompareCalls)
		assert.Equal(t, "hashed:password1234567", verifier.LastHashedPassword)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		t.Parallel()

		handler, _ := newHandler(t, &mocks.MockPasswordVerifier{ShouldSucceed: false})

		wrongPassword := httptest.NewRecorder()
		handler.Login(wrongPassword, postJSON(t, "/api/auth/login", map[string]interface{}{
			"email":    "reader@example.com",
			"password": "not-the-password",
		}))

		unknownEmail := httptest.NewRecorder()
		handler.Login(unknownEmail, postJSON(t, "/api/auth/login", map[string]interface{}{
			"email":    "nobody@example.com",
			"password": "password1234567",
		}))

		assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
		assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)

		var a, b shared.ErrorResponse
		require.NoError(t, json.NewDecoder(wrongPassword.Body).Decode(&a))
		require.NoError(t, json.NewDecoder(unknownEmail.Body).Decode(&b))
		assert.Equal(t, a.Error, b.Error, "both failures must return the same message")
		assert.Equal(t, "Invalid email or password", a.Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		handler, _ := newHandler(t, &mocks.MockPasswordVerifier{ShouldSucceed: true})

		req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString("{not json"))
		recorder := httptest.NewRecorder()

		handler.Login(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	t.Run("rotates the token pair", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		userID := uuid.New()
		oldID := uuid.New()
		newID := uuid.New()

		jwtService := auth.NewMockJWTService()
		jwtService.GenerateRefreshTokenFunc = func(ctx context.Context, id uuid.UUID) (string, error) {
			return "new-refresh-token", nil
		}
		jwtService.ValidateRefreshTokenFunc = func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			switch tokenString {
			case "old-refresh-token":
				return refreshClaims(userID, oldID), nil
			case "new-refresh-token":
				return refreshClaims(userID, newID), nil
			default:
				return nil, auth.ErrInvalidRefreshToken
			}
		}

		tokenStore := mocks.NewMockRefreshTokenStore()
		oldRecord, err := domain.NewRefreshToken(oldID, userID, time.Now().Add(24*time.Hour))
		require.NoError(t, err)
		require.NoError(t, tokenStore.Create(context.Background(), oldRecord))

		handler := NewAuthHandler(
			mocks.NewMockUserStore(),
			tokenStore,
			jwtService,
			&mocks.MockPasswordVerifier{},
			&mockResetService{},
			db,
			nil,
		)

		req := postJSON(t, "/api/auth/refresh", map[string]interface{}{
			"refresh_token": "old-refresh-token",
		})
		recorder := httptest.NewRecorder()

		handler.RefreshToken(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		var resp RefreshTokenResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, "mock-jwt-token", resp.AccessToken)
		assert.Equal(t, "new-refresh-token", resp.RefreshToken)
		assert.NotEmpty(t, resp.ExpiresAt)

		assert.NotNil(t, tokenStore.Tokens[oldID].RevokedAt, "the old token must be revoked")
		require.Contains(t, tokenStore.Tokens, newID, "the new token must be recorded")
		assert.Nil(t, tokenStore.Tokens[newID].RevokedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an invalid refresh token", func(t *testing.T) {
		t.Parallel()

		jwtService := auth.NewMockJWTService()
		jwtService.ValidationError = auth.ErrInvalidRefreshToken

		handler := NewAuthHandler(
			mocks.NewMockUserStore(),
			mocks.NewMockRefreshTokenStore(),
			jwtService,
			&mocks.MockPasswordVerifier{},
			&mockResetService{},
			nil,
			nil,
		)

		recorder := httptest.NewRecorder()
		handler.RefreshToken(recorder, postJSON(t, "/api/auth/refresh", map[string]interface{}{
			"refresh_token": "bad-token",
		}))

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects a revoked token", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		userID := uuid.New()
		tokenID := uuid.New()

		jwtService := auth.NewMockJWTService()
		jwtService.ValidateRefreshTokenFunc = func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			return refreshClaims(userID, tokenID), nil
		}

		tokenStore := mocks.NewMockRefreshTokenStore()
		record, err := domain.NewRefreshToken(tokenID, userID, time.Now().Add(24*time.Hour))
		require.NoError(t, err)
		revokedAt := time.Now().UTC()
		record.RevokedAt = &revokedAt
		tokenStore.Tokens[tokenID] = record

		handler := NewAuthHandler(
			mocks.NewMockUserStore(),
			tokenStore,
			jwtService,
			&mocks.MockPasswordVerifier{},
			&mockResetService{},
			db,
			nil,
		)

		recorder := httptest.NewRecorder()
		handler.RefreshToken(recorder, postJSON(t, "/api/auth/refresh", map[string]interface{}{
			"refresh_token": "mock-refresh-token",
		}))

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)

		var resp shared.ErrorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, "Invalid refresh token", resp.Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a token with no stored record", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		userID := uuid.New()
		jwtService := auth.NewMockJWTService()
		jwtService.ValidateRefreshTokenFunc = func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			return refreshClaims(userID, uuid.New()), nil
		}

		handler := NewAuthHandler(
			mocks.NewMockUserStore(),
			mocks.NewMockRefreshTokenStore(),
			jwtService,
			&mocks.MockPasswordVerifier{},
			&mockResetService{},
			db,
			nil,
		)

		recorder := httptest.NewRecorder()
		handler.RefreshToken(recorder, postJSON(t, "/api/auth/refresh", map[string]interface{}{
			"refresh_token": "mock-refresh-token",
		}))

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("requires the refresh_token field", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(
			mocks.NewMockUserStore(),
			mocks.NewMockRefreshTokenStore(),
			auth.NewMockJWTService(),
			&mocks.MockPasswordVerifier{},
			&mockResetService{},
			nil,
			nil,
		)

		recorder := httptest.NewRecorder()
		handler.RefreshToken(recorder, postJSON(t, "/api/auth/refresh", map[string]interface{}{}))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	newLogoutFixture := func(t *testing.T) (*AuthHandler, *mocks.MockRefreshTokenStore, uuid.UUID, uuid.UUID) {
		t.Helper()

		userID := uuid.New()
		tokenID := uuid.New()

		jwtService := auth.NewMockJWTService()
		jwtService.ValidateRefreshTokenFunc = func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			return refreshClaims(userID, tokenID), nil
		}

		tokenStore := mocks.NewMockRefreshTokenStore()
		record, err := domain.NewRefreshToken(tokenID, userID, time.Now().Add(24*time.Hour))
		require.NoError(t, err)
		tokenStore.Tokens[tokenID] = record

		handler := NewAuthHandler(
			mocks.NewMockUserStore(),
			tokenStore,
			jwtService,
			&mocks.MockPasswordVerifier{},
			&mockResetService{},
			nil,
			nil,
		)
		return handler, tokenStore, userID, tokenID
	}

	t.Run("revokes the presented token", func(t *testing.T) {
		t.Parallel()

		handler, tokenStore, userID, tokenID := newLogoutFixture(t)

		req := authenticate(postJSON(t, "/api/auth/logout", map[string]interface{}{
			"refresh_token": "mock-refresh-token",
		}), userID)
		recorder := httptest.NewRecorder()

		handler.Logout(recorder, req)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.NotNil(t, tokenStore.Tokens[tokenID].RevokedAt)
	})

	t.Run("requires authentication", func(t *testing.T) {
		t.Parallel()

		handler, _, _, _ := newLogoutFixture(t)

		recorder := httptest.NewRecorder()
		handler.Logout(recorder, postJSON(t, "/api/auth/logout", map[string]interface{}{
			"refresh_token": "mock-refresh-token",
		}))

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects an already revoked token", func(t *testing.T) {
		t.Parallel()

		handler, tokenStore, userID, tokenID := newLogoutFixture(t)
		revokedAt := time.Now().UTC()
		tokenStore.Tokens[tokenID].RevokedAt = &revokedAt

		req := authenticate(postJSON(t, "/api/auth/logout", map[string]interface{}{
			"refresh_token": "mock-refresh-token",
		}), userID)
		recorder := httptest.NewRecorder()

		handler.Logout(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects another user's token", func(t *testing.T) {
		t.Parallel()

		handler, _, _, _ := newLogoutFixture(t)

		req := authenticate(postJSON(t, "/api/auth/logout", map[string]interface{}{
			"refresh_token": "mock-refresh-token",
		}), uuid.New())
		recorder := httptest.NewRecorder()

		handler.Logout(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestRequestPasswordReset(t *testing.T) {
	t.Parallel()

	newHandler := func(reset *mockResetService) *AuthHandler {
		return NewAuthHandler(
			mocks.NewMockUserStore(),
			mocks.NewMockRefreshTokenStore(),
			auth.NewMockJWTService(),
			&mocks.MockPasswordVerifier{},
			reset,
			nil,
			nil,
		)
	}

	t.Run("accepts the request", func(t *testing.T) {
		t.Parallel()

		reset := &mockResetService{}
		handler := newHandler(reset)

		recorder := httptest.NewRecorder()
		handler.RequestPasswordReset(recorder, postJSON(t, "/api/auth/password-reset", map[string]interface{}{
			"email": "reader@example.com",
		}))

		assert.Equal(t, http.StatusAccepted, recorder.Code)
		assert.Equal(t, "reader@example.com", reset.requestedEmail)
	})

	t.Run("rejects an invalid email", func(t *testing.T) {
		t.Parallel()

		reset := &mockResetService{}
		handler := newHandler(reset)

		recorder := httptest.NewRecorder()
		handler.RequestPasswordReset(recorder, postJSON(t, "/api/auth/password-reset", map[string]interface{}{
			"email": "not-an-email",
		}))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Empty(t, reset.requestedEmail)
	})

	t.Run("maps service failures to 500", func(t *testing.T) {
		t.Parallel()

		reset := &mockResetService{
			RequestResetFn: func(ctx context.Context, email string) error {
				return errors.New("database down")
			},
		}
		handler := newHandler(reset)

		recorder := httptest.NewRecorder()
		handler.RequestPasswordReset(recorder, postJSON(t, "/api/auth/password-reset", map[string]interface{}{
			"email": "reader@example.com",
		}))

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}

func TestConfirmPasswordReset(t *testing.T) {
	t.Parallel()

	newHandler := func(reset *mockResetService) *AuthHandler {
		return NewAuthHandler(
			mocks.NewMockUserStore(),
			mocks.NewMockRefreshTokenStore(),
			auth.NewMockJWTService(),
			&mocks.MockPasswordVerifier{},
			reset,
			nil,
			nil,
		)
	}

	t.Run("resets the password", func(t *testing.T) {
		t.Parallel()

		reset := &mockResetService{}
		handler := newHandler(reset)

		recorder := httptest.NewRecorder()
		handler.ConfirmPasswordReset(recorder, postJSON(t, "/api/auth/password-reset/confirm", map[string]interface{}{
			"token":        "raw-reset-token",
			"new_password": "brand-new-password",
		}))

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.Equal(t, "raw-reset-token", reset.confirmedToken)
		assert.Equal(t, "brand-new-password", reset.confirmedPassword)
	})

	t.Run("rejects an invalid token", func(t *testing.T) {
		t.Parallel()

		reset := &mockResetService{
			ConfirmResetFn: func(ctx context.Context, rawToken, newPassword string) error {
				return service.ErrInvalidResetToken
			},
		}
		handler := newHandler(reset)

		recorder := httptest.NewRecorder()
		handler.ConfirmPasswordReset(recorder, postJSON(t, "/api/auth/password-reset/confirm", map[string]interface{}{
			"token":        "stale-token",
			"new_password": "brand-new-password",
		}))

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)

		var resp shared.ErrorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, "Invalid or expired reset token", resp.Error)
	})

	t.Run("rejects a weak password before calling the service", func(t *testing.T) {
		t.Parallel()

		reset := &mockResetService{}
		handler := newHandler(reset)

		recorder := httptest.NewRecorder()
		handler.ConfirmPasswordReset(recorder, postJSON(t, "/api/auth/password-reset/confirm", map[string]interface{}{
			"token":        "raw-reset-token",
			"new_password": "short",
		}))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Empty(t, reset.confirmedToken)
	})
}
