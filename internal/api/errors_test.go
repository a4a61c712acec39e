package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/inkwell-api/internal/api/shared"
	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/service"
	"github.com/phrazzld/inkwell-api/internal/service/auth"
	"github.com/phrazzld/inkwell-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"expired access token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid access token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"invalid refresh token", auth.ErrInvalidRefreshToken, http.StatusUnauthorized},
		{"revoked refresh token", auth.ErrRevokedToken, http.StatusUnauthorized},
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"invalid reset token", service.ErrInvalidResetToken, http.StatusUnauthorized},
		{"missing refresh token row", store.ErrRefreshTokenNotFound, http.StatusUnauthorized},
		{"missing reset token row", store.ErrResetTokenNotFound, http.StatusUnauthorized},
		{"not the owner", service.ErrNotOwned, http.StatusForbidden},
		{"unknown category reference", store.ErrCategoryNotFound, http.StatusBadRequest},
		{"missing post", store.ErrPostNotFound, http.StatusNotFound},
		{"missing user", store.ErrUserNotFound, http.StatusNotFound},
		{"duplicate email", store.ErrEmailExists, http.StatusConflict},
		{"duplicate category", store.ErrCategoryNameExists, http.StatusConflict},
		{"duplicate slug", store.ErrSlugExists, http.StatusConflict},
		{"bad status transition", domain.ErrInvalidPostStatusTransition, http.StatusConflict},
		{"post being published", service.ErrPostBeingPublished, http.StatusConflict},
		{"validation failure", domain.ErrValidation, http.StatusBadRequest},
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest},
		{"wrapped sentinel", fmt.Errorf("loading post: %w", store.ErrPostNotFound), http.StatusNotFound},
		{"unknown error", errors.New("connection refused"), http.StatusInternalServerError},
		{"nil error", nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"expired access token", auth.ErrExpiredToken, "Token expired"},
		{"invalid access token", auth.ErrInvalidToken, "Invalid token"},
		{"revoked refresh token", auth.ErrRevokedToken, "Invalid refresh token"},
		{"invalid credentials", auth.ErrInvalidCredentials, "Invalid email or password"},
		{"invalid reset token", service.ErrInvalidResetToken, "Invalid or expired reset token"},
		{"not the owner", service.ErrNotOwned, "You do not own this post"},
		{"unknown category reference", store.ErrCategoryNotFound, "Unknown category"},
		{"missing post", store.ErrPostNotFound, "Post not found"},
		{"duplicate email", store.ErrEmailExists, "Email already exists"},
		{"duplicate category", store.ErrCategoryNameExists, "Category already exists"},
		{"post being published", service.ErrPostBeingPublished, "Post is currently being published"},
		{"bad status transition", domain.ErrInvalidPostStatusTransition, "Post cannot be changed in its current status"},
		{"validation failure", domain.ErrValidation, "Invalid request data"},
		{"invalid id", domain.ErrInvalidID, "Invalid ID format"},
		{"nil error", nil, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}

	t.Run("internal details never leak", func(t *testing.T) {
		t.Parallel()

		err := errors.New(`pq: connection to "db-internal-host:5432" refused`)
		msg := GetSafeErrorMessage(err)
		assert.Equal(t, "An unexpected error occurred", msg)
		assert.NotContains(t, msg, "db-internal-host")
	})
}

func TestHandleAPIError(t *testing.T) {
	t.Parallel()

	respond := func(err error, fallback string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/api/posts", nil)
		recorder := httptest.NewRecorder()
		HandleAPIError(recorder, req, err, fallback)
		return recorder
	}

	t.Run("writes the mapped status and message", func(t *testing.T) {
		t.Parallel()

		recorder := respond(store.ErrPostNotFound, "Failed to load post")

		assert.Equal(t, http.StatusNotFound, recorder.Code)

		var resp shared.ErrorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, "Post not found", resp.Error)
	})

	t.Run("falls back for unmapped errors", func(t *testing.T) {
		t.Parallel()

		recorder := respond(errors.New("boom"), "Failed to load post")

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)

		var resp shared.ErrorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, "Failed to load post", resp.Error)
	})

	t.Run("keeps the generic message without a fallback", func(t *testing.T) {
		t.Parallel()

		recorder := respond(errors.New("boom"), "")

		var resp shared.ErrorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, "An unexpected error occurred", resp.Error)
	})
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	t.Run("missing required field", func(t *testing.T) {
		t.Parallel()

		err := shared.ValidateRequest(LoginRequest{Password: "x"})
		require.Error(t, err)
		assert.Equal(t, "Invalid Email: required field", SanitizeValidationError(err))
	})

	t.Run("bad email format", func(t *testing.T) {
		t.Parallel()

		err := shared.ValidateRequest(LoginRequest{Email: "not-an-email", Password: "x"})
		require.Error(t, err)
		assert.Equal(t, "Invalid Email: invalid email format", SanitizeValidationError(err))
	})

	t.Run("password too short", func(t *testing.T) {
		t.Parallel()

		err := shared.ValidateRequest(RegisterRequest{Email: "a@example.com", Password: "short"})
		require.Error(t, err)
		assert.Equal(t, "Invalid Password: too short", SanitizeValidationError(err))
	})

	t.Run("non validator error", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("boom")))
	})
}
