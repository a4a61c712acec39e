package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/store"
)

// MockRefreshTokenStore is a hand-written store.RefreshTokenStore double.
// Setting a Fn field scripts that method; methods left unset run against the
// Tokens map.
type MockRefreshTokenStore struct {
	CreateFn           func(ctx context.Context, token *domain.RefreshToken) error
	GetByIDFn          func(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error)
	RevokeFn           func(ctx context.Context, id uuid.UUID) error
	RevokeAllForUserFn func(ctx context.Context, userID uuid.UUID) error

	Tokens map[uuid.UUID]*domain.RefreshToken
}

var _ store.RefreshTokenStore = (*MockRefreshTokenStore)(nil)

// NewMockRefreshTokenStore returns an empty mock backed by an in-memory map.
func NewMockRefreshTokenStore() *MockRefreshTokenStore {
	return &MockRefreshTokenStore{
		Tokens: make(map[uuid.UUID]*domain.RefreshToken),
	}
}

// Create stores the token, rejecting duplicate IDs.
func (m *MockRefreshTokenStore) Create(ctx context.Context, token *domain.RefreshToken) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, token)
	}

	if _, exists := m.Tokens[token.ID]; exists {
		return store.ErrDuplicate
	}

	m.Tokens[token.ID] = token
	return nil
}

// GetByID looks the token up by map key.
func (m *MockRefreshTokenStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	token, exists := m.Tokens[id]
	if !exists {
		return nil, store.ErrRefreshTokenNotFound
	}
	return token, nil
}

// Revoke marks the token revoked. Revoking twice keeps the first timestamp.
func (m *MockRefreshTokenStore) Revoke(ctx context.Context, id uuid.UUID) error {
	if m.RevokeFn != nil {
		return m.RevokeFn(ctx, id)
	}

	token, exists := m.Tokens[id]
	if !exists {
		return store.ErrRefreshTokenNotFound
	}

	if token.RevokedAt == nil {
		now := time.Now().UTC()
		token.RevokedAt = &now
	}
	return nil
}

// RevokeAllForUser revokes every live token the user holds.
func (m *MockRefreshTokenStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	if m.RevokeAllForUserFn != nil {
		return m.RevokeAllForUserFn(ctx, userID)
	}

	now := time.Now().UTC()
	for _, token := range m.Tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}

// WithTx implements the RefreshTokenStore interface. The mock has no
// transaction state, so it returns itself.
func (m *MockRefreshTokenStore) WithTx(tx *sql.Tx) store.RefreshTokenStore {
	return m
}

// ActiveTokensForUser returns the user's unrevoked tokens, a convenience for
// test assertions.
func (m *MockRefreshTokenStore) ActiveTokensForUser(userID uuid.UUID) []*domain.RefreshToken {
	var active []*domain.RefreshToken
	for _, token := range m.Tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			active = append(active, token)
		}
	}
	return active
}
