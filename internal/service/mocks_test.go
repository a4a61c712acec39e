package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/events"
)

// Interface conformance checks for the shared mocks.
var (
	_ PostRepository       = (*mockPostRepository)(nil)
	_ CategoryRepository   = (*mockCategoryRepository)(nil)
	_ UserRepository       = (*mockUserRepository)(nil)
	_ ResetTokenRepository = (*mockResetTokenRepository)(nil)
	_ SessionRevoker       = (*mockSessionRevoker)(nil)
	_ events.EventEmitter  = (*mockEventEmitter)(nil)
)

// testLogger returns a logger that discards all output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTxDB returns a sqlmock-backed database for exercising transaction paths.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// mockPostRepository implements PostRepository for testing
type mockPostRepository struct {
	db *sql.DB

	CreateFn        func(ctx context.Context, post *domain.Post) error
	GetByIDFn       func(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	UpdateFn        func(ctx context.Context, post *domain.Post) error
	DeleteFn        func(ctx context.Context, id uuid.UUID) error
	ListPublishedFn func(ctx context.Context, categorySlug string, limit, offset int) ([]*domain.Post, error)
	ListByAuthorFn  func(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]*domain.Post, error)

	createCalls int
	deleteCalls int
}

func (m *mockPostRepository) Create(ctx context.Context, post *domain.Post) error {
	m.createCalls++
	if m.CreateFn != nil {
		return m.CreateFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockPostRepository) Update(ctx context.Context, post *domain.Post) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.deleteCalls++
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockPostRepository) ListPublished(
	ctx context.Context,
	categorySlug string,
	limit, offset int,
) ([]*domain.Post, error) {
	if m.ListPublishedFn != nil {
		return m.ListPublishedFn(ctx, categorySlug, limit, offset)
	}
	return nil, nil
}

func (m *mockPostRepository) ListByAuthor(
	ctx context.Context,
	authorID uuid.UUID,
	limit, offset int,
) ([]*domain.Post, error) {
	if m.ListByAuthorFn != nil {
		return m.ListByAuthorFn(ctx, authorID, limit, offset)
	}
	return nil, nil
}

func (m *mockPostRepository) WithTx(tx *sql.Tx) PostRepository { return m }

func (m *mockPostRepository) DB() *sql.DB { return m.db }

// mockCategoryRepository implements CategoryRepository for testing
type mockCategoryRepository struct {
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*domain.Category, error)
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

// mockUserRepository implements UserRepository for testing
type mockUserRepository struct {
	db *sql.DB

	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	UpdateFn     func(ctx context.Context, user *domain.User) error
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) WithTx(tx *sql.Tx) UserRepository { return m }

func (m *mockUserRepository) DB() *sql.DB { return m.db }

// mockResetTokenRepository implements ResetTokenRepository for testing
type mockResetTokenRepository struct {
	CreateFn         func(ctx context.Context, token *domain.PasswordResetToken) error
	GetByTokenHashFn func(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error)
	MarkUsedFn       func(ctx context.Context, id uuid.UUID) error

	createCalls   int
	markUsedCalls int
}

func (m *mockResetTokenRepository) Create(ctx context.Context, token *domain.PasswordResetToken) error {
	m.createCalls++
	if m.CreateFn != nil {
		return m.CreateFn(ctx, token)
	}
	return nil
}

func (m *mockResetTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*domain.PasswordResetToken, error) {
	if m.GetByTokenHashFn != nil {
		return m.GetByTokenHashFn(ctx, tokenHash)
	}
	return nil, nil
}

func (m *mockResetTokenRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	m.markUsedCalls++
	if m.MarkUsedFn != nil {
		return m.MarkUsedFn(ctx, id)
	}
	return nil
}

func (m *mockResetTokenRepository) WithTx(tx *sql.Tx) ResetTokenRepository { return m }

// mockSessionRevoker implements SessionRevoker for testing
type mockSessionRevoker struct {
	RevokeAllForUserFn func(ctx context.Context, userID uuid.UUID) error

	revokeCalls int
}

func (m *mockSessionRevoker) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	m.revokeCalls++
	if m.RevokeAllForUserFn != nil {
		return m.RevokeAllForUserFn(ctx, userID)
	}
	return nil
}

func (m *mockSessionRevoker) WithTx(tx *sql.Tx) SessionRevoker { return m }

// mockEventEmitter implements events.EventEmitter for testing, recording
// every emitted event.
type mockEventEmitter struct {
	err    error
	events []*events.TaskRequestEvent
}

func (m *mockEventEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}
