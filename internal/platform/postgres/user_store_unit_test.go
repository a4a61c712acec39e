package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/inkwell-api/internal/store"
)

// mockDBTX is a do-nothing store.DBTX used by the constructor tests in this
// package.
type mockDBTX struct{}

func (m *mockDBTX) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}

func (m *mockDBTX) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, nil
}

func (m *mockDBTX) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func TestNewPostgresUserStore(t *testing.T) {
	tests := []struct {
		name        string
		db          store.DBTX
		expectPanic bool
	}{
		{
			name:        "nil_db_panics",
			db:          nil,
			expectPanic: true,
		},
		{
			name: "valid_db",
			db:   &sql.DB{},
		},
		{
			name: "mock_dbtx",
			db:   &mockDBTX{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.expectPanic {
				assert.Panics(t, func() {
					NewPostgresUserStore(tt.db, bcrypt.DefaultCost)
				})
				return
			}

			store := NewPostgresUserStore(tt.db, bcrypt.DefaultCost)
			assert.NotNil(t, store)
			assert.NotNil(t, store.db)
		})
	}
}

func TestNewPostgresUserStore_BcryptCost(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{name: "in_range_cost_kept", cost: 12, want: 12},
		{name: "zero_cost_uses_default", cost: 0, want: bcrypt.DefaultCost},
		{name: "cost_below_minimum_uses_default", cost: bcrypt.MinCost - 1, want: bcrypt.DefaultCost},
		{name: "cost_above_maximum_uses_default", cost: bcrypt.MaxCost + 1, want: bcrypt.DefaultCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewPostgresUserStore(&sql.DB{}, tt.cost)
			assert.Equal(t, tt.want, store.bcryptCost)
		})
	}
}

func TestPostgresUserStore_WithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.ExpectBegin()

	base := NewPostgresUserStore(db, 12)
	tx, err := db.Begin()
	require.NoError(t, err)

	txStore, ok := base.WithTx(tx).(*PostgresUserStore)
	require.True(t, ok, "WithTx should return a *PostgresUserStore")
	assert.Same(t, tx, txStore.db)
	assert.Equal(t, base.bcryptCost, txStore.bcryptCost)
	assert.NoError(t, mock.ExpectationsWereMet())
}
