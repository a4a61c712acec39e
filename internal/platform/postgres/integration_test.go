package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// integrationTestTimeout bounds individual database calls in integration tests.
const integrationTestTimeout = 5 * time.Second

// isIntegrationTestEnvironment returns true if the environment is configured
// for running integration tests with a database connection.
func isIntegrationTestEnvironment() bool {
	return os.Getenv("DATABASE_URL") != ""
}

// openTestDB opens a connection to the integration test database and registers
// cleanup. Callers must skip beforehand when DATABASE_URL is not set.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL environment variable is required for this test")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "Failed to open database connection")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Error closing database connection: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), integrationTestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "Failed to ping database")

	return db
}

// beginTestTx starts a transaction that is rolled back when the test ends, so
// integration tests never leave rows behind in the shared test database.
// Subtests sharing the transaction must run sequentially.
func beginTestTx(t *testing.T, db *sql.DB) *sql.Tx {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "Failed to begin transaction")
	t.Cleanup(func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Logf("Error rolling back transaction: %v", err)
		}
	})

	return tx
}

// mustInsertUser inserts a user row directly and returns its ID. Posts and
// tokens reference users, so most fixtures start here.
func mustInsertUser(ctx context.Context, t *testing.T, tx *sql.Tx, email string) uuid.UUID {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("IntegrationPass123!"), bcrypt.MinCost)
	require.NoError(t, err, "Failed to hash fixture password")

	id := uuid.New()
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, email, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, email, string(hashed), now, now)
	require.NoError(t, err, "Failed to insert test user")

	return id
}

// uniqueEmail returns an email address that will not collide across tests.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.New().String()[:8])
}
