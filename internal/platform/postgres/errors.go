package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/inkwell-api/internal/store"
)

// PostgreSQL SQLSTATE codes the stores care about.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// pgCode extracts the SQLSTATE code from an error, or returns an empty string
// when the error does not wrap a *pgconn.PgError.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation, such as inserting a second post with the same slug.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == uniqueViolationCode
}

// IsForeignKeyViolation reports whether err is a PostgreSQL foreign key
// violation, such as creating a post for an author that does not exist.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == foreignKeyViolationCode
}

// IsCheckConstraintViolation reports whether err is a PostgreSQL CHECK
// constraint violation.
func IsCheckConstraintViolation(err error) bool {
	return pgCode(err) == checkViolationCode
}

// IsNotNullViolation reports whether err is a PostgreSQL NOT NULL violation.
func IsNotNullViolation(err error) bool {
	return pgCode(err) == notNullViolationCode
}

// IsNotFoundError reports whether err represents a missing row, covering both
// the raw sql.ErrNoRows and anything wrapping store.ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, store.ErrNotFound)
}

// constraintViolation wraps a constraint failure with the matching store
// sentinel, naming the violated constraint and keeping the driver error in
// the chain.
func constraintViolation(sentinel error, kind, name string, err error) error {
	return fmt.Errorf("%w: %s (%s): %v", sentinel, kind, name, err)
}

// MapError translates driver-level errors into the store package's sentinel
// errors so callers can branch with errors.Is instead of inspecting SQLSTATE
// codes. The original error stays in the chain for logging.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case foreignKeyViolationCode:
			return constraintViolation(store.ErrInvalidEntity, "foreign key violation", pgErr.ConstraintName, err)
		case checkViolationCode:
			return constraintViolation(store.ErrInvalidEntity, "check constraint violation", pgErr.ConstraintName, err)
		case notNullViolationCode:
			return constraintViolation(store.ErrInvalidEntity, "not null violation", pgErr.ColumnName, err)
		}
	}

	// Errors without a specific mapping pass through unchanged.
	return err
}

// MapUniqueViolation turns a unique constraint violation into a more precise
// error. When specificError is non-nil it wins; otherwise the message is built
// from entityName, then constraintName, then a generic fallback. Errors that
// are not unique violations pass through unchanged.
func MapUniqueViolation(
	err error,
	entityName string,
	constraintName string,
	specificError error,
) error {
	if !IsUniqueViolation(err) {
		return err
	}

	if specificError != nil {
		return fmt.Errorf("%w: %v", specificError, err)
	}

	switch {
	case entityName != "":
		return fmt.Errorf("%w: %s already exists: %v", store.ErrDuplicate, entityName, err)
	case constraintName != "":
		return fmt.Errorf("%w: duplicate value for constraint: %s: %v", store.ErrDuplicate, constraintName, err)
	default:
		return fmt.Errorf("%w: duplicate entry: %v", store.ErrDuplicate, err)
	}
}

// CheckRowsAffected converts a zero-row UPDATE or DELETE into store.ErrNotFound.
// The optional entityName is folded into the message so callers can tell which
// table came up empty.
func CheckRowsAffected(result sql.Result, entityName string) error {
	if result == nil {
		return errors.New("nil result for rows affected check")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	if entityName == "" {
		return store.ErrNotFound
	}
	return fmt.Errorf("%w: no %s row matched", store.ErrNotFound, entityName)
}
