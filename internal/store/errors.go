package store

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every store implementation. Callers branch on
// these with errors.Is instead of inspecting driver errors.
var (
	// ErrNotFound reports that the requested entity is absent.
	// Entity-specific variants (e.g. ErrUserNotFound) wrap this error.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate reports a write that would collide with an existing
	// unique entity, such as a second user on one email.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity reports an entity rejected before storage. The
	// wrapped error carries the validation detail.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed reports an update that could not be applied, whether
	// the row is missing or a constraint blocked it.
	ErrUpdateFailed = errors.New("update failed")

	// ErrDeleteFailed reports a delete that could not be applied, for
	// instance when other entities still reference the row.
	ErrDeleteFailed = errors.New("delete failed")

	// ErrTransactionFailed reports a transaction that could not commit or
	// an operation that failed inside one.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrUserNotFound reports a missing user.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrPostNotFound reports a missing post.
	ErrPostNotFound = fmt.Errorf("%w: post", ErrNotFound)

	// ErrCategoryNotFound reports a missing category.
	ErrCategoryNotFound = fmt.Errorf("%w: category", ErrNotFound)

	// ErrRefreshTokenNotFound reports a refresh token with no stored row.
	ErrRefreshTokenNotFound = fmt.Errorf("%w: refresh token", ErrNotFound)

	// ErrResetTokenNotFound reports a password reset token with no stored
	// row.
	ErrResetTokenNotFound = fmt.Errorf("%w: password reset token", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrEmailExists reports a second user registering an email.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrSlugExists reports a post or category slug collision.
	ErrSlugExists = fmt.Errorf("%w: slug", ErrDuplicate)

	// ErrCategoryNameExists reports a category name collision.
	ErrCategoryNameExists = fmt.Errorf("%w: category name", ErrDuplicate)
)

// IsNotFoundError reports whether err is any "not found" error, generic or
// entity-specific.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is any "duplicate" error, generic or
// entity-specific.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
