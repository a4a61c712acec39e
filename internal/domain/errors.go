package domain

import "errors"

// Sentinel errors shared by every domain entity.
var (
	// ErrValidation marks a domain entity that failed validation.
	// Entity-specific validation sentinels wrap this error so callers can
	// classify any of them with a single errors.Is check.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID marks a malformed or missing entity ID.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthorized marks an operation the requesting user may not
	// perform.
	ErrUnauthorized = errors.New("unauthorized operation")
)
