package service

import "errors"

// Sentinel errors shared across the service implementations. Services return
// these for expected failure conditions and wrap everything else in a
// service-specific error type; the API layer maps them to HTTP status codes
// with errors.Is.
var (
	// ErrNotOwned indicates a resource belongs to a different user than the
	// caller. The API layer maps this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")
)
