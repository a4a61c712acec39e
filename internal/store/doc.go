// Package store declares the persistence interfaces the services depend on,
// one per aggregate (users, posts, categories, refresh tokens, password reset
// tokens), plus the sentinel errors implementations map database failures
// onto. Services branch on these sentinels with errors.Is and never see
// driver-specific error types.
package store
