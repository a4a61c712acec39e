// Package postgres implements the repository interfaces from internal/store
// on top of PostgreSQL. Each store type wraps a shared store.DBTX so the same
// code runs against a connection pool or an open transaction, and every query
// error is normalized through MapError before it reaches callers.
package postgres
