// Package mocks holds shared test doubles for the store and auth interfaces.
//
// Rather than each test file defining its own inline mocks, these doubles are
// shared across test packages. Every mock exposes overridable function fields
// for scripted behavior and falls back to a map-backed implementation for the
// common cases.
package mocks
