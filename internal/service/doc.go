// Package service implements the application's business workflows on top of
// the store layer.
//
// Services depend on narrow repository interfaces defined in this package
// rather than on the store implementations directly, keeping them testable
// with lightweight mocks. Multi-step mutations run inside a single database
// transaction via store.RunInTransaction; background work is requested by
// emitting task request events after the transaction commits.
package service
