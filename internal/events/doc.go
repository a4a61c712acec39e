// Package events decouples the services from the background task machinery.
// A service that needs async work done, such as publishing a post or sending
// a password reset email, emits a TaskRequestEvent; a handler on the other
// side turns the event into a queued task. Neither side imports the other.
package events
