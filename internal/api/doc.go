// Package api holds the HTTP layer: handlers for auth, posts, and categories,
// request decoding and validation, and the error mapping that turns service
// and store failures into safe JSON responses. Routing itself is assembled in
// cmd/inkwell; handlers here only expose HandleX methods for it to mount.
package api
