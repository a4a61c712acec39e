// Package domain holds the core entities of the blog platform: users, posts,
// categories, and the token types backing authentication flows. Entities
// validate themselves and own their state transitions (a post moves from
// draft through publishing to published here, not in the services), and the
// package depends on nothing outside the standard library and uuid.
package domain
