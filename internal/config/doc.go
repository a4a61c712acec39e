// Package config loads application settings from environment variables and
// an optional .env file, with INKWELL_ prefixed variables taking precedence.
// Settings are grouped per concern (server, database, auth, task, mail) and
// validated after loading, so the rest of the application works with a typed
// Config that is known to be complete.
package config
