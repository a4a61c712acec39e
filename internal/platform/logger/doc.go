// Package logger configures structured JSON logging on top of log/slog and
// carries request-scoped loggers through context. Handlers pull the logger
// back out with FromContext so every line in a request shares the same
// correlation attributes.
package logger
