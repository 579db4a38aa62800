// Package logger sets up the process-wide log/slog JSON logger and carries
// request-scoped loggers (with trace and user ids attached) in a context.
package logger
