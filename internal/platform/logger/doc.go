// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, and carries scoped loggers through context.Context so
// that request handlers and background jobs log with their own identifiers attached.
package logger
