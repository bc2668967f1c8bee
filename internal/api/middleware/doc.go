// Package middleware provides HTTP middleware for request tracing and
// access logging.
package middleware
