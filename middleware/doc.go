// Package middleware provides net/http integration for sessionauth:
// bearer-token extraction, full session validation, and context propagation of
// the validated record.
package middleware
