package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every error returned by the client for a failed call matches
// exactly one of these with errors.Is.
var (
	// ErrValidation means the server rejected the request body (400).
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized means the bearer credential is missing, expired or
	// invalid (401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFoundOrForbidden means the task does not exist or is owned by
	// someone else (403, 404).
	ErrNotFoundOrForbidden = errors.New("not found or forbidden")

	// ErrNetwork covers transport failures and every other non-2xx response.
	ErrNetwork = errors.New("network error")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	TraceID    string
	kind       error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status %d)", e.kind, e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d): %s", e.kind, e.StatusCode, e.Message)
}

// Unwrap returns the error kind.
func (e *APIError) Unwrap() error {
	return e.kind
}

// kindForStatus maps a non-2xx status code to its error kind.
func kindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden, http.StatusNotFound:
		return ErrNotFoundOrForbidden
	default:
		return ErrNetwork
	}
}
