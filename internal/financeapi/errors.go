package financeapi

import (
	"errors"
	"fmt"
)

// Sentinel failures surfaced by the client. InvalidAuth and NotFound are
// never retried; connection and server errors are.
var (
	ErrInvalidAuth = errors.New("invalid API key")
	ErrForbidden   = errors.New("insufficient permissions")
	ErrNotFound    = errors.New("endpoint not found")
	ErrBadPayload  = errors.New("malformed JSON payload")
)

// ConnectionError wraps a network-level failure (connection refused, DNS,
// timeout).
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ServerError reports a remote 5xx response.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %d", e.Status)
}

// HTTPError reports any other unexpected status code.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.Status)
}

// IsRetryable reports whether a failed request may be retried with backoff.
func IsRetryable(err error) bool {
	var connErr *ConnectionError
	var srvErr *ServerError
	return errors.As(err, &connErr) || errors.As(err, &srvErr) || errors.Is(err, ErrBadPayload)
}
