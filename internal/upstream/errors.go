package upstream

import (
	"errors"
	"fmt"
)

// Error taxonomy for upstream calls. Handlers and the session controller
// branch on these to decide between fatal, rejected, and retryable paths.
var (
	// ErrNotFound means the requested resource does not exist upstream.
	ErrNotFound = errors.New("upstream: not found")

	// ErrMalformedPayload means the upstream response could not be decoded
	// into the expected shape (e.g. an exam without a questions array).
	ErrMalformedPayload = errors.New("upstream: malformed payload")

	// ErrUnauthorized means the bearer token was missing, invalid or expired.
	ErrUnauthorized = errors.New("upstream: unauthorized")

	// ErrRejected means the upstream understood the request and refused it
	// (e.g. submitting to a session already closed server-side). Not retryable.
	ErrRejected = errors.New("upstream: rejected")

	// ErrUnavailable covers network failures and 5xx responses. Retryable.
	ErrUnavailable = errors.New("upstream: unavailable")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// statusError maps an HTTP status and upstream-provided message onto the taxonomy.
func statusError(status int, message string) error {
	if message == "" {
		message = "no error detail"
	}

	switch {
	case status == 401 || status == 403:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case status == 404:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, status, message)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrRejected, status, message)
	}
}
