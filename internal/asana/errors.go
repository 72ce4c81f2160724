package asana

import (
	"errors"
	"fmt"
)

// ErrInvalidToken indicates the configured personal access token was rejected
var ErrInvalidToken = errors.New("invalid or expired Asana token")

// ErrRateLimited indicates the API rate limit was exceeded
var ErrRateLimited = errors.New("asana API rate limit exceeded")

// ErrNotConfigured indicates the token or project is missing from configuration
var ErrNotConfigured = errors.New("asana access token and project GID must be configured")

// ServerError represents a 5xx error from the Asana API
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("Asana server error: HTTP %d", e.StatusCode)
}

// UpstreamError wraps any failure to fetch or decode tasks from the tracker.
// The sync pipeline records its message on the failed run.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("asana %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
