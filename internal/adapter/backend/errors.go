package backend

import (
	"errors"
	"fmt"
)

// APIError is returned when the backend answers with success=false.
type APIError struct {
	Op      string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s: request unsuccessful", e.Op)
	}
	return fmt.Sprintf("backend %s: %s", e.Op, e.Message)
}

// StatusError is returned for non-2xx responses. Message carries the
// backend's "error" field when the body had one.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("backend %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// IsLogical reports whether err is a well-formed rejection from the backend
// rather than a sign that the backend is unhealthy.
func IsLogical(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
}
