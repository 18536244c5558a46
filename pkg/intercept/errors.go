package intercept

import (
	"fmt"

	"meridian-hq/meridian/pkg/policy"
)

// TransportError reports a failure to reach an upstream backend.
type TransportError struct {
	Backend policy.Backend
	URL     string
	Cause   error
}

// NewTransportError creates a new transport error.
func NewTransportError(backend policy.Backend, url string, cause error) *TransportError {
	return &TransportError{Backend: backend, URL: url, Cause: cause}
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream request failed [backend=%s, url=%s]: %v", e.Backend, e.URL, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *TransportError) Unwrap() error {
	return e.Cause
}
