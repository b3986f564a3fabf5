package docsops

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork classifies transport failures and non-success statuses.
	ErrNetwork = errors.New("network failure")
	// ErrMalformedResponse classifies bodies that do not match the endpoint schema.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrUnauthenticated is returned before any request when no session token is available.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// APIError describes a request that reached the server and failed, or never
// reached it at all (StatusCode zero).
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Message != "":
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("execute request %s %s: %v", e.Method, e.Path, e.Err)
	default:
		return fmt.Sprintf("api %s %s failed", e.Method, e.Path)
	}
}

// Unwrap exposes both the network classification and the transport cause.
func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNetwork, e.Err}
	}
	return []error{ErrNetwork}
}

func malformed(path string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedResponse, path, fmt.Sprintf(format, args...))
}
