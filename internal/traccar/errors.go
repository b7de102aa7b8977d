package traccar

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches (via errors.Is) any *APIError with status 401.
var ErrUnauthorized = errors.New("traccar: unauthorized")

// APIError is returned for every non-2xx response. The body is kept verbatim; the proxy
// backend usually sends {"detail": "..."}.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       []byte
	// Detail is the "detail" field of a JSON error body, when present.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("traccar: %s %s: %s: %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("traccar: %s %s: %s", e.Method, e.Path, e.Status)
}

// Is reports whether target is ErrUnauthorized and the response was a 401.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// StatusCode returns the HTTP status of err if it wraps an *APIError, else 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
