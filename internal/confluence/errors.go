package confluence

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedResponse is returned when a 2xx body cannot be decoded or lacks
	// the fields the endpoint always sends.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrNoResults is returned when an upload succeeds but the server echoes no attachment.
	ErrNoResults = errors.New("response contained no results")
	// ErrMissingVersion marks a raw attachment without version.number.
	ErrMissingVersion = errors.New("attachment has no version number")
)

// APIError is a non-2xx response from Confluence.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	s := statusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}
