package crisisportal

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches an *APIError with status 404.
var ErrNotFound = errors.New("crisisportal: not found")

// APIError is a non-2xx portal response.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("crisisportal: status %d: %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("crisisportal: status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// errorBody mirrors the portal's JSON error payload.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}
