package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals an empty extraction query.
	ErrInvalidQuery = errors.New("Query is required")
	// ErrMissingCriteria signals a search without location and keywords.
	ErrMissingCriteria = errors.New("Either location or keywords is required")
	// ErrInvalidResourceID signals a resource id that is not a UUID.
	ErrInvalidResourceID = errors.New("invalid resource id")
	// ErrInvalidLocation signals coordinates that cannot be sent to the backend.
	ErrInvalidLocation = errors.New("invalid location")
	// ErrBackend signals a failed call to the resource search backend.
	ErrBackend = errors.New("backend error")

	// ErrProviderNotConfigured signals an extraction provider without credentials.
	ErrProviderNotConfigured = errors.New("extraction provider not configured")
	// ErrProviderError signals an extraction provider failure.
	ErrProviderError = errors.New("extraction provider error")
	// ErrMalformedOutput signals provider output that is not a valid extraction.
	ErrMalformedOutput = errors.New("malformed provider output")
	// ErrExtractionQuotaExceeded signals an exhausted provider token budget.
	ErrExtractionQuotaExceeded = errors.New("extraction quota exceeded")
)

// InvalidLocationError carries the offending coordinates.
type InvalidLocationError struct {
	Lat float64
	Lon float64
}

func (e *InvalidLocationError) Error() string {
	return fmt.Sprintf("%s: coordinates must be finite numbers (lat=%v, lon=%v)",
		ErrInvalidLocation.Error(), e.Lat, e.Lon)
}

func (e *InvalidLocationError) Unwrap() error { return ErrInvalidLocation }

// CheckCoordinates returns an InvalidLocationError when lat or lon is NaN or infinite.
func CheckCoordinates(lat, lon float64) error {
	if isFinite(lat) && isFinite(lon) {
		return nil
	}
	return &InvalidLocationError{Lat: lat, Lon: lon}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// BackendAPIError is a failed backend call. StatusCode is 0 when no
// HTTP response was received.
type BackendAPIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *BackendAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", ErrBackend.Error(), e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrBackend.Error(), e.StatusCode, e.Message)
}

// Unwrap exposes both the sentinel and the transport cause.
func (e *BackendAPIError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBackend}
	}
	return []error{ErrBackend, e.Err}
}

// IsNotFound reports whether the backend answered 404.
func (e *BackendAPIError) IsNotFound() bool { return e.StatusCode == 404 }
