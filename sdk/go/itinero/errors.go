// Package itinero provides a Go client for the Itinero itinerary API.
package itinero

import (
	"errors"
	"fmt"
)

// Error represents an error from the Itinero API with the HTTP status code
// and the server's error message. Field is set for validation failures.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Field      string
	RequestID  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("itinero: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsInvalidInput returns true if the server rejected the request body (400).
func IsInvalidInput(err error) bool {
	return hasStatus(err, 400)
}

// IsPayloadTooLarge returns true if the body exceeded the server limit (413).
func IsPayloadTooLarge(err error) bool {
	return hasStatus(err, 413)
}

// IsRateLimited returns true if the error is a 429 (Too Many Requests).
func IsRateLimited(err error) bool {
	return hasStatus(err, 429)
}

func hasStatus(err error, code int) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode == code
	}
	return false
}
