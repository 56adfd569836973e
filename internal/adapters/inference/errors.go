package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited is returned when every attempt was answered with 429.
	ErrRateLimited = errors.New("inference rate limited")
	// ErrEmptyResponse means the answer carried no candidate text.
	ErrEmptyResponse = errors.New("inference response has no text")
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("inference not configured")
)

// StatusError is a non-2xx, non-429 answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference call failed with status %d: %s", e.Code, e.Body)
}
