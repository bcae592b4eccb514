package spotify

import (
	"errors"
	"fmt"
	"time"
)

// Common errors for the playback API.
var (
	// ErrUnauthorized is fatal for the session and must never be
	// auto-retried.
	ErrUnauthorized = errors.New("playback session expired")
	// ErrServerError covers 5xx responses; retried on the next regular
	// tick.
	ErrServerError = errors.New("playback service error")
)

// RateLimitError signals a "too many requests" response. RetryAfter is the
// server-suggested wait, zero when the server gave no hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}
