package planner

import (
	"fmt"
	"time"
)

// ValidationError reports a malformed or inconsistent request. It maps to
// an HTTP 400 at the API boundary.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// RateLimitError reports that the caller exhausted its request window.
// RetryAfter is the suggested wait before the next attempt.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}
