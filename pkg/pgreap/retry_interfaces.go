package pgreap

import "time"

// ErrorClassifier reports whether an error is worth retrying.
type ErrorClassifier interface {
	// IsTransient returns true if the operation may succeed when repeated.
	IsTransient(err error) bool
}

// BackoffStrategy calculates the delay before the next retry attempt.
type BackoffStrategy interface {
	// NextDelay returns how long to wait before retry number attempt (zero-indexed).
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the retry budget (0 = no retries, -1 = unlimited).
	MaxAttempts() int
}
