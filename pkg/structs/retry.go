package structs

import (
	"time"
)

// RetryPolicy controls how failed runs are retried.
type RetryPolicy struct {
	// MaxRetries is how many times a failing run is retried before the
	// task is marked failed.
	MaxRetries int64 `json:"max_retries"`

	// BackoffMS is the fixed delay in milliseconds before each retry.
	BackoffMS int64 `json:"backoff_ms"`
}

// Backoff returns BackoffMS as a duration.
func (r *RetryPolicy) Backoff() time.Duration {
	return time.Duration(r.BackoffMS) * time.Millisecond
}
