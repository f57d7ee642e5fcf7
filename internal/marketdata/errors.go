// Package marketdata provides a cached, rate-limited client for the upstream
// market-data provider. All tool handlers read through this gateway.
package marketdata

import (
	"errors"
	"fmt"
	"time"
)

// NotFoundError means the upstream has no data for the symbol.
// Never retried.
type NotFoundError struct {
	Symbol   string
	Endpoint string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no data for symbol %s (endpoint: %s)", e.Symbol, e.Endpoint)
}

// RateLimitError means the upstream rejected the request with 429.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("upstream rate limit exceeded, retry after %v", e.RetryAfter)
}

// UpstreamError represents any other upstream failure.
type UpstreamError struct {
	StatusCode int
	Message    string
	Endpoint   string
	Retryable  bool
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Transient reports whether the error is worth retrying.
func (e *UpstreamError) Transient() bool {
	return e.Retryable
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsRateLimited reports whether err is a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsTransient reports whether err is retryable. Network-level failures are
// wrapped as retryable UpstreamErrors by the gateway.
func IsTransient(err error) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Transient()
	}
	return false
}
