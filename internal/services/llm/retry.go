package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// Retry behavior for decision calls.
const (
	DefaultMaxRetries = 3

	// timeoutBackoff and transientBackoff are fixed waits for non-quota
	// failures.
	timeoutBackoff   = 2 * time.Second
	transientBackoff = 1 * time.Second
)

// IsRateLimitError checks if an error is a provider rate limit error.
// Matches 429 status codes and RESOURCE_EXHAUSTED/quota messages.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "quota")
}

// IsTimeoutError checks if an error is a timeout.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "timeout")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from an error.
// Returns 0 if no delay is found in the error message.
//
// Example error message:
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// callWithRetry runs one decision call with retries. Each attempt gets its
// own timeout context: a consumed window or a long quota wait must not
// poison the next attempt.
func callWithRetry(ctx context.Context, timeout time.Duration, logger arbor.ILogger, provider string, call func(ctx context.Context) error) error {
	var apiErr error

	for attempt := 0; attempt < DefaultMaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		apiErr = call(attemptCtx)
		cancel()
		if apiErr == nil {
			return nil
		}
		if attempt == DefaultMaxRetries-1 {
			break
		}

		backoff := BackoffFor(attempt, apiErr)
		if logger != nil {
			logger.Warn().
				Str("provider", provider).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Err(apiErr).
				Msg("Retrying decision call")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%s API call failed after %d attempts: %w", provider, DefaultMaxRetries, apiErr)
}

// BackoffFor computes the wait before retry attempt (0-based).
// Rate limits wait 2^attempt plus 1-3s of jitter, or the API-suggested
// delay when the error carries one. Timeouts wait 2s, everything else 1s.
func BackoffFor(attempt int, err error) time.Duration {
	if IsRateLimitError(err) {
		if apiDelay := ExtractRetryDelay(err); apiDelay > 0 {
			return apiDelay + time.Second
		}
		base := time.Duration(1<<uint(attempt)) * time.Second
		jitter := time.Duration(1+rand.Intn(3)) * time.Second
		return base + jitter
	}
	if IsTimeoutError(err) {
		return timeoutBackoff
	}
	return transientBackoff
}
