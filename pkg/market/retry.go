package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RetryConfig configures the bounded exponential backoff applied to
// every provider call.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
	}
}

// withRetry runs fn up to MaxRetries+1 times, backing off between
// attempts. Only transient failures (transport errors, 429, 5xx) are
// retried; 4xx responses and context cancellation fail immediately.
func withRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := cfg.BaseDelay
			for i := 1; i < attempt; i++ {
				delay = time.Duration(float64(delay) * cfg.Multiplier)
			}
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Status >= http.StatusInternalServerError ||
			upstream.Status == http.StatusTooManyRequests
	}

	// Transport-level failures (connection refused, timeouts surfaced
	// as wrapped errors) are worth another attempt.
	return true
}

// permanentError wraps failures another attempt cannot cure, such as a
// malformed response body from an otherwise successful request.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return &permanentError{err: err}
}
