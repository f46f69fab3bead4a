package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   4 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		if attempts < 3 {
			return &UpstreamError{Endpoint: "aggregates", Status: http.StatusInternalServerError}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return &UpstreamError{Endpoint: "aggregates", Status: http.StatusBadGateway}
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, 4, attempts)

	var upstream *UpstreamError
	assert.True(t, errors.As(err, &upstream))
}

func TestWithRetry_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return &UpstreamError{Endpoint: "aggregates", Status: http.StatusNotFound}
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := withRetry(ctx, fastRetryConfig(), func() error {
		attempts++
		cancel()
		return &UpstreamError{Endpoint: "aggregates", Status: http.StatusInternalServerError}
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_DoesNotRetryPermanentFailures(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return permanent(errors.New("failed to parse market response"))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse market response")
	assert.Equal(t, 1, attempts)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(errors.New("connection refused")))
	assert.True(t, isRetryable(&UpstreamError{Status: http.StatusTooManyRequests}))
	assert.True(t, isRetryable(&UpstreamError{Status: http.StatusServiceUnavailable}))
	assert.False(t, isRetryable(&UpstreamError{Status: http.StatusBadRequest}))
	assert.False(t, isRetryable(&UpstreamError{Status: http.StatusNotFound}))
	assert.False(t, isRetryable(permanent(errors.New("unexpected end of JSON input"))))
	assert.False(t, isRetryable(fmt.Errorf("aggregates: %w", permanent(errors.New("bad body")))))
	assert.False(t, isRetryable(context.Canceled))
	assert.False(t, isRetryable(context.DeadlineExceeded))
}
