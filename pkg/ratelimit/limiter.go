// Package ratelimit provides a token bucket limiter used to pace
// outbound requests to the market data provider.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket rate limiter. The bucket starts full and
// refills continuously at the configured rate, so short bursts up to
// the bucket size are allowed.
type Limiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// PerMinute builds a limiter allowing rpm requests per minute with a
// burst of rpm tokens. rpm <= 0 returns a nil limiter, which disables
// limiting (Wait and Allow on a nil limiter always succeed).
func PerMinute(rpm int) *Limiter {
	if rpm <= 0 {
		return nil
	}
	return New(float64(rpm), float64(rpm)/60.0)
}

// New creates a limiter with the given bucket size and refill rate in
// tokens per second.
func New(maxTokens, refillRate float64) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// refill adds tokens based on elapsed time. Caller must hold mu.
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.lastRefill = now

	l.tokens += elapsed * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
}

// Allow reports whether a token was available and consumes it if so.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	for {
		if l.Allow() {
			return nil
		}

		l.mu.Lock()
		l.refill()
		deficit := 1 - l.tokens
		waitTime := time.Duration(deficit / l.refillRate * float64(time.Second))
		l.mu.Unlock()

		if waitTime <= 0 {
			waitTime = 10 * time.Millisecond
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// Available returns the current number of whole tokens in the bucket.
func (l *Limiter) Available() int {
	if l == nil {
		return int(^uint(0) >> 1)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return int(l.tokens)
}
