// Package ratelimit throttles outbound calls to the embedding and LLM
// providers against their QPM limits, adapted from the token-bucket limiter
// this service used before the refactor that split it out of the processor
// package.
package ratelimit

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket throttles calls to a fixed queries-per-minute budget and
// retries retriable failures with exponential backoff plus jitter.
type TokenBucket struct {
	limiter       *rate.Limiter
	retryWaitTime time.Duration
	maxRetries    int
	jitter        float64
	mu            sync.Mutex
}

// NewTokenBucket creates a limiter allowing qpm requests per minute, bursting
// up to capacity (defaulting to half the per-minute rate).
func NewTokenBucket(qpm int, capacity int) *TokenBucket {
	if capacity <= 0 {
		capacity = qpm / 2
		if capacity <= 0 {
			capacity = 1
		}
	}
	return &TokenBucket{
		limiter:       rate.NewLimiter(rate.Limit(float64(qpm)/60.0), capacity),
		retryWaitTime: time.Second,
		maxRetries:    5,
		jitter:        0.2,
	}
}

// WithRetryPolicy overrides the base backoff, retry count, and jitter
// fraction (0.2 means ±20%).
func (tb *TokenBucket) WithRetryPolicy(waitTime time.Duration, maxRetries int, jitter float64) *TokenBucket {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.retryWaitTime = waitTime
	tb.maxRetries = maxRetries
	tb.jitter = jitter
	return tb
}

// Allow reports whether a request may proceed right now, consuming a token
// if so.
func (tb *TokenBucket) Allow() bool { return tb.limiter.Allow() }

// Wait blocks until a token is available or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	err := tb.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	// rate.Limiter fails at once, with an error of its own, when the wait
	// would outlast ctx's deadline; block until ctx is done instead.
	if _, ok := ctx.Deadline(); ok {
		<-ctx.Done()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// RetryWithBackoff waits for a token, runs fn, and retries on retriable
// errors with exponential backoff and jitter, up to maxRetries times.
func (tb *TokenBucket) RetryWithBackoff(ctx context.Context, fn func() error) error {
	tb.mu.Lock()
	base, maxRetries, jitter := tb.retryWaitTime, tb.maxRetries, tb.jitter
	tb.mu.Unlock()

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if waitErr := tb.Wait(ctx); waitErr != nil {
			return waitErr
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) || attempt >= maxRetries {
			return err
		}

		backoff := base * time.Duration(1<<uint(attempt))
		backoff = jitterDuration(backoff, jitter)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

func jitterDuration(d time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return d
	}
	delta := float64(d) * jitter
	offset := (rand.Float64()*2 - 1) * delta
	result := float64(d) + offset
	if result < 0 {
		return 0
	}
	return time.Duration(result)
}

var errRetryable = errors.New("retryable upstream error")

// IsRetryableError reports whether err looks like a transient upstream
// failure worth retrying.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errRetryable) {
		return true
	}
	msg := err.Error()
	for _, substr := range []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"eof",
		"connection refused",
		"429",
		"too many requests",
		"rate limit",
		"no such host",
		"unavailable",
	} {
		if strings.Contains(strings.ToLower(msg), substr) {
			return true
		}
	}
	return false
}
