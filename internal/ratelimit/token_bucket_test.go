package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewTokenBucket_DefaultsCapacityToHalfQPM(t *testing.T) {
	tb := NewTokenBucket(10, 0)
	require.True(t, tb.Allow())
}

func TestNewTokenBucket_ZeroQPMStillGetsACapacityOfOne(t *testing.T) {
	tb := NewTokenBucket(0, 0)
	require.True(t, tb.Allow())
}

func TestTokenBucket_WaitBlocksUntilContextDone(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenBucket_RetryWithBackoff_SucceedsWithoutRetryOnFirstTry(t *testing.T) {
	tb := NewTokenBucket(60, 10).WithRetryPolicy(time.Millisecond, 3, 0)

	calls := 0
	err := tb.RetryWithBackoff(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestTokenBucket_RetryWithBackoff_RetriesRetryableErrorsThenSucceeds(t *testing.T) {
	tb := NewTokenBucket(60, 10).WithRetryPolicy(time.Millisecond, 3, 0)

	calls := 0
	err := tb.RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestTokenBucket_RetryWithBackoff_StopsImmediatelyOnNonRetryableError(t *testing.T) {
	tb := NewTokenBucket(60, 10).WithRetryPolicy(time.Millisecond, 5, 0)

	calls := 0
	wantErr := errors.New("invalid api key")
	err := tb.RetryWithBackoff(context.Background(), func() error {
		calls++
		return wantErr
	})

	require.ErrorIs(t, err, wantErr)
	require.Equal(t, 1, calls)
}

func TestTokenBucket_RetryWithBackoff_GivesUpAfterMaxRetries(t *testing.T) {
	tb := NewTokenBucket(60, 10).WithRetryPolicy(time.Millisecond, 2, 0)

	calls := 0
	err := tb.RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("503 service unavailable")
	})

	require.Error(t, err)
	require.Equal(t, 3, calls) // initial attempt + 2 retries
}

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err       error
		retryable bool
	}{
		{nil, false},
		{errors.New("context deadline exceeded"), true},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("429 Too Many Requests"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("no such host"), true},
		{errors.New("401 unauthorized"), false},
		{errors.New("invalid request body"), false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.retryable, IsRetryableError(tc.err), "err=%v", tc.err)
	}
}

func TestJitterDuration_ZeroJitterReturnsOriginal(t *testing.T) {
	require.Equal(t, time.Second, jitterDuration(time.Second, 0))
}

func TestJitterDuration_NeverGoesNegative(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := jitterDuration(time.Millisecond, 5)
		require.GreaterOrEqual(t, d, time.Duration(0))
	}
}
