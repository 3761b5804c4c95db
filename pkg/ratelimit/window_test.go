package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowLimiter_AllowsUpToMax(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindowLimiter(3, time.Minute)
	w.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Wait(context.Background()))
	}
	assert.Equal(t, 0, w.Remaining())
}

func TestWindowLimiter_ResetsAfterWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindowLimiter(2, time.Minute)
	w.now = func() time.Time { return now }

	require.NoError(t, w.Wait(context.Background()))
	require.NoError(t, w.Wait(context.Background()))
	assert.Equal(t, 0, w.Remaining())

	// A full window later the count starts over
	now = now.Add(time.Minute + time.Second)
	assert.Equal(t, 2, w.Remaining())
	require.NoError(t, w.Wait(context.Background()))
	assert.Equal(t, 1, w.Remaining())
}

func TestWindowLimiter_ResetsExactlyAtWindowEnd(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindowLimiter(1, time.Minute)
	w.now = func() time.Time { return now }

	require.NoError(t, w.Wait(context.Background()))
	assert.Equal(t, 0, w.Remaining())

	// The wake instant windowStart+window must itself open a new window,
	// so a waiter never re-arms a zero-duration timer
	now = now.Add(time.Minute)
	assert.Equal(t, 1, w.Remaining())
	require.NoError(t, w.Wait(context.Background()))
}

func TestWindowLimiter_BlocksUntilReset(t *testing.T) {
	w := NewWindowLimiter(1, 50*time.Millisecond)

	require.NoError(t, w.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, w.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestWindowLimiter_HonorsContextWhileBlocked(t *testing.T) {
	w := NewWindowLimiter(1, time.Hour)
	require.NoError(t, w.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := w.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWindowLimiter_MinimumOneCall(t *testing.T) {
	w := NewWindowLimiter(0, time.Minute)
	assert.Equal(t, 1, w.Remaining())
}
