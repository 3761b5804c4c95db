package ratelimit

import (
	"context"
	"sync"
	"time"
)

// WindowLimiter allows at most maxCalls events per fixed window. When the
// window is exhausted, Wait blocks until the window resets instead of
// failing. All callers share the same window state; each waits
// independently, so callers are serialized but never deadlocked.
type WindowLimiter struct {
	mu          sync.Mutex
	windowStart time.Time
	callCount   int
	maxCalls    int
	window      time.Duration

	now func() time.Time // swapped out in tests
}

// NewWindowLimiter creates a limiter allowing maxCalls per window
func NewWindowLimiter(maxCalls int, window time.Duration) *WindowLimiter {
	if maxCalls < 1 {
		maxCalls = 1
	}
	return &WindowLimiter{
		maxCalls: maxCalls,
		window:   window,
		now:      time.Now,
	}
}

// Wait blocks until the current window has capacity, honoring ctx
// cancellation and deadline while sleeping.
func (w *WindowLimiter) Wait(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := w.now()

		// Reset the window once it has fully elapsed; the wake instant
		// windowStart+window itself counts as elapsed
		if w.windowStart.IsZero() || now.Sub(w.windowStart) >= w.window {
			w.windowStart = now
			w.callCount = 0
		}

		if w.callCount < w.maxCalls {
			w.callCount++
			w.mu.Unlock()
			return nil
		}

		wakeAt := w.windowStart.Add(w.window)
		w.mu.Unlock()

		timer := time.NewTimer(wakeAt.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Remaining reports how many calls are left in the current window
func (w *WindowLimiter) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.windowStart.IsZero() || w.now().Sub(w.windowStart) >= w.window {
		return w.maxCalls
	}
	return w.maxCalls - w.callCount
}
