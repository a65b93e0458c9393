package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle paces generation calls and coordinates rate-limit backoff across
// workers. Pacing uses a token bucket; on top of that, Hold opens a shared
// quiet window so that one worker tripping a rate limit throttles everyone,
// not just itself.
type Throttle struct {
	limiter *rate.Limiter

	mu    sync.Mutex
	until time.Time
}

// NewThrottle creates a throttle allowing requestsPerSecond with the given burst
func NewThrottle(requestsPerSecond float64, burst int) *Throttle {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Wait blocks until both the shared quiet window has passed and the token
// bucket grants a slot
func (t *Throttle) Wait(ctx context.Context) error {
	for {
		t.mu.Lock()
		d := time.Until(t.until)
		t.mu.Unlock()

		if d <= 0 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			// Re-check: another worker may have extended the window
		}
	}
	return t.limiter.Wait(ctx)
}

// Hold opens (or extends) the shared quiet window by d from now. Shorter
// holds never shrink an existing window.
func (t *Throttle) Hold(d time.Duration) {
	deadline := time.Now().Add(d)
	t.mu.Lock()
	if deadline.After(t.until) {
		t.until = deadline
	}
	t.mu.Unlock()
}

// Holding returns the remaining quiet-window duration (zero when open)
func (t *Throttle) Holding() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if d := time.Until(t.until); d > 0 {
		return d
	}
	return 0
}
