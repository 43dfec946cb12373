package ratelimit

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// Backoff bounds for failed requests: the delay before attempt n is
// baseBackoff doubled n times, never exceeding maxBackoff.
const (
	baseBackoff = 1 * time.Second
	maxBackoff  = 60 * time.Second
)

// Limiter paces outbound provider queries. Wait suspends the caller for a
// randomized delay before each request; OnFailure suspends it for an
// exponentially growing delay before a retry. A malformed delay range is
// clamped to zero rather than rejected, so the limiter never fails.
type Limiter struct {
	minDelay time.Duration // Lower bound of the inter-request delay
	maxDelay time.Duration // Upper bound of the inter-request delay
	log      *slog.Logger  // Logger for logging applied delays

	// sleep is swappable so tests can observe delays without waiting them out.
	sleep func(ctx context.Context, d time.Duration)
}

// NewLimiter creates a limiter drawing inter-request delays uniformly from
// [minDelay, maxDelay]. Negative or reversed bounds are clamped.
func NewLimiter(minDelay, maxDelay time.Duration, log *slog.Logger) *Limiter {
	if minDelay < 0 {
		minDelay = 0
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}

	return &Limiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		log:      log,
		sleep:    contextSleep,
	}
}

// Wait blocks for a duration drawn uniformly from the configured delay range.
// Cancelling the context ends the pause early.
func (l *Limiter) Wait(ctx context.Context) {
	delay := l.minDelay
	if spread := l.maxDelay - l.minDelay; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread) + 1))
	}

	l.log.DebugContext(ctx, "Rate limiting before request", "delay", delay)
	l.sleep(ctx, delay)
}

// OnFailure blocks for the exponential backoff delay of the given retry
// attempt (zero-based): baseBackoff doubled per attempt, capped at maxBackoff.
func (l *Limiter) OnFailure(ctx context.Context, attempt int) {
	if attempt < 0 {
		attempt = 0
	}

	delay := baseBackoff << uint(attempt)
	if delay > maxBackoff || delay <= 0 {
		delay = maxBackoff
	}

	l.log.DebugContext(ctx, "Backing off after failed request", "attempt", attempt, "delay", delay)
	l.sleep(ctx, delay)
}

// Pause blocks for an externally requested delay, e.g. a server Retry-After.
// Negative delays are clamped to zero, excessive ones to the backoff cap.
func (l *Limiter) Pause(ctx context.Context, d time.Duration) {
	if d < 0 {
		d = 0
	}
	if d > maxBackoff {
		d = maxBackoff
	}

	l.log.DebugContext(ctx, "Pausing on server request", "delay", d)
	l.sleep(ctx, d)
}

func contextSleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
