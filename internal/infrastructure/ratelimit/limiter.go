package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates outbound requests for one provider. It combines a
// requests-per-minute window with an enforced minimum inter-request delay
// plus random jitter, so the request cadence is both bounded and
// irregular. Wait blocks until capacity frees; it never drops a call.
type Limiter struct {
	limiter  *rate.Limiter
	minDelay time.Duration
	jitter   time.Duration

	mu   sync.Mutex
	last time.Time
}

// Config holds per-provider limiter settings.
type Config struct {
	RequestsPerMinute int
	MinDelay          time.Duration
	Jitter            time.Duration
}

// New creates a limiter for one provider.
func New(cfg Config) *Limiter {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	minDelay := cfg.MinDelay
	if minDelay <= 0 {
		minDelay = 200 * time.Millisecond
	}

	jitter := cfg.Jitter
	if jitter < 0 {
		jitter = 0
	}

	// Burst of 1 keeps the window behavior close to a true sliding
	// window: tokens refill continuously at perMinute/60 per second.
	return &Limiter{
		limiter:  rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		minDelay: minDelay,
		jitter:   jitter,
	}
}

// Wait blocks until the caller may issue the next request, or until the
// context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	delay := l.minDelay
	if l.jitter > 0 {
		delay += time.Duration(rand.Int64N(int64(l.jitter)))
	}
	next := l.last.Add(delay)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	// Reserve the slot before sleeping so concurrent callers space out
	// instead of piling onto the same wake-up time.
	l.last = next
	l.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
