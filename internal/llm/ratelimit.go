package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter enforces a minimum interval between calls. Concurrent callers are
// serialized: each reserves the next slot under the lock and then waits
// outside it.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewLimiter creates a limiter with the given minimum interval between calls.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Wait blocks until the caller's slot arrives or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	next := l.last.Add(l.interval)
	if next.Before(now) {
		next = now
	}
	l.last = next
	l.mu.Unlock()

	delay := time.Until(next)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithRateLimit wraps a provider so every Generate call respects a minimum
// interval. A non-positive interval returns the provider unchanged.
func WithRateLimit(p Provider, interval time.Duration) Provider {
	if interval <= 0 {
		return p
	}
	return &rateLimited{Provider: p, limiter: NewLimiter(interval)}
}

type rateLimited struct {
	Provider
	limiter *Limiter
}

func (r *rateLimited) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: rate limit wait: %w", err)
	}
	return r.Provider.Generate(ctx, prompt, s)
}
