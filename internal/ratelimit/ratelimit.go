package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type RateLimiter interface {
	Wait(ctx context.Context) error
}

// PageLimiter spaces out page loads by a delay drawn from [minDelay, maxDelay).
// The first call never waits.
type PageLimiter struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	mu         sync.Mutex
}

func NewPageLimiter(minDelay, maxDelay time.Duration) *PageLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &PageLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

func (r *PageLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastAction.IsZero() {
		elapsed := time.Since(r.lastAction)
		delay := r.calculateDelay()

		if elapsed < delay {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay - elapsed):
			}
		}
	}

	r.lastAction = time.Now()
	return nil
}

func (r *PageLimiter) calculateDelay() time.Duration {
	if r.minDelay == r.maxDelay {
		return r.minDelay
	}

	delta := r.maxDelay - r.minDelay
	return r.minDelay + time.Duration(rand.Int63n(int64(delta)))
}

// Unlimited never waits.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
