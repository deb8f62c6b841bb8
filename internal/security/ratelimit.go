package security

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a fixed-window limiter keyed by caller, e.g. by Jira
// host. It allows rate requests per interval for each key.
type RateLimiter struct {
	mu         sync.Mutex
	rate       int
	interval   time.Duration
	buckets    map[string]*bucket
	maxBuckets int
	now        func() time.Time
}

type bucket struct {
	tokens    int
	lastReset time.Time
}

// NewRateLimiter creates a limiter allowing rate requests per interval.
func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		rate:       rate,
		interval:   interval,
		buckets:    make(map[string]*bucket),
		maxBuckets: 1000,
		now:        time.Now,
	}
}

// Allow consumes a token for key and reports whether one was available.
func (rl *RateLimiter) Allow(key string) bool {
	_, ok := rl.reserve(key)
	return ok
}

// Wait blocks until a token for key is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	for {
		delay, ok := rl.reserve(key)
		if ok {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve takes a token for key. When none is left it returns the time
// until the window resets.
func (rl *RateLimiter) reserve(key string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	b, exists := rl.buckets[key]
	if !exists {
		if len(rl.buckets) >= rl.maxBuckets {
			rl.cleanup(now)
		}
		rl.buckets[key] = &bucket{tokens: rl.rate - 1, lastReset: now}
		return 0, true
	}

	if elapsed := now.Sub(b.lastReset); elapsed >= rl.interval {
		b.tokens = rl.rate - 1
		b.lastReset = now
		return 0, true
	}

	if b.tokens > 0 {
		b.tokens--
		return 0, true
	}

	return rl.interval - now.Sub(b.lastReset), false
}

// cleanup drops buckets idle for two windows
func (rl *RateLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-2 * rl.interval)
	for key, b := range rl.buckets {
		if b.lastReset.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}
