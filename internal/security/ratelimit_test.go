package security

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(rate int, interval time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(rate, interval)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Second)

	if !rl.Allow("jira.example.com") || !rl.Allow("jira.example.com") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("jira.example.com") {
		t.Error("third request in the window should be denied")
	}
	if !rl.Allow("other.example.com") {
		t.Error("keys should have separate buckets")
	}

	clock.t = clock.t.Add(time.Second)
	if !rl.Allow("jira.example.com") {
		t.Error("request after the window should be allowed")
	}
}

func TestRateLimiterReserveDelay(t *testing.T) {
	rl, clock := newTestLimiter(1, time.Second)

	rl.Allow("k")
	clock.t = clock.t.Add(300 * time.Millisecond)

	delay, ok := rl.reserve("k")
	if ok {
		t.Fatal("reserve() should fail with no tokens left")
	}
	if delay != 700*time.Millisecond {
		t.Errorf("delay = %v, want 700ms", delay)
	}
}

func TestRateLimiterWaitCancelled(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Hour)
	rl.Allow("k")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Wait(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestRateLimiterWait(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx, "k"); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("three waits took %v, want at least two windows", elapsed)
	}
}
