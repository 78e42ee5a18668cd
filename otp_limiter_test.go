package authkit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiterFixedWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	limiter := newOTPLimiter(rdb, 3)
	window := 15 * time.Minute

	for i := 0; i < 3; i++ {
		if err := limiter.Allow(ctx, "u@x.com", window); err != nil {
			t.Fatalf("request %d unexpectedly denied: %v", i+1, err)
		}
	}

	err := limiter.Allow(ctx, "u@x.com", window)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected 4th request to be throttled, got %v", err)
	}
	if ra := RetryAfter(err); ra <= 0 || ra > window {
		t.Fatalf("expected retry-after within (0, %v], got %v", window, ra)
	}

	mr.FastForward(window + time.Second)

	if err := limiter.Allow(ctx, "u@x.com", window); err != nil {
		t.Fatalf("expected request after window to pass, got %v", err)
	}
}

func TestLimiterKeepsCountingOverLimit(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	limiter := newOTPLimiter(rdb, 3)
	window := 15 * time.Minute

	for i := 0; i < 5; i++ {
		_ = limiter.Allow(ctx, "u@x.com", window)
	}

	// The increment is never skipped: abuse stays visible in the counter.
	if got, err := mr.Get(limitKey("u@x.com")); err != nil || got != "5" {
		t.Fatalf("expected counter 5, got %q err=%v", got, err)
	}
}

func TestLimiterRetryAfterTracksOriginalWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	limiter := newOTPLimiter(rdb, 3)
	window := 15 * time.Minute

	for i := 0; i < 3; i++ {
		if err := limiter.Allow(ctx, "u@x.com", window); err != nil {
			t.Fatalf("request %d unexpectedly denied: %v", i+1, err)
		}
	}

	first := RetryAfter(limiter.Allow(ctx, "u@x.com", window))

	mr.FastForward(5 * time.Minute)

	second := RetryAfter(limiter.Allow(ctx, "u@x.com", window))
	if second <= 0 {
		t.Fatal("expected request within window to stay throttled")
	}
	// Repeated over-limit requests must not stretch the wait.
	if second >= first {
		t.Fatalf("expected retry-after to shrink, first=%v second=%v", first, second)
	}
}

func TestLimiterWindowNotResetBySubsequentRequests(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	limiter := newOTPLimiter(rdb, 3)
	window := 15 * time.Minute

	if err := limiter.Allow(ctx, "u@x.com", window); err != nil {
		t.Fatalf("first request denied: %v", err)
	}

	mr.FastForward(10 * time.Minute)

	if err := limiter.Allow(ctx, "u@x.com", window); err != nil {
		t.Fatalf("second request denied: %v", err)
	}

	ttl := mr.TTL(limitKey("u@x.com"))
	if ttl > 5*time.Minute {
		t.Fatalf("expected remaining ttl at most 5m, got %v", ttl)
	}
}

func TestLimiterRepairsCounterWithoutExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	limiter := newOTPLimiter(rdb, 3)
	window := 15 * time.Minute

	// A counter that lost its EXPIRE would otherwise throttle forever.
	if err := mr.Set(limitKey("u@x.com"), "5"); err != nil {
		t.Fatalf("seed counter: %v", err)
	}

	err := limiter.Allow(ctx, "u@x.com", window)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected over-limit request to be throttled, got %v", err)
	}
	if ra := RetryAfter(err); ra != window {
		t.Fatalf("expected retry-after of a full window, got %v", ra)
	}
	if ttl := mr.TTL(limitKey("u@x.com")); ttl <= 0 || ttl > window {
		t.Fatalf("expected the window to be re-armed, ttl=%v", ttl)
	}

	mr.FastForward(window + time.Second)

	if err := limiter.Allow(ctx, "u@x.com", window); err != nil {
		t.Fatalf("expected request after re-armed window to pass, got %v", err)
	}
}

func TestLimiterFailsClosed(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	limiter := newOTPLimiter(rdb, 3)

	mr.Close()

	err := limiter.Allow(ctx, "u@x.com", 15*time.Minute)
	if err == nil {
		t.Fatal("expected limiter to deny when redis is down")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Fatal("outage must not masquerade as a rate-limit verdict")
	}
	if !errors.Is(err, errLimiterUnavailable) {
		t.Fatalf("expected limiter-unavailable error, got %v", err)
	}
}
