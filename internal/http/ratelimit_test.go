package http

import (
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, limit int) (*rateLimiter, *time.Time) {
	t.Helper()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(limit)
	rl.now = func() time.Time { return now }
	t.Cleanup(rl.stop)
	return rl, &now
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl, now := newTestLimiter(t, 3)
	metrics := &securityMetrics{}

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1", metrics) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1", metrics) {
		t.Fatal("fourth request in the window should be rejected")
	}
	if !rl.allow("10.0.0.2", metrics) {
		t.Fatal("other clients have their own window")
	}
	if got := metrics.rateLimitHits.Load(); got != 1 {
		t.Errorf("rateLimitHits = %d, want 1", got)
	}

	*now = now.Add(rateWindow)
	if !rl.allow("10.0.0.1", metrics) {
		t.Fatal("a new window should allow requests again")
	}
}

func TestRateLimiter_DefaultLimit(t *testing.T) {
	rl, _ := newTestLimiter(t, 0)
	if rl.limit != defaultRateLimit {
		t.Fatalf("limit = %d, want %d", rl.limit, defaultRateLimit)
	}
}

func TestRateLimiter_CleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(t, 5)
	rl.allow("10.0.0.1", nil)
	*now = now.Add(6 * time.Minute)
	rl.allow("10.0.0.2", nil)
	*now = now.Add(5 * time.Minute)

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := rl.clients["10.0.0.2"]; !ok {
		t.Fatal("recent client should survive cleanup")
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := newRateLimiter(1)
	rl.stop()
	rl.stop()
}
