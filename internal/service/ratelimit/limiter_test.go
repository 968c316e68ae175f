package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowConsumesAndRefills(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("a", 3, 1) {
			t.Fatalf("request %d should pass", i)
		}
	}
	if l.Allow("a", 3, 1) {
		t.Fatalf("bucket should be empty")
	}
	if !l.Allow("b", 3, 1) {
		t.Fatalf("keys must not share buckets")
	}

	now = now.Add(time.Second)
	if !l.Allow("a", 3, 1) {
		t.Fatalf("one token should have refilled")
	}
	if l.Allow("a", 3, 1) {
		t.Fatalf("only one token should have refilled")
	}
}

func TestWaitHonoursContext(t *testing.T) {
	l := New()
	if err := l.Wait(context.Background(), "k", 1, 0.01); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "k", 1, 0.01); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestWaitReturnsAfterRefill(t *testing.T) {
	l := New()
	_ = l.Wait(context.Background(), "k", 1, 50)
	start := time.Now()
	if err := l.Wait(context.Background(), "k", 1, 50); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("wait took too long")
	}
}

func TestFractionalRateStillGrants(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New()
	l.now = func() time.Time { return now }
	if !l.Allow("s", 0.5, 0.5) {
		t.Fatalf("first request should pass")
	}
	if l.Allow("s", 0.5, 0.5) {
		t.Fatalf("bucket should be empty")
	}
	now = now.Add(2 * time.Second)
	if !l.Allow("s", 0.5, 0.5) {
		t.Fatalf("a token should refill after 2s at 0.5/s")
	}
}

func TestWaitFractionalCapacity(t *testing.T) {
	l := New()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := l.Wait(ctx, "scanner", 0.5, 0.5); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestPrune(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New()
	l.now = func() time.Time { return now }
	l.Allow("old", 1, 1)
	now = now.Add(time.Hour)
	l.Allow("new", 1, 1)
	if n := l.Prune(time.Minute); n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
}
