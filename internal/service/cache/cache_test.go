package cache

import (
	"context"
	"testing"
	"time"
)

var _ BytesCache = (*TTLCache)(nil)
var _ BytesCache = (*RedisCache)(nil)

func TestTTLCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache(0)
	if _, ok, err := c.GetBytes(ctx, "k"); ok || err != nil {
		t.Fatalf("empty cache hit: ok=%v err=%v", ok, err)
	}
	buf := []byte("value")
	if err := c.SetBytes(ctx, "k", buf, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	buf[0] = 'X'
	b, ok, err := c.GetBytes(ctx, "k")
	if !ok || err != nil || string(b) != "value" {
		t.Fatalf("get: %q ok=%v err=%v", b, ok, err)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	c := NewTTLCache(0)
	c.now = func() time.Time { return now }

	_ = c.SetBytes(ctx, "short", []byte("a"), time.Second)
	_ = c.SetBytes(ctx, "forever", []byte("b"), 0)
	now = now.Add(2 * time.Second)

	if _, ok, _ := c.GetBytes(ctx, "short"); ok {
		t.Fatalf("expired entry returned")
	}
	if _, ok, _ := c.GetBytes(ctx, "forever"); !ok {
		t.Fatalf("entry without ttl expired")
	}
}

func TestTTLCacheBoundAndSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	c := NewTTLCache(2)
	c.now = func() time.Time { return now }

	_ = c.SetBytes(ctx, "a", []byte("1"), time.Second)
	_ = c.SetBytes(ctx, "b", []byte("2"), time.Hour)
	_ = c.SetBytes(ctx, "c", []byte("3"), time.Hour)
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}

	now = now.Add(2 * time.Hour)
	if n := c.Sweep(); n != 2 {
		t.Fatalf("swept %d", n)
	}
}
