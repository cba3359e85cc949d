package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newLimiter(t *testing.T, limit int) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	l, err := NewRedis(mr.Addr(), "", "test:ratelimit", limit, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, mr
}

func TestAllowWithinWindow(t *testing.T) {
	l, _ := newLimiter(t, 2)
	ctx := context.Background()
	if !l.Allow(ctx, "10.0.0.1") || !l.Allow(ctx, "10.0.0.1") {
		t.Fatalf("first two requests should pass")
	}
	if l.Allow(ctx, "10.0.0.1") {
		t.Fatalf("third request should be blocked")
	}
	if !l.Allow(ctx, "10.0.0.2") {
		t.Fatalf("other keys have their own quota")
	}
}

func TestNextWindowResets(t *testing.T) {
	l, _ := newLimiter(t, 1)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	if !l.Allow(ctx, "ip") {
		t.Fatalf("first request should pass")
	}
	if l.Allow(ctx, "ip") {
		t.Fatalf("second request in window should be blocked")
	}
	l.now = func() time.Time { return base.Add(time.Minute) }
	if !l.Allow(ctx, "ip") {
		t.Fatalf("request in next window should pass")
	}
}

func TestCounterExpires(t *testing.T) {
	l, mr := newLimiter(t, 1)
	l.Allow(context.Background(), "ip")
	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected one counter key, got %v", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %s", ttl)
	}
}

func TestFailClosed(t *testing.T) {
	l, mr := newLimiter(t, 5)
	mr.Close()
	if l.Allow(context.Background(), "ip") {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestConstructorValidation(t *testing.T) {
	if l, err := NewRedis("", "", "", 1, time.Second); err == nil || l != nil {
		t.Fatalf("expected error for empty redis addr")
	}
	if _, err := NewRedis("localhost:6379", "", "", 0, time.Second); err == nil {
		t.Fatalf("expected error for zero limit")
	}
	if _, err := New(nil, "", 1, time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
