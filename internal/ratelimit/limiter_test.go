package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/watchtowerx/wtx-backend/internal/ratelimit"
)

func newTestLimiter(t *testing.T) (*ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return ratelimit.NewLimiter(client, "test-salt"), mr
}

func TestLimiterCheck(t *testing.T) {
	l, _ := newTestLimiter(t)
	cfg := ratelimit.LimitConfig{Rate: 3, Window: time.Minute}
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := l.Check(ctx, "client-a", cfg)
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("request %d denied within rate", i)
		}
		if d.Remaining != 3-i {
			t.Errorf("request %d: remaining = %d, want %d", i, d.Remaining, 3-i)
		}
	}

	d, err := l.Check(ctx, "client-a", cfg)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if d.Allowed {
		t.Error("request past the rate should be denied")
	}
	if d.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", d.Remaining)
	}

	// A different key has its own window.
	d, err = l.Check(ctx, "client-b", cfg)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !d.Allowed {
		t.Error("separate client should not share the window")
	}
}

func TestLimiterWindowExpiry(t *testing.T) {
	l, mr := newTestLimiter(t)
	cfg := ratelimit.LimitConfig{Rate: 1, Window: time.Second}
	ctx := context.Background()

	if d, _ := l.Check(ctx, "client-a", cfg); !d.Allowed {
		t.Fatal("first request denied")
	}
	if d, _ := l.Check(ctx, "client-a", cfg); d.Allowed {
		t.Fatal("second request within window allowed")
	}

	mr.FastForward(2 * time.Second)

	d, err := l.Check(ctx, "client-a", cfg)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !d.Allowed {
		t.Error("request after window expiry should be allowed")
	}
}

func TestLimiterRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t)
	mr.Close()

	_, err := l.Check(context.Background(), "client-a", ratelimit.LimitConfig{Rate: 1, Window: time.Minute})
	if !errors.Is(err, ratelimit.ErrRedisUnavailable) {
		t.Errorf("err = %v, want ErrRedisUnavailable", err)
	}
}

func TestHashIPStable(t *testing.T) {
	l, _ := newTestLimiter(t)
	a, b := l.HashIP("10.0.0.1"), l.HashIP("10.0.0.1")
	if a != b {
		t.Error("same IP must hash identically")
	}
	if a == l.HashIP("10.0.0.2") {
		t.Error("different IPs must not collide trivially")
	}
	if a == "10.0.0.1" {
		t.Error("hash must not expose the raw IP")
	}
}
