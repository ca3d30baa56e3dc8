package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/watchtowerx/wtx-backend/internal/middleware"
	"github.com/watchtowerx/wtx-backend/internal/ratelimit"
	"github.com/watchtowerx/wtx-backend/internal/tokens"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestJWTAuthPassthroughWithoutValidator(t *testing.T) {
	h := middleware.NewJWTAuth(nil).Middleware(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want passthrough", rec.Code)
	}
}

func TestJWTAuth(t *testing.T) {
	mgr := tokens.NewManager("secret")
	h := middleware.NewJWTAuth(mgr).Middleware(okHandler)

	// No header.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no header: status = %d, want 401", rec.Code)
	}

	// Bad token.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}

	// Valid token.
	signed, err := mgr.GenerateToken("ops", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", rec.Code)
	}
}

func newLimitMiddleware(t *testing.T, rate int) (*middleware.RateLimitMiddleware, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	limiter := ratelimit.NewLimiter(client, "salt")
	return middleware.NewRateLimitMiddleware(limiter, ratelimit.LimitConfig{Rate: rate, Window: time.Minute}), mr
}

func TestRateLimitMiddleware(t *testing.T) {
	m, _ := newLimitMiddleware(t, 2)
	h := m.GlobalLimiter(okHandler)

	for i := 1; i <= 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "2" {
			t.Errorf("request %d: missing limit header", i)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 past the rate", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response must carry Retry-After")
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	m, mr := newLimitMiddleware(t, 1)
	mr.Close()
	h := m.GlobalLimiter(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when redis is down", rec.Code)
	}
}

func TestRateLimitSeparatesClients(t *testing.T) {
	m, _ := newLimitMiddleware(t, 1)
	h := m.GlobalLimiter(okHandler)

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("first client: status = %d", rec.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.Header.Set("X-Forwarded-For", "10.0.0.2")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	if rec.Code != http.StatusOK {
		t.Errorf("second client: status = %d, want its own window", rec.Code)
	}
}
