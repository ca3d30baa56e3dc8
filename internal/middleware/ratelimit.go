package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/watchtowerx/wtx-backend/internal/ratelimit"
)

// RateLimitMiddleware enforces a global per-IP limit. Defaults mirror the
// ingest profile: 200 requests per 10 minutes.
type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	config  ratelimit.LimitConfig
}

func NewRateLimitMiddleware(l *ratelimit.Limiter, c ratelimit.LimitConfig) *RateLimitMiddleware {
	if c.Rate == 0 {
		c.Rate = 200
	}
	if c.Window == 0 {
		c.Window = 10 * time.Minute
	}
	return &RateLimitMiddleware{limiter: l, config: c}
}

func (m *RateLimitMiddleware) GlobalLimiter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		key := fmt.Sprintf("rl:ip:%s", m.limiter.HashIP(ip))

		decision, err := m.limiter.Check(r.Context(), key, m.config)
		if err != nil {
			// Fail open on redis outage; the limiter is protection, not
			// a correctness dependency.
			log.Printf("RateLimit check failed: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfter))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}
