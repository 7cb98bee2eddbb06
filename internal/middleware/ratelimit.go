package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/metrics"
)

// RealIP extracts the client's real IP address, preferring Cloudflare's
// CF-Connecting-IP header, then X-Forwarded-For, and falling back to RemoteAddr.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First IP in the chain is the original client
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

// NewRateLimiter allows perSecond requests per key with bursts of burst.
// Keys unseen for idle are dropped by Cleanup.
func NewRateLimiter(perSecond float64, burst int, idle time.Duration) *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
	}
}

// Allow reports whether key may make another request now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	e, ok := rl.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Cleanup removes keys that have been idle.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, e := range rl.entries {
		if now.Sub(e.lastSeen) > rl.idle {
			delete(rl.entries, key)
		}
	}
}

// IdentityKey keys requests by authenticated user, falling back to the
// client IP.
func IdentityKey(r *http.Request) string {
	if id := auth.UserID(r.Context()); id != "" {
		return "user:" + id
	}
	return "ip:" + RealIP(r)
}

// RateLimit returns middleware that rate-limits requests by a key function.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(keyFunc(r)) {
				metrics.RecordRateLimited()
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
