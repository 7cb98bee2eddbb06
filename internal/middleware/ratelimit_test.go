package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/auth"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(1, 5, time.Minute)

	for i := 0; i < 5; i++ {
		if !rl.Allow("key") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	if rl.Allow("key") {
		t.Error("6th request should be denied")
	}
	if !rl.Allow("other") {
		t.Error("other key should have its own bucket")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	now := time.Now()
	rl.now = func() time.Time { return now }

	if !rl.Allow("key") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("key") {
		t.Error("should be blocked until a token refills")
	}

	now = now.Add(time.Second)
	if !rl.Allow("key") {
		t.Error("should be allowed after a second")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 5, time.Minute)
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.Allow("expired")
	now = now.Add(2 * time.Minute)
	rl.Allow("active")

	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.entries["expired"]; ok {
		t.Error("expired entry should have been cleaned up")
	}
	if _, ok := rl.entries["active"]; !ok {
		t.Error("active entry should still exist")
	}
}

func TestIdentityKey(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	if got := IdentityKey(req); got != "ip:203.0.113.7" {
		t.Errorf("anonymous key = %q", got)
	}

	req = req.WithContext(auth.WithAuth(context.Background(), auth.AuthContext{UserID: "u1"}))
	if got := IdentityKey(req); got != "user:u1" {
		t.Errorf("identity key = %q", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, time.Minute)
	keyFunc := func(r *http.Request) string { return "test" }

	handler := RateLimit(rl, keyFunc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// First 2 requests should pass
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	// 3rd request should be rate limited
	req := httptest.NewRequest("POST", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("3rd request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}
