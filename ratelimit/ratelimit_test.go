package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(limit int, window time.Duration) (*WindowLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewWindowLimiter(limit, window)
	l.now = clock.Now
	return l, clock
}

func TestWindowLimiter_AllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow("10.0.0.1"); !ok {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}
	ok, retryAfter := l.Allow("10.0.0.1")
	if ok {
		t.Fatal("Expected fourth request to be rejected")
	}
	if retryAfter != time.Minute {
		t.Errorf("Expected retry after 1m, got %s", retryAfter)
	}

	if ok, _ := l.Allow("10.0.0.2"); !ok {
		t.Error("Expected other keys to have their own budget")
	}
}

func TestWindowLimiter_SlidesWithTime(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	l.Allow("k")
	clock.Advance(30 * time.Second)
	l.Allow("k")

	if ok, retryAfter := l.Allow("k"); ok || retryAfter != 30*time.Second {
		t.Fatalf("Expected rejection with 30s retry, got ok=%v retry=%s", ok, retryAfter)
	}

	clock.Advance(31 * time.Second)
	if ok, _ := l.Allow("k"); !ok {
		t.Error("Expected the oldest hit to have left the window")
	}
	if ok, _ := l.Allow("k"); ok {
		t.Error("Expected the window to be full again")
	}
}

func TestWindowLimiter_RejectedRequestsDoNotCount(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)

	l.Allow("k")
	for i := 0; i < 5; i++ {
		l.Allow("k")
	}
	clock.Advance(time.Minute + time.Second)
	if ok, _ := l.Allow("k"); !ok {
		t.Error("Expected rejected requests not to extend the window")
	}
}

func TestWindowLimiter_EvictsIdleKeysLazily(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)

	l.Allow("a")
	l.Allow("b")
	if l.Len() != 2 {
		t.Fatalf("Expected 2 tracked keys, got %d", l.Len())
	}

	clock.Advance(2 * time.Minute)
	l.Allow("c")

	if l.Len() != 1 {
		t.Errorf("Expected idle keys to be evicted on access, got %d keys", l.Len())
	}
}

func TestClientKey(t *testing.T) {
	testCases := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"real ip header ignored", map[string]string{"X-Real-Ip": "1.2.3.4"}, "9.9.9.9:1234", "9.9.9.9"},
		{"forwarded for ignored", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"}, "9.9.9.9:1234", "9.9.9.9"},
		{"remote addr host", nil, "9.9.9.9:1234", "9.9.9.9"},
		{"remote addr without port", nil, "9.9.9.9", "9.9.9.9"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			if got := ClientKey(r); got != tc.expected {
				t.Errorf("Expected '%s', got '%s'", tc.expected, got)
			}
		})
	}
}

func TestMiddleware_SpoofedHeadersShareOneBudget(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)
	handler := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := []int{}
	for i := 0; i < 4; i++ {
		r := httptest.NewRequest(http.MethodPost, "/api/translate", nil)
		r.RemoteAddr = "203.0.113.7:5555"
		r.Header.Set("X-Real-Ip", fmt.Sprintf("10.0.0.%d", i))
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		codes = append(codes, rec.Code)
	}

	expected := []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests, http.StatusTooManyRequests}
	for i := range expected {
		if codes[i] != expected[i] {
			t.Errorf("Request %d: expected %d, got %d", i, expected[i], codes[i])
		}
	}
	if l.Len() != 1 {
		t.Errorf("Expected a single tracked client, got %d", l.Len())
	}
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	handler := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/translate", nil))
	if first.Code != http.StatusNoContent {
		t.Fatalf("Expected first request to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/translate", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", second.Code)
	}
	if got := strings.TrimSpace(second.Body.String()); got != `{"error":"Too many requests"}` {
		t.Errorf("Unexpected body '%s'", got)
	}
	if got := second.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Expected Retry-After 60, got '%s'", got)
	}
}

func TestProviderThrottle(t *testing.T) {
	disabled := NewProviderThrottle(0, 0)
	for i := 0; i < 100; i++ {
		if !disabled.Allow() {
			t.Fatal("Expected a disabled throttle to allow every call")
		}
	}

	var nilThrottle *ProviderThrottle
	if err := nilThrottle.Wait(context.Background()); err != nil {
		t.Errorf("Expected nil throttle to never block, got %v", err)
	}

	throttle := NewProviderThrottle(0.001, 1)
	if !throttle.Allow() {
		t.Fatal("Expected the burst token to be available")
	}
	if throttle.Allow() {
		t.Error("Expected the bucket to be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := throttle.Wait(ctx); err == nil {
		t.Error("Expected Wait to fail when the next token is beyond the deadline")
	}
}
