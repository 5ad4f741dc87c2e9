package ratelimit

import (
	"sync"
	"time"
)

// WindowLimiter admits at most limit requests per key within a sliding window.
// Each key owns the ordered timestamps of its admitted requests.
type WindowLimiter struct {
	mu        sync.Mutex
	hits      map[string][]time.Time
	limit     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewWindowLimiter creates a limiter allowing limit requests per window
func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &WindowLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow records a request for key and reports whether it is admitted.
// When it is not, retryAfter is the time until the oldest hit leaves the window.
func (l *WindowLimiter) Allow(key string) (allowed bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	cutoff := now.Add(-l.window)
	hits := dropBefore(l.hits[key], cutoff)

	if len(hits) >= l.limit {
		l.hits[key] = hits
		return false, hits[0].Sub(cutoff)
	}

	l.hits[key] = append(hits, now)
	return true, 0
}

// Len returns the number of keys currently tracked
func (l *WindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

// sweep evicts keys with no hits inside the window, at most once per window
func (l *WindowLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now

	cutoff := now.Add(-l.window)
	for key, hits := range l.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(l.hits, key)
		}
	}
}

// dropBefore removes the leading timestamps not after cutoff
func dropBefore(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	return append(hits[:0], hits[i:]...)
}
