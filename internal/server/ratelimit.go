package server

import (
	"sync"
	"time"
)

// rateLimiter enforces a per-key request ceiling inside a fixed one-minute
// window. Entries are created on first sight and reset when the window
// rolls over.
type rateLimiter struct {
	entries sync.Map // key -> *rateEntry
}

type rateEntry struct {
	mu          sync.Mutex
	windowStart time.Time
	count       int
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{}
}

// Allow reports whether the key may proceed under the given per-minute
// ceiling. limit <= 0 disables limiting.
func (l *rateLimiter) Allow(key string, limit int) bool {
	if limit <= 0 {
		return true
	}

	actual, _ := l.entries.LoadOrStore(key, &rateEntry{})
	entry := actual.(*rateEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	if now.Sub(entry.windowStart) >= time.Minute {
		entry.windowStart = now
		entry.count = 0
	}
	if entry.count >= limit {
		return false
	}
	entry.count++
	return true
}
