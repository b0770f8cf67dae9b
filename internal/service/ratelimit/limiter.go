package ratelimit

import (
	"sync"
	"time"
)

// staleAfter is how long an idle bucket survives before the sweep
// removes it, bounding memory across many client keys.
const staleAfter = 10 * time.Minute

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a keyed token bucket. Each key refills continuously at its
// own rate; Allow consumes one token per call.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

func New() *Limiter {
	return &Limiter{buckets: make(map[string]*bucket)}
}

// Allow reports whether one token is available for key, given the
// bucket capacity and refill rate in tokens per second. A new key
// starts with a full bucket.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		l.sweep(now)
		b = &bucket{tokens: capacity, last: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * refillPerSec
		if b.tokens > capacity {
			b.tokens = capacity
		}
		b.last = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle past staleAfter. Called with the lock held,
// only on the new-key path so the hot path stays a map lookup.
func (l *Limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.last) > staleAfter {
			delete(l.buckets, key)
		}
	}
}
