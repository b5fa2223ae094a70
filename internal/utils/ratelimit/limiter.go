// Package ratelimit throttles clients with per-key token buckets.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket for one client in one category. Tokens refill
// continuously at rate per second up to capacity.
type Limiter struct {
	tokens     float64
	lastTime   time.Time
	lastAccess time.Time
	rate       float64
	capacity   float64
	mu         sync.Mutex
}

// Rate controls how many requests per second are allowed
type Rate struct {
	RequestsPerSecond float64
	Burst             int
}

// NewLimiter returns a full bucket of burst tokens refilling at rate.
func NewLimiter(rate float64, burst int) *Limiter {
	now := time.Now()
	return &Limiter{
		tokens:     float64(burst),
		lastTime:   now,
		lastAccess: now,
		rate:       rate,
		capacity:   float64(burst),
	}
}

// Allow consumes one token if any is available.
func (l *Limiter) Allow() bool {
	return l.allowAt(time.Now())
}

func (l *Limiter) allowAt(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := now.Sub(l.lastTime).Seconds()
	if elapsed > 0 {
		l.tokens += elapsed * l.rate
		l.lastTime = now
	}
	if l.tokens > l.capacity {
		l.tokens = l.capacity
	}
	l.lastAccess = now

	if l.tokens < 1 {
		return false
	}

	l.tokens--
	return true
}

// idleSince reports whether the limiter has not been used since cutoff.
func (l *Limiter) idleSince(cutoff time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastAccess.Before(cutoff)
}

// ResetTokens refills the bucket.
func (l *Limiter) ResetTokens() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens = l.capacity
	l.lastTime = time.Now()
}
