// Package ratelimit provides token bucket rate limiting, keyed per
// conversation identity so one noisy chat cannot starve the rest.
package ratelimit

import (
	"sync"
	"time"
)

// Bucket is a token bucket limiter, safe for concurrent use.
// Tokens refill at a constant rate up to a burst capacity; each
// admitted request consumes one token.
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewBucket creates a bucket starting at full capacity.
func NewBucket(capacity, refillRate float64) *Bucket {
	return &Bucket{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// refill credits tokens for the elapsed time. Caller holds mu.
func (b *Bucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()

	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// Allow consumes one token when available. Non-blocking.
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true
	}
	return false
}

// Available returns the current token count.
func (b *Bucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens
}

// Idle reports whether the bucket has refilled to capacity, meaning the
// key has been quiet long enough for its bucket to be reclaimed.
func (b *Bucket) Idle() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens >= b.capacity
}
