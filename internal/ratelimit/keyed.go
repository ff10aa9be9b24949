package ratelimit

import (
	"sync"
	"time"
)

// KeyedConfig configures a KeyedLimiter.
type KeyedConfig struct {
	Burst         float64       // bucket capacity per key
	RefillPerSec  float64       // tokens credited per second
	CleanupPeriod time.Duration // how often idle buckets are reclaimed
}

// KeyedLimiter maintains one token bucket per conversation identity and
// reclaims buckets that have refilled to capacity.
type KeyedLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*Bucket
	config  KeyedConfig
	onDrop  func()
	stopCh  chan struct{}
}

// NewKeyedLimiter creates the limiter and starts its cleanup loop.
// Call Stop when done.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	kl := &KeyedLimiter{
		buckets: make(map[string]*Bucket),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}

	if cfg.CleanupPeriod > 0 {
		go kl.cleanupLoop()
	}

	return kl
}

// OnDrop registers a callback invoked whenever a request is rejected.
func (kl *KeyedLimiter) OnDrop(fn func()) {
	kl.onDrop = fn
}

// Allow reports whether a request for key may proceed, consuming one
// token when it does. An empty key is always allowed.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	kl.mu.RLock()
	bucket, ok := kl.buckets[key]
	kl.mu.RUnlock()

	if !ok {
		kl.mu.Lock()
		bucket, ok = kl.buckets[key]
		if !ok {
			bucket = NewBucket(kl.config.Burst, kl.config.RefillPerSec)
			kl.buckets[key] = bucket
		}
		kl.mu.Unlock()
	}

	allowed := bucket.Allow()
	if !allowed && kl.onDrop != nil {
		kl.onDrop()
	}
	return allowed
}

// ActiveCount returns the number of live buckets.
func (kl *KeyedLimiter) ActiveCount() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.buckets)
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.mu.Lock()
			for key, bucket := range kl.buckets {
				if bucket.Idle() {
					delete(kl.buckets, key)
				}
			}
			kl.mu.Unlock()
		}
	}
}

// Stop terminates the cleanup loop. Safe to call more than once.
func (kl *KeyedLimiter) Stop() {
	select {
	case <-kl.stopCh:
	default:
		close(kl.stopCh)
	}
}
