package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// PushCache suppresses sending an identical deferred message to the same
// destination twice within its TTL window. Keys are destination + content
// hash, so distinct texts to the same chat are never suppressed.
type PushCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration

	now func() time.Time
}

// NewPushCache creates a push suppression cache with the given TTL.
func NewPushCache(ttl time.Duration) *PushCache {
	return &PushCache{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Suppress reports whether an identical push to dest was already recorded
// within the TTL window. When it returns false, the push is recorded and the
// caller should deliver it.
func (c *PushCache) Suppress(dest, text string) bool {
	key := PushKey(dest, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, at := range c.entries {
		if now.Sub(at) > c.ttl {
			delete(c.entries, k)
		}
	}

	if at, ok := c.entries[key]; ok && now.Sub(at) <= c.ttl {
		return true
	}

	c.entries[key] = now
	return false
}

// Len returns the number of live records.
func (c *PushCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// PushKey derives the suppression key for a destination and message text.
// Also used to collapse concurrent identical pushes.
func PushKey(dest, text string) string {
	sum := sha256.Sum256([]byte(text))
	return dest + ":" + hex.EncodeToString(sum[:])
}
