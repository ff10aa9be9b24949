// Package dedup suppresses duplicate webhook deliveries and duplicate
// deferred pushes. It is a best-effort, in-memory, single-process guard:
// it does not survive restarts and does not coordinate across instances.
// Duplicate replies are a UX nuisance, not a correctness violation, so
// at-most-once-with-bounded-staleness semantics are acceptable here.
package dedup

import (
	"sync"
	"time"
)

// Drop reasons reported by Admit.
const (
	ReasonAlreadyHandled    = "already_handled"
	ReasonDuplicateInFlight = "duplicate_in_flight"
)

// Decision is the outcome of admitting an event key.
type Decision struct {
	Proceed bool
	Reason  string // set when Proceed is false
}

type entryState int

const (
	stateInflight entryState = iota
	stateDone
)

type entry struct {
	state entryState
	at    time.Time // time of the last state transition
}

// Table records event keys that are being handled or were recently handled.
// An event key transitions inflight -> done exactly once; retries of the same
// key are dropped while in flight (within the grace window) or after done
// (within the TTL). After TTL expiry the key is evicted and reprocessing is
// allowed again.
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	grace   time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once

	now func() time.Time // injectable clock for tests
}

// NewTable creates a deduplication table.
//
// ttl is the eviction age for records (covers the done state), grace is the
// age after which an in-flight attempt is treated as abandoned and the key is
// handed to the retry.
func NewTable(ttl, grace time.Duration) *Table {
	return &Table{
		entries: make(map[string]*entry),
		ttl:     ttl,
		grace:   grace,
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
}

// Admit decides whether the event identified by key should be processed.
// If admitted, the key is marked in flight and the caller must eventually
// call Complete(key).
func (t *Table) Admit(key string) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.purgeLocked(now)

	e, ok := t.entries[key]
	if !ok {
		t.entries[key] = &entry{state: stateInflight, at: now}
		return Decision{Proceed: true}
	}

	switch e.state {
	case stateDone:
		return Decision{Reason: ReasonAlreadyHandled}
	case stateInflight:
		if now.Sub(e.at) < t.grace {
			return Decision{Reason: ReasonDuplicateInFlight}
		}
		// Original attempt is presumed abandoned; hand the key to this retry.
		e.at = now
		return Decision{Proceed: true}
	}

	return Decision{Reason: ReasonAlreadyHandled}
}

// Complete marks the event as handled. Safe to call for keys that were
// already evicted.
func (t *Table) Complete(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[key] = &entry{state: stateDone, at: t.now()}
}

// Len returns the number of live records, after purging expired ones.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.purgeLocked(t.now())
	return len(t.entries)
}

// purgeLocked removes entries older than the TTL. Must be called with mu held.
func (t *Table) purgeLocked(now time.Time) {
	for key, e := range t.entries {
		if now.Sub(e.at) > t.ttl {
			delete(t.entries, key)
		}
	}
}

// StartSweeper launches a background loop that purges expired records every
// interval, bounding memory even when Admit is never called. Stop() ends it.
func (t *Table) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.mu.Lock()
				t.purgeLocked(t.now())
				t.mu.Unlock()
			case <-t.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the background sweeper. Safe to call multiple times.
func (t *Table) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
}
