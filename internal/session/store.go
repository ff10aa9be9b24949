package session

import (
	"sync"
	"time"
)

// Store is the session storage contract. The orchestrator owns a Store and
// receives it at construction, so the in-memory implementation can be swapped
// for an external cache in a multi-instance deployment without touching
// orchestration logic.
type Store interface {
	// Get returns the session for a conversation identity, if present.
	Get(key string) (*Session, bool)

	// GetOrCreate returns the session for a conversation identity, creating
	// a fresh S0 session on first contact.
	GetOrCreate(key string) *Session

	// Delete removes a session.
	Delete(key string)

	// Len returns the number of live sessions.
	Len() int

	// Lock serializes processing for one conversation identity and returns
	// the unlock function. Concurrent messages from the same identity would
	// otherwise interleave their session mutations.
	Lock(key string) func()

	// Sweep deletes sessions idle longer than maxIdle and returns how many
	// were removed. A non-positive maxIdle is a no-op.
	Sweep(maxIdle time.Duration) int
}

// MemoryStore is the in-process Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Get returns the session for key, if present.
func (m *MemoryStore) Get(key string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[key]
	return s, ok
}

// GetOrCreate returns the session for key, creating one at S0 if absent.
func (m *MemoryStore) GetOrCreate(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		return s
	}
	s := NewSession()
	s.LastSeen = time.Now()
	m.sessions[key] = s
	return s
}

// Delete removes the session for key.
func (m *MemoryStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Lock acquires the per-identity mutex for key and returns its unlock func.
// Lock entries are created on demand and retained; they are two words each,
// so the map stays small relative to the sessions themselves.
func (m *MemoryStore) Lock(key string) func() {
	m.lockMu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.lockMu.Unlock()

	l.Lock()
	return l.Unlock
}

// Sweep deletes sessions whose LastSeen is older than maxIdle.
func (m *MemoryStore) Sweep(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for key, s := range m.sessions {
		if s.LastSeen.Before(cutoff) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed
}
