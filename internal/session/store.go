package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// entry wraps a machine with expiry and insertion order tracking.
type entry struct {
	machine   *Machine
	expiry    time.Time
	insertIdx int64
}

// Store keeps one Machine per visitor, keyed by session ID. Sessions live in
// memory only: they expire after ttl without access and the oldest is evicted
// when maxEntries is reached.
// Thread-safe with sync.RWMutex.
type Store struct {
	mu         sync.RWMutex
	items      map[string]entry
	ttl        time.Duration
	maxEntries int
	nextIdx    int64
	newMachine func() *Machine
}

// NewStore creates a store. newMachine builds the machine for a new visitor.
func NewStore(ttl time.Duration, maxEntries int, newMachine func() *Machine) *Store {
	return &Store{
		items:      make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		newMachine: newMachine,
	}
}

// Get returns the machine for id if present and not expired, extending its expiry.
func (s *Store) Get(id string) (*Machine, bool) {
	if id == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.items[id]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-read under the write lock; another goroutine may have replaced it.
	e, ok = s.items[id]
	if !ok {
		return nil, false
	}
	if now.After(e.expiry) {
		delete(s.items, id)
		return nil, false
	}
	e.expiry = now.Add(s.ttl)
	s.items[id] = e
	return e.machine, true
}

// GetOrCreate returns the machine for id, creating a fresh one under a new ID
// when id is unknown or expired. The returned ID is the one to hand back to the client.
func (s *Store) GetOrCreate(id string) (*Machine, string, bool) {
	if m, ok := s.Get(id); ok {
		return m, id, false
	}

	newID := uuid.New().String()
	m := s.newMachine()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxEntries > 0 && len(s.items) >= s.maxEntries {
		s.sweepLocked(time.Now())
		if len(s.items) >= s.maxEntries {
			s.evictOldest()
		}
	}

	s.items[newID] = entry{
		machine:   m,
		expiry:    time.Now().Add(s.ttl),
		insertIdx: s.nextIdx,
	}
	s.nextIdx++

	return m, newID, true
}

// Len returns the number of stored sessions, including expired ones not yet swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(time.Now())
}

func (s *Store) sweepLocked(now time.Time) int {
	removed := 0
	for id, e := range s.items {
		if now.After(e.expiry) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// evictOldest removes the entry with the lowest insertIdx. Must be called with mu held.
func (s *Store) evictOldest() {
	var oldestID string
	var oldestIdx int64 = -1

	for id, e := range s.items {
		if oldestIdx == -1 || e.insertIdx < oldestIdx {
			oldestIdx = e.insertIdx
			oldestID = id
		}
	}

	if oldestID != "" {
		delete(s.items, oldestID)
	}
}
