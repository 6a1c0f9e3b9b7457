package session

import (
	"context"
	"sync"
	"time"

	"activities-web/internal/domain"
)

type memoryEntry struct {
	mu      sync.Mutex // guards data
	data    []byte
	touched time.Time
}

// MemoryStore keeps encoded view states in process memory. Each session has
// its own lock so updates of different visitors never wait on each other.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a memory store whose idle sessions expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// entry returns the session entry, creating it when missing or expired.
func (s *MemoryStore) entry(sessionID string) *memoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)

	e, ok := s.sessions[sessionID]
	if !ok {
		e = &memoryEntry{}
		s.sessions[sessionID] = e
	}
	e.touched = now
	return e
}

// evictLocked drops idle sessions. touched is guarded by s.mu; entries
// whose lock is held are skipped.
func (s *MemoryStore) evictLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, e := range s.sessions {
		if now.Sub(e.touched) > s.ttl && e.mu.TryLock() {
			delete(s.sessions, id)
			e.mu.Unlock()
		}
	}
}

// Load returns a copy of the session's view.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*domain.ViewState, error) {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.data == nil {
		return domain.NewViewState(), nil
	}
	return decode(e.data)
}

// Update applies fn to the session's view under the session lock.
func (s *MemoryStore) Update(_ context.Context, sessionID string, fn func(*domain.ViewState) error) (*domain.ViewState, error) {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	view := domain.NewViewState()
	if e.data != nil {
		decoded, err := decode(e.data)
		if err != nil {
			return nil, err
		}
		view = decoded
	}

	if err := fn(view); err != nil {
		return nil, err
	}

	data, err := encode(view)
	if err != nil {
		return nil, err
	}
	e.data = data
	return view, nil
}

// Health always succeeds for the memory store.
func (s *MemoryStore) Health(context.Context) error {
	return nil
}
