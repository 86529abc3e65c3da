package session

import (
	"context"
	"sync"
	"time"
)

// Store persists live session records. Writes are compare-and-swap on
// Record.Version: a stale writer gets ErrVersionConflict instead of
// silently dropping the other writer's update.
type Store interface {
	// Put inserts rec when rec.Version == 0, otherwise replaces the
	// stored record iff its version matches rec.Version; the stored
	// version is incremented on success and reflected in rec.
	Put(ctx context.Context, rec *Record) error

	// Get retrieves a copy of the record.
	Get(ctx context.Context, id string) (*Record, error)

	// Delete removes the record. Missing ids are not an error.
	Delete(ctx context.Context, id string) error
}

// MemoryStore is the in-memory Store used for live sessions.
// Incomplete sessions expire after a TTL measured from their last
// update.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Record
	ttl      time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs a store; ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Record),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
}

// StartSweeper launches the TTL sweeper. No-op when expiry is
// disabled.
func (s *MemoryStore) StartSweeper(interval time.Duration) {
	if s.ttl <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.sweep(time.Now())
			case <-s.done:
				return
			}
		}
	}()
}

// Stop terminates the sweeper.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.sessions {
		if !rec.Ended && now.Sub(rec.UpdatedAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, exists := s.sessions[rec.ID]
	switch {
	case !exists && rec.Version != 0:
		return ErrNotFound
	case exists && cur.Version != rec.Version:
		return ErrVersionConflict
	}
	now := time.Now()
	if !exists {
		rec.CreatedAt = now
	}
	rec.Version++
	rec.UpdatedAt = now
	s.sessions[rec.ID] = rec.Clone()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
