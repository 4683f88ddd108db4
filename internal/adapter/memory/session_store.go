// Package memory holds in-process adapters for state that is deliberately
// not persisted, such as live review sessions.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
)

// slot pairs one live session with its own lock so a slow callback on one
// session never blocks operations on another. live is nil once the session
// has been deleted; in-flight updates that already hold the slot see that
// instead of resurrecting it.
type slot struct {
	mu   sync.Mutex
	live *repository.LiveSession
}

// SessionStore is the in-memory implementation of repository.SessionStore.
type SessionStore struct {
	mu    sync.RWMutex
	slots map[string]*slot
	clock func() time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		slots: make(map[string]*slot),
		clock: time.Now,
	}
}

// Put registers the session under its ID, replacing any previous session
// with the same ID.
func (s *SessionStore) Put(ctx context.Context, sess *repository.LiveSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[sess.ID] = &slot{live: sess}
	return nil
}

// Update runs fn on the stored session while holding its lock.
func (s *SessionStore) Update(ctx context.Context, id string, fn func(*repository.LiveSession) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	sl, ok := s.slots[id]
	s.mu.RUnlock()
	if !ok {
		return entity.ErrSessionNotFound
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.live == nil {
		return entity.ErrSessionNotFound
	}
	return fn(sl.live)
}

// Delete removes the session. Unknown IDs report entity.ErrSessionNotFound.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	sl, ok := s.slots[id]
	if ok {
		delete(s.slots, id)
	}
	s.mu.Unlock()
	if !ok {
		return entity.ErrSessionNotFound
	}

	sl.mu.Lock()
	sl.live = nil
	sl.mu.Unlock()
	return nil
}

// Sweep drops sessions whose LastSeen is older than idleFor and reports how
// many were removed.
func (s *SessionStore) Sweep(ctx context.Context, idleFor time.Duration) int {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sl := range s.slots {
		sl.mu.Lock()
		idle := sl.live == nil || now.Sub(sl.live.LastSeen) > idleFor
		if idle {
			sl.live = nil
			delete(s.slots, id)
			removed++
		}
		sl.mu.Unlock()
	}
	return removed
}

// Len reports how many sessions are currently stored.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

var _ repository.SessionStore = (*SessionStore)(nil)
