package repository

import (
	"context"
	"time"

	"github.com/studyhall-app/studyhall/internal/entity"
)

// LiveSession is one in-memory review session plus the host-side bookkeeping
// kept alongside it: ownership, the running rating tally, and activity
// timestamps used for idle expiry.
type LiveSession struct {
	ID           string
	UserID       int64
	DeckID       int64
	DeckPublicID string
	Session      *entity.ReviewSession
	Ratings      entity.RatingTally
	StartedAt    time.Time
	LastSeen     time.Time
}

// SessionStore holds live review sessions. The review session entity itself
// is not safe for concurrent use, so every access to a stored session goes
// through Update, which runs the callback while holding that session's lock.
type SessionStore interface {
	Put(ctx context.Context, sess *LiveSession) error
	// Update locates the session and runs fn on it under the per-session
	// lock. Returns entity.ErrSessionNotFound for unknown IDs; fn errors are
	// passed through.
	Update(ctx context.Context, id string, fn func(*LiveSession) error) error
	Delete(ctx context.Context, id string) error
	// Sweep removes sessions idle for longer than the given duration and
	// reports how many were dropped.
	Sweep(ctx context.Context, idleFor time.Duration) int
}
