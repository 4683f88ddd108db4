package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/studyhall-app/studyhall/internal/entity"
)

const watchBuffer = 16

// StatusHub tracks the processing status of documents moving through the
// pipeline and fans updates out to subscribers. Entries are ephemeral: they
// expire a fixed TTL after their last update, long after the terminal status
// has been delivered, so late pollers still see the outcome for a while.
type StatusHub struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   func() time.Time
	nextSub int64
	entries map[string]*statusEntry
}

type statusEntry struct {
	update entity.ProcessingUpdate
	subs   map[int64]chan entity.ProcessingUpdate
}

// NewStatusHub creates a hub whose entries expire ttl after their last
// update.
func NewStatusHub(ttl time.Duration) *StatusHub {
	return &StatusHub{
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]*statusEntry),
	}
}

// Publish records the update and delivers it to every watcher of the
// document. Watchers that fall behind miss intermediate updates rather than
// blocking the pipeline. After a terminal update all watcher channels are
// closed; the entry itself stays queryable until it expires.
func (h *StatusHub) Publish(update entity.ProcessingUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	update.UpdatedAt = h.clock()
	e, ok := h.entries[update.DocumentID]
	if !ok {
		e = &statusEntry{subs: make(map[int64]chan entity.ProcessingUpdate)}
		h.entries[update.DocumentID] = e
	}
	e.update = update

	for id, ch := range e.subs {
		select {
		case ch <- update:
		default:
		}
		if update.Status.Terminal() {
			close(ch)
			delete(e.subs, id)
		}
	}
}

// Status returns the latest update for the document, or
// entity.ErrStatusNotFound when the document is unknown or its entry has
// expired.
func (h *StatusHub) Status(documentID string) (entity.ProcessingUpdate, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.entries[documentID]
	if !ok || h.expired(e, h.clock()) {
		return entity.ProcessingUpdate{}, entity.ErrStatusNotFound
	}
	return e.update, nil
}

// Watch subscribes to the document's updates. The current status is
// delivered immediately, then every subsequent update; the channel is closed
// after a terminal update or when ctx is done. Watching an unknown document
// returns entity.ErrStatusNotFound.
func (h *StatusHub) Watch(ctx context.Context, documentID string) (<-chan entity.ProcessingUpdate, error) {
	h.mu.Lock()
	e, ok := h.entries[documentID]
	if !ok || h.expired(e, h.clock()) {
		h.mu.Unlock()
		return nil, entity.ErrStatusNotFound
	}

	ch := make(chan entity.ProcessingUpdate, watchBuffer)
	current := e.update
	ch <- current
	if current.Status.Terminal() {
		close(ch)
		h.mu.Unlock()
		return ch, nil
	}

	h.nextSub++
	id := h.nextSub
	e.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.unsubscribe(documentID, id)
	}()

	return ch, nil
}

// Drop removes the entry for a document, closing any watcher channels. Used
// when the document itself is deleted.
func (h *StatusHub) Drop(documentID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(documentID)
}

// Sweep removes entries whose last update is older than the TTL and reports
// how many were purged.
func (h *StatusHub) Sweep() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock()
	purged := 0
	for id, e := range h.entries {
		if h.expired(e, now) {
			h.remove(id)
			purged++
		}
	}
	return purged
}

func (h *StatusHub) expired(e *statusEntry, now time.Time) bool {
	return h.ttl > 0 && now.Sub(e.update.UpdatedAt) > h.ttl
}

// remove must be called with the lock held.
func (h *StatusHub) remove(documentID string) {
	e, ok := h.entries[documentID]
	if !ok {
		return
	}
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	delete(h.entries, documentID)
}

func (h *StatusHub) unsubscribe(documentID string, id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[documentID]
	if !ok {
		return
	}
	if ch, ok := e.subs[id]; ok {
		close(ch)
		delete(e.subs, id)
	}
}
