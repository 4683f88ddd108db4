package entity

import "time"

// RatingTally counts how often each rating was given during a session.
// Rating implements encoding.TextMarshaler, so the tally serializes as a
// JSON object keyed by rating name.
type RatingTally map[Rating]int

// Add increments the count for the given rating.
func (t RatingTally) Add(r Rating) {
	t[r]++
}

// Total returns the number of ratings recorded.
func (t RatingTally) Total() int {
	sum := 0
	for _, n := range t {
		sum += n
	}
	return sum
}

// Merge adds every count from other into t.
func (t RatingTally) Merge(other RatingTally) {
	for r, n := range other {
		t[r] += n
	}
}

// Clone returns an independent copy of the tally.
func (t RatingTally) Clone() RatingTally {
	out := make(RatingTally, len(t))
	for r, n := range t {
		out[r] = n
	}
	return out
}

// StudyRecord is the persisted outcome of one completed review session.
// Live session state stays in memory; only this aggregate survives, which is
// what the deck statistics are computed from.
type StudyRecord struct {
	ID          int64
	UserID      int64
	DeckID      int64
	Mode        SessionMode
	Ratings     RatingTally
	StartedAt   time.Time
	CompletedAt time.Time
}
