package entity

import "strings"

// ReviewItem is one immutable prompt in a review deck. Items are loaded when
// a session starts and never mutated afterwards.
type ReviewItem struct {
	Prompt         string
	ExpectedAnswer string
	Explanation    string
}

// ItemState is the transient interaction state of the current item. It is
// owned exclusively by the session and reset when advancing to a new item.
type ItemState struct {
	Revealed   bool
	Submitted  bool
	UserAnswer string
	LastRating *Rating
}

func (st ItemState) clone() ItemState {
	out := st
	if st.LastRating != nil {
		r := *st.LastRating
		out.LastRating = &r
	}
	return out
}

// SessionProgress is derived positional state. CurrentIndex ranges from 0 to
// TotalItems inclusive; IsComplete holds exactly when CurrentIndex equals
// TotalItems.
type SessionProgress struct {
	CurrentIndex int
	TotalItems   int
	IsComplete   bool
}

// SessionView is the read model of a session: the current item (zero-valued
// once the session is complete), position, and interaction state.
type SessionView struct {
	Item     ReviewItem
	Index    int
	Total    int
	State    ItemState
	Complete bool
}

// ReviewSession sequences a fixed, ordered deck of review items through
// per-item interaction states to completion. Progression is strictly linear:
// items are reviewed in the exact order supplied, ratings never reorder the
// deck, and every advance moves forward by exactly one position.
//
// The session itself is not safe for concurrent use; hosts that share one
// across goroutines must serialize access per instance.
type ReviewSession struct {
	items    []ReviewItem
	mode     SessionMode
	index    int
	complete bool
	state    ItemState
}

// NewReviewSession starts a session over the given items in the given mode.
// The item slice is copied; it must contain at least one item.
func NewReviewSession(items []ReviewItem, mode SessionMode) (*ReviewSession, error) {
	if len(items) == 0 {
		return nil, ErrEmptySession
	}
	if !mode.IsValid() {
		return nil, ErrInvalidMode
	}
	deck := make([]ReviewItem, len(items))
	copy(deck, items)
	return &ReviewSession{items: deck, mode: mode}, nil
}

// Mode returns the session's current mode.
func (s *ReviewSession) Mode() SessionMode {
	return s.mode
}

// Reveal exposes the expected answer for the current item. It is legal only
// in flashcard mode while the session is not complete. Revealing an already
// revealed item is a no-op.
func (s *ReviewSession) Reveal() error {
	if s.complete || s.mode != ModeFlashcard {
		return ErrInvalidOperation
	}
	s.state.Revealed = true
	return nil
}

// SubmitAnswer records the user's answer for the current item and makes the
// expected answer visible. It is legal only in quiz mode, once per item, and
// rejects blank or whitespace-only text without touching session state.
func (s *ReviewSession) SubmitAnswer(text string) error {
	if s.complete || s.mode != ModeQuiz || s.state.Submitted {
		return ErrInvalidOperation
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyAnswer
	}
	s.state.UserAnswer = text
	s.state.Submitted = true
	return nil
}

// Rate records the user's self-assessment for the current item and advances
// the session by one position, completing it after the last item. Rating is
// legal only while the current item's answer is visible: revealed in
// flashcard mode, submitted in quiz mode.
func (s *ReviewSession) Rate(rating Rating) error {
	if !rating.IsValid() {
		return ErrInvalidRating
	}
	if s.complete || !s.answerVisible() {
		return ErrInvalidOperation
	}
	r := rating
	s.state.LastRating = &r
	s.index++
	if s.index < len(s.items) {
		s.state = ItemState{}
	} else {
		s.complete = true
	}
	return nil
}

// SetMode switches the interaction mode for the current item. The item's
// reveal/submission state is cleared so it can be re-approached under the
// other mode; the position is unchanged. Setting the mode the session is
// already in is a no-op.
func (s *ReviewSession) SetMode(mode SessionMode) error {
	if !mode.IsValid() {
		return ErrInvalidMode
	}
	if mode == s.mode {
		return nil
	}
	s.mode = mode
	s.state.Revealed = false
	s.state.Submitted = false
	s.state.UserAnswer = ""
	return nil
}

// Restart returns the session to its initial conditions: position 0, not
// complete, all interaction state cleared. The deck and mode are preserved.
func (s *ReviewSession) Restart() {
	s.index = 0
	s.complete = false
	s.state = ItemState{}
}

// View returns the session's current read state. It has no side effects.
func (s *ReviewSession) View() SessionView {
	view := SessionView{
		Index:    s.index,
		Total:    len(s.items),
		State:    s.state.clone(),
		Complete: s.complete,
	}
	if !s.complete {
		view.Item = s.items[s.index]
	}
	return view
}

// Progress returns the derived positional state.
func (s *ReviewSession) Progress() SessionProgress {
	return SessionProgress{
		CurrentIndex: s.index,
		TotalItems:   len(s.items),
		IsComplete:   s.complete,
	}
}

func (s *ReviewSession) answerVisible() bool {
	switch s.mode {
	case ModeFlashcard:
		return s.state.Revealed
	case ModeQuiz:
		return s.state.Submitted
	default:
		return false
	}
}
