package entity

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// SessionMode selects how the current item is approached: quiz mode expects
// a typed answer before the expected answer is shown, flashcard mode reveals
// it on demand. Mode is orthogonal to position in the deck.
type SessionMode int

const (
	ModeQuiz SessionMode = iota + 1
	ModeFlashcard
)

var (
	modeNames = [...]string{
		ModeQuiz:      "quiz",
		ModeFlashcard: "flashcard",
	}
	modeByName = map[string]SessionMode{
		"quiz":      ModeQuiz,
		"flashcard": ModeFlashcard,
	}
)

var (
	_ fmt.Stringer             = SessionMode(0)
	_ json.Marshaler           = SessionMode(0)
	_ json.Unmarshaler         = (*SessionMode)(nil)
	_ encoding.TextMarshaler   = SessionMode(0)
	_ encoding.TextUnmarshaler = (*SessionMode)(nil)
)

func (m SessionMode) String() string {
	if m.IsValid() {
		return modeNames[m]
	}
	return fmt.Sprintf("SessionMode(%d)", int(m))
}

// IsValid reports whether m is quiz or flashcard.
func (m SessionMode) IsValid() bool {
	return m == ModeQuiz || m == ModeFlashcard
}

// MarshalText implements encoding.TextMarshaler.
func (m SessionMode) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}
	return []byte(modeNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SessionMode) UnmarshalText(text []byte) error {
	v, ok := modeByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidMode, text)
	}
	*m = v
	return nil
}

// MarshalJSON implements json.Marshaler. SessionMode serializes as a JSON string.
func (m SessionMode) MarshalJSON() ([]byte, error) {
	text, err := m.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *SessionMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMode, data)
	}
	return m.UnmarshalText([]byte(s))
}

// ParseSessionMode converts a wire name into a SessionMode.
func ParseSessionMode(name string) (SessionMode, error) {
	var m SessionMode
	if err := m.UnmarshalText([]byte(name)); err != nil {
		return 0, err
	}
	return m, nil
}
