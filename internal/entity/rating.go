package entity

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Rating is the user's qualitative self-assessment of recall quality for a
// single review item.
type Rating int

const (
	RatingBad Rating = iota + 1
	RatingAverage
	RatingGood
	RatingExcellent
)

var (
	ratingNames = [...]string{
		RatingBad:       "bad",
		RatingAverage:   "average",
		RatingGood:      "good",
		RatingExcellent: "excellent",
	}
	ratingByName = map[string]Rating{
		"bad":       RatingBad,
		"average":   RatingAverage,
		"good":      RatingGood,
		"excellent": RatingExcellent,
	}
)

var (
	_ fmt.Stringer             = Rating(0)
	_ json.Marshaler           = Rating(0)
	_ json.Unmarshaler         = (*Rating)(nil)
	_ encoding.TextMarshaler   = Rating(0)
	_ encoding.TextUnmarshaler = (*Rating)(nil)
)

// String returns the wire name of the rating ("bad" through "excellent").
// Invalid values render as "Rating(n)".
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// IsValid reports whether r is one of the four defined ratings.
func (r Rating) IsValid() bool {
	return r >= RatingBad && r <= RatingExcellent
}

// Feedback classifies the rating into the transient visual signal shown to
// the user: bad is negative, average is neutral, good and excellent are
// positive.
func (r Rating) Feedback() FeedbackSignal {
	switch r {
	case RatingBad:
		return FeedbackNegative
	case RatingAverage:
		return FeedbackNeutral
	case RatingGood, RatingExcellent:
		return FeedbackPositive
	default:
		return FeedbackNeutral
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return []byte(ratingNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rating) UnmarshalText(text []byte) error {
	v, ok := ratingByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRating, text)
	}
	*r = v
	return nil
}

// MarshalJSON implements json.Marshaler. Rating serializes as a JSON string.
func (r Rating) MarshalJSON() ([]byte, error) {
	text, err := r.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rating) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRating, data)
	}
	return r.UnmarshalText([]byte(s))
}

// ParseRating converts a wire name into a Rating.
func ParseRating(name string) (Rating, error) {
	var r Rating
	if err := r.UnmarshalText([]byte(name)); err != nil {
		return 0, err
	}
	return r, nil
}

// FeedbackSignal is the transient visual classification derived from a
// rating. It carries no state and is never persisted.
type FeedbackSignal int

const (
	FeedbackNegative FeedbackSignal = iota + 1
	FeedbackNeutral
	FeedbackPositive
)

var feedbackNames = [...]string{
	FeedbackNegative: "negative",
	FeedbackNeutral:  "neutral",
	FeedbackPositive: "positive",
}

var (
	_ fmt.Stringer           = FeedbackSignal(0)
	_ json.Marshaler         = FeedbackSignal(0)
	_ encoding.TextMarshaler = FeedbackSignal(0)
)

func (f FeedbackSignal) String() string {
	if f.IsValid() {
		return feedbackNames[f]
	}
	return fmt.Sprintf("FeedbackSignal(%d)", int(f))
}

// IsValid reports whether f is a defined feedback signal.
func (f FeedbackSignal) IsValid() bool {
	return f >= FeedbackNegative && f <= FeedbackPositive
}

// MarshalText implements encoding.TextMarshaler.
func (f FeedbackSignal) MarshalText() ([]byte, error) {
	if !f.IsValid() {
		return nil, fmt.Errorf("invalid feedback signal: %d", int(f))
	}
	return []byte(feedbackNames[f]), nil
}

// MarshalJSON implements json.Marshaler.
func (f FeedbackSignal) MarshalJSON() ([]byte, error) {
	text, err := f.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}
