package entity

import (
	"strings"
	"time"
)

// Deck is a user's ordered collection of review cards, optionally generated
// from an uploaded document.
type Deck struct {
	ID          int64
	PublicID    string
	UserID      int64
	Title       string
	Description string
	DocumentID  *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Normalize ensures defaults & constraints before persistence.
func (d *Deck) Normalize(now time.Time) {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
}

// Validate checks the deck's intrinsic constraints.
func (d *Deck) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrInvalidDeckTitle
	}
	return nil
}

// Card is one prompt/answer pair within a deck. Position fixes the review
// order; sessions always walk cards in ascending position.
type Card struct {
	ID          int64
	DeckID      int64
	Position    int32
	Prompt      string
	Answer      string
	Explanation string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Normalize ensures defaults & constraints before persistence.
func (c *Card) Normalize(now time.Time) {
	c.Prompt = strings.TrimSpace(c.Prompt)
	c.Answer = strings.TrimSpace(c.Answer)
	c.Explanation = strings.TrimSpace(c.Explanation)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

// Validate checks the card's intrinsic constraints.
func (c *Card) Validate() error {
	if strings.TrimSpace(c.Prompt) == "" {
		return ErrInvalidCardPrompt
	}
	if strings.TrimSpace(c.Answer) == "" {
		return ErrInvalidCardAnswer
	}
	return nil
}

// ReviewItem converts the card into the immutable item handed to a review
// session.
func (c *Card) ReviewItem() ReviewItem {
	return ReviewItem{
		Prompt:         c.Prompt,
		ExpectedAnswer: c.Answer,
		Explanation:    c.Explanation,
	}
}

// GenerationStrategy selects the shape of LLM-generated cards.
type GenerationStrategy string

const (
	StrategyTermDefinition GenerationStrategy = "term_definition"
	StrategyQuestionAnswer GenerationStrategy = "question_answer"
)

// ParseGenerationStrategy converts an arbitrary string into a supported
// strategy.
func ParseGenerationStrategy(s string) (GenerationStrategy, error) {
	switch GenerationStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyTermDefinition:
		return StrategyTermDefinition, nil
	case StrategyQuestionAnswer:
		return StrategyQuestionAnswer, nil
	default:
		return "", ErrInvalidStrategy
	}
}

// DeckStats aggregates a deck's size and study history.
type DeckStats struct {
	TotalCards        int64
	SessionsCompleted int64
	LastStudiedAt     *time.Time
	Ratings           RatingTally
}
