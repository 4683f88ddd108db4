package repository

import (
	"context"

	"github.com/studyhall-app/studyhall/internal/entity"
)

// ListDeckQuery holds parameters for listing a user's decks.
type ListDeckQuery struct {
	Pagination
	FilterOrder

	UserID int64
}

// DeckRepository abstracts persistence for decks and their cards to keep
// usecases storage agnostic.
type DeckRepository interface {
	Create(ctx context.Context, deck *entity.Deck) (*entity.Deck, error)
	Update(ctx context.Context, deck *entity.Deck) (*entity.Deck, error)
	GetByPublicID(ctx context.Context, userID int64, publicID string) (*entity.Deck, error)
	List(ctx context.Context, query *ListDeckQuery) ([]*entity.Deck, int64, error)
	Delete(ctx context.Context, userID, id int64) error

	// CreateCard appends the card to its deck; a non-positive Position means
	// "after the current last card".
	CreateCard(ctx context.Context, card *entity.Card) (*entity.Card, error)
	UpdateCard(ctx context.Context, card *entity.Card) (*entity.Card, error)
	GetCard(ctx context.Context, deckID, cardID int64) (*entity.Card, error)
	// ListCards returns the deck's cards in ascending position order.
	ListCards(ctx context.Context, deckID int64) ([]*entity.Card, error)
	DeleteCard(ctx context.Context, deckID, cardID int64) error
	// ReplaceCards atomically swaps the deck's cards for the given sequence.
	ReplaceCards(ctx context.Context, deckID int64, cards []*entity.Card) ([]*entity.Card, error)
	CountCards(ctx context.Context, deckID int64) (int64, error)
}
