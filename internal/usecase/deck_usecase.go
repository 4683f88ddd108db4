package usecase

import (
	"context"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
)

const (
	_defaultGenerateCards = 10
	_maxGenerateCards     = 50
)

// CardGenerator produces flashcards from study material. Implemented by the
// LLM adapter.
type CardGenerator interface {
	Generate(ctx context.Context, strategy entity.GenerationStrategy, title, text string, count int) ([]entity.Card, error)
}

// DeckUsecase defines business logic for decks and their cards.
type DeckUsecase interface {
	Create(ctx context.Context, userID int64, deck *entity.Deck) (*entity.Deck, error)
	Update(ctx context.Context, userID int64, publicID string, deck *entity.Deck) (*entity.Deck, error)
	Get(ctx context.Context, userID int64, publicID string) (*entity.Deck, error)
	List(ctx context.Context, query *repository.ListDeckQuery) ([]*entity.Deck, int64, error)
	Delete(ctx context.Context, userID int64, publicID string) error

	AddCard(ctx context.Context, userID int64, deckPublicID string, card *entity.Card) (*entity.Card, error)
	UpdateCard(ctx context.Context, userID int64, deckPublicID string, cardID int64, card *entity.Card) (*entity.Card, error)
	ListCards(ctx context.Context, userID int64, deckPublicID string) ([]*entity.Card, error)
	DeleteCard(ctx context.Context, userID int64, deckPublicID string, cardID int64) error
	ReplaceCards(ctx context.Context, userID int64, deckPublicID string, cards []*entity.Card) ([]*entity.Card, error)

	Stats(ctx context.Context, userID int64, deckPublicID string) (*entity.DeckStats, error)
	GenerateCards(ctx context.Context, userID int64, deckPublicID string, strategy entity.GenerationStrategy, count int) ([]*entity.Card, error)
}

// NewDeckUsecase wires deck persistence with the study-record aggregates and
// the card generator.
func NewDeckUsecase(
	repo repository.DeckRepository,
	docs repository.DocumentRepository,
	records repository.StudyRecordRepository,
	generator CardGenerator,
) DeckUsecase {
	return &deckUsecase{
		repo:      repo,
		docs:      docs,
		records:   records,
		generator: generator,
		clock:     time.Now,
		newID:     func() (string, error) { return gonanoid.New() },
	}
}

type deckUsecase struct {
	repo      repository.DeckRepository
	docs      repository.DocumentRepository
	records   repository.StudyRecordRepository
	generator CardGenerator
	clock     func() time.Time
	newID     func() (string, error)
}

func (u *deckUsecase) Create(ctx context.Context, userID int64, deck *entity.Deck) (*entity.Deck, error) {
	if deck == nil {
		return nil, entity.ErrInvalidDeckTitle
	}
	copy := *deck
	copy.ID = 0
	copy.UserID = userID

	publicID, err := u.newID()
	if err != nil {
		return nil, err
	}
	copy.PublicID = publicID

	copy.Normalize(u.clock())
	if err := copy.Validate(); err != nil {
		return nil, err
	}
	return u.repo.Create(ctx, &copy)
}

func (u *deckUsecase) Update(ctx context.Context, userID int64, publicID string, deck *entity.Deck) (*entity.Deck, error) {
	if deck == nil {
		return nil, entity.ErrInvalidDeckTitle
	}
	existing, err := u.repo.GetByPublicID(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}

	existing.Title = deck.Title
	existing.Description = deck.Description
	existing.Normalize(u.clock())
	if err := existing.Validate(); err != nil {
		return nil, err
	}
	return u.repo.Update(ctx, existing)
}

func (u *deckUsecase) Get(ctx context.Context, userID int64, publicID string) (*entity.Deck, error) {
	return u.repo.GetByPublicID(ctx, userID, publicID)
}

func (u *deckUsecase) List(ctx context.Context, query *repository.ListDeckQuery) ([]*entity.Deck, int64, error) {
	return u.repo.List(ctx, query)
}

func (u *deckUsecase) Delete(ctx context.Context, userID int64, publicID string) error {
	deck, err := u.repo.GetByPublicID(ctx, userID, publicID)
	if err != nil {
		return err
	}
	return u.repo.Delete(ctx, userID, deck.ID)
}

func (u *deckUsecase) AddCard(ctx context.Context, userID int64, deckPublicID string, card *entity.Card) (*entity.Card, error) {
	if card == nil {
		return nil, entity.ErrInvalidCardPrompt
	}
	deck, err := u.repo.GetByPublicID(ctx, userID, deckPublicID)
	if err != nil {
		return nil, err
	}

	copy := *card
	copy.ID = 0
	copy.DeckID = deck.ID
	copy.Normalize(u.clock())
	if err := copy.Validate(); err != nil {
		return nil, err
	}
	return u.repo.CreateCard(ctx, &copy)
}

func (u *deckUsecase) UpdateCard(ctx context.Context, userID int64, deckPublicID string, cardID int64, card *entity.Card) (*entity.Card, error) {
	if card == nil {
		return nil, entity.ErrInvalidCardPrompt
	}
	deck, err := u.repo.GetByPublicID(ctx, userID, deckPublicID)
	if err != nil {
		return nil, err
	}
	existing, err := u.repo.GetCard(ctx, deck.ID, cardID)
	if err != nil {
		return nil, err
	}

	existing.Prompt = card.Prompt
	existing.Answer = card.Answer
	existing.Explanation = card.Explanation
	if card.Position > 0 {
		existing.Position = card.Position
	}
	existing.Normalize(u.clock())
	if err := existing.Validate(); err != nil {
		return nil, err
	}
	return u.repo.UpdateCard(ctx, existing)
}

func (u *deckUsecase) ListCards(ctx context.Context, userID int64, deckPublicID string) ([]*entity.Card, error) {
	deck, err := u.repo.GetByPublicID(ctx, userID, deckPublicID)
	if err != nil {
		return nil, err
	}
	return u.repo.ListCards(ctx, deck.ID)
}

func (u *deckUsecase) DeleteCard(ctx context.Context, userID int64, deckPublicID string, cardID int64) error {
	deck, err := u.repo.GetByPublicID(ctx, userID, deckPublicID)
	if err != nil {
		return err
	}
	return u.repo.DeleteCard(ctx, deck.ID, cardID)
}

// ReplaceCards swaps the deck's whole card list in one shot, the way the
// deck editor saves. Every card is validated before anything is written.
func (u *deckUsecase) ReplaceCards(ctx context.Context, userID int64, deckPublicID string, cards []*entity.Card) ([]*entity.Card, error) {
	deck, err := u.repo.GetByPublicID(ctx, userID, deckPublicID)
	if err != nil {
		return nil, err
	}

	now := u.clock()
	replacements := make([]*entity.Card, 0, len(cards))
	for _, card := range cards {
		if card == nil {
			return nil, entity.ErrInvalidCardPrompt
		}
		copy := *card
		copy.ID = 0
		copy.DeckID = deck.ID
		copy.Normalize(now)
		if err := copy.Validate(); err != nil {
			return nil, err
		}
		replacements = append(replacements, &copy)
	}
	return u.repo.ReplaceCards(ctx, deck.ID, replacements)
}

func (u *deckUsecase) Stats(ctx context.Context, userID int64, deckPublicID string) (*entity.DeckStats, error) {
	deck, err := u.repo.GetByPublicID(ctx, userID, deckPublicID)
	if err != nil {
		return nil, err
	}
	stats, err := u.records.StatsByDeck(ctx, deck.ID)
	if err != nil {
		return nil, err
	}
	total, err := u.repo.CountCards(ctx, deck.ID)
	if err != nil {
		return nil, err
	}
	stats.TotalCards = total
	return stats, nil
}

// GenerateCards builds cards from the summary of the deck's source document
// and appends them to the deck.
func (u *deckUsecase) GenerateCards(ctx context.Context, userID int64, deckPublicID string, strategy entity.GenerationStrategy, count int) ([]*entity.Card, error) {
	deck, err := u.repo.GetByPublicID(ctx, userID, deckPublicID)
	if err != nil {
		return nil, err
	}
	if deck.DocumentID == nil {
		return nil, entity.ErrNoSourceDocument
	}
	doc, err := u.docs.GetByID(ctx, userID, *deck.DocumentID)
	if err != nil {
		return nil, err
	}
	summary, err := u.docs.GetSummary(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	if count <= 0 {
		count = _defaultGenerateCards
	} else if count > _maxGenerateCards {
		count = _maxGenerateCards
	}
	drafts, err := u.generator.Generate(ctx, strategy, doc.Title, summary.Text, count)
	if err != nil {
		return nil, err
	}

	now := u.clock()
	created := make([]*entity.Card, 0, len(drafts))
	for i := range drafts {
		card := drafts[i]
		card.DeckID = deck.ID
		card.Position = 0
		card.Normalize(now)
		saved, err := u.repo.CreateCard(ctx, &card)
		if err != nil {
			return created, err
		}
		created = append(created, saved)
	}
	return created, nil
}
