package repository

import (
	"context"

	"github.com/studyhall-app/studyhall/internal/entity"
)

// StudyRecordRepository abstracts persistence for completed-session records.
type StudyRecordRepository interface {
	Create(ctx context.Context, record *entity.StudyRecord) (*entity.StudyRecord, error)
	ListByDeck(ctx context.Context, userID, deckID int64, p Pagination) ([]*entity.StudyRecord, int64, error)
	// StatsByDeck aggregates completed sessions for a deck. TotalCards is
	// left zero; the caller combines it with the deck repository's count.
	StatsByDeck(ctx context.Context, deckID int64) (*entity.DeckStats, error)
}
