package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
	"github.com/studyhall-app/studyhall/pkg/filterexpr"
)

// DeckRepository persists decks and their cards through GORM.
type DeckRepository struct {
	db *gorm.DB
}

// NewDeckRepository constructs a GORM-backed repository.
func NewDeckRepository(db *gorm.DB) repository.DeckRepository {
	return &DeckRepository{db: db}
}

type listDecksParams struct {
	Keyword       string
	Titles        []string
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

func (r *DeckRepository) Create(ctx context.Context, deck *entity.Deck) (*entity.Deck, error) {
	row := newDeckModel(deck)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create deck: %w", err)
	}
	return mapDeckModel(&row), nil
}

func (r *DeckRepository) Update(ctx context.Context, deck *entity.Deck) (*entity.Deck, error) {
	res := r.db.WithContext(ctx).Model(&deckModel{}).
		Where("id = ? AND user_id = ?", deck.ID, deck.UserID).
		Updates(map[string]any{
			"title":       deck.Title,
			"description": deck.Description,
			"updated_at":  deck.UpdatedAt,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update deck: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, entity.ErrDeckNotFound
	}

	var row deckModel
	if err := r.db.WithContext(ctx).First(&row, deck.ID).Error; err != nil {
		return nil, fmt.Errorf("reload deck: %w", err)
	}
	return mapDeckModel(&row), nil
}

func (r *DeckRepository) GetByPublicID(ctx context.Context, userID int64, publicID string) (*entity.Deck, error) {
	var row deckModel
	err := r.db.WithContext(ctx).
		Where("public_id = ? AND user_id = ?", publicID, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrDeckNotFound
		}
		return nil, fmt.Errorf("get deck: %w", err)
	}
	return mapDeckModel(&row), nil
}

func (r *DeckRepository) List(ctx context.Context, query *repository.ListDeckQuery) ([]*entity.Deck, int64, error) {
	var params listDecksParams
	if err := filterexpr.Bind(query, &params, listDecksSchema); err != nil {
		return nil, 0, err
	}

	tx := r.db.WithContext(ctx).Model(&deckModel{}).Where("user_id = ?", query.UserID)
	tx = applyDeckFilters(tx, params)

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count decks: %w", err)
	}

	tx = applyListOrdering(tx,
		orderTerm{key: params.PrimaryKey, desc: params.PrimaryDesc},
		orderTerm{key: params.SecondaryKey, desc: params.SecondaryDesc},
	)
	if offset := query.Offset(); offset > 0 {
		tx = tx.Offset(int(offset))
	}
	if query.PageSize > 0 {
		tx = tx.Limit(int(query.PageSize))
	}

	var rows []deckModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list decks: %w", err)
	}

	decks := make([]*entity.Deck, 0, len(rows))
	for i := range rows {
		decks = append(decks, mapDeckModel(&rows[i]))
	}
	return decks, total, nil
}

// Delete removes the deck together with its cards and study records.
func (r *DeckRepository) Delete(ctx context.Context, userID, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&deckModel{})
		if res.Error != nil {
			return fmt.Errorf("delete deck: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return entity.ErrDeckNotFound
		}
		if err := tx.Where("deck_id = ?", id).Delete(&cardModel{}).Error; err != nil {
			return fmt.Errorf("delete deck cards: %w", err)
		}
		if err := tx.Where("deck_id = ?", id).Delete(&studyRecordModel{}).Error; err != nil {
			return fmt.Errorf("delete deck study records: %w", err)
		}
		return nil
	})
}

func (r *DeckRepository) CreateCard(ctx context.Context, card *entity.Card) (*entity.Card, error) {
	row := newCardModel(card)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if row.Position <= 0 {
			var maxPos int64
			err := tx.Model(&cardModel{}).
				Where("deck_id = ?", row.DeckID).
				Select("COALESCE(MAX(position), 0)").
				Scan(&maxPos).Error
			if err != nil {
				return fmt.Errorf("next card position: %w", err)
			}
			row.Position = int32(maxPos) + 1
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create card: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mapCardModel(&row), nil
}

func (r *DeckRepository) UpdateCard(ctx context.Context, card *entity.Card) (*entity.Card, error) {
	updates := map[string]any{
		"prompt":      card.Prompt,
		"answer":      card.Answer,
		"explanation": card.Explanation,
		"updated_at":  card.UpdatedAt,
	}
	if card.Position > 0 {
		updates["position"] = card.Position
	}

	res := r.db.WithContext(ctx).Model(&cardModel{}).
		Where("id = ? AND deck_id = ?", card.ID, card.DeckID).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update card: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, entity.ErrCardNotFound
	}
	return r.GetCard(ctx, card.DeckID, card.ID)
}

func (r *DeckRepository) GetCard(ctx context.Context, deckID, cardID int64) (*entity.Card, error) {
	var row cardModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND deck_id = ?", cardID, deckID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrCardNotFound
		}
		return nil, fmt.Errorf("get card: %w", err)
	}
	return mapCardModel(&row), nil
}

func (r *DeckRepository) ListCards(ctx context.Context, deckID int64) ([]*entity.Card, error) {
	var rows []cardModel
	err := r.db.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Order("position").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}

	cards := make([]*entity.Card, 0, len(rows))
	for i := range rows {
		cards = append(cards, mapCardModel(&rows[i]))
	}
	return cards, nil
}

func (r *DeckRepository) DeleteCard(ctx context.Context, deckID, cardID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND deck_id = ?", cardID, deckID).
		Delete(&cardModel{})
	if res.Error != nil {
		return fmt.Errorf("delete card: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return entity.ErrCardNotFound
	}
	return nil
}

// ReplaceCards swaps the deck's cards for the given sequence, renumbering
// positions from 1.
func (r *DeckRepository) ReplaceCards(ctx context.Context, deckID int64, cards []*entity.Card) ([]*entity.Card, error) {
	rows := make([]cardModel, 0, len(cards))
	for i, card := range cards {
		row := newCardModel(card)
		row.ID = 0
		row.DeckID = deckID
		row.Position = int32(i + 1)
		rows = append(rows, row)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deck_id = ?", deckID).Delete(&cardModel{}).Error; err != nil {
			return fmt.Errorf("clear deck cards: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("replace deck cards: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*entity.Card, 0, len(rows))
	for i := range rows {
		out = append(out, mapCardModel(&rows[i]))
	}
	return out, nil
}

func (r *DeckRepository) CountCards(ctx context.Context, deckID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&cardModel{}).
		Where("deck_id = ?", deckID).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return total, nil
}

func applyDeckFilters(tx *gorm.DB, params listDecksParams) *gorm.DB {
	if params.Keyword != "" {
		tx = tx.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(params.Keyword)+"%")
	}
	if titles := normalizeLowerStrings(params.Titles); len(titles) > 0 {
		tx = tx.Where("LOWER(title) IN ?", titles)
	}
	return tx
}

func newDeckModel(deck *entity.Deck) deckModel {
	row := deckModel{
		ID:          deck.ID,
		PublicID:    deck.PublicID,
		UserID:      deck.UserID,
		Title:       deck.Title,
		Description: deck.Description,
		CreatedAt:   deck.CreatedAt,
		UpdatedAt:   deck.UpdatedAt,
	}
	if deck.DocumentID != nil {
		id := *deck.DocumentID
		row.DocumentID = &id
	}
	return row
}

func mapDeckModel(row *deckModel) *entity.Deck {
	if row == nil {
		return nil
	}
	deck := &entity.Deck{
		ID:          row.ID,
		PublicID:    row.PublicID,
		UserID:      row.UserID,
		Title:       row.Title,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.DocumentID != nil {
		id := *row.DocumentID
		deck.DocumentID = &id
	}
	return deck
}

func newCardModel(card *entity.Card) cardModel {
	return cardModel{
		ID:          card.ID,
		DeckID:      card.DeckID,
		Position:    card.Position,
		Prompt:      card.Prompt,
		Answer:      card.Answer,
		Explanation: card.Explanation,
		CreatedAt:   card.CreatedAt,
		UpdatedAt:   card.UpdatedAt,
	}
}

func mapCardModel(row *cardModel) *entity.Card {
	if row == nil {
		return nil
	}
	return &entity.Card{
		ID:          row.ID,
		DeckID:      row.DeckID,
		Position:    row.Position,
		Prompt:      row.Prompt,
		Answer:      row.Answer,
		Explanation: row.Explanation,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
