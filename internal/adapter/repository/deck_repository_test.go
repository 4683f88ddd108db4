package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
)

var testBase = time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

func seedDeck(t *testing.T, db *gorm.DB, userID int64, publicID, title string, createdAt time.Time) *entity.Deck {
	t.Helper()
	deck, err := NewDeckRepository(db).Create(context.Background(), &entity.Deck{
		PublicID:  publicID,
		UserID:    userID,
		Title:     title,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("seed deck %q: %v", title, err)
	}
	return deck
}

func seedCard(t *testing.T, db *gorm.DB, deckID int64, position int32, prompt string) *entity.Card {
	t.Helper()
	card, err := NewDeckRepository(db).CreateCard(context.Background(), &entity.Card{
		DeckID:    deckID,
		Position:  position,
		Prompt:    prompt,
		Answer:    "answer to " + prompt,
		CreatedAt: testBase,
		UpdatedAt: testBase,
	})
	if err != nil {
		t.Fatalf("seed card %q: %v", prompt, err)
	}
	return card
}

func TestDeckCreateGetUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	deck := seedDeck(t, db, 1, "dk_bio", "Biology", testBase)
	if deck.ID == 0 {
		t.Fatal("created deck has no id")
	}

	got, err := repo.GetByPublicID(ctx, 1, "dk_bio")
	if err != nil {
		t.Fatalf("GetByPublicID: %v", err)
	}
	if got.Title != "Biology" || got.UserID != 1 {
		t.Errorf("deck = %+v", got)
	}

	// Ownership is part of the lookup key.
	if _, err := repo.GetByPublicID(ctx, 2, "dk_bio"); !errors.Is(err, entity.ErrDeckNotFound) {
		t.Errorf("foreign lookup error = %v, want ErrDeckNotFound", err)
	}

	deck.Title = "Cell Biology"
	deck.Description = "Chapter 3"
	deck.UpdatedAt = testBase.Add(time.Hour)
	updated, err := repo.Update(ctx, deck)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Cell Biology" || updated.Description != "Chapter 3" {
		t.Errorf("updated deck = %+v", updated)
	}
	if !updated.UpdatedAt.Equal(testBase.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v", updated.UpdatedAt)
	}

	foreign := *deck
	foreign.UserID = 2
	if _, err := repo.Update(ctx, &foreign); !errors.Is(err, entity.ErrDeckNotFound) {
		t.Errorf("foreign update error = %v, want ErrDeckNotFound", err)
	}
}

func TestCreateCardAssignsNextPosition(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()
	deck := seedDeck(t, db, 1, "dk_pos", "Positions", testBase)

	first := seedCard(t, db, deck.ID, 0, "first")
	second := seedCard(t, db, deck.ID, 0, "second")
	if first.Position != 1 || second.Position != 2 {
		t.Errorf("appended positions = %d, %d, want 1, 2", first.Position, second.Position)
	}

	pinned := seedCard(t, db, deck.ID, 10, "pinned")
	if pinned.Position != 10 {
		t.Errorf("explicit position = %d, want 10", pinned.Position)
	}

	after := seedCard(t, db, deck.ID, 0, "after pinned")
	if after.Position != 11 {
		t.Errorf("position after gap = %d, want 11", after.Position)
	}

	cards, err := repo.ListCards(ctx, deck.ID)
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	wantOrder := []string{"first", "second", "pinned", "after pinned"}
	if len(cards) != len(wantOrder) {
		t.Fatalf("len(cards) = %d, want %d", len(cards), len(wantOrder))
	}
	for i, card := range cards {
		if card.Prompt != wantOrder[i] {
			t.Errorf("cards[%d] = %q, want %q", i, card.Prompt, wantOrder[i])
		}
	}
}

func TestReplaceCardsRenumbers(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()
	deck := seedDeck(t, db, 1, "dk_swap", "Swap", testBase)
	seedCard(t, db, deck.ID, 0, "old one")
	seedCard(t, db, deck.ID, 0, "old two")

	replaced, err := repo.ReplaceCards(ctx, deck.ID, []*entity.Card{
		{Prompt: "new one", Answer: "a", Position: 99, CreatedAt: testBase, UpdatedAt: testBase},
		{Prompt: "new two", Answer: "b", CreatedAt: testBase, UpdatedAt: testBase},
		{Prompt: "new three", Answer: "c", CreatedAt: testBase, UpdatedAt: testBase},
	})
	if err != nil {
		t.Fatalf("ReplaceCards: %v", err)
	}
	for i, card := range replaced {
		if card.Position != int32(i+1) {
			t.Errorf("replaced[%d].Position = %d, want %d", i, card.Position, i+1)
		}
		if card.DeckID != deck.ID {
			t.Errorf("replaced[%d].DeckID = %d", i, card.DeckID)
		}
	}

	total, err := repo.CountCards(ctx, deck.ID)
	if err != nil {
		t.Fatalf("CountCards: %v", err)
	}
	if total != 3 {
		t.Errorf("CountCards = %d, want 3", total)
	}

	// Replacing with nothing empties the deck.
	if _, err := repo.ReplaceCards(ctx, deck.ID, nil); err != nil {
		t.Fatalf("ReplaceCards(nil): %v", err)
	}
	if total, _ = repo.CountCards(ctx, deck.ID); total != 0 {
		t.Errorf("CountCards after clear = %d, want 0", total)
	}
}

func TestDeleteDeckRemovesCardsAndRecords(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeckRepository(db)
	records := NewStudyRecordRepository(db)
	ctx := context.Background()
	deck := seedDeck(t, db, 1, "dk_gone", "Doomed", testBase)
	seedCard(t, db, deck.ID, 0, "card")

	_, err := records.Create(ctx, &entity.StudyRecord{
		UserID:      1,
		DeckID:      deck.ID,
		Mode:        entity.ModeFlashcard,
		Ratings:     entity.RatingTally{entity.RatingGood: 1},
		StartedAt:   testBase,
		CompletedAt: testBase.Add(5 * time.Minute),
	})
	if err != nil {
		t.Fatalf("create study record: %v", err)
	}

	if err := repo.Delete(ctx, 1, deck.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByPublicID(ctx, 1, "dk_gone"); !errors.Is(err, entity.ErrDeckNotFound) {
		t.Errorf("deck after delete: %v", err)
	}
	if total, _ := repo.CountCards(ctx, deck.ID); total != 0 {
		t.Errorf("cards after delete = %d, want 0", total)
	}
	if _, total, err := records.ListByDeck(ctx, 1, deck.ID, repository.Pagination{}); err != nil || total != 0 {
		t.Errorf("records after delete = %d (err %v), want 0", total, err)
	}

	if err := repo.Delete(ctx, 1, deck.ID); !errors.Is(err, entity.ErrDeckNotFound) {
		t.Errorf("second delete error = %v, want ErrDeckNotFound", err)
	}
}

func TestListDecksFiltersAndOrders(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	seedDeck(t, db, 1, "dk_1", "Biology Basics", testBase)
	seedDeck(t, db, 1, "dk_2", "Chemistry", testBase.Add(time.Hour))
	seedDeck(t, db, 1, "dk_3", "Advanced Biology", testBase.Add(2*time.Hour))
	seedDeck(t, db, 2, "dk_4", "Someone Else's Biology", testBase)

	t.Run("default order is newest first", func(t *testing.T) {
		decks, total, err := repo.List(ctx, &repository.ListDeckQuery{UserID: 1})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		want := []string{"Advanced Biology", "Chemistry", "Biology Basics"}
		for i, deck := range decks {
			if deck.Title != want[i] {
				t.Errorf("decks[%d] = %q, want %q", i, deck.Title, want[i])
			}
		}
	})

	t.Run("title keyword match", func(t *testing.T) {
		query := &repository.ListDeckQuery{UserID: 1}
		query.Filter = `title.startsWith("bio")`
		decks, total, err := repo.List(ctx, query)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 2 || len(decks) != 2 {
			t.Fatalf("total = %d, len = %d, want 2", total, len(decks))
		}
	})

	t.Run("title in list", func(t *testing.T) {
		query := &repository.ListDeckQuery{UserID: 1}
		query.Filter = `title in ["chemistry"]`
		decks, total, err := repo.List(ctx, query)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 1 || decks[0].Title != "Chemistry" {
			t.Errorf("got %d decks, first %q", total, decks[0].Title)
		}
	})

	t.Run("explicit title order", func(t *testing.T) {
		query := &repository.ListDeckQuery{UserID: 1}
		query.OrderBy = "title asc"
		decks, _, err := repo.List(ctx, query)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		want := []string{"Advanced Biology", "Biology Basics", "Chemistry"}
		for i, deck := range decks {
			if deck.Title != want[i] {
				t.Errorf("decks[%d] = %q, want %q", i, deck.Title, want[i])
			}
		}
	})

	t.Run("pagination", func(t *testing.T) {
		query := &repository.ListDeckQuery{UserID: 1}
		query.PageNo = 2
		query.PageSize = 1
		decks, total, err := repo.List(ctx, query)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 3 || len(decks) != 1 {
			t.Fatalf("total = %d, len = %d", total, len(decks))
		}
		if decks[0].Title != "Chemistry" {
			t.Errorf("page 2 = %q, want Chemistry", decks[0].Title)
		}
	})

	t.Run("rejects unknown filter field", func(t *testing.T) {
		query := &repository.ListDeckQuery{UserID: 1}
		query.Filter = `owner == "x"`
		if _, _, err := repo.List(ctx, query); err == nil {
			t.Error("expected filter binding error")
		}
	})
}

func TestCardUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()
	deck := seedDeck(t, db, 1, "dk_cards", "Cards", testBase)
	card := seedCard(t, db, deck.ID, 0, "what is ATP")

	card.Answer = "adenosine triphosphate"
	card.Explanation = "the cell's energy currency"
	card.UpdatedAt = testBase.Add(time.Hour)
	updated, err := repo.UpdateCard(ctx, card)
	if err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}
	if updated.Answer != "adenosine triphosphate" || updated.Explanation == "" {
		t.Errorf("updated card = %+v", updated)
	}
	if updated.Position != 1 {
		t.Errorf("position = %d, want 1", updated.Position)
	}

	missing := *card
	missing.ID = card.ID + 100
	if _, err := repo.UpdateCard(ctx, &missing); !errors.Is(err, entity.ErrCardNotFound) {
		t.Errorf("missing update error = %v, want ErrCardNotFound", err)
	}

	if err := repo.DeleteCard(ctx, deck.ID, card.ID); err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}
	if _, err := repo.GetCard(ctx, deck.ID, card.ID); !errors.Is(err, entity.ErrCardNotFound) {
		t.Errorf("card after delete: %v", err)
	}
	if err := repo.DeleteCard(ctx, deck.ID, card.ID); !errors.Is(err, entity.ErrCardNotFound) {
		t.Errorf("second delete error = %v, want ErrCardNotFound", err)
	}
}
