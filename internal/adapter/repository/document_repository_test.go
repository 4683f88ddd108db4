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

func seedDocument(t *testing.T, db *gorm.DB, userID int64, publicID, title string, source entity.SourceKind) *entity.Document {
	t.Helper()
	doc, err := NewDocumentRepository(db).Create(context.Background(), &entity.Document{
		PublicID:  publicID,
		UserID:    userID,
		Title:     title,
		Source:    source,
		CreatedAt: testBase,
		UpdatedAt: testBase,
	})
	if err != nil {
		t.Fatalf("seed document %q: %v", title, err)
	}
	return doc
}

func TestSaveSummaryUpsertsByVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()
	doc := seedDocument(t, db, 1, "doc_sum", "Photosynthesis", entity.SourceText)

	first, err := repo.SaveSummary(ctx, &entity.Summary{
		DocumentID:  doc.ID,
		Version:     1,
		Text:        "Plants make sugar from light.",
		Model:       "llama3",
		GeneratedAt: testBase.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("SaveSummary v1: %v", err)
	}

	// Regenerating the same version overwrites in place.
	second, err := repo.SaveSummary(ctx, &entity.Summary{
		DocumentID:  doc.ID,
		Version:     1,
		Text:        "Light energy becomes chemical energy.",
		Model:       "llama3",
		GeneratedAt: testBase.Add(2 * time.Minute),
	})
	if err != nil {
		t.Fatalf("SaveSummary v1 again: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created new row: id %d then %d", first.ID, second.ID)
	}
	if second.Text != "Light energy becomes chemical energy." {
		t.Errorf("text = %q", second.Text)
	}

	if _, err := repo.SaveSummary(ctx, &entity.Summary{
		DocumentID:  doc.ID,
		Version:     2,
		Text:        "A longer take on photosynthesis.",
		Model:       "llama3",
		GeneratedAt: testBase.Add(3 * time.Minute),
	}); err != nil {
		t.Fatalf("SaveSummary v2: %v", err)
	}

	latest, err := repo.GetSummary(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if latest.Version != 2 {
		t.Errorf("latest version = %d, want 2", latest.Version)
	}

	// Saving a summary touches the parent document.
	reloaded, err := repo.GetByID(ctx, 1, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !reloaded.UpdatedAt.Equal(testBase.Add(3 * time.Minute)) {
		t.Errorf("document UpdatedAt = %v, want %v", reloaded.UpdatedAt, testBase.Add(3*time.Minute))
	}
}

func TestGetSummaryMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)

	if _, err := repo.GetSummary(context.Background(), 12345); !errors.Is(err, entity.ErrSummaryNotFound) {
		t.Errorf("error = %v, want ErrSummaryNotFound", err)
	}
}

func TestDeleteDocumentDetachesDecks(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepository(db)
	decks := NewDeckRepository(db)
	ctx := context.Background()

	doc := seedDocument(t, db, 1, "doc_gone", "Old Notes", entity.SourceMarkdown)
	if _, err := docs.SaveSummary(ctx, &entity.Summary{
		DocumentID:  doc.ID,
		Version:     1,
		Text:        "notes",
		GeneratedAt: testBase,
	}); err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}

	deck, err := decks.Create(ctx, &entity.Deck{
		PublicID:   "dk_from_doc",
		UserID:     1,
		Title:      "Generated",
		DocumentID: &doc.ID,
		CreatedAt:  testBase,
		UpdatedAt:  testBase,
	})
	if err != nil {
		t.Fatalf("create deck: %v", err)
	}

	if err := docs.Delete(ctx, 1, doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := docs.GetByPublicID(ctx, 1, "doc_gone"); !errors.Is(err, entity.ErrDocumentNotFound) {
		t.Errorf("document after delete: %v", err)
	}
	if _, err := docs.GetSummary(ctx, doc.ID); !errors.Is(err, entity.ErrSummaryNotFound) {
		t.Errorf("summary after delete: %v", err)
	}

	// The generated deck survives with its source reference cleared.
	kept, err := decks.GetByPublicID(ctx, 1, "dk_from_doc")
	if err != nil {
		t.Fatalf("deck after document delete: %v", err)
	}
	if kept.DocumentID != nil {
		t.Errorf("deck.DocumentID = %d, want nil", *kept.DocumentID)
	}
	if kept.ID != deck.ID {
		t.Errorf("deck id changed: %d != %d", kept.ID, deck.ID)
	}

	if err := docs.Delete(ctx, 1, doc.ID); !errors.Is(err, entity.ErrDocumentNotFound) {
		t.Errorf("second delete error = %v, want ErrDocumentNotFound", err)
	}
}

func TestListDocumentsBySource(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	seedDocument(t, db, 1, "doc_a", "Typed Notes", entity.SourceText)
	seedDocument(t, db, 1, "doc_b", "Readme", entity.SourceMarkdown)
	seedDocument(t, db, 1, "doc_c", "Course Page", entity.SourceURL)

	query := &repository.ListDocumentQuery{UserID: 1}
	query.Filter = `source in ["markdown", "url"]`
	docsList, total, err := repo.List(ctx, query)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	for _, doc := range docsList {
		if doc.Source == entity.SourceText {
			t.Errorf("source filter leaked %q", doc.PublicID)
		}
	}

	query = &repository.ListDocumentQuery{UserID: 1}
	query.Filter = `title.startsWith("read")`
	docsList, total, err = repo.List(ctx, query)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || docsList[0].PublicID != "doc_b" {
		t.Errorf("keyword filter: total %d", total)
	}
}
