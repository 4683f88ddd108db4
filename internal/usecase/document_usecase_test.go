package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/usecase/pipeline"
)

type fakeIngestor struct {
	mu         sync.Mutex
	jobs       []pipeline.Job
	enqueueErr error
	statuses   map[string]entity.ProcessingUpdate
	forgotten  []string
}

func newFakeIngestor() *fakeIngestor {
	return &fakeIngestor{statuses: make(map[string]entity.ProcessingUpdate)}
}

func (f *fakeIngestor) Enqueue(ctx context.Context, job pipeline.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeIngestor) Status(documentID string) (entity.ProcessingUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.statuses[documentID]
	if !ok {
		return entity.ProcessingUpdate{}, entity.ErrStatusNotFound
	}
	return u, nil
}

func (f *fakeIngestor) Watch(ctx context.Context, documentID string) (<-chan entity.ProcessingUpdate, error) {
	u, err := f.Status(documentID)
	if err != nil {
		return nil, err
	}
	ch := make(chan entity.ProcessingUpdate, 1)
	ch <- u
	close(ch)
	return ch, nil
}

func (f *fakeIngestor) Forget(documentID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, documentID)
	delete(f.statuses, documentID)
}

func (f *fakeIngestor) queued() []pipeline.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pipeline.Job(nil), f.jobs...)
}

func newTestDocumentUsecase(repo *fakeDocumentRepo, ingest *fakeIngestor) (DocumentUsecase, *documentUsecase) {
	uc := NewDocumentUsecase(repo, ingest, discardLogger())
	impl := uc.(*documentUsecase)
	return uc, impl
}

func TestCreateFromTextEnqueues(t *testing.T) {
	repo := newFakeDocumentRepo()
	ingest := newFakeIngestor()
	uc, impl := newTestDocumentUsecase(repo, ingest)
	fixed := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	impl.clock = func() time.Time { return fixed }

	doc, err := uc.CreateFromText(context.Background(), 1, " Notes ", "The cell is small.", entity.SourceText)
	if err != nil {
		t.Fatalf("CreateFromText returned error: %v", err)
	}
	if doc.ID == 0 || doc.PublicID == "" {
		t.Errorf("doc = %+v, want assigned IDs", doc)
	}
	if doc.Title != "Notes" {
		t.Errorf("title = %q, want trimmed", doc.Title)
	}
	if !doc.CreatedAt.Equal(fixed) {
		t.Errorf("created_at = %v, want %v", doc.CreatedAt, fixed)
	}

	jobs := ingest.queued()
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
	if jobs[0].Document.PublicID != doc.PublicID || jobs[0].RawText != "The cell is small." {
		t.Errorf("job = %+v", jobs[0])
	}
}

func TestCreateFromTextValidation(t *testing.T) {
	repo := newFakeDocumentRepo()
	ingest := newFakeIngestor()
	uc, _ := newTestDocumentUsecase(repo, ingest)

	if _, err := uc.CreateFromText(context.Background(), 1, "Notes", "  \n ", entity.SourceText); !errors.Is(err, entity.ErrEmptyDocument) {
		t.Errorf("error = %v, want ErrEmptyDocument", err)
	}
	if _, err := uc.CreateFromText(context.Background(), 1, " ", "text", entity.SourceText); !errors.Is(err, entity.ErrInvalidDocumentTitle) {
		t.Errorf("error = %v, want ErrInvalidDocumentTitle", err)
	}
	if _, err := uc.CreateFromText(context.Background(), 1, "Notes", "text", entity.SourceURL); !errors.Is(err, entity.ErrInvalidDocumentSource) {
		t.Errorf("error = %v, want ErrInvalidDocumentSource for url kind", err)
	}
	if len(ingest.queued()) != 0 {
		t.Error("rejected documents must not be enqueued")
	}
}

func TestCreateFromURL(t *testing.T) {
	repo := newFakeDocumentRepo()
	ingest := newFakeIngestor()
	uc, _ := newTestDocumentUsecase(repo, ingest)

	doc, err := uc.CreateFromURL(context.Background(), 1, "Article", "https://example.com/a")
	if err != nil {
		t.Fatalf("CreateFromURL returned error: %v", err)
	}
	if doc.Source != entity.SourceURL || doc.SourceRef != "https://example.com/a" {
		t.Errorf("doc = %+v", doc)
	}

	jobs := ingest.queued()
	if len(jobs) != 1 || jobs[0].RawText != "" {
		t.Fatalf("jobs = %+v, want one job with no raw text", jobs)
	}

	if _, err := uc.CreateFromURL(context.Background(), 1, "Bad", "not a url"); !errors.Is(err, entity.ErrInvalidDocumentSource) {
		t.Errorf("error = %v, want ErrInvalidDocumentSource", err)
	}
}

func TestCreateSurvivesFullQueue(t *testing.T) {
	repo := newFakeDocumentRepo()
	ingest := newFakeIngestor()
	ingest.enqueueErr = pipeline.ErrQueueFull
	uc, _ := newTestDocumentUsecase(repo, ingest)

	doc, err := uc.CreateFromText(context.Background(), 1, "Notes", "text", entity.SourceText)
	if err != nil {
		t.Fatalf("CreateFromText returned error: %v", err)
	}
	if _, err := uc.Get(context.Background(), 1, doc.PublicID); err != nil {
		t.Fatalf("document should exist despite full queue: %v", err)
	}
}

func TestDocumentStatusPassThrough(t *testing.T) {
	repo := newFakeDocumentRepo()
	ingest := newFakeIngestor()
	uc, _ := newTestDocumentUsecase(repo, ingest)

	doc, err := uc.CreateFromText(context.Background(), 1, "Notes", "text", entity.SourceText)
	if err != nil {
		t.Fatalf("CreateFromText failed: %v", err)
	}
	ingest.statuses[doc.PublicID] = entity.ProcessingUpdate{
		DocumentID: doc.PublicID,
		Status:     entity.StatusSummarizing,
		Progress:   70,
	}

	got, err := uc.Status(context.Background(), 1, doc.PublicID)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if got.Status != entity.StatusSummarizing || got.Progress != 70 {
		t.Errorf("status = %+v", got)
	}
}

func TestDocumentStatusSynthesizedFromSummary(t *testing.T) {
	repo := newFakeDocumentRepo()
	ingest := newFakeIngestor()
	uc, _ := newTestDocumentUsecase(repo, ingest)

	doc, err := uc.CreateFromText(context.Background(), 1, "Notes", "text", entity.SourceText)
	if err != nil {
		t.Fatalf("CreateFromText failed: %v", err)
	}
	generated := time.Date(2024, 7, 2, 12, 0, 0, 0, time.UTC)
	if _, err := repo.SaveSummary(context.Background(), &entity.Summary{DocumentID: doc.ID, Text: "s", GeneratedAt: generated}); err != nil {
		t.Fatalf("SaveSummary failed: %v", err)
	}

	got, err := uc.Status(context.Background(), 1, doc.PublicID)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if got.Status != entity.StatusComplete || got.Progress != 100 {
		t.Errorf("status = %+v, want synthesized complete", got)
	}
	if !got.UpdatedAt.Equal(generated) {
		t.Errorf("updated_at = %v, want summary generation time", got.UpdatedAt)
	}

	ch, err := uc.Watch(context.Background(), 1, doc.PublicID)
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	u, ok := <-ch
	if !ok || u.Status != entity.StatusComplete {
		t.Errorf("watch update = %+v ok=%v", u, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("synthesized watch channel should close after one update")
	}
}

func TestDocumentStatusUnknown(t *testing.T) {
	repo := newFakeDocumentRepo()
	ingest := newFakeIngestor()
	uc, _ := newTestDocumentUsecase(repo, ingest)

	doc, err := uc.CreateFromText(context.Background(), 1, "Notes", "text", entity.SourceText)
	if err != nil {
		t.Fatalf("CreateFromText failed: %v", err)
	}

	if _, err := uc.Status(context.Background(), 1, doc.PublicID); !errors.Is(err, entity.ErrStatusNotFound) {
		t.Errorf("error = %v, want ErrStatusNotFound without summary", err)
	}
	if _, err := uc.Status(context.Background(), 1, "missing"); !errors.Is(err, entity.ErrDocumentNotFound) {
		t.Errorf("error = %v, want ErrDocumentNotFound", err)
	}
}

func TestDeleteDocumentForgetsStatus(t *testing.T) {
	repo := newFakeDocumentRepo()
	ingest := newFakeIngestor()
	uc, _ := newTestDocumentUsecase(repo, ingest)

	doc, err := uc.CreateFromText(context.Background(), 1, "Notes", "text", entity.SourceText)
	if err != nil {
		t.Fatalf("CreateFromText failed: %v", err)
	}

	if err := uc.Delete(context.Background(), 1, doc.PublicID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(ingest.forgotten) != 1 || ingest.forgotten[0] != doc.PublicID {
		t.Errorf("forgotten = %v", ingest.forgotten)
	}
	if _, err := uc.Get(context.Background(), 1, doc.PublicID); !errors.Is(err, entity.ErrDocumentNotFound) {
		t.Errorf("error = %v, want ErrDocumentNotFound after delete", err)
	}
}

func TestSummaryOwnership(t *testing.T) {
	repo := newFakeDocumentRepo()
	ingest := newFakeIngestor()
	uc, _ := newTestDocumentUsecase(repo, ingest)

	doc, err := uc.CreateFromText(context.Background(), 1, "Notes", "text", entity.SourceText)
	if err != nil {
		t.Fatalf("CreateFromText failed: %v", err)
	}
	if _, err := repo.SaveSummary(context.Background(), &entity.Summary{DocumentID: doc.ID, Text: "s"}); err != nil {
		t.Fatalf("SaveSummary failed: %v", err)
	}

	if _, err := uc.Summary(context.Background(), 2, doc.PublicID); !errors.Is(err, entity.ErrDocumentNotFound) {
		t.Fatalf("error = %v, want ErrDocumentNotFound for foreign user", err)
	}
	got, err := uc.Summary(context.Background(), 1, doc.PublicID)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if got.Text != "s" {
		t.Errorf("summary = %+v", got)
	}
}
