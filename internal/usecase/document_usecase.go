package usecase

import (
	"context"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
	"github.com/studyhall-app/studyhall/internal/usecase/pipeline"
)

// Ingestor is the document-processing pipeline as seen by the usecase layer.
// Implemented by pipeline.Service.
type Ingestor interface {
	Enqueue(ctx context.Context, job pipeline.Job) error
	Status(documentID string) (entity.ProcessingUpdate, error)
	Watch(ctx context.Context, documentID string) (<-chan entity.ProcessingUpdate, error)
	Forget(documentID string)
}

// DocumentUsecase defines business logic for uploaded study material.
type DocumentUsecase interface {
	CreateFromText(ctx context.Context, userID int64, title, text string, kind entity.SourceKind) (*entity.Document, error)
	CreateFromURL(ctx context.Context, userID int64, title, rawURL string) (*entity.Document, error)
	Get(ctx context.Context, userID int64, publicID string) (*entity.Document, error)
	List(ctx context.Context, query *repository.ListDocumentQuery) ([]*entity.Document, int64, error)
	Delete(ctx context.Context, userID int64, publicID string) error

	Summary(ctx context.Context, userID int64, publicID string) (*entity.Summary, error)
	Status(ctx context.Context, userID int64, publicID string) (entity.ProcessingUpdate, error)
	Watch(ctx context.Context, userID int64, publicID string) (<-chan entity.ProcessingUpdate, error)
}

// NewDocumentUsecase wires document persistence with the ingest pipeline.
func NewDocumentUsecase(repo repository.DocumentRepository, ingest Ingestor, logger *logrus.Logger) DocumentUsecase {
	return &documentUsecase{
		repo:   repo,
		ingest: ingest,
		logger: logger,
		clock:  time.Now,
		newID:  func() (string, error) { return gonanoid.New() },
	}
}

type documentUsecase struct {
	repo   repository.DocumentRepository
	ingest Ingestor
	logger *logrus.Logger
	clock  func() time.Time
	newID  func() (string, error)
}

func (u *documentUsecase) CreateFromText(ctx context.Context, userID int64, title, text string, kind entity.SourceKind) (*entity.Document, error) {
	if kind != entity.SourceText && kind != entity.SourceMarkdown {
		return nil, entity.ErrInvalidDocumentSource
	}
	if strings.TrimSpace(text) == "" {
		return nil, entity.ErrEmptyDocument
	}
	return u.create(ctx, &entity.Document{
		UserID: userID,
		Title:  title,
		Source: kind,
	}, text)
}

func (u *documentUsecase) CreateFromURL(ctx context.Context, userID int64, title, rawURL string) (*entity.Document, error) {
	return u.create(ctx, &entity.Document{
		UserID:    userID,
		Title:     title,
		Source:    entity.SourceURL,
		SourceRef: rawURL,
	}, "")
}

// create persists the document and hands it to the pipeline. A full queue is
// not a creation failure: the document exists and its status reports the
// error, so the client can retry processing by re-uploading.
func (u *documentUsecase) create(ctx context.Context, doc *entity.Document, rawText string) (*entity.Document, error) {
	publicID, err := u.newID()
	if err != nil {
		return nil, err
	}
	doc.PublicID = publicID
	doc.Normalize(u.clock())
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	created, err := u.repo.Create(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := u.ingest.Enqueue(ctx, pipeline.Job{Document: *created, RawText: rawText}); err != nil {
		u.logger.WithField("document", created.PublicID).Warnf("enqueue failed: %v", err)
	}
	return created, nil
}

func (u *documentUsecase) Get(ctx context.Context, userID int64, publicID string) (*entity.Document, error) {
	return u.repo.GetByPublicID(ctx, userID, publicID)
}

func (u *documentUsecase) List(ctx context.Context, query *repository.ListDocumentQuery) ([]*entity.Document, int64, error) {
	return u.repo.List(ctx, query)
}

func (u *documentUsecase) Delete(ctx context.Context, userID int64, publicID string) error {
	doc, err := u.repo.GetByPublicID(ctx, userID, publicID)
	if err != nil {
		return err
	}
	if err := u.repo.Delete(ctx, userID, doc.ID); err != nil {
		return err
	}
	u.ingest.Forget(publicID)
	return nil
}

func (u *documentUsecase) Summary(ctx context.Context, userID int64, publicID string) (*entity.Summary, error) {
	doc, err := u.repo.GetByPublicID(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}
	return u.repo.GetSummary(ctx, doc.ID)
}

// Status reports the document's processing state. Pipeline entries expire;
// for a document whose summary already exists the terminal state is
// synthesized from the summary instead of reporting not-found.
func (u *documentUsecase) Status(ctx context.Context, userID int64, publicID string) (entity.ProcessingUpdate, error) {
	doc, err := u.repo.GetByPublicID(ctx, userID, publicID)
	if err != nil {
		return entity.ProcessingUpdate{}, err
	}

	update, err := u.ingest.Status(publicID)
	if err == nil {
		return update, nil
	}
	return u.statusFromSummary(ctx, doc, err)
}

// Watch streams processing updates. As with Status, a missing pipeline entry
// for an already summarized document yields a single synthesized complete
// update.
func (u *documentUsecase) Watch(ctx context.Context, userID int64, publicID string) (<-chan entity.ProcessingUpdate, error) {
	doc, err := u.repo.GetByPublicID(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}

	ch, err := u.ingest.Watch(ctx, publicID)
	if err == nil {
		return ch, nil
	}
	update, err := u.statusFromSummary(ctx, doc, err)
	if err != nil {
		return nil, err
	}
	out := make(chan entity.ProcessingUpdate, 1)
	out <- update
	close(out)
	return out, nil
}

func (u *documentUsecase) statusFromSummary(ctx context.Context, doc *entity.Document, statusErr error) (entity.ProcessingUpdate, error) {
	summary, err := u.repo.GetSummary(ctx, doc.ID)
	if err != nil {
		return entity.ProcessingUpdate{}, statusErr
	}
	return entity.ProcessingUpdate{
		DocumentID: doc.PublicID,
		Status:     entity.StatusComplete,
		Progress:   100,
		Message:    "Processing complete",
		UpdatedAt:  summary.GeneratedAt,
	}, nil
}
