package repository

import (
	"context"

	"github.com/studyhall-app/studyhall/internal/entity"
)

// ListDocumentQuery holds parameters for listing a user's documents.
type ListDocumentQuery struct {
	Pagination
	FilterOrder

	UserID int64
}

// DocumentRepository abstracts persistence for documents and their summaries.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) (*entity.Document, error)
	GetByID(ctx context.Context, userID, id int64) (*entity.Document, error)
	GetByPublicID(ctx context.Context, userID int64, publicID string) (*entity.Document, error)
	List(ctx context.Context, query *ListDocumentQuery) ([]*entity.Document, int64, error)
	Delete(ctx context.Context, userID, id int64) error

	// SaveSummary upserts the summary for its document (one summary per
	// document and version) and bumps the document's updated timestamp.
	SaveSummary(ctx context.Context, summary *entity.Summary) (*entity.Summary, error)
	GetSummary(ctx context.Context, documentID int64) (*entity.Summary, error)
}
