package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
	"github.com/studyhall-app/studyhall/pkg/filterexpr"
)

// DocumentRepository persists documents and their summaries through GORM.
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository constructs a GORM-backed repository.
func NewDocumentRepository(db *gorm.DB) repository.DocumentRepository {
	return &DocumentRepository{db: db}
}

type listDocumentsParams struct {
	Keyword       string
	Source        string
	Sources       []string
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) (*entity.Document, error) {
	row := newDocumentModel(doc)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return mapDocumentModel(&row), nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, userID, id int64) (*entity.Document, error) {
	var row documentModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return mapDocumentModel(&row), nil
}

func (r *DocumentRepository) GetByPublicID(ctx context.Context, userID int64, publicID string) (*entity.Document, error) {
	var row documentModel
	err := r.db.WithContext(ctx).
		Where("public_id = ? AND user_id = ?", publicID, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return mapDocumentModel(&row), nil
}

func (r *DocumentRepository) List(ctx context.Context, query *repository.ListDocumentQuery) ([]*entity.Document, int64, error) {
	var params listDocumentsParams
	if err := filterexpr.Bind(query, &params, listDocumentsSchema); err != nil {
		return nil, 0, err
	}

	tx := r.db.WithContext(ctx).Model(&documentModel{}).Where("user_id = ?", query.UserID)
	tx = applyDocumentFilters(tx, params)

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
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

	var rows []documentModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]*entity.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, mapDocumentModel(&rows[i]))
	}
	return docs, total, nil
}

// Delete removes the document and its summaries. Decks generated from the
// document stay; their source reference is cleared.
func (r *DocumentRepository) Delete(ctx context.Context, userID, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&documentModel{})
		if res.Error != nil {
			return fmt.Errorf("delete document: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return entity.ErrDocumentNotFound
		}
		if err := tx.Where("document_id = ?", id).Delete(&summaryModel{}).Error; err != nil {
			return fmt.Errorf("delete summaries: %w", err)
		}
		err := tx.Model(&deckModel{}).
			Where("document_id = ?", id).
			Update("document_id", nil).Error
		if err != nil {
			return fmt.Errorf("detach decks: %w", err)
		}
		return nil
	})
}

func (r *DocumentRepository) SaveSummary(ctx context.Context, summary *entity.Summary) (*entity.Summary, error) {
	row := newSummaryModel(summary)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}, {Name: "version"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "model", "generated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("save summary: %w", err)
		}
		err = tx.Model(&documentModel{}).
			Where("id = ?", row.DocumentID).
			Update("updated_at", row.GeneratedAt).Error
		if err != nil {
			return fmt.Errorf("touch document: %w", err)
		}
		// Conflicting upserts keep the original row id; read it back.
		return tx.Where("document_id = ? AND version = ?", row.DocumentID, row.Version).
			First(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return mapSummaryModel(&row), nil
}

// GetSummary returns the latest summary version for the document.
func (r *DocumentRepository) GetSummary(ctx context.Context, documentID int64) (*entity.Summary, error) {
	var row summaryModel
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("version DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrSummaryNotFound
		}
		return nil, fmt.Errorf("get summary: %w", err)
	}
	return mapSummaryModel(&row), nil
}

func applyDocumentFilters(tx *gorm.DB, params listDocumentsParams) *gorm.DB {
	if params.Keyword != "" {
		tx = tx.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(params.Keyword)+"%")
	}
	if params.Source != "" {
		tx = tx.Where("source = ?", strings.ToLower(strings.TrimSpace(params.Source)))
	}
	if sources := normalizeLowerStrings(params.Sources); len(sources) > 0 {
		tx = tx.Where("source IN ?", sources)
	}
	return tx
}

func newDocumentModel(doc *entity.Document) documentModel {
	return documentModel{
		ID:        doc.ID,
		PublicID:  doc.PublicID,
		UserID:    doc.UserID,
		Title:     doc.Title,
		Source:    string(doc.Source),
		SourceRef: doc.SourceRef,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func mapDocumentModel(row *documentModel) *entity.Document {
	if row == nil {
		return nil
	}
	return &entity.Document{
		ID:        row.ID,
		PublicID:  row.PublicID,
		UserID:    row.UserID,
		Title:     row.Title,
		Source:    entity.SourceKind(row.Source),
		SourceRef: row.SourceRef,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func newSummaryModel(summary *entity.Summary) summaryModel {
	return summaryModel{
		ID:          summary.ID,
		DocumentID:  summary.DocumentID,
		Version:     summary.Version,
		Text:        summary.Text,
		Model:       summary.Model,
		GeneratedAt: summary.GeneratedAt,
	}
}

func mapSummaryModel(row *summaryModel) *entity.Summary {
	if row == nil {
		return nil
	}
	return &entity.Summary{
		ID:          row.ID,
		DocumentID:  row.DocumentID,
		Version:     row.Version,
		Text:        row.Text,
		Model:       row.Model,
		GeneratedAt: row.GeneratedAt,
	}
}
