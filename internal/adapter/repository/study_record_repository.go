package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
)

// StudyRecordRepository persists completed-session records through GORM.
type StudyRecordRepository struct {
	db *gorm.DB
}

// NewStudyRecordRepository constructs a GORM-backed repository.
func NewStudyRecordRepository(db *gorm.DB) repository.StudyRecordRepository {
	return &StudyRecordRepository{db: db}
}

func (r *StudyRecordRepository) Create(ctx context.Context, record *entity.StudyRecord) (*entity.StudyRecord, error) {
	row := newStudyRecordModel(record)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create study record: %w", err)
	}
	return mapStudyRecordModel(&row), nil
}

func (r *StudyRecordRepository) ListByDeck(ctx context.Context, userID, deckID int64, p repository.Pagination) ([]*entity.StudyRecord, int64, error) {
	tx := r.db.WithContext(ctx).Model(&studyRecordModel{}).
		Where("user_id = ? AND deck_id = ?", userID, deckID)

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count study records: %w", err)
	}

	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "completed_at"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true})
	if offset := p.Offset(); offset > 0 {
		tx = tx.Offset(int(offset))
	}
	if p.PageSize > 0 {
		tx = tx.Limit(int(p.PageSize))
	}

	var rows []studyRecordModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list study records: %w", err)
	}

	records := make([]*entity.StudyRecord, 0, len(rows))
	for i := range rows {
		records = append(records, mapStudyRecordModel(&rows[i]))
	}
	return records, total, nil
}

// StatsByDeck folds every record for the deck into aggregate counts. Rating
// tallies live in a JSON column, so the merge happens here rather than in SQL.
func (r *StudyRecordRepository) StatsByDeck(ctx context.Context, deckID int64) (*entity.DeckStats, error) {
	var rows []studyRecordModel
	err := r.db.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load study records: %w", err)
	}

	stats := &entity.DeckStats{Ratings: entity.RatingTally{}}
	for i := range rows {
		stats.SessionsCompleted++
		stats.Ratings.Merge(entity.RatingTally(rows[i].Ratings))
		completed := rows[i].CompletedAt
		if stats.LastStudiedAt == nil || completed.After(*stats.LastStudiedAt) {
			at := completed
			stats.LastStudiedAt = &at
		}
	}
	return stats, nil
}

func newStudyRecordModel(record *entity.StudyRecord) studyRecordModel {
	return studyRecordModel{
		ID:          record.ID,
		UserID:      record.UserID,
		DeckID:      record.DeckID,
		Mode:        record.Mode.String(),
		Ratings:     ratingTallyColumn(record.Ratings.Clone()),
		StartedAt:   record.StartedAt,
		CompletedAt: record.CompletedAt,
	}
}

func mapStudyRecordModel(row *studyRecordModel) *entity.StudyRecord {
	if row == nil {
		return nil
	}
	mode, _ := entity.ParseSessionMode(row.Mode)
	return &entity.StudyRecord{
		ID:          row.ID,
		UserID:      row.UserID,
		DeckID:      row.DeckID,
		Mode:        mode,
		Ratings:     entity.RatingTally(row.Ratings).Clone(),
		StartedAt:   row.StartedAt,
		CompletedAt: row.CompletedAt,
	}
}
