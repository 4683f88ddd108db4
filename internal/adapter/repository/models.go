package repository

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyhall-app/studyhall/internal/entity"
)

// Timestamps are owned by the entities (Normalize stamps them), so automatic
// tracking is disabled on every model and the stored values round-trip
// unchanged.

type userModel struct {
	ID        int64     `gorm:"primaryKey"`
	Subject   string    `gorm:"size:255;not null;uniqueIndex"`
	Nickname  string    `gorm:"size:100"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (userModel) TableName() string { return "users" }

type deckModel struct {
	ID          int64     `gorm:"primaryKey"`
	PublicID    string    `gorm:"size:64;not null;uniqueIndex"`
	UserID      int64     `gorm:"not null;index"`
	Title       string    `gorm:"size:200;not null"`
	Description string    `gorm:"type:text"`
	DocumentID  *int64    `gorm:"index"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (deckModel) TableName() string { return "decks" }

type cardModel struct {
	ID          int64     `gorm:"primaryKey"`
	DeckID      int64     `gorm:"not null;index:idx_cards_deck_position,priority:1"`
	Position    int32     `gorm:"not null;index:idx_cards_deck_position,priority:2"`
	Prompt      string    `gorm:"type:text;not null"`
	Answer      string    `gorm:"type:text;not null"`
	Explanation string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (cardModel) TableName() string { return "cards" }

type documentModel struct {
	ID        int64     `gorm:"primaryKey"`
	PublicID  string    `gorm:"size:64;not null;uniqueIndex"`
	UserID    int64     `gorm:"not null;index"`
	Title     string    `gorm:"size:200;not null"`
	Source    string    `gorm:"size:16;not null"`
	SourceRef string    `gorm:"size:2048"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (documentModel) TableName() string { return "documents" }

type summaryModel struct {
	ID          int64  `gorm:"primaryKey"`
	DocumentID  int64  `gorm:"not null;uniqueIndex:idx_summaries_document_version,priority:1"`
	Version     int32  `gorm:"not null;uniqueIndex:idx_summaries_document_version,priority:2"`
	Text        string `gorm:"type:text;not null"`
	Model       string `gorm:"size:100"`
	GeneratedAt time.Time
}

func (summaryModel) TableName() string { return "summaries" }

type studyRecordModel struct {
	ID          int64             `gorm:"primaryKey"`
	UserID      int64             `gorm:"not null;index"`
	DeckID      int64             `gorm:"not null;index"`
	Mode        string            `gorm:"size:16;not null"`
	Ratings     ratingTallyColumn `gorm:"type:text;not null"`
	StartedAt   time.Time
	CompletedAt time.Time `gorm:"index"`
}

func (studyRecordModel) TableName() string { return "study_records" }

// Migrate creates or updates the schema for every persisted aggregate.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{},
		&deckModel{},
		&cardModel{},
		&documentModel{},
		&summaryModel{},
		&studyRecordModel{},
	)
}

// ratingTallyColumn stores an entity.RatingTally as a JSON object keyed by
// rating name, readable on both postgres and sqlite.
type ratingTallyColumn entity.RatingTally

var (
	_ driver.Valuer = ratingTallyColumn{}
	_ sql.Scanner   = (*ratingTallyColumn)(nil)
)

// Scan implements sql.Scanner for ratingTallyColumn.
func (c *ratingTallyColumn) Scan(src any) error {
	switch data := src.(type) {
	case nil:
		*c = ratingTallyColumn{}
		return nil
	case []byte:
		return c.decode(data)
	case string:
		return c.decode([]byte(data))
	default:
		return fmt.Errorf("ratingTallyColumn: unsupported src type %T", src)
	}
}

func (c *ratingTallyColumn) decode(data []byte) error {
	tally := entity.RatingTally{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &tally); err != nil {
			return fmt.Errorf("decode rating tally: %w", err)
		}
	}
	*c = ratingTallyColumn(tally)
	return nil
}

// Value implements driver.Valuer for ratingTallyColumn.
func (c ratingTallyColumn) Value() (driver.Value, error) {
	if len(c) == 0 {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(entity.RatingTally(c))
	if err != nil {
		return nil, fmt.Errorf("encode rating tally: %w", err)
	}
	return b, nil
}

type orderTerm struct {
	key  string
	desc bool
}

// applyListOrdering appends the bound order terms plus a stable id
// tiebreaker. Keys come from the resource schemas, never from raw input.
func applyListOrdering(tx *gorm.DB, terms ...orderTerm) *gorm.DB {
	for _, term := range terms {
		if term.key == "" {
			continue
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: term.key}, Desc: term.desc})
	}
	return tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}

func normalizeLowerStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	result := make([]string, 0, len(in))
	for _, item := range in {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if _, exists := seen[lower]; exists {
			continue
		}
		seen[lower] = struct{}{}
		result = append(result, lower)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
