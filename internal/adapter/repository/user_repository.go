package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
)

// UserRepository persists locally synced user records through GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a GORM-backed repository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetBySubject(ctx context.Context, subject string) (*entity.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("subject = ?", subject).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return mapUserModel(&row), nil
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	row := newUserModel(user)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, entity.ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return mapUserModel(&row), nil
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) (*entity.User, error) {
	res := r.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"nickname":   user.Nickname,
			"updated_at": user.UpdatedAt,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, entity.ErrUserNotFound
	}

	var row userModel
	if err := r.db.WithContext(ctx).First(&row, user.ID).Error; err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return mapUserModel(&row), nil
}

func newUserModel(user *entity.User) userModel {
	return userModel{
		ID:        user.ID,
		Subject:   user.Subject,
		Nickname:  user.Nickname,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func mapUserModel(row *userModel) *entity.User {
	if row == nil {
		return nil
	}
	return &entity.User{
		ID:        row.ID,
		Subject:   row.Subject,
		Nickname:  row.Nickname,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
