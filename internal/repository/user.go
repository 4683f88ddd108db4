package repository

import (
	"context"

	"github.com/studyhall-app/studyhall/internal/entity"
)

// UserRepository abstracts persistence for locally synced user records.
type UserRepository interface {
	GetBySubject(ctx context.Context, subject string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) (*entity.User, error)
}
