package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
)

// UserUsecase keeps local user records in sync with the external identity
// provider. Authentication itself happens elsewhere; by the time Sync runs
// the subject has already been verified.
type UserUsecase interface {
	// Sync returns the local user for the given provider subject, creating
	// the record on first sight and refreshing the nickname when it changed.
	Sync(ctx context.Context, subject, nickname string) (*entity.User, error)
}

// NewUserUsecase wires the repository with default behaviour.
func NewUserUsecase(repo repository.UserRepository) UserUsecase {
	return &userUsecase{repo: repo, clock: time.Now}
}

type userUsecase struct {
	repo  repository.UserRepository
	clock func() time.Time
}

func (u *userUsecase) Sync(ctx context.Context, subject, nickname string) (*entity.User, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, entity.ErrInvalidUserSubject
	}
	nickname = strings.TrimSpace(nickname)

	existing, err := u.repo.GetBySubject(ctx, subject)
	if err == nil {
		if nickname != "" && nickname != existing.Nickname {
			existing.Nickname = nickname
			existing.Normalize(u.clock())
			return u.repo.Update(ctx, existing)
		}
		return existing, nil
	}
	if !errors.Is(err, entity.ErrUserNotFound) {
		return nil, err
	}

	user := &entity.User{Subject: subject, Nickname: nickname}
	user.Normalize(u.clock())
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return u.repo.Create(ctx, user)
}
