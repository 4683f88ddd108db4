package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
)

// SessionState is the snapshot returned by every session operation: enough
// for a client to render the current card, the position, and the running
// rating tally without further calls.
type SessionState struct {
	ID           string
	DeckPublicID string
	Mode         entity.SessionMode
	View         entity.SessionView
	Progress     entity.SessionProgress
	Ratings      entity.RatingTally
	StartedAt    time.Time
}

// SessionUsecase drives live review sessions over a deck's cards. Every
// operation verifies ownership and returns the post-operation state; failed
// operations leave the session untouched.
type SessionUsecase interface {
	Start(ctx context.Context, userID int64, deckPublicID string, mode entity.SessionMode) (*SessionState, error)
	Get(ctx context.Context, userID int64, sessionID string) (*SessionState, error)
	Reveal(ctx context.Context, userID int64, sessionID string) (*SessionState, error)
	SubmitAnswer(ctx context.Context, userID int64, sessionID, answer string) (*SessionState, error)
	Rate(ctx context.Context, userID int64, sessionID string, rating entity.Rating) (*SessionState, error)
	SetMode(ctx context.Context, userID int64, sessionID string, mode entity.SessionMode) (*SessionState, error)
	Restart(ctx context.Context, userID int64, sessionID string) (*SessionState, error)
	End(ctx context.Context, userID int64, sessionID string) error
}

// NewSessionUsecase wires the session store with the deck source and the
// study-record sink.
func NewSessionUsecase(
	store repository.SessionStore,
	decks repository.DeckRepository,
	records repository.StudyRecordRepository,
	logger *logrus.Logger,
) SessionUsecase {
	return &sessionUsecase{
		store:   store,
		decks:   decks,
		records: records,
		logger:  logger,
		clock:   time.Now,
		newID:   uuid.NewString,
	}
}

type sessionUsecase struct {
	store   repository.SessionStore
	decks   repository.DeckRepository
	records repository.StudyRecordRepository
	logger  *logrus.Logger
	clock   func() time.Time
	newID   func() string
}

func (u *sessionUsecase) Start(ctx context.Context, userID int64, deckPublicID string, mode entity.SessionMode) (*SessionState, error) {
	deck, err := u.decks.GetByPublicID(ctx, userID, deckPublicID)
	if err != nil {
		return nil, err
	}
	cards, err := u.decks.ListCards(ctx, deck.ID)
	if err != nil {
		return nil, err
	}

	items := make([]entity.ReviewItem, 0, len(cards))
	for _, card := range cards {
		items = append(items, card.ReviewItem())
	}
	sess, err := entity.NewReviewSession(items, mode)
	if err != nil {
		return nil, err
	}

	now := u.clock()
	live := &repository.LiveSession{
		ID:           u.newID(),
		UserID:       userID,
		DeckID:       deck.ID,
		DeckPublicID: deck.PublicID,
		Session:      sess,
		Ratings:      entity.RatingTally{},
		StartedAt:    now,
		LastSeen:     now,
	}
	if err := u.store.Put(ctx, live); err != nil {
		return nil, err
	}

	u.logger.WithFields(logrus.Fields{
		"session": live.ID,
		"deck":    deck.PublicID,
		"mode":    mode.String(),
		"items":   len(items),
	}).Info("review session started")
	return snapshotSession(live), nil
}

func (u *sessionUsecase) Get(ctx context.Context, userID int64, sessionID string) (*SessionState, error) {
	return u.withSession(ctx, userID, sessionID, func(*repository.LiveSession) error { return nil })
}

func (u *sessionUsecase) Reveal(ctx context.Context, userID int64, sessionID string) (*SessionState, error) {
	return u.withSession(ctx, userID, sessionID, func(live *repository.LiveSession) error {
		return live.Session.Reveal()
	})
}

func (u *sessionUsecase) SubmitAnswer(ctx context.Context, userID int64, sessionID, answer string) (*SessionState, error) {
	return u.withSession(ctx, userID, sessionID, func(live *repository.LiveSession) error {
		return live.Session.SubmitAnswer(answer)
	})
}

func (u *sessionUsecase) Rate(ctx context.Context, userID int64, sessionID string, rating entity.Rating) (*SessionState, error) {
	return u.withSession(ctx, userID, sessionID, func(live *repository.LiveSession) error {
		if err := live.Session.Rate(rating); err != nil {
			return err
		}
		live.Ratings.Add(rating)
		if live.Session.Progress().IsComplete {
			u.recordCompletion(ctx, live)
		}
		return nil
	})
}

func (u *sessionUsecase) SetMode(ctx context.Context, userID int64, sessionID string, mode entity.SessionMode) (*SessionState, error) {
	return u.withSession(ctx, userID, sessionID, func(live *repository.LiveSession) error {
		return live.Session.SetMode(mode)
	})
}

// Restart begins a fresh run over the same deck: the rating tally and start
// time reset together with the session position.
func (u *sessionUsecase) Restart(ctx context.Context, userID int64, sessionID string) (*SessionState, error) {
	return u.withSession(ctx, userID, sessionID, func(live *repository.LiveSession) error {
		live.Session.Restart()
		live.Ratings = entity.RatingTally{}
		live.StartedAt = u.clock()
		return nil
	})
}

func (u *sessionUsecase) End(ctx context.Context, userID int64, sessionID string) error {
	if _, err := u.Get(ctx, userID, sessionID); err != nil {
		return err
	}
	return u.store.Delete(ctx, sessionID)
}

// withSession runs fn on the owned session under the store's per-session
// lock and returns the resulting snapshot. Sessions owned by other users are
// reported as not found.
func (u *sessionUsecase) withSession(ctx context.Context, userID int64, sessionID string, fn func(*repository.LiveSession) error) (*SessionState, error) {
	var state *SessionState
	err := u.store.Update(ctx, sessionID, func(live *repository.LiveSession) error {
		if live.UserID != userID {
			return entity.ErrSessionNotFound
		}
		if err := fn(live); err != nil {
			return err
		}
		live.LastSeen = u.clock()
		state = snapshotSession(live)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// recordCompletion persists the finished run as a study record. The session
// operation itself already succeeded, so a failed write is logged rather
// than surfaced.
func (u *sessionUsecase) recordCompletion(ctx context.Context, live *repository.LiveSession) {
	record := &entity.StudyRecord{
		UserID:      live.UserID,
		DeckID:      live.DeckID,
		Mode:        live.Session.Mode(),
		Ratings:     live.Ratings.Clone(),
		StartedAt:   live.StartedAt,
		CompletedAt: u.clock(),
	}
	if _, err := u.records.Create(ctx, record); err != nil {
		u.logger.WithField("session", live.ID).Warnf("failed to persist study record: %v", err)
		return
	}
	u.logger.WithFields(logrus.Fields{
		"session": live.ID,
		"deck":    live.DeckPublicID,
		"items":   live.Ratings.Total(),
	}).Info("review session completed")
}

func snapshotSession(live *repository.LiveSession) *SessionState {
	return &SessionState{
		ID:           live.ID,
		DeckPublicID: live.DeckPublicID,
		Mode:         live.Session.Mode(),
		View:         live.Session.View(),
		Progress:     live.Session.Progress(),
		Ratings:      live.Ratings.Clone(),
		StartedAt:    live.StartedAt,
	}
}
