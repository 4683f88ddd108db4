package httpapi

import (
	"time"

	"github.com/samber/lo"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
	"github.com/studyhall-app/studyhall/internal/usecase"
)

const _maxPageSize = 10000

// listQuery is the common query-string shape of every list endpoint. Filter
// and order_by carry CEL filter expressions, same syntax on all resources.
type listQuery struct {
	PageNo   int32  `form:"page_no"`
	PageSize int32  `form:"page_size"`
	Filter   string `form:"filter"`
	OrderBy  string `form:"order_by"`
}

func convertPagination(pageNo, pageSize int32) repository.Pagination {
	if pageNo <= 0 {
		pageNo = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > _maxPageSize {
		pageSize = _maxPageSize
	}
	return repository.Pagination{PageNo: pageNo, PageSize: pageSize}
}

type paginationResponse struct {
	Total    int64 `json:"total"`
	PageNo   int32 `json:"page_no"`
	PageSize int32 `json:"page_size"`
}

// --- documents ---

type createDocumentRequest struct {
	Title string `json:"title" binding:"required"`
	Kind  string `json:"kind"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

type documentResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	SourceRef string    `json:"source_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listDocumentsResponse struct {
	Documents  []documentResponse `json:"documents"`
	Pagination paginationResponse `json:"pagination"`
}

type summaryResponse struct {
	DocumentID  string    `json:"document_id"`
	Text        string    `json:"text"`
	Model       string    `json:"model"`
	Version     int32     `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
}

type statusResponse struct {
	DocumentID string    `json:"document_id"`
	Status     string    `json:"status"`
	Progress   int32     `json:"progress"`
	Message    string    `json:"message,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toDocumentResponse(doc *entity.Document) documentResponse {
	return documentResponse{
		ID:        doc.PublicID,
		Title:     doc.Title,
		Source:    string(doc.Source),
		SourceRef: doc.SourceRef,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func toSummaryResponse(documentPublicID string, summary *entity.Summary) summaryResponse {
	return summaryResponse{
		DocumentID:  documentPublicID,
		Text:        summary.Text,
		Model:       summary.Model,
		Version:     summary.Version,
		GeneratedAt: summary.GeneratedAt,
	}
}

func toStatusResponse(update entity.ProcessingUpdate) statusResponse {
	return statusResponse{
		DocumentID: update.DocumentID,
		Status:     string(update.Status),
		Progress:   update.Progress,
		Message:    update.Message,
		UpdatedAt:  update.UpdatedAt,
	}
}

// --- decks and cards ---

type deckRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	DocumentID  string `json:"document_id"`
}

type deckResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	HasSource   bool      `json:"has_source_document"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type listDecksResponse struct {
	Decks      []deckResponse     `json:"decks"`
	Pagination paginationResponse `json:"pagination"`
}

type cardRequest struct {
	Prompt      string `json:"prompt" binding:"required"`
	Answer      string `json:"answer" binding:"required"`
	Explanation string `json:"explanation"`
	Position    int32  `json:"position"`
}

type replaceCardsRequest struct {
	Cards []cardRequest `json:"cards"`
}

type cardResponse struct {
	ID          int64  `json:"id"`
	Position    int32  `json:"position"`
	Prompt      string `json:"prompt"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation,omitempty"`
}

type listCardsResponse struct {
	Cards []cardResponse `json:"cards"`
}

type generateCardsRequest struct {
	Strategy string `json:"strategy"`
	Count    int    `json:"count"`
}

type deckStatsResponse struct {
	TotalCards        int64              `json:"total_cards"`
	SessionsCompleted int64              `json:"sessions_completed"`
	LastStudiedAt     *time.Time         `json:"last_studied_at,omitempty"`
	Ratings           entity.RatingTally `json:"ratings"`
}

func toDeckResponse(deck *entity.Deck) deckResponse {
	return deckResponse{
		ID:          deck.PublicID,
		Title:       deck.Title,
		Description: deck.Description,
		HasSource:   deck.DocumentID != nil,
		CreatedAt:   deck.CreatedAt,
		UpdatedAt:   deck.UpdatedAt,
	}
}

func toCardResponse(card *entity.Card) cardResponse {
	return cardResponse{
		ID:          card.ID,
		Position:    card.Position,
		Prompt:      card.Prompt,
		Answer:      card.Answer,
		Explanation: card.Explanation,
	}
}

func toCardResponses(cards []*entity.Card) []cardResponse {
	return lo.Map(cards, func(card *entity.Card, _ int) cardResponse {
		return toCardResponse(card)
	})
}

func toStatsResponse(stats *entity.DeckStats) deckStatsResponse {
	return deckStatsResponse{
		TotalCards:        stats.TotalCards,
		SessionsCompleted: stats.SessionsCompleted,
		LastStudiedAt:     stats.LastStudiedAt,
		Ratings:           stats.Ratings,
	}
}

// --- sessions ---

type startSessionRequest struct {
	DeckID string `json:"deck_id" binding:"required"`
	Mode   string `json:"mode"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type rateRequest struct {
	Rating string `json:"rating" binding:"required"`
}

type modeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type sessionItemResponse struct {
	Prompt      string  `json:"prompt"`
	Answer      string  `json:"answer,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
	Revealed    bool    `json:"revealed"`
	Submitted   bool    `json:"submitted"`
	UserAnswer  string  `json:"user_answer,omitempty"`
	LastRating  *string `json:"last_rating,omitempty"`
}

type sessionProgressResponse struct {
	CurrentIndex int  `json:"current_index"`
	TotalItems   int  `json:"total_items"`
	IsComplete   bool `json:"is_complete"`
}

type sessionResponse struct {
	ID        string                  `json:"id"`
	DeckID    string                  `json:"deck_id"`
	Mode      string                  `json:"mode"`
	Item      *sessionItemResponse    `json:"item,omitempty"`
	Progress  sessionProgressResponse `json:"progress"`
	Ratings   entity.RatingTally      `json:"ratings"`
	StartedAt time.Time               `json:"started_at"`
}

// toSessionResponse serializes session state for the client. The expected
// answer and explanation are withheld until the answer phase is visible, so
// quiz answers cannot be read out of the payload ahead of submission.
func toSessionResponse(state *usecase.SessionState) sessionResponse {
	resp := sessionResponse{
		ID:     state.ID,
		DeckID: state.DeckPublicID,
		Mode:   state.Mode.String(),
		Progress: sessionProgressResponse{
			CurrentIndex: state.Progress.CurrentIndex,
			TotalItems:   state.Progress.TotalItems,
			IsComplete:   state.Progress.IsComplete,
		},
		Ratings:   state.Ratings,
		StartedAt: state.StartedAt,
	}

	view := state.View
	if view.Complete {
		return resp
	}

	item := &sessionItemResponse{
		Prompt:     view.Item.Prompt,
		Revealed:   view.State.Revealed,
		Submitted:  view.State.Submitted,
		UserAnswer: view.State.UserAnswer,
	}
	if view.State.Revealed || view.State.Submitted {
		item.Answer = view.Item.ExpectedAnswer
		item.Explanation = view.Item.Explanation
	}
	if view.State.LastRating != nil {
		name := view.State.LastRating.String()
		item.LastRating = &name
	}
	resp.Item = item
	return resp
}
