package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
	"github.com/studyhall-app/studyhall/internal/usecase"
	"github.com/studyhall-app/studyhall/internal/usecase/pipeline"
)

const (
	testSecret = "router-test-secret"
	testIssuer = "studyhall"
)

type fakeUserUsecase struct {
	err          error
	lastSubject  string
	lastNickname string
}

func (f *fakeUserUsecase) Sync(_ context.Context, subject, nickname string) (*entity.User, error) {
	f.lastSubject = subject
	f.lastNickname = nickname
	if f.err != nil {
		return nil, f.err
	}
	return &entity.User{ID: 7, Subject: subject, Nickname: nickname}, nil
}

type fakeDeckUsecase struct {
	err       error
	deck      *entity.Deck
	decks     []*entity.Deck
	total     int64
	cards     []*entity.Card
	stats     *entity.DeckStats
	lastQuery *repository.ListDeckQuery
}

func (f *fakeDeckUsecase) Create(_ context.Context, userID int64, deck *entity.Deck) (*entity.Deck, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *deck
	out.ID = 1
	out.UserID = userID
	out.PublicID = "dk_test"
	return &out, nil
}

func (f *fakeDeckUsecase) Update(_ context.Context, _ int64, _ string, deck *entity.Deck) (*entity.Deck, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *deck
	out.PublicID = "dk_test"
	return &out, nil
}

func (f *fakeDeckUsecase) Get(context.Context, int64, string) (*entity.Deck, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.deck, nil
}

func (f *fakeDeckUsecase) List(_ context.Context, query *repository.ListDeckQuery) ([]*entity.Deck, int64, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.decks, f.total, nil
}

func (f *fakeDeckUsecase) Delete(context.Context, int64, string) error { return f.err }

func (f *fakeDeckUsecase) AddCard(_ context.Context, _ int64, _ string, card *entity.Card) (*entity.Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *card
	out.ID = 11
	if out.Position <= 0 {
		out.Position = 1
	}
	return &out, nil
}

func (f *fakeDeckUsecase) UpdateCard(_ context.Context, _ int64, _ string, cardID int64, card *entity.Card) (*entity.Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *card
	out.ID = cardID
	return &out, nil
}

func (f *fakeDeckUsecase) ListCards(context.Context, int64, string) ([]*entity.Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cards, nil
}

func (f *fakeDeckUsecase) DeleteCard(context.Context, int64, string, int64) error { return f.err }

func (f *fakeDeckUsecase) ReplaceCards(_ context.Context, _ int64, _ string, cards []*entity.Card) ([]*entity.Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*entity.Card, len(cards))
	for i, card := range cards {
		clone := *card
		clone.ID = int64(i + 1)
		clone.Position = int32(i + 1)
		out[i] = &clone
	}
	return out, nil
}

func (f *fakeDeckUsecase) Stats(context.Context, int64, string) (*entity.DeckStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func (f *fakeDeckUsecase) GenerateCards(context.Context, int64, string, entity.GenerationStrategy, int) ([]*entity.Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cards, nil
}

type fakeDocumentUsecase struct {
	err     error
	doc     *entity.Document
	docs    []*entity.Document
	total   int64
	summary *entity.Summary
	status  entity.ProcessingUpdate
	updates chan entity.ProcessingUpdate
}

func (f *fakeDocumentUsecase) CreateFromText(_ context.Context, userID int64, title, _ string, kind entity.SourceKind) (*entity.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Document{ID: 1, PublicID: "doc_test", UserID: userID, Title: title, Source: kind}, nil
}

func (f *fakeDocumentUsecase) CreateFromURL(_ context.Context, userID int64, title, rawURL string) (*entity.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Document{ID: 1, PublicID: "doc_test", UserID: userID, Title: title, Source: entity.SourceURL, SourceRef: rawURL}, nil
}

func (f *fakeDocumentUsecase) Get(context.Context, int64, string) (*entity.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

func (f *fakeDocumentUsecase) List(_ context.Context, _ *repository.ListDocumentQuery) ([]*entity.Document, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.docs, f.total, nil
}

func (f *fakeDocumentUsecase) Delete(context.Context, int64, string) error { return f.err }

func (f *fakeDocumentUsecase) Summary(context.Context, int64, string) (*entity.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func (f *fakeDocumentUsecase) Status(context.Context, int64, string) (entity.ProcessingUpdate, error) {
	return f.status, f.err
}

func (f *fakeDocumentUsecase) Watch(context.Context, int64, string) (<-chan entity.ProcessingUpdate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.updates, nil
}

type fakeSessionUsecase struct {
	err        error
	state      *usecase.SessionState
	lastAnswer string
	lastRating entity.Rating
	lastMode   entity.SessionMode
	ended      bool
}

func (f *fakeSessionUsecase) Start(_ context.Context, _ int64, _ string, mode entity.SessionMode) (*usecase.SessionState, error) {
	f.lastMode = mode
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func (f *fakeSessionUsecase) Get(context.Context, int64, string) (*usecase.SessionState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func (f *fakeSessionUsecase) Reveal(context.Context, int64, string) (*usecase.SessionState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func (f *fakeSessionUsecase) SubmitAnswer(_ context.Context, _ int64, _, answer string) (*usecase.SessionState, error) {
	f.lastAnswer = answer
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func (f *fakeSessionUsecase) Rate(_ context.Context, _ int64, _ string, rating entity.Rating) (*usecase.SessionState, error) {
	f.lastRating = rating
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func (f *fakeSessionUsecase) SetMode(_ context.Context, _ int64, _ string, mode entity.SessionMode) (*usecase.SessionState, error) {
	f.lastMode = mode
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func (f *fakeSessionUsecase) Restart(context.Context, int64, string) (*usecase.SessionState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func (f *fakeSessionUsecase) End(context.Context, int64, string) error {
	f.ended = true
	return f.err
}

type routerFixture struct {
	router    *gin.Engine
	users     *fakeUserUsecase
	documents *fakeDocumentUsecase
	decks     *fakeDeckUsecase
	sessions  *fakeSessionUsecase
}

func newRouterFixture() *routerFixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	fx := &routerFixture{
		users:     &fakeUserUsecase{},
		documents: &fakeDocumentUsecase{},
		decks:     &fakeDeckUsecase{},
		sessions:  &fakeSessionUsecase{},
	}
	h := NewHandlers(
		AuthConfig{Secret: testSecret, Issuer: testIssuer},
		0, 0,
		logger,
		fx.users, fx.documents, fx.decks, fx.sessions,
	)
	fx.router = NewRouter(h)
	return fx
}

func signToken(t *testing.T, secret, issuer, subject, nickname string) string {
	t.Helper()
	claims := authClaims{
		Nickname: nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doRequest(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthzSkipsAuth(t *testing.T) {
	fx := newRouterFixture()
	w := doRequest(fx.router, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAuthMissingToken(t *testing.T) {
	fx := newRouterFixture()
	w := doRequest(fx.router, http.MethodGet, "/api/v1/decks", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMalformedToken(t *testing.T) {
	fx := newRouterFixture()
	w := doRequest(fx.router, http.MethodGet, "/api/v1/decks", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthWrongIssuer(t *testing.T) {
	fx := newRouterFixture()
	token := signToken(t, testSecret, "someone-else", "auth0|u1", "Ada")
	w := doRequest(fx.router, http.MethodGet, "/api/v1/decks", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthWrongSecret(t *testing.T) {
	fx := newRouterFixture()
	token := signToken(t, "other-secret", testIssuer, "auth0|u1", "Ada")
	w := doRequest(fx.router, http.MethodGet, "/api/v1/decks", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthSyncsUser(t *testing.T) {
	fx := newRouterFixture()
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodGet, "/api/v1/decks", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if fx.users.lastSubject != "auth0|u1" {
		t.Errorf("synced subject = %q, want %q", fx.users.lastSubject, "auth0|u1")
	}
	if fx.users.lastNickname != "Ada" {
		t.Errorf("synced nickname = %q, want %q", fx.users.lastNickname, "Ada")
	}
	if fx.decks.lastQuery == nil || fx.decks.lastQuery.UserID != 7 {
		t.Errorf("list query user = %+v, want user id 7", fx.decks.lastQuery)
	}
}

func TestCreateDeck(t *testing.T) {
	fx := newRouterFixture()
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodPost, "/api/v1/decks", token, map[string]any{
		"title":       "Biology",
		"description": "Cell structure",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp deckResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "dk_test" {
		t.Errorf("id = %q, want %q", resp.ID, "dk_test")
	}
	if resp.Title != "Biology" {
		t.Errorf("title = %q, want %q", resp.Title, "Biology")
	}
}

func TestCreateDeckRequiresTitle(t *testing.T) {
	fx := newRouterFixture()
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodPost, "/api/v1/decks", token, map[string]any{
		"description": "no title",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetDeckNotFound(t *testing.T) {
	fx := newRouterFixture()
	fx.decks.err = entity.ErrDeckNotFound
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodGet, "/api/v1/decks/nope", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != entity.ErrDeckNotFound.Error() {
		t.Errorf("error = %q, want %q", body["error"], entity.ErrDeckNotFound.Error())
	}
}

func TestListDecksQueryBinding(t *testing.T) {
	fx := newRouterFixture()
	fx.decks.total = 42
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodGet, "/api/v1/decks?page_no=2&page_size=5&filter=title.startsWith(%22bio%22)&order_by=created_at%20desc", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}

	query := fx.decks.lastQuery
	if query == nil {
		t.Fatal("list query not captured")
	}
	if query.PageNo != 2 || query.PageSize != 5 {
		t.Errorf("pagination = %d/%d, want 2/5", query.PageNo, query.PageSize)
	}
	if query.Filter != `title.startsWith("bio")` {
		t.Errorf("filter = %q", query.Filter)
	}
	if query.OrderBy != "created_at desc" {
		t.Errorf("order_by = %q", query.OrderBy)
	}

	var resp listDecksResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Pagination.Total != 42 {
		t.Errorf("total = %d, want 42", resp.Pagination.Total)
	}
}

func quizState(revealed, submitted bool) *usecase.SessionState {
	return &usecase.SessionState{
		ID:           "sess-1",
		DeckPublicID: "dk_test",
		Mode:         entity.ModeQuiz,
		View: entity.SessionView{
			Item: entity.ReviewItem{
				Prompt:         "Powerhouse of the cell?",
				ExpectedAnswer: "Mitochondria",
				Explanation:    "It produces ATP.",
			},
			Index: 0,
			Total: 2,
			State: entity.ItemState{Revealed: revealed, Submitted: submitted, UserAnswer: ""},
		},
		Progress:  entity.SessionProgress{CurrentIndex: 0, TotalItems: 2},
		Ratings:   entity.RatingTally{},
		StartedAt: time.Now(),
	}
}

func TestStartSessionHidesAnswer(t *testing.T) {
	fx := newRouterFixture()
	fx.sessions.state = quizState(false, false)
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodPost, "/api/v1/sessions", token, map[string]any{
		"deck_id": "dk_test",
		"mode":    "quiz",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body.String())
	}
	if fx.sessions.lastMode != entity.ModeQuiz {
		t.Errorf("mode = %v, want quiz", fx.sessions.lastMode)
	}

	var resp sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Item == nil {
		t.Fatal("item missing")
	}
	if resp.Item.Prompt != "Powerhouse of the cell?" {
		t.Errorf("prompt = %q", resp.Item.Prompt)
	}
	if resp.Item.Answer != "" {
		t.Errorf("answer leaked before submission: %q", resp.Item.Answer)
	}
	if strings.Contains(w.Body.String(), "Mitochondria") {
		t.Error("expected answer present in raw payload")
	}
}

func TestSubmittedAnswerBecomesVisible(t *testing.T) {
	fx := newRouterFixture()
	state := quizState(false, true)
	state.View.State.UserAnswer = "mitochondria"
	fx.sessions.state = state
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodPost, "/api/v1/sessions/sess-1/answer", token, map[string]any{
		"answer": "mitochondria",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if fx.sessions.lastAnswer != "mitochondria" {
		t.Errorf("submitted answer = %q", fx.sessions.lastAnswer)
	}

	var resp sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Item == nil || resp.Item.Answer != "Mitochondria" {
		t.Fatalf("item = %+v, want visible answer", resp.Item)
	}
	if resp.Item.Explanation != "It produces ATP." {
		t.Errorf("explanation = %q", resp.Item.Explanation)
	}
}

func TestCompleteSessionOmitsItem(t *testing.T) {
	fx := newRouterFixture()
	fx.sessions.state = &usecase.SessionState{
		ID:           "sess-1",
		DeckPublicID: "dk_test",
		Mode:         entity.ModeFlashcard,
		View:         entity.SessionView{Complete: true, Index: 2, Total: 2},
		Progress:     entity.SessionProgress{CurrentIndex: 2, TotalItems: 2, IsComplete: true},
		Ratings:      entity.RatingTally{entity.RatingGood: 2},
		StartedAt:    time.Now(),
	}
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodGet, "/api/v1/sessions/sess-1", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Item != nil {
		t.Errorf("item = %+v, want omitted on complete", resp.Item)
	}
	if !resp.Progress.IsComplete {
		t.Error("progress not complete")
	}
	if resp.Ratings[entity.RatingGood] != 2 {
		t.Errorf("ratings = %v", resp.Ratings)
	}
}

func TestRateRejectsUnknownRating(t *testing.T) {
	fx := newRouterFixture()
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodPost, "/api/v1/sessions/sess-1/rate", token, map[string]any{
		"rating": "meh",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRateBeforeRevealConflicts(t *testing.T) {
	fx := newRouterFixture()
	fx.sessions.err = entity.ErrInvalidOperation
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodPost, "/api/v1/sessions/sess-1/rate", token, map[string]any{
		"rating": "good",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestEndSession(t *testing.T) {
	fx := newRouterFixture()
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodDelete, "/api/v1/sessions/sess-1", token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if !fx.sessions.ended {
		t.Error("End not called")
	}
}

func TestCreateDocumentAccepted(t *testing.T) {
	fx := newRouterFixture()
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodPost, "/api/v1/documents", token, map[string]any{
		"title": "Lecture notes",
		"kind":  "markdown",
		"text":  "# Cells\nMitochondria produce ATP.",
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusAccepted, w.Body.String())
	}

	var resp documentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Source != "markdown" {
		t.Errorf("source = %q, want markdown", resp.Source)
	}
}

func TestCreateDocumentRejectsUnknownKind(t *testing.T) {
	fx := newRouterFixture()
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodPost, "/api/v1/documents", token, map[string]any{
		"title": "Notes",
		"kind":  "spreadsheet",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestWatchStatusStreamsEvents(t *testing.T) {
	fx := newRouterFixture()
	updates := make(chan entity.ProcessingUpdate, 2)
	updates <- entity.ProcessingUpdate{DocumentID: "doc_test", Status: entity.StatusExtracting, Progress: 40}
	updates <- entity.ProcessingUpdate{DocumentID: "doc_test", Status: entity.StatusComplete, Progress: 100}
	close(updates)
	fx.documents.updates = updates
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodGet, "/api/v1/documents/doc_test/status/watch", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "event:status") {
		t.Errorf("body missing status events: %q", body)
	}
	if !strings.Contains(body, `"progress":40`) || !strings.Contains(body, `"progress":100`) {
		t.Errorf("body missing progress payloads: %q", body)
	}
}

func TestExportDeckPDF(t *testing.T) {
	fx := newRouterFixture()
	fx.decks.deck = &entity.Deck{PublicID: "dk_test", Title: "Biology"}
	fx.decks.cards = []*entity.Card{
		{ID: 1, Position: 1, Prompt: "Powerhouse of the cell?", Answer: "Mitochondria"},
	}
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	w := doRequest(fx.router, http.MethodGet, "/api/v1/decks/dk_test/export.pdf", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("content type = %q, want application/pdf", got)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF document")
	}
}

func TestRateLimitExceeded(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	fx := &routerFixture{
		users:     &fakeUserUsecase{},
		documents: &fakeDocumentUsecase{},
		decks:     &fakeDeckUsecase{},
		sessions:  &fakeSessionUsecase{},
	}
	h := NewHandlers(
		AuthConfig{Secret: testSecret, Issuer: testIssuer},
		1, 1,
		logger,
		fx.users, fx.documents, fx.decks, fx.sessions,
	)
	fx.router = NewRouter(h)
	token := signToken(t, testSecret, testIssuer, "auth0|u1", "Ada")

	first := doRequest(fx.router, http.MethodGet, "/api/v1/decks", token, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d, want %d", first.Code, http.StatusOK)
	}
	second := doRequest(fx.router, http.MethodGet, "/api/v1/decks", token, nil)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want %d", second.Code, http.StatusTooManyRequests)
	}
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{entity.ErrDeckNotFound, http.StatusNotFound},
		{entity.ErrSessionNotFound, http.StatusNotFound},
		{entity.ErrSummaryNotFound, http.StatusNotFound},
		{entity.ErrInvalidDeckTitle, http.StatusBadRequest},
		{entity.ErrEmptyAnswer, http.StatusBadRequest},
		{entity.ErrNoSourceDocument, http.StatusBadRequest},
		{entity.ErrInvalidOperation, http.StatusConflict},
		{entity.ErrDuplicateUser, http.StatusConflict},
		{entity.ErrAccessDenied, http.StatusForbidden},
		{pipeline.ErrQueueFull, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFromError(tt.err); got != tt.want {
			t.Errorf("statusFromError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestConvertPagination(t *testing.T) {
	tests := []struct {
		pageNo, pageSize int32
		wantNo, wantSize int32
	}{
		{0, 0, 1, 20},
		{-3, -1, 1, 20},
		{2, 50, 2, 50},
		{1, 20000, 1, 10000},
	}
	for _, tt := range tests {
		got := convertPagination(tt.pageNo, tt.pageSize)
		if got.PageNo != tt.wantNo || got.PageSize != tt.wantSize {
			t.Errorf("convertPagination(%d, %d) = %d/%d, want %d/%d",
				tt.pageNo, tt.pageSize, got.PageNo, got.PageSize, tt.wantNo, tt.wantSize)
		}
	}
}
