// Package httpapi exposes the application over a JSON REST surface built on
// gin. Handlers stay thin: bind, delegate to a usecase, translate the result.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/studyhall-app/studyhall/internal/usecase"
)

// Handlers bundles the usecases behind the REST surface.
type Handlers struct {
	auth      AuthConfig
	rateLimit float64
	rateBurst int
	logger    *logrus.Logger

	users     usecase.UserUsecase
	documents usecase.DocumentUsecase
	decks     usecase.DeckUsecase
	sessions  usecase.SessionUsecase
}

// NewHandlers wires the usecases into a handler set ready for NewRouter.
func NewHandlers(
	auth AuthConfig,
	rateLimit float64,
	rateBurst int,
	logger *logrus.Logger,
	users usecase.UserUsecase,
	documents usecase.DocumentUsecase,
	decks usecase.DeckUsecase,
	sessions usecase.SessionUsecase,
) *Handlers {
	return &Handlers{
		auth:      auth,
		rateLimit: rateLimit,
		rateBurst: rateBurst,
		logger:    logger,
		users:     users,
		documents: documents,
		decks:     decks,
		sessions:  sessions,
	}
}

// NewRouter assembles the gin engine: recovery and access logging on
// everything, rate limiting and token auth on the API group.
func NewRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(Recovery(h.logger), AccessLog(h.logger))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	api.Use(RateLimit(h.rateLimit, h.rateBurst))
	api.Use(Auth(h.auth, h.users, h.logger))

	documents := api.Group("/documents")
	{
		documents.POST("", h.createDocument)
		documents.GET("", h.listDocuments)
		documents.GET("/:id", h.getDocument)
		documents.DELETE("/:id", h.deleteDocument)
		documents.GET("/:id/summary", h.getSummary)
		documents.GET("/:id/status", h.getStatus)
		documents.GET("/:id/status/watch", h.watchStatus)
	}

	decks := api.Group("/decks")
	{
		decks.POST("", h.createDeck)
		decks.GET("", h.listDecks)
		decks.GET("/:id", h.getDeck)
		decks.PUT("/:id", h.updateDeck)
		decks.DELETE("/:id", h.deleteDeck)

		decks.GET("/:id/cards", h.listCards)
		decks.POST("/:id/cards", h.addCard)
		decks.PUT("/:id/cards", h.replaceCards)
		decks.PUT("/:id/cards/:cardID", h.updateCard)
		decks.DELETE("/:id/cards/:cardID", h.deleteCard)

		decks.GET("/:id/stats", h.deckStats)
		decks.POST("/:id/generate", h.generateCards)
		decks.GET("/:id/export.pdf", h.exportDeck)
	}

	sessions := api.Group("/sessions")
	{
		sessions.POST("", h.startSession)
		sessions.GET("/:id", h.getSession)
		sessions.POST("/:id/reveal", h.revealAnswer)
		sessions.POST("/:id/answer", h.submitAnswer)
		sessions.POST("/:id/rate", h.rateItem)
		sessions.PUT("/:id/mode", h.setSessionMode)
		sessions.POST("/:id/restart", h.restartSession)
		sessions.DELETE("/:id", h.endSession)
	}

	return engine
}
