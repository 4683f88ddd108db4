package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/usecase"
)

func (h *Handlers) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode := entity.ModeFlashcard
	if req.Mode != "" {
		parsed, err := entity.ParseSessionMode(req.Mode)
		if err != nil {
			respondError(c, err)
			return
		}
		mode = parsed
	}

	state, err := h.sessions.Start(c.Request.Context(), currentUserID(c), req.DeckID, mode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(state))
}

func (h *Handlers) getSession(c *gin.Context) {
	h.sessionOp(c, h.sessions.Get)
}

func (h *Handlers) revealAnswer(c *gin.Context) {
	h.sessionOp(c, h.sessions.Reveal)
}

func (h *Handlers) submitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.sessionOp(c, func(ctx context.Context, userID int64, id string) (*usecase.SessionState, error) {
		return h.sessions.SubmitAnswer(ctx, userID, id, req.Answer)
	})
}

func (h *Handlers) rateItem(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rating, err := entity.ParseRating(req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sessionOp(c, func(ctx context.Context, userID int64, id string) (*usecase.SessionState, error) {
		return h.sessions.Rate(ctx, userID, id, rating)
	})
}

func (h *Handlers) setSessionMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, err := entity.ParseSessionMode(req.Mode)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sessionOp(c, func(ctx context.Context, userID int64, id string) (*usecase.SessionState, error) {
		return h.sessions.SetMode(ctx, userID, id, mode)
	})
}

func (h *Handlers) restartSession(c *gin.Context) {
	h.sessionOp(c, h.sessions.Restart)
}

func (h *Handlers) endSession(c *gin.Context) {
	if err := h.sessions.End(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// sessionOp runs one state transition against the session named in the path
// and writes the resulting state.
func (h *Handlers) sessionOp(c *gin.Context, op func(ctx context.Context, userID int64, id string) (*usecase.SessionState, error)) {
	state, err := op(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(state))
}
