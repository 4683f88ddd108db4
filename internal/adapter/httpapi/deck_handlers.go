package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
)

func (h *Handlers) createDeck(c *gin.Context) {
	var req deckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := currentUserID(c)
	deck := &entity.Deck{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.DocumentID != "" {
		doc, err := h.documents.Get(c.Request.Context(), userID, req.DocumentID)
		if err != nil {
			respondError(c, err)
			return
		}
		deck.DocumentID = &doc.ID
	}

	created, err := h.decks.Create(c.Request.Context(), userID, deck)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDeckResponse(created))
}

func (h *Handlers) listDecks(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := &repository.ListDeckQuery{
		Pagination: convertPagination(q.PageNo, q.PageSize),
		FilterOrder: repository.FilterOrder{
			Filter:  q.Filter,
			OrderBy: q.OrderBy,
		},
		UserID: currentUserID(c),
	}
	decks, total, err := h.decks.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listDecksResponse{
		Decks: lo.Map(decks, func(deck *entity.Deck, _ int) deckResponse {
			return toDeckResponse(deck)
		}),
		Pagination: paginationResponse{
			Total:    total,
			PageNo:   query.PageNo,
			PageSize: query.PageSize,
		},
	})
}

func (h *Handlers) getDeck(c *gin.Context) {
	deck, err := h.decks.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDeckResponse(deck))
}

func (h *Handlers) updateDeck(c *gin.Context) {
	var req deckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.decks.Update(c.Request.Context(), currentUserID(c), c.Param("id"), &entity.Deck{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDeckResponse(updated))
}

func (h *Handlers) deleteDeck(c *gin.Context) {
	if err := h.decks.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) listCards(c *gin.Context) {
	cards, err := h.decks.ListCards(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listCardsResponse{Cards: toCardResponses(cards)})
}

func (h *Handlers) addCard(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	card, err := h.decks.AddCard(c.Request.Context(), currentUserID(c), c.Param("id"), &entity.Card{
		Prompt:      req.Prompt,
		Answer:      req.Answer,
		Explanation: req.Explanation,
		Position:    req.Position,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCardResponse(card))
}

func (h *Handlers) replaceCards(c *gin.Context) {
	var req replaceCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cards := lo.Map(req.Cards, func(card cardRequest, _ int) *entity.Card {
		return &entity.Card{
			Prompt:      card.Prompt,
			Answer:      card.Answer,
			Explanation: card.Explanation,
			Position:    card.Position,
		}
	})
	replaced, err := h.decks.ReplaceCards(c.Request.Context(), currentUserID(c), c.Param("id"), cards)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listCardsResponse{Cards: toCardResponses(replaced)})
}

func (h *Handlers) updateCard(c *gin.Context) {
	cardID, err := strconv.ParseInt(c.Param("cardID"), 10, 64)
	if err != nil {
		respondError(c, entity.ErrCardNotFound)
		return
	}

	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	card, err := h.decks.UpdateCard(c.Request.Context(), currentUserID(c), c.Param("id"), cardID, &entity.Card{
		Prompt:      req.Prompt,
		Answer:      req.Answer,
		Explanation: req.Explanation,
		Position:    req.Position,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCardResponse(card))
}

func (h *Handlers) deleteCard(c *gin.Context) {
	cardID, err := strconv.ParseInt(c.Param("cardID"), 10, 64)
	if err != nil {
		respondError(c, entity.ErrCardNotFound)
		return
	}
	if err := h.decks.DeleteCard(c.Request.Context(), currentUserID(c), c.Param("id"), cardID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) deckStats(c *gin.Context) {
	stats, err := h.decks.Stats(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatsResponse(stats))
}

func (h *Handlers) generateCards(c *gin.Context) {
	var req generateCardsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	strategy := entity.StrategyQuestionAnswer
	if req.Strategy != "" {
		parsed, err := entity.ParseGenerationStrategy(req.Strategy)
		if err != nil {
			respondError(c, err)
			return
		}
		strategy = parsed
	}

	cards, err := h.decks.GenerateCards(c.Request.Context(), currentUserID(c), c.Param("id"), strategy, req.Count)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listCardsResponse{Cards: toCardResponses(cards)})
}
