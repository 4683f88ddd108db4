package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/repository"
)

func (h *Handlers) createDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, err := entity.ParseSourceKind(req.Kind)
	if req.Kind == "" {
		kind, err = entity.SourceText, nil
	}
	if err != nil {
		respondError(c, err)
		return
	}

	userID := currentUserID(c)
	var doc *entity.Document
	if kind == entity.SourceURL {
		doc, err = h.documents.CreateFromURL(c.Request.Context(), userID, req.Title, req.URL)
	} else {
		doc, err = h.documents.CreateFromText(c.Request.Context(), userID, req.Title, req.Text, kind)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	// Processing continues in the background; poll or watch the status
	// endpoint for summary readiness.
	c.JSON(http.StatusAccepted, toDocumentResponse(doc))
}

func (h *Handlers) listDocuments(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := &repository.ListDocumentQuery{
		Pagination: convertPagination(q.PageNo, q.PageSize),
		FilterOrder: repository.FilterOrder{
			Filter:  q.Filter,
			OrderBy: q.OrderBy,
		},
		UserID: currentUserID(c),
	}
	docs, total, err := h.documents.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listDocumentsResponse{
		Documents: lo.Map(docs, func(doc *entity.Document, _ int) documentResponse {
			return toDocumentResponse(doc)
		}),
		Pagination: paginationResponse{
			Total:    total,
			PageNo:   query.PageNo,
			PageSize: query.PageSize,
		},
	})
}

func (h *Handlers) getDocument(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDocumentResponse(doc))
}

func (h *Handlers) deleteDocument(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) getSummary(c *gin.Context) {
	publicID := c.Param("id")
	summary, err := h.documents.Summary(c.Request.Context(), currentUserID(c), publicID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSummaryResponse(publicID, summary))
}

func (h *Handlers) getStatus(c *gin.Context) {
	update, err := h.documents.Status(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatusResponse(update))
}

// watchStatus streams processing updates as server-sent events until the
// document reaches a terminal state or the client goes away.
func (h *Handlers) watchStatus(c *gin.Context) {
	updates, err := h.documents.Watch(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		update, ok := <-updates
		if !ok {
			return false
		}
		c.SSEvent("status", toStatusResponse(update))
		return true
	})
}
