package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/usecase/pipeline"
)

// respondError translates a domain error into an HTTP status and a JSON body.
// The error is also attached to the gin context so the access log carries it.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFromError(err)
	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body = gin.H{"error": "internal server error"}
	}
	c.AbortWithStatusJSON(status, body)
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, entity.ErrDeckNotFound),
		errors.Is(err, entity.ErrCardNotFound),
		errors.Is(err, entity.ErrDocumentNotFound),
		errors.Is(err, entity.ErrSummaryNotFound),
		errors.Is(err, entity.ErrStatusNotFound),
		errors.Is(err, entity.ErrSessionNotFound),
		errors.Is(err, entity.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidDeckTitle),
		errors.Is(err, entity.ErrInvalidCardPrompt),
		errors.Is(err, entity.ErrInvalidCardAnswer),
		errors.Is(err, entity.ErrInvalidStrategy),
		errors.Is(err, entity.ErrInvalidDocumentTitle),
		errors.Is(err, entity.ErrInvalidDocumentSource),
		errors.Is(err, entity.ErrEmptyDocument),
		errors.Is(err, entity.ErrInvalidMode),
		errors.Is(err, entity.ErrInvalidRating),
		errors.Is(err, entity.ErrEmptyAnswer),
		errors.Is(err, entity.ErrEmptySession),
		errors.Is(err, entity.ErrNoSourceDocument),
		errors.Is(err, entity.ErrInvalidUserSubject):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrInvalidOperation),
		errors.Is(err, entity.ErrDuplicateUser):
		return http.StatusConflict
	case errors.Is(err, entity.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, pipeline.ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
