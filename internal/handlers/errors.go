package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/middleware"
)

// writeError maps awards errors to HTTP statuses. notFound is the message
// used for ErrNotFound so each handler can name what was missing.
func writeError(c *gin.Context, logger *zap.Logger, err error, notFound string) {
	var aggErr *awards.AggregationError
	switch {
	case errors.Is(err, awards.ErrDuplicateVote):
		c.JSON(http.StatusConflict, gin.H{"error": "You already voted in this category"})
	case errors.Is(err, awards.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, awards.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, awards.ErrResultsHidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Results are not public yet"})
	case errors.Is(err, awards.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, awards.ErrNomineeHasBallots):
		c.JSON(http.StatusConflict, gin.H{"error": "Nominee already has votes and cannot move to another category"})
	case errors.Is(err, awards.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Already exists"})
	case errors.Is(err, awards.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &aggErr):
		middleware.LoggerFrom(c, logger).Error("results aggregation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": aggErr.Error()})
	default:
		middleware.LoggerFrom(c, logger).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
