package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/middleware"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

type ResultsHandler struct {
	awards  *awards.Service
	catalog CatalogStore
	logger  *zap.Logger
}

func NewResultsHandler(svc *awards.Service, catalog CatalogStore, logger *zap.Logger) *ResultsHandler {
	return &ResultsHandler{awards: svc, catalog: catalog, logger: logger}
}

// GetResults serves the published snapshot, or 403 while results are hidden.
func (h *ResultsHandler) GetResults(c *gin.Context) {
	snap, err := h.awards.PublicResults(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err, "Results not found")
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *ResultsHandler) GetVisibility(c *gin.Context) {
	public, err := h.awards.ResultsPublic(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err, "Setting not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results_public": public})
}

// SetVisibility (admin) opens or closes the results gate.
func (h *ResultsHandler) SetVisibility(c *gin.Context) {
	var input models.VisibilityRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "results_public is required"})
		return
	}
	if err := h.awards.SetResultsPublic(c.Request.Context(), middleware.CallerFrom(c), *input.ResultsPublic); err != nil {
		writeError(c, h.logger, err, "Setting not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results_public": *input.ResultsPublic})
}

// Recompute (admin) rebuilds the snapshot from the ballots.
func (h *ResultsHandler) Recompute(c *gin.Context) {
	report, err := h.awards.Recompute(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		writeError(c, h.logger, err, "Results not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Results calculated successfully",
		"report":  report,
	})
}

// GetAdminResults (admin) serves the snapshot regardless of the gate.
func (h *ResultsHandler) GetAdminResults(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	ctx := c.Request.Context()

	snap, err := h.awards.Results(ctx, caller)
	if err != nil {
		writeError(c, h.logger, err, "Results not found")
		return
	}
	public, err := h.awards.ResultsPublic(ctx)
	if err != nil {
		writeError(c, h.logger, err, "Setting not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results_public": public,
		"computed_at":    snap.ComputedAt,
		"categories":     snap.Categories,
	})
}

// GetStandings (admin) returns the full live ranking of one category,
// including nominees outside the published top entries.
func (h *ResultsHandler) GetStandings(c *gin.Context) {
	ctx := c.Request.Context()
	category, err := h.catalog.CategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}

	standings, err := h.awards.Standings(ctx, middleware.CallerFrom(c), category.ID)
	if err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}
	if standings == nil {
		standings = []awards.Standing{}
	}
	w := h.awards.Weights()
	c.JSON(http.StatusOK, gin.H{
		"category":  category,
		"weights":   gin.H{"public": w.Public, "jury": w.Jury},
		"standings": standings,
	})
}
