package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emilythestrangee/anime-awards/backend/internal/middleware"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

type NomineeHandler struct {
	catalog CatalogStore
	logger  *zap.Logger
}

func NewNomineeHandler(catalog CatalogStore, logger *zap.Logger) *NomineeHandler {
	return &NomineeHandler{catalog: catalog, logger: logger}
}

func (h *NomineeHandler) GetNominees(c *gin.Context) {
	nominees, err := h.catalog.AllNominees(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err, "Nominee not found")
		return
	}
	if nominees == nil {
		nominees = []models.Nominee{}
	}
	c.JSON(http.StatusOK, nominees)
}

// CreateNominee (admin)
func (h *NomineeHandler) CreateNominee(c *gin.Context) {
	var input models.NomineeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title := cleanText(input.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	ctx := c.Request.Context()
	category, err := h.catalog.CategoryBySlug(ctx, input.Category)
	if err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}

	caller := middleware.CallerFrom(c)
	nominee := models.Nominee{
		CategoryID:  category.ID,
		Title:       title,
		AnimeName:   optionalText(input.AnimeName),
		ImageURL:    optionalText(input.ImageURL),
		SubmittedBy: &caller.UserID,
	}
	if err := h.catalog.CreateNominee(ctx, &nominee); err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}

	middleware.LoggerFrom(c, h.logger).Info("nominee created",
		zap.String("nominee_id", nominee.ID.String()),
		zap.String("category", category.Slug),
	)
	c.JSON(http.StatusCreated, nominee)
}

// UpdateNominee (admin) changes only the fields present in the request.
func (h *NomineeHandler) UpdateNominee(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid nominee ID"})
		return
	}

	var input models.UpdateNomineeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	nominee, err := h.catalog.Nominee(ctx, id)
	if err != nil {
		writeError(c, h.logger, err, "Nominee not found")
		return
	}

	if input.Category != nil {
		category, err := h.catalog.CategoryBySlug(ctx, *input.Category)
		if err != nil {
			writeError(c, h.logger, err, "Category not found")
			return
		}
		nominee.CategoryID = category.ID
	}
	if input.Title != nil {
		title := cleanText(*input.Title)
		if title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
			return
		}
		nominee.Title = title
	}
	if input.AnimeName != nil {
		nominee.AnimeName = optionalText(*input.AnimeName)
	}
	if input.ImageURL != nil {
		nominee.ImageURL = optionalText(*input.ImageURL)
	}

	if err := h.catalog.UpdateNominee(ctx, &nominee); err != nil {
		writeError(c, h.logger, err, "Nominee not found")
		return
	}
	c.JSON(http.StatusOK, nominee)
}

// DeleteNominee (admin) also removes the nominee's ballots and result rows.
func (h *NomineeHandler) DeleteNominee(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid nominee ID"})
		return
	}
	if err := h.catalog.DeleteNominee(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err, "Nominee not found")
		return
	}

	middleware.LoggerFrom(c, h.logger).Info("nominee deleted", zap.String("nominee_id", id.String()))
	c.JSON(http.StatusOK, gin.H{"message": "Nominee deleted successfully"})
}
