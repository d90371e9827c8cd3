package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/anime-awards/backend/internal/middleware"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
	"github.com/emilythestrangee/anime-awards/backend/internal/slug"
)

type CategoryHandler struct {
	catalog CatalogStore
	logger  *zap.Logger
}

func NewCategoryHandler(catalog CatalogStore, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{catalog: catalog, logger: logger}
}

// GetCategories lists categories in display order.
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

// GetCategory returns the category page: the category, its nominees and
// the neighbouring categories for prev/next navigation.
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	ctx := c.Request.Context()
	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}

	idx := -1
	for i, cat := range categories {
		if cat.Slug == c.Param("slug") {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	nominees, err := h.catalog.Nominees(ctx, categories[idx].ID)
	if err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}
	if nominees == nil {
		nominees = []models.Nominee{}
	}

	page := models.CategoryPage{Category: categories[idx], Nominees: nominees}
	if idx > 0 {
		page.Prev = &models.CategoryLink{Slug: categories[idx-1].Slug, Name: categories[idx-1].Name}
	}
	if idx < len(categories)-1 {
		page.Next = &models.CategoryLink{Slug: categories[idx+1].Slug, Name: categories[idx+1].Name}
	}
	c.JSON(http.StatusOK, page)
}

func (h *CategoryHandler) GetCategoryNominees(c *gin.Context) {
	ctx := c.Request.Context()
	category, err := h.catalog.CategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}
	nominees, err := h.catalog.Nominees(ctx, category.ID)
	if err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}
	if nominees == nil {
		nominees = []models.Nominee{}
	}
	c.JSON(http.StatusOK, nominees)
}

// CreateCategory (admin)
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var input models.CategoryRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	category := models.Category{}
	if !h.apply(c, &category, input) {
		return
	}
	if input.DisplayOrder == nil {
		existing, err := h.catalog.Categories(ctx)
		if err != nil {
			writeError(c, h.logger, err, "Category not found")
			return
		}
		category.DisplayOrder = 1
		for _, cat := range existing {
			if cat.DisplayOrder >= category.DisplayOrder {
				category.DisplayOrder = cat.DisplayOrder + 1
			}
		}
	}

	if err := h.catalog.CreateCategory(ctx, &category); err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}

	middleware.LoggerFrom(c, h.logger).Info("category created", zap.String("slug", category.Slug))
	c.JSON(http.StatusCreated, category)
}

// UpdateCategory (admin) replaces the editable fields of a category.
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var input models.CategoryRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	category, err := h.catalog.CategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}
	if input.Slug == "" {
		input.Slug = category.Slug
	}
	if !h.apply(c, &category, input) {
		return
	}

	if err := h.catalog.UpdateCategory(ctx, &category); err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory (admin) removes the category along with its nominees,
// ballots and result rows.
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	ctx := c.Request.Context()
	category, err := h.catalog.CategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}
	if err := h.catalog.DeleteCategory(ctx, category.ID); err != nil {
		writeError(c, h.logger, err, "Category not found")
		return
	}

	middleware.LoggerFrom(c, h.logger).Info("category deleted", zap.String("slug", category.Slug))
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// apply copies a validated request onto category, writing a 400 response
// and returning false when the slug is unusable.
func (h *CategoryHandler) apply(c *gin.Context, category *models.Category, input models.CategoryRequest) bool {
	name := cleanText(input.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return false
	}
	s := input.Slug
	if s == "" {
		s = slug.Make(name)
	}
	if !slug.Valid(s) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slug may only contain lowercase letters, digits and single hyphens"})
		return false
	}

	category.Name = name
	category.Slug = s
	if input.DisplayOrder != nil {
		category.DisplayOrder = *input.DisplayOrder
	}
	category.Description = cleanText(input.Description)
	category.Icon = cleanText(input.Icon)
	category.Color = cleanText(input.Color)
	category.Gradient = cleanText(input.Gradient)
	return true
}
