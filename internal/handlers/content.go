package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/middleware"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

// editableContent lists the setting keys exposed as site content. Other
// settings, such as the results gate, have dedicated endpoints.
var editableContent = map[string]bool{
	models.SettingRules: true,
}

type ContentHandler struct {
	catalog CatalogStore
	logger  *zap.Logger
}

func NewContentHandler(catalog CatalogStore, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{catalog: catalog, logger: logger}
}

func (h *ContentHandler) GetContent(c *gin.Context) {
	key := c.Param("key")
	if !editableContent[key] {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}

	value, err := h.catalog.Setting(c.Request.Context(), key)
	if errors.Is(err, awards.ErrNotFound) {
		value, err = "", nil
	}
	if err != nil {
		writeError(c, h.logger, err, "Content not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "content": value})
}

// PutContent (admin)
func (h *ContentHandler) PutContent(c *gin.Context) {
	key := c.Param("key")
	if !editableContent[key] {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}

	var input models.ContentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content := cleanContent(input.Content)
	if err := h.catalog.PutSetting(c.Request.Context(), key, content); err != nil {
		writeError(c, h.logger, err, "Content not found")
		return
	}

	middleware.LoggerFrom(c, h.logger).Info("content updated", zap.String("key", key))
	c.JSON(http.StatusOK, gin.H{"key": key, "content": content})
}
