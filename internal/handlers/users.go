package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/anime-awards/backend/internal/middleware"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

type UserHandler struct {
	users  UserStore
	logger *zap.Logger
}

func NewUserHandler(users UserStore, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// SetRoles grants or revokes the admin and jury capabilities of a user.
func (h *UserHandler) SetRoles(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input models.RolesRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.IsAdmin == nil && input.IsJury == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	caller := middleware.CallerFrom(c)
	if id == caller.UserID && input.IsAdmin != nil && !*input.IsAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot revoke your own admin access"})
		return
	}

	user, err := h.users.SetRoles(c.Request.Context(), id, input.IsAdmin, input.IsJury)
	if err != nil {
		writeError(c, h.logger, err, "User not found")
		return
	}

	middleware.LoggerFrom(c, h.logger).Info("user roles updated",
		zap.Int("user_id", user.ID),
		zap.Bool("is_admin", user.IsAdmin),
		zap.Bool("is_jury", user.IsJury),
		zap.Int("admin_id", caller.UserID),
	)
	c.JSON(http.StatusOK, user)
}
