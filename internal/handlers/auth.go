package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/anime-awards/backend/internal/auth"
	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/middleware"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

type AuthHandler struct {
	users  UserStore
	tokens *auth.Tokens
	google GoogleVerifier
	logger *zap.Logger
}

func NewAuthHandler(users UserStore, tokens *auth.Tokens, google GoogleVerifier, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, google: google, logger: logger}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	username := cleanText(input.Username)
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Password:     hashed,
		Avatar:       strings.TrimSpace(input.Avatar),
		AuthProvider: "email",
	}
	if err := h.users.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, awards.ErrConflict) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already exists"})
			return
		}
		writeError(c, h.logger, err, "User not found")
		return
	}

	h.respondWithToken(c, http.StatusCreated, user, "User registered successfully")
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.UserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil && !errors.Is(err, awards.ErrNotFound) {
		writeError(c, h.logger, err, "User not found")
		return
	}
	if err != nil || user.AuthProvider != "email" || !auth.CheckPassword(user.Password, input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	h.respondWithToken(c, http.StatusOK, user, "Login successful")
}

// GoogleLogin exchanges a verified Google ID token for a session token,
// creating the account on first sign-in.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var input models.OAuthRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	googleUser, err := h.google.Verify(c.Request.Context(), input.Token)
	if err != nil {
		middleware.LoggerFrom(c, h.logger).Warn("google token rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Google token"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.UserByGoogle(ctx, googleUser.Sub, googleUser.Email)
	switch {
	case errors.Is(err, awards.ErrNotFound):
		username := cleanText(input.Username)
		if username == "" {
			username = generateUsernameFromEmail(googleUser.Email)
		}
		username, err = h.ensureUniqueUsername(ctx, username)
		if err != nil {
			writeError(c, h.logger, err, "User not found")
			return
		}

		avatar := strings.TrimSpace(input.Avatar)
		if avatar == "" {
			avatar = googleUser.Picture
		}
		user = models.User{
			Username:     username,
			Email:        strings.ToLower(googleUser.Email),
			Avatar:       avatar,
			GoogleID:     googleUser.Sub,
			AuthProvider: "google",
		}
		if err := h.users.CreateUser(ctx, &user); err != nil {
			writeError(c, h.logger, err, "User not found")
			return
		}
	case err != nil:
		writeError(c, h.logger, err, "User not found")
		return
	default:
		changed := false
		if user.GoogleID == "" {
			user.GoogleID = googleUser.Sub
			changed = true
		}
		if input.Avatar != "" && user.Avatar == "" {
			user.Avatar = strings.TrimSpace(input.Avatar)
			changed = true
		}
		if changed {
			if err := h.users.SaveUser(ctx, &user); err != nil {
				writeError(c, h.logger, err, "User not found")
				return
			}
		}
	}

	h.respondWithToken(c, http.StatusOK, user, "")
}

// GetMe returns the current authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	if !caller.Authenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.users.UserByID(c.Request.Context(), caller.UserID)
	if err != nil {
		writeError(c, h.logger, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user models.User, message string) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(status, models.AuthResponse{Token: token, User: user, Message: message})
}

// Helper functions

func generateUsernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

func (h *AuthHandler) ensureUniqueUsername(ctx context.Context, base string) (string, error) {
	username := base
	for counter := 1; counter <= 1000; counter++ {
		taken, err := h.users.UsernameTaken(ctx, username)
		if err != nil {
			return "", err
		}
		if !taken {
			return username, nil
		}
		username = fmt.Sprintf("%s%d", base, counter)
	}
	return "", fmt.Errorf("no free username for %q", base)
}
