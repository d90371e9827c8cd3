package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/anime-awards/backend/internal/auth"
	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

const (
	userIDKey = "user_id"
	callerKey = "caller"
)

// UserLookup loads the account behind a token so capabilities are always
// read fresh from storage rather than trusted from the token.
type UserLookup interface {
	UserByID(ctx context.Context, id int) (models.User, error)
}

// AuthMiddleware requires a valid bearer token and stores the caller on the
// gin context.
func AuthMiddleware(tokens *auth.Tokens, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := users.UserByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, awards.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User no longer exists"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			return
		}

		c.Set(userIDKey, user.ID)
		c.Set(callerKey, awards.Caller{UserID: user.ID, IsAdmin: user.IsAdmin, IsJury: user.IsJury})
		c.Next()
	}
}

// CallerFrom returns the authenticated caller, or the zero Caller when the
// request carried no identity.
func CallerFrom(c *gin.Context) awards.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(awards.Caller); ok {
			return caller
		}
	}
	return awards.Caller{}
}

// SetCaller stores a caller on the context. Useful in tests and for
// handlers mounted behind other authentication.
func SetCaller(c *gin.Context, caller awards.Caller) {
	c.Set(userIDKey, caller.UserID)
	c.Set(callerKey, caller)
}

func RequireAdmin() gin.HandlerFunc {
	return requireCapability(func(caller awards.Caller) bool { return caller.IsAdmin }, "Admin access required")
}

func RequireJury() gin.HandlerFunc {
	return requireCapability(func(caller awards.Caller) bool { return caller.IsJury }, "Jury access required")
}

func requireCapability(allowed func(awards.Caller) bool, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFrom(c)
		if !caller.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !allowed(caller) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}
