package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/emilythestrangee/anime-awards/backend/internal/auth"
	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type userMap map[int]models.User

func (m userMap) UserByID(_ context.Context, id int) (models.User, error) {
	u, ok := m[id]
	if !ok {
		return models.User{}, awards.ErrNotFound
	}
	return u, nil
}

const secret = "middleware-test-secret"

func newRouter(users userMap) *gin.Engine {
	tokens := auth.NewTokens(secret, time.Hour)
	r := gin.New()
	authed := r.Group("", AuthMiddleware(tokens, users))
	authed.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"caller": CallerFrom(c)})
	})
	authed.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	authed.GET("/jury", RequireJury(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func bearer(t *testing.T, user models.User) string {
	t.Helper()
	token, err := auth.NewTokens(secret, time.Hour).Issue(user)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(r http.Handler, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	voter := models.User{ID: 1, Username: "voter", Email: "v@example.com"}
	admin := models.User{ID: 2, Username: "admin", Email: "a@example.com", IsAdmin: true}
	juror := models.User{ID: 3, Username: "juror", Email: "j@example.com", IsJury: true}
	ghost := models.User{ID: 99, Username: "ghost", Email: "g@example.com"}
	r := newRouter(userMap{1: voter, 2: admin, 3: juror})

	tests := []struct {
		name   string
		path   string
		authz  string
		status int
	}{
		{"no header", "/me", "", http.StatusUnauthorized},
		{"not bearer", "/me", "Basic abc", http.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"deleted user", "/me", bearer(t, ghost), http.StatusUnauthorized},
		{"voter", "/me", bearer(t, voter), http.StatusOK},
		{"voter on admin route", "/admin", bearer(t, voter), http.StatusForbidden},
		{"voter on jury route", "/jury", bearer(t, voter), http.StatusForbidden},
		{"admin", "/admin", bearer(t, admin), http.StatusNoContent},
		{"admin is not jury", "/jury", bearer(t, admin), http.StatusForbidden},
		{"juror", "/jury", bearer(t, juror), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, tt.path, tt.authz)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestCapabilitiesReadFromStore(t *testing.T) {
	// Token issued while the user was an admin; the role has since been revoked.
	users := userMap{5: {ID: 5, Username: "former", Email: "f@example.com"}}
	r := newRouter(users)
	token := bearer(t, models.User{ID: 5, Username: "former", Email: "f@example.com", IsAdmin: true})

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", token).Code)
}

func TestRequireWithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", "").Code)
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	obs := &latencyRecorder{}
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zap.New(core), obs))
	r.GET("/ok/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	rec := do(r, "/ok/1", "")
	id := rec.Header().Get(RequestIDHeader)
	assert.Len(t, id, 26, "ULID")

	req := httptest.NewRequest(http.MethodGet, "/ok/2", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))

	do(r, "/missing", "")

	require.Equal(t, 3, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "request completed", first.Message)
	assert.Equal(t, id, first.ContextMap()["request_id"])
	assert.Equal(t, "/ok/:id", first.ContextMap()["route"])
	assert.Equal(t, zapcore.WarnLevel, logs.All()[2].Level)

	assert.Equal(t, []string{"/ok/:id 200", "/ok/:id 200", "/missing 404"}, obs.seen)
}

type latencyRecorder struct {
	mu   sync.Mutex
	seen []string
}

func (l *latencyRecorder) ObserveRequest(route, _ string, status string, _ time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, route+" "+status)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	rec := do(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-User"); id == "1" {
			SetCaller(c, awards.Caller{UserID: 1})
		} else if id == "2" {
			SetCaller(c, awards.Caller{UserID: 2})
		}
		c.Next()
	})
	r.POST("/vote", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	post := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/vote", nil)
		req.Header.Set("X-User", user)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, post("1"))
	assert.Equal(t, http.StatusCreated, post("1"))
	assert.Equal(t, http.StatusTooManyRequests, post("1"))
	assert.Equal(t, http.StatusCreated, post("2"), "limits are per caller")

	now = now.Add(30 * time.Second)
	assert.Equal(t, http.StatusCreated, post("1"), "bucket refills over time")
}

func TestRateLimitDisabled(t *testing.T) {
	limiter := NewRateLimiter(0)
	r := gin.New()
	r.POST("/vote", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/vote", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
}
