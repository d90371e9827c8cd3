package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/anime-awards/backend/internal/auth"
	"github.com/emilythestrangee/anime-awards/backend/internal/handlers"
	"github.com/emilythestrangee/anime-awards/backend/internal/metrics"
	"github.com/emilythestrangee/anime-awards/backend/internal/middleware"
)

// HealthChecker reports database health for /health.
type HealthChecker interface {
	Health() map[string]string
}

type Options struct {
	Addr              string
	CORSOrigins       []string
	VoteRatePerMinute int
}

type Server struct {
	handler *handlers.Handler
	tokens  *auth.Tokens
	users   middleware.UserLookup
	health  HealthChecker
	metrics *metrics.Metrics
	logger  *zap.Logger
	opts    Options
}

func New(h *handlers.Handler, tokens *auth.Tokens, users middleware.UserLookup, health HealthChecker, m *metrics.Metrics, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		handler: h,
		tokens:  tokens,
		users:   users,
		health:  health,
		metrics: m,
		logger:  logger,
		opts:    opts,
	}
}

// HTTPServer wraps the router in an http.Server with the service timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      45 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	var obs middleware.RequestObserver
	if s.metrics != nil {
		obs = s.metrics
	}
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(s.logger, obs),
		middleware.Recovery(s.logger),
	)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.opts.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.healthHandler)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	h := s.handler
	limiter := middleware.NewRateLimiter(s.opts.VoteRatePerMinute)

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", h.Auth.Register)
		api.POST("/login", h.Auth.Login)
		api.POST("/auth/google", h.Auth.GoogleLogin)

		// Catalog (public reads)
		api.GET("/categories", h.Category.GetCategories)
		api.GET("/categories/:slug", h.Category.GetCategory)
		api.GET("/categories/:slug/nominees", h.Category.GetCategoryNominees)
		api.GET("/nominees", h.Nominee.GetNominees)
		api.GET("/content/:key", h.Content.GetContent)

		// Results (gated)
		api.GET("/results", h.Results.GetResults)
		api.GET("/results/visibility", h.Results.GetVisibility)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.tokens, s.users))
		{
			protected.GET("/me", h.Auth.GetMe)
			protected.GET("/me/votes", h.Vote.GetMyVotes)
			protected.POST("/categories/:slug/votes", limiter.Middleware(), h.Vote.CastPublicVote)

			jury := protected.Group("/jury", middleware.RequireJury())
			jury.POST("/categories/:slug/votes", limiter.Middleware(), h.Vote.CastJuryVote)

			admin := protected.Group("/admin", middleware.RequireAdmin())
			{
				admin.POST("/categories", h.Category.CreateCategory)
				admin.PUT("/categories/:slug", h.Category.UpdateCategory)
				admin.DELETE("/categories/:slug", h.Category.DeleteCategory)
				admin.GET("/categories/:slug/standings", h.Results.GetStandings)

				admin.POST("/nominees", h.Nominee.CreateNominee)
				admin.PUT("/nominees/:id", h.Nominee.UpdateNominee)
				admin.DELETE("/nominees/:id", h.Nominee.DeleteNominee)

				admin.PUT("/content/:key", h.Content.PutContent)
				admin.PUT("/users/:id/roles", h.User.SetRoles)

				admin.POST("/results/recompute", h.Results.Recompute)
				admin.GET("/results", h.Results.GetAdminResults)
				admin.PUT("/results/visibility", h.Results.SetVisibility)
			}
		}
	}

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	stats := s.health.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}
