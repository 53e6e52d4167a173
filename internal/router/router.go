package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/testovik/testovik-backend/internal/config"
	"github.com/testovik/testovik-backend/internal/handler"
	"github.com/testovik/testovik-backend/internal/middleware"
	"github.com/testovik/testovik-backend/internal/response"
	"github.com/testovik/testovik-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth   *handler.AuthHandler
	Test   *handler.TestHandler
	Result *handler.ResultHandler
	Report *handler.ReportHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Participant Group (JWT) ────────────────────────────────────
	participantAPI := router.Group("/api/v1")
	participantAPI.Use(middleware.RequireJWT(authService))
	{
		participantAPI.GET("/tests", handlers.Test.ListAvailable)
		participantAPI.GET("/tests/:id", handlers.Test.GetForTaking)

		participantAPI.POST("/results", handlers.Result.Submit)
		participantAPI.GET("/results", handlers.Result.ListMine)
		participantAPI.GET("/results/:id", handlers.Result.Get)
	}

	// ─── 3. Admin Group (JWT + ADMIN role) ─────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdmin(authService))
	{
		// Test authoring
		adminAPI.POST("/tests", handlers.Test.Create)
		adminAPI.GET("/tests", handlers.Test.List)
		adminAPI.GET("/tests/:id", handlers.Test.Get)
		adminAPI.PUT("/tests/:id", handlers.Test.Update)
		adminAPI.DELETE("/tests/:id", handlers.Test.Delete)

		// Question authoring
		adminAPI.POST("/tests/:id/questions", handlers.Test.AddQuestion)
		adminAPI.GET("/tests/:id/questions", handlers.Test.ListQuestions)
		adminAPI.DELETE("/questions/:id", handlers.Test.DeleteQuestion)

		// Reports
		adminAPI.POST("/reports", handlers.Report.Create)
		adminAPI.POST("/reports/:id/generate", handlers.Report.Generate)
		adminAPI.GET("/reports", handlers.Report.List)
		adminAPI.GET("/reports/:id", handlers.Report.Get)
	}

	return router
}
