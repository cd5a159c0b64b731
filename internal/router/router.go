package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/recordclean/internal/config"
	"github.com/stemsi/recordclean/internal/handler"
	"github.com/stemsi/recordclean/internal/middleware"
	"github.com/stemsi/recordclean/internal/model"
	"github.com/stemsi/recordclean/internal/response"
	"github.com/stemsi/recordclean/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Cleanup *handler.CleanupHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Plans can list thousands of records; compress them.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── Admin Group (JWT + RBAC) ──────────────────────────────────────
	// Every route scans or rewrites whole collections.
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.RequireAdminJWT(authService),
		middleware.RequirePermission(model.PermissionRecordsCleanup),
		middleware.NoStore(),
	)

	planLimiter := middleware.NewRateLimiter(6, time.Minute)

	cleanup := adminAPI.Group("/cleanup")
	{
		cleanup.POST("/:kind/plan", planLimiter.Middleware(), handlers.Cleanup.CreatePlan)
		cleanup.GET("/plans/:id", handlers.Cleanup.GetPlan)
		cleanup.POST("/plans/:id/apply", handlers.Cleanup.ApplyPlan)
		cleanup.GET("/runs/:id", handlers.Cleanup.GetRun)
	}

	return router
}
