package router

import (
	"time"

	"github.com/rilaconsulting/pmpulse-sub002/internal/config"
	"github.com/rilaconsulting/pmpulse-sub002/internal/handler"
	"github.com/rilaconsulting/pmpulse-sub002/internal/middleware"
	"github.com/rilaconsulting/pmpulse-sub002/internal/repository"
	"github.com/rilaconsulting/pmpulse-sub002/internal/service"
	"github.com/rilaconsulting/pmpulse-sub002/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	workOrderRepo := repository.NewWorkOrderRepository(db)
	utilityRepo := repository.NewUtilityExpenseRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	vendorSvc := service.NewVendorService(vendorRepo)
	dedupSvc := service.NewDedupService(analysisRepo, dispatcher)
	vendorMetricsSvc := service.NewVendorAnalyticsService(vendorRepo, workOrderRepo)
	utilityMetricsSvc := service.NewUtilityAnalyticsService(propertyRepo, utilityRepo, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cacheTTL := time.Duration(cfg.MetricsCacheTTLSeconds) * time.Second
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	vendorsH := handler.NewVendorsHandler(vendorSvc)
	dedupH := handler.NewDedupHandler(dedupSvc)
	vendorMetricsH := handler.NewVendorAnalyticsHandler(vendorMetricsSvc, rdb, cacheTTL)
	utilityMetricsH := handler.NewUtilityAnalyticsHandler(utilityMetricsSvc, rdb, cacheTTL)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole("viewer", "manager", "admin")
	managerUp := middleware.RequireRole("manager", "admin")
	adminOnly := middleware.RequireRole("admin")

	v1 := r.Group("/v1", jwtMW)
	{
		// Vendors — reads for everyone, canonicalization for managers up
		v1.GET("/vendors", anyRole, vendorsH.List)
		v1.GET("/vendors/:id", anyRole, vendorsH.Get)
		v1.POST("/vendors", managerUp, vendorsH.Create)
		v1.PUT("/vendors/:id", managerUp, vendorsH.Update)
		v1.POST("/vendors/:id/mark-duplicate", managerUp, vendorsH.MarkDuplicate)
		v1.POST("/vendors/:id/mark-canonical", managerUp, vendorsH.MarkCanonical)

		// Vendor metrics
		v1.GET("/vendors/:id/metrics", anyRole, vendorMetricsH.Metrics)
		v1.GET("/vendors/:id/metrics/trend", anyRole, vendorMetricsH.Trend)
		v1.GET("/vendors/:id/metrics/comparison", anyRole, vendorMetricsH.Comparison)
		v1.GET("/vendors/:id/metrics/trade-comparison", anyRole, vendorMetricsH.TradeComparison)
		v1.GET("/vendors/:id/metrics/response-times", anyRole, vendorMetricsH.ResponseTimes)

		// Deduplication — admin only (triggers the O(n²) batch job)
		dedup := v1.Group("/dedup", adminOnly)
		{
			dedup.POST("/analyses", dedupH.CreateAnalysis)
			dedup.GET("/analyses", dedupH.ListAnalyses)
			dedup.GET("/analyses/:id", dedupH.GetAnalysis)
		}

		// Utility metrics
		v1.GET("/properties/:id/utilities/metrics", anyRole, utilityMetricsH.Metrics)
		v1.GET("/properties/:id/utilities/trend", anyRole, utilityMetricsH.Trend)
		v1.GET("/utilities/anomalies", anyRole, utilityMetricsH.Anomalies)

		// Users — admin only
		users := v1.Group("/users", adminOnly)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
