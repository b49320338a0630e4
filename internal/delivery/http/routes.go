package http

import (
	"github.com/gin-gonic/gin"

	"github.com/bundleup/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst))
	{
		solutions := v1.Group("/solutions")
		{
			solutions.POST("/optimize", handler.OptimizeSolutions)
		}

		compatibility := v1.Group("/compatibility")
		{
			compatibility.POST("/check", handler.CheckCompatibility)
		}

		specs := v1.Group("/specs")
		{
			specs.POST("/extract", handler.ExtractSpecs)
		}
	}

	return router
}
