package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/rage-tracker/internal/config"
	"github.com/jonesrussell/rage-tracker/internal/middleware"
)

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, h Handlers, cfg *config.Config, done <-chan struct{}) {
	router.GET("/health", h.Health.HealthCheck)

	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	v1 := router.Group("/api/v1")

	// Read side: stored detections and the live dashboard stream.
	v1.GET("/rageclicks", h.RageClicks.Recent)
	v1.GET("/rageclicks/live", h.RageClicks.Live)
	v1.GET("/sessions/:id/rageclicks", h.RageClicks.SessionDetections)

	// Ingest side with bot filter and rate limiting.
	rateLimitWindow := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second

	ingest := v1.Group("")
	ingest.Use(middleware.BotFilter())
	ingest.Use(middleware.RateLimiter(cfg.RateLimit.MaxEventsPerMinute, rateLimitWindow, done))
	ingest.POST("/events", h.Events.Ingest)
}
