package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCounter reports how many sessions are currently tracked.
type SessionCounter interface {
	Sessions() int
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	version  string
	sessions SessionCounter
}

// NewHealthHandler creates a HealthHandler that reports the given version.
func NewHealthHandler(version string, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{version: version, sessions: sessions}
}

// HealthCheck returns service health status.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   h.version,
		"sessions":  h.sessions.Sessions(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
