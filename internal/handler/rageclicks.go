package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/rage-tracker/internal/domain"
	"github.com/jonesrussell/rage-tracker/internal/live"
	"github.com/jonesrussell/rage-tracker/internal/logger"
	"github.com/jonesrussell/rage-tracker/internal/rage"
)

// errInvalidLimit is returned when the limit query parameter is not a
// positive integer.
var errInvalidLimit = errors.New("limit must be a positive integer")

// DetectionReader exposes per-session detection snapshots.
type DetectionReader interface {
	Detections(sessionID string) ([]rage.RageClick, bool)
}

// RecentLister serves persisted detections, newest first.
type RecentLister interface {
	Recent(ctx context.Context, limit int) ([]domain.Detection, error)
}

// RageClickHandler serves recorded rage-click detections.
type RageClickHandler struct {
	sessions DetectionReader
	store    RecentLister
	hub      *live.Hub
	log      logger.Logger

	defaultLimit int
	maxLimit     int
}

// NewRageClickHandler creates a RageClickHandler with the given
// dependencies.
func NewRageClickHandler(
	sessions DetectionReader,
	store RecentLister,
	hub *live.Hub,
	log logger.Logger,
	defaultLimit, maxLimit int,
) *RageClickHandler {
	return &RageClickHandler{
		sessions:     sessions,
		store:        store,
		hub:          hub,
		log:          log,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// SessionDetections handles GET /api/v1/sessions/:id/rageclicks with the
// live contents of one session's detection ring.
func (h *RageClickHandler) SessionDetections(c *gin.Context) {
	sessionID := c.Param("id")

	entries, ok := h.sessions.Detections(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"rageclicks": entries,
	})
}

// Recent handles GET /api/v1/rageclicks with persisted detections,
// newest first.
func (h *RageClickHandler) Recent(c *gin.Context) {
	limit, err := h.parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	detections, err := h.store.Recent(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("Failed to fetch recent rage clicks", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch rage clicks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rageclicks": detections,
		"count":      len(detections),
	})
}

// Live handles GET /api/v1/rageclicks/live by upgrading to a WebSocket
// fed by the detection hub.
func (h *RageClickHandler) Live(c *gin.Context) {
	h.hub.HandleConnection(c.Writer, c.Request)
}

func (h *RageClickHandler) parseLimit(raw string) (int, error) {
	if raw == "" {
		return h.defaultLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errInvalidLimit
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}
	return limit, nil
}
