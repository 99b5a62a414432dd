// Package handler provides the HTTP handlers for the rage-click service.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/rage-tracker/internal/domain"
	"github.com/jonesrussell/rage-tracker/internal/logger"
	"github.com/jonesrussell/rage-tracker/internal/session"
	"github.com/jonesrussell/rage-tracker/internal/telemetry"
)

// Observer routes click events to per-session detectors.
type Observer interface {
	Observe(event domain.ClickEvent) session.Outcome
}

// EventsHandler handles click event ingestion.
type EventsHandler struct {
	observer Observer
	metrics  *telemetry.Metrics
	log      logger.Logger
}

// NewEventsHandler creates an EventsHandler with the given dependencies.
func NewEventsHandler(observer Observer, metrics *telemetry.Metrics, log logger.Logger) *EventsHandler {
	return &EventsHandler{
		observer: observer,
		metrics:  metrics,
		log:      log,
	}
}

// Ingest handles POST /api/v1/events. Bot traffic is acknowledged without
// being tracked.
func (h *EventsHandler) Ingest(c *gin.Context) {
	var req domain.IngestRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErr.Error()})
		return
	}

	if c.GetBool("is_bot") {
		c.JSON(http.StatusAccepted, gin.H{"status": "skipped", "reason": "bot"})
		return
	}

	var resp domain.IngestResponse
	for _, event := range req.Events {
		outcome := h.observer.Observe(event)
		h.metrics.EventObserved(string(outcome))
		if outcome == session.OutcomeAccepted {
			resp.Accepted++
		} else {
			resp.Ignored++
		}
	}

	if resp.Ignored > 0 {
		h.log.Debug("Ignored click events in batch",
			logger.Int("ignored", resp.Ignored),
			logger.Int("accepted", resp.Accepted),
		)
	}

	c.JSON(http.StatusAccepted, resp)
}
