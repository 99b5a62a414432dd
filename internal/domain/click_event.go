// Package domain contains the wire and persistence models for the rage-click service.
package domain

import (
	"time"

	"github.com/jonesrussell/rage-tracker/internal/rage"
)

// ClickEvent is a single browser click reported by the capture snippet.
// Timestamps come from the page clock as epoch milliseconds so that the
// cluster window reflects the user's experience, not network jitter.
type ClickEvent struct {
	SessionID   string      `json:"session_id"`
	URL         string      `json:"url"`
	TimestampMS int64       `json:"timestamp_ms"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Target      rage.Target `json:"target"`
}

// At converts the page-clock timestamp to a time.Time.
func (e ClickEvent) At() time.Time {
	return time.UnixMilli(e.TimestampMS)
}

// HasTarget reports whether the event carries an identifiable target
// element. Events without one cannot be described and are skipped.
func (e ClickEvent) HasTarget() bool {
	return e.Target.Tag != ""
}

// IngestRequest is the batch payload accepted by POST /api/v1/events.
type IngestRequest struct {
	Events []ClickEvent `json:"events" binding:"required,min=1"`
}

// IngestResponse reports how a batch was ingested. Ignored counts events
// that were structurally present but unusable (no target, no session).
type IngestResponse struct {
	Accepted int `json:"accepted"`
	Ignored  int `json:"ignored"`
}
