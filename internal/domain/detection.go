package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/rage-tracker/internal/rage"
)

// Detection is a recorded rage-click episode enriched with the identity
// fields the sinks need. Timestamp is when the episode began (the oldest
// click in the window); DetectedAt is when the server recorded it.
type Detection struct {
	ID         uuid.UUID `json:"id"`
	SessionID  string    `json:"session_id"`
	Element    string    `json:"element"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Clicks     int       `json:"clicks"`
	URL        string    `json:"url"`
	Timestamp  time.Time `json:"timestamp"`
	DetectedAt time.Time `json:"detected_at"`
}

// NewDetection stamps a core detection entry with an ID, its session and
// the server receipt time.
func NewDetection(sessionID string, entry rage.RageClick, detectedAt time.Time) Detection {
	return Detection{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Element:    entry.Element,
		X:          entry.X,
		Y:          entry.Y,
		Clicks:     entry.Clicks,
		URL:        entry.URL,
		Timestamp:  entry.Timestamp,
		DetectedAt: detectedAt,
	}
}
