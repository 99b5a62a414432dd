package session

import (
	"testing"
	"time"

	"github.com/jonesrussell/rage-tracker/internal/domain"
	"github.com/jonesrussell/rage-tracker/internal/logger"
	"github.com/jonesrussell/rage-tracker/internal/rage"
)

func newTestRegistry(opts Options) *Registry {
	return New(opts, nil, logger.NewNop())
}

func clickEvent(sessionID string, x, y float64, atMS int64) domain.ClickEvent {
	return domain.ClickEvent{
		SessionID:   sessionID,
		URL:         "https://example.com/checkout",
		TimestampMS: atMS,
		X:           x,
		Y:           y,
		Target:      rage.Target{Tag: "button", Text: "Submit"},
	}
}

func observeBurst(t *testing.T, r *Registry, sessionID string, n int, startMS int64) {
	t.Helper()
	for i := range n {
		outcome := r.Observe(clickEvent(sessionID, 100, 100, startMS+int64(i*10)))
		if outcome != OutcomeAccepted {
			t.Fatalf("click %d: got outcome %q, want %q", i, outcome, OutcomeAccepted)
		}
	}
}

func TestObserve_CreatesSessionAndDetects(t *testing.T) {
	var sunk []domain.Detection
	r := newTestRegistry(Options{
		OnDetection: func(d domain.Detection) { sunk = append(sunk, d) },
	})

	observeBurst(t, r, "s1", 3, time.Now().UnixMilli())

	if got := r.Sessions(); got != 1 {
		t.Fatalf("sessions: got %d, want 1", got)
	}

	entries, ok := r.Detections("s1")
	if !ok {
		t.Fatal("expected session s1 to exist")
	}
	if len(entries) != 1 {
		t.Fatalf("detections: got %d, want 1", len(entries))
	}

	if len(sunk) != 1 {
		t.Fatalf("sink: got %d detections, want 1", len(sunk))
	}
	d := sunk[0]
	if d.SessionID != "s1" {
		t.Errorf("session id: got %q, want %q", d.SessionID, "s1")
	}
	if d.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("expected a stamped detection id")
	}
	if d.Clicks < 3 {
		t.Errorf("clicks: got %d, want >= 3", d.Clicks)
	}
	if d.DetectedAt.IsZero() {
		t.Error("expected a detected_at timestamp")
	}
}

func TestObserve_SessionsAreIsolated(t *testing.T) {
	r := newTestRegistry(Options{})

	// Interleaved clicks at the same spot: four in total, but only two
	// per session, so neither detector reaches the threshold.
	base := time.Now().UnixMilli()
	for i := range 4 {
		id := "s1"
		if i%2 == 1 {
			id = "s2"
		}
		r.Observe(clickEvent(id, 100, 100, base+int64(i*10)))
	}

	for _, id := range []string{"s1", "s2"} {
		entries, ok := r.Detections(id)
		if !ok {
			t.Fatalf("expected session %s to exist", id)
		}
		if len(entries) != 0 {
			t.Errorf("session %s: got %d detections, want 0", id, len(entries))
		}
	}
}

func TestObserve_IgnoresUnusableEvents(t *testing.T) {
	r := newTestRegistry(Options{})
	now := time.Now().UnixMilli()

	noSession := clickEvent("", 100, 100, now)
	if got := r.Observe(noSession); got != OutcomeIgnored {
		t.Errorf("missing session id: got %q, want %q", got, OutcomeIgnored)
	}

	noTarget := clickEvent("s1", 100, 100, now)
	noTarget.Target = rage.Target{}
	if got := r.Observe(noTarget); got != OutcomeIgnored {
		t.Errorf("missing target: got %q, want %q", got, OutcomeIgnored)
	}

	if got := r.Sessions(); got != 0 {
		t.Fatalf("expected no sessions for ignored events, got %d", got)
	}
}

func TestObserve_EnforcesSessionCap(t *testing.T) {
	r := newTestRegistry(Options{MaxSessions: 2})
	now := time.Now().UnixMilli()

	r.Observe(clickEvent("s1", 100, 100, now))
	r.Observe(clickEvent("s2", 100, 100, now))

	if got := r.Observe(clickEvent("s3", 100, 100, now)); got != OutcomeDropped {
		t.Fatalf("over-cap session: got %q, want %q", got, OutcomeDropped)
	}
	if got := r.Sessions(); got != 2 {
		t.Fatalf("sessions: got %d, want 2", got)
	}

	// Known sessions keep working while the cap holds.
	if got := r.Observe(clickEvent("s1", 100, 100, now+10)); got != OutcomeAccepted {
		t.Fatalf("existing session at cap: got %q, want %q", got, OutcomeAccepted)
	}
}

func TestSweep_EvictsIdleSessions(t *testing.T) {
	ttl := 30 * time.Minute
	r := newTestRegistry(Options{TTL: ttl})

	base := time.Now().UnixMilli()
	observeBurst(t, r, "stale", 3, base)
	r.Observe(clickEvent("fresh", 100, 100, base))

	r.sessions["stale"].lastSeen = time.Now().Add(-2 * ttl)

	r.sweep(time.Now())

	if _, ok := r.Detections("stale"); ok {
		t.Fatal("expected the stale session to be evicted")
	}
	if _, ok := r.Detections("fresh"); !ok {
		t.Fatal("expected the fresh session to survive")
	}
	if got := r.Sessions(); got != 1 {
		t.Fatalf("sessions: got %d, want 1", got)
	}

	// A returning visitor gets a fresh detector with an empty ring.
	r.Observe(clickEvent("stale", 100, 100, base))
	entries, ok := r.Detections("stale")
	if !ok {
		t.Fatal("expected the session to be recreated")
	}
	if len(entries) != 0 {
		t.Fatalf("recreated session: got %d detections, want 0", len(entries))
	}
}

func TestStop_DestroysAllSessions(t *testing.T) {
	r := newTestRegistry(Options{})
	now := time.Now().UnixMilli()

	r.Observe(clickEvent("s1", 100, 100, now))
	r.Observe(clickEvent("s2", 100, 100, now))

	r.Stop()
	r.Stop()

	if got := r.Sessions(); got != 0 {
		t.Fatalf("sessions after stop: got %d, want 0", got)
	}
}
