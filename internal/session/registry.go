// Package session manages per-session rage-click detectors.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/rage-tracker/internal/domain"
	"github.com/jonesrussell/rage-tracker/internal/logger"
	"github.com/jonesrussell/rage-tracker/internal/rage"
	"github.com/jonesrussell/rage-tracker/internal/telemetry"
)

// Outcome describes what happened to an observed click event.
type Outcome string

const (
	// OutcomeAccepted means the event reached a session detector.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeIgnored means the event was unusable: no session id or no
	// identifiable target element.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeDropped means the session cap prevented tracking the event.
	OutcomeDropped Outcome = "dropped"
)

// feed adapts the registry's per-session event stream to the detector's
// source contract.
type feed struct {
	handler func(rage.Click)
}

func (f *feed) Subscribe(fn func(rage.Click)) func() {
	f.handler = fn
	return func() { f.handler = nil }
}

func (f *feed) emit(c rage.Click) {
	if f.handler != nil {
		f.handler(c)
	}
}

// session pairs one visitor's detector with its event feed. Its mutex
// serializes event delivery, upholding the detector's single-threaded
// contract.
type session struct {
	mu       sync.Mutex
	detector *rage.Detector
	feed     *feed
	lastSeen time.Time
}

// Options configure a Registry.
type Options struct {
	// Detector is the template config applied to every session's
	// detector. The registry installs its own OnDetect sink.
	Detector rage.Config
	// TTL is how long a session may stay idle before eviction.
	TTL time.Duration
	// SweepInterval is how often the janitor looks for idle sessions.
	SweepInterval time.Duration
	// MaxSessions caps live sessions; 0 means unlimited.
	MaxSessions int
	// OnDetection receives every recorded detection for sink fan-out.
	OnDetection func(domain.Detection)
}

// Registry owns the live sessions and routes click events to their
// detectors.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session

	opts    Options
	metrics *telemetry.Metrics
	log     logger.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Registry. Call Start to launch the idle-session janitor.
func New(opts Options, metrics *telemetry.Metrics, log logger.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		opts:     opts,
		metrics:  metrics,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start launches the janitor goroutine that evicts idle sessions.
func (r *Registry) Start() {
	if r.opts.SweepInterval <= 0 || r.opts.TTL <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(r.opts.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweep(time.Now())
			case <-r.done:
				return
			}
		}
	}()
}

// Observe routes one click event to its session's detector, creating the
// session on first sight.
func (r *Registry) Observe(event domain.ClickEvent) Outcome {
	if event.SessionID == "" || !event.HasTarget() {
		return OutcomeIgnored
	}

	s, outcome := r.lookup(event.SessionID)
	if outcome != OutcomeAccepted {
		return outcome
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	s.feed.emit(rage.Click{
		X:      event.X,
		Y:      event.Y,
		Target: event.Target,
		URL:    event.URL,
		At:     event.At(),
	})
	return OutcomeAccepted
}

// Detections returns a snapshot of one session's recorded rage clicks.
// The second return is false when the session is unknown.
func (r *Registry) Detections(sessionID string) ([]rage.RageClick, bool) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detector.Detected(), true
}

// Sessions reports how many sessions are currently tracked.
func (r *Registry) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Stop halts the janitor and destroys every remaining session detector.
func (r *Registry) Stop() {
	r.closeOnce.Do(func() { close(r.done) })

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		s.mu.Lock()
		s.detector.Destroy()
		s.mu.Unlock()
		delete(r.sessions, id)
	}
	r.metrics.SetActiveSessions(0)
}

func (r *Registry) lookup(sessionID string) (*session, Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sessionID]; ok {
		return s, OutcomeAccepted
	}

	if r.opts.MaxSessions > 0 && len(r.sessions) >= r.opts.MaxSessions {
		return nil, OutcomeDropped
	}

	s, err := r.newSession(sessionID)
	if err != nil {
		r.log.Error("Failed to create session detector",
			logger.String("session_id", sessionID),
			logger.Error(err))
		return nil, OutcomeDropped
	}

	r.sessions[sessionID] = s
	r.metrics.SetActiveSessions(len(r.sessions))
	return s, OutcomeAccepted
}

func (r *Registry) newSession(sessionID string) (*session, error) {
	cfg := r.opts.Detector
	cfg.OnDetect = func(entry rage.RageClick) {
		r.metrics.DetectionRecorded(entry.Clicks)
		if r.opts.OnDetection != nil {
			r.opts.OnDetection(domain.NewDetection(sessionID, entry, time.Now()))
		}
	}

	d, err := rage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create detector: %w", err)
	}

	f := &feed{}
	d.Attach(f)

	return &session{detector: d, feed: f, lastSeen: time.Now()}, nil
}

// sweep evicts sessions idle longer than the TTL, destroying their
// detectors.
func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, s := range r.sessions {
		s.mu.Lock()
		expired := now.Sub(s.lastSeen) > r.opts.TTL
		if expired {
			s.detector.Destroy()
		}
		s.mu.Unlock()

		if expired {
			delete(r.sessions, id)
			evicted++
		}
	}

	if evicted > 0 {
		r.metrics.SetActiveSessions(len(r.sessions))
		r.log.Debug("Evicted idle sessions",
			logger.Int("evicted", evicted),
			logger.Int("remaining", len(r.sessions)))
	}
}
