// Package rage implements the rage-click detection core: an online
// algorithm that consumes a stream of pointer-click events and maintains a
// sliding time-and-space window to decide, per click, whether a cluster of
// recent clicks signals user frustration. Qualifying detections pass a
// per-element debounce and land in a fixed-capacity ring.
//
// The package performs no I/O and has no internal parallelism: all work
// happens synchronously inside the click callback. A Detector is not safe
// for concurrent use; callers must serialize access (the session registry
// does this per session).
package rage

import (
	"fmt"
	"time"
)

// Default clustering parameters, applied field-by-field when the
// corresponding Config value is unset.
const (
	DefaultThreshold  = 3
	DefaultTimeWindow = time.Second
	DefaultRadiusPx   = 30.0
	DefaultMaxItems   = 20
)

// Config holds the detector's clustering parameters. Every field is
// optional; a zero value is replaced by its default independently of the
// other fields.
type Config struct {
	// Threshold is the minimum cluster size that qualifies as a rage click.
	Threshold int
	// TimeWindow is how far back clicks count toward a cluster.
	TimeWindow time.Duration
	// RadiusPx is the maximum Euclidean distance from the triggering click,
	// in the coordinate units of the interaction surface.
	RadiusPx float64
	// MaxItems is the capacity of the detection ring. Negative values fail
	// construction.
	MaxItems int

	// OnDetect, when set, is invoked synchronously with every newly
	// recorded detection. It is the hook the service uses to fan out to
	// storage, the event stream, and the live feed.
	OnDetect func(RageClick)
}

func (c Config) withDefaults() Config {
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.TimeWindow == 0 {
		c.TimeWindow = DefaultTimeWindow
	}
	if c.RadiusPx == 0 {
		c.RadiusPx = DefaultRadiusPx
	}
	if c.MaxItems == 0 {
		c.MaxItems = DefaultMaxItems
	}
	return c
}

// RageClick is a recorded detection. X and Y are the triggering click's
// coordinates; Timestamp is the timestamp of the oldest click still in the
// window when the cluster qualified (the start of the episode, not the
// click that tripped it).
type RageClick struct {
	Element   string    `json:"element"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Clicks    int       `json:"clicks"`
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
}

// Click is a raw pointer-click event as delivered by a Source.
type Click struct {
	X, Y   float64
	Target Target
	URL    string
	At     time.Time
}

// Source is a stream of pointer-click events. Subscribe registers fn to
// receive every click the source observes and returns a function that
// cancels the subscription. A source is owned by at most one detector for
// its lifetime.
type Source interface {
	Subscribe(fn func(Click)) (cancel func())
}

// Detector wires a click-event source to the sliding-window tracker,
// applies the debounce filter, and records qualifying detections in a
// bounded ring.
type Detector struct {
	cfg      Config
	tracker  *tracker
	debounce *debounceLedger
	store    *Ring[RageClick]
	active   bool
	cancel   func()
}

// New creates a detector. Zero-valued config fields take their defaults;
// a negative MaxItems fails immediately.
func New(cfg Config) (*Detector, error) {
	cfg = cfg.withDefaults()

	store, err := NewRing[RageClick](cfg.MaxItems)
	if err != nil {
		return nil, fmt.Errorf("create detection store: %w", err)
	}

	return &Detector{
		cfg:      cfg,
		tracker:  newTracker(cfg.TimeWindow, cfg.RadiusPx),
		debounce: newDebounceLedger(),
		store:    store,
		active:   true,
	}, nil
}

// Attach subscribes the detector to a click-event source. It is a no-op on
// a destroyed or already-attached detector.
func (d *Detector) Attach(src Source) {
	if !d.active || d.cancel != nil {
		return
	}
	d.cancel = src.Subscribe(d.handleClick)
}

// handleClick is the subscription callback: it derives the element
// descriptor and feeds the click through the detection pipeline. Clicks
// without an identifiable target are dropped; non-element targets are
// routine, not an error.
func (d *Detector) handleClick(c Click) {
	if !d.active {
		return
	}

	descriptor := Describe(c.Target)
	if descriptor == "" {
		return
	}

	d.OnClick(c.X, c.Y, descriptor, c.URL, c.At)
}

// OnClick runs one click through the tracker, the threshold test, and the
// debounce filter. When the click completes a qualifying cluster, the
// resulting entry is stored, reported via OnDetect, and returned with
// recorded = true. The descriptor must be non-empty.
func (d *Detector) OnClick(x, y float64, descriptor, pageURL string, now time.Time) (entry RageClick, recorded bool) {
	if !d.active {
		return RageClick{}, false
	}

	count, episodeStart := d.tracker.observe(x, y, descriptor, now)
	if count < d.cfg.Threshold {
		return RageClick{}, false
	}

	if d.debounce.shouldSuppress(descriptor, now) {
		return RageClick{}, false
	}
	d.debounce.record(descriptor, now)

	entry = RageClick{
		Element:   descriptor,
		X:         x,
		Y:         y,
		Clicks:    count,
		Timestamp: episodeStart,
		URL:       pageURL,
	}
	d.store.Push(entry)

	if d.cfg.OnDetect != nil {
		d.cfg.OnDetect(entry)
	}

	return entry, true
}

// Detected returns the stored detections oldest-first. Entries survive
// Destroy: they belong to the ring, not the tracker.
func (d *Detector) Detected() []RageClick {
	return d.store.Items()
}

// Destroy detaches from the click source and clears the tracker history
// and the debounce ledger. It is idempotent; after the first call the
// detector drops any further events it is fed.
func (d *Detector) Destroy() {
	if !d.active {
		return
	}
	d.active = false

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	d.tracker.clear()
	d.debounce.clear()
}
