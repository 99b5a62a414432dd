package rage

import (
	"math"
	"time"
)

// clickRecord is a single observed click in the tracker's history.
// Records never leave the tracker.
type clickRecord struct {
	x, y       float64
	descriptor string
	at         time.Time
}

// tracker maintains the sliding time window of recent clicks and computes,
// for each new click, how many recent clicks are both temporally and
// spatially close to it.
type tracker struct {
	window  time.Duration
	radius  float64
	history []clickRecord
}

func newTracker(window time.Duration, radius float64) *tracker {
	return &tracker{window: window, radius: radius}
}

// observe appends the click to the history, prunes expired records, and
// returns the cluster count around (x, y) together with the timestamp of
// the oldest record still in the window, the start of the episode.
//
// Arrival order is monotonic in now for a serialized event source, so
// pruning only ever removes from the front.
func (t *tracker) observe(x, y float64, descriptor string, now time.Time) (int, time.Time) {
	t.history = append(t.history, clickRecord{x: x, y: y, descriptor: descriptor, at: now})

	start := 0
	for start < len(t.history) && now.Sub(t.history[start].at) > t.window {
		start++
	}
	if start > 0 {
		// Compact in place so the backing array does not grow without bound.
		t.history = append(t.history[:0], t.history[start:]...)
	}

	// Full rescan of the pruned window, not an incremental count: records
	// that left the radius but not the window must never distort the total.
	count := 0
	for i := range t.history {
		rec := &t.history[i]
		if now.Sub(rec.at) <= t.window && distance(rec.x, rec.y, x, y) <= t.radius {
			count++
		}
	}

	return count, t.history[0].at
}

// clear drops the entire click history.
func (t *tracker) clear() {
	t.history = nil
}

// distance is the plain Euclidean distance between two points.
func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
