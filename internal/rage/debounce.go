package rage

import "time"

// debounceInterval is the fixed cool-down between recorded detections for
// the same element descriptor. It is deliberately not configurable.
const debounceInterval = 2000 * time.Millisecond

// debounceLedger maps element descriptors to the time of their most recent
// recorded detection. Entries persist for the lifetime of the detector and
// are only ever superseded by newer timestamps.
type debounceLedger struct {
	last map[string]time.Time
}

func newDebounceLedger() *debounceLedger {
	return &debounceLedger{last: make(map[string]time.Time)}
}

// shouldSuppress reports whether a detection for descriptor must be
// suppressed because a previous one was recorded less than the cool-down
// interval ago. Distinct descriptors never interfere.
func (l *debounceLedger) shouldSuppress(descriptor string, now time.Time) bool {
	lastAt, ok := l.last[descriptor]
	if !ok {
		return false
	}
	return now.Sub(lastAt) < debounceInterval
}

// record updates the ledger entry for descriptor to now.
func (l *debounceLedger) record(descriptor string, now time.Time) {
	l.last[descriptor] = now
}

// clear empties the ledger.
func (l *debounceLedger) clear() {
	l.last = make(map[string]time.Time)
}
