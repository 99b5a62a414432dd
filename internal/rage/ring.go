package rage

import (
	"errors"
	"fmt"
)

// ErrNegativeCapacity is returned when a ring is constructed with a
// negative capacity.
var ErrNegativeCapacity = errors.New("ring capacity must not be negative")

// Ring is a fixed-capacity append-only store. Once full, a push overwrites
// the oldest entry. A capacity of zero makes every push a no-op.
//
// A Ring is not safe for concurrent use; callers must serialize access.
type Ring[T any] struct {
	entries  []T
	head     int
	capacity int
}

// NewRing creates a ring with the given capacity.
// A negative capacity fails fast: it cannot be satisfied and signals a
// configuration mistake rather than something to clamp silently.
func NewRing[T any](capacity int) (*Ring[T], error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeCapacity, capacity)
	}
	return &Ring[T]{
		entries:  make([]T, 0, capacity),
		capacity: capacity,
	}, nil
}

// Push appends item, overwriting the oldest entry when the ring is full.
func (r *Ring[T]) Push(item T) {
	if r.capacity == 0 {
		return
	}
	if len(r.entries) < r.capacity {
		r.entries = append(r.entries, item)
		return
	}
	// Full: overwrite the oldest slot and advance the head.
	r.entries[r.head] = item
	r.head = (r.head + 1) % r.capacity
}

// Items returns the retained entries oldest-first. The returned slice is an
// independent copy; later pushes never mutate it.
func (r *Ring[T]) Items() []T {
	result := make([]T, len(r.entries))
	if len(r.entries) < r.capacity || r.head == 0 {
		copy(result, r.entries)
		return result
	}
	// The ring has wrapped: oldest entries start at head.
	n := copy(result, r.entries[r.head:])
	copy(result[n:], r.entries[:r.head])
	return result
}

// Clear empties the ring. Capacity is retained.
func (r *Ring[T]) Clear() {
	r.entries = r.entries[:0]
	r.head = 0
}

// Len returns the number of retained entries.
func (r *Ring[T]) Len() int {
	return len(r.entries)
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int {
	return r.capacity
}
