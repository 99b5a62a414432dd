package rage_test

import (
	"errors"
	"testing"

	"github.com/jonesrussell/rage-tracker/internal/rage"
)

func newIntRing(t *testing.T, capacity int) *rage.Ring[int] {
	t.Helper()

	r, err := rage.NewRing[int](capacity)
	if err != nil {
		t.Fatalf("NewRing(%d): unexpected error: %v", capacity, err)
	}
	return r
}

func TestNewRing_NegativeCapacity(t *testing.T) {
	_, err := rage.NewRing[int](-1)
	if err == nil {
		t.Fatal("expected error for negative capacity, got nil")
	}
	if !errors.Is(err, rage.ErrNegativeCapacity) {
		t.Fatalf("expected ErrNegativeCapacity, got: %v", err)
	}
}

func TestRing_ZeroCapacityPushIsNoOp(t *testing.T) {
	r := newIntRing(t, 0)

	r.Push(1)
	r.Push(2)

	if r.Len() != 0 {
		t.Fatalf("expected empty ring, got %d entries", r.Len())
	}
	if got := r.Items(); len(got) != 0 {
		t.Fatalf("expected no items, got %v", got)
	}
}

func TestRing_PreservesInsertionOrder(t *testing.T) {
	r := newIntRing(t, 5)

	for i := 1; i <= 3; i++ {
		r.Push(i)
	}

	got := r.Items()
	want := []int{1, 2, 3}
	assertIntSliceEqual(t, want, got)
}

func TestRing_OverwritesOldestWhenFull(t *testing.T) {
	r := newIntRing(t, 3)

	// Push more items than the ring can hold.
	for i := 1; i <= 7; i++ {
		r.Push(i)
	}

	if r.Len() != 3 {
		t.Fatalf("expected len 3, got %d", r.Len())
	}

	// Exactly the most recent pushes remain, in arrival order.
	got := r.Items()
	want := []int{5, 6, 7}
	assertIntSliceEqual(t, want, got)
}

func TestRing_ItemsSnapshotIsIndependent(t *testing.T) {
	r := newIntRing(t, 3)
	r.Push(1)
	r.Push(2)

	snapshot := r.Items()

	// Keep pushing past capacity; the earlier snapshot must not change.
	r.Push(3)
	r.Push(4)

	want := []int{1, 2}
	assertIntSliceEqual(t, want, snapshot)
}

func TestRing_ClearRetainsCapacity(t *testing.T) {
	r := newIntRing(t, 2)
	r.Push(1)
	r.Push(2)

	r.Clear()

	if r.Len() != 0 {
		t.Fatalf("expected empty ring after Clear, got %d entries", r.Len())
	}
	if r.Cap() != 2 {
		t.Fatalf("expected capacity 2 after Clear, got %d", r.Cap())
	}

	// The ring is usable again and wraps correctly after a clear.
	r.Push(3)
	r.Push(4)
	r.Push(5)
	assertIntSliceEqual(t, []int{4, 5}, r.Items())
}

func TestRing_LenNeverExceedsCap(t *testing.T) {
	r := newIntRing(t, 4)

	for i := range 20 {
		r.Push(i)
		if r.Len() > r.Cap() {
			t.Fatalf("len %d exceeds cap %d after push %d", r.Len(), r.Cap(), i)
		}
	}
}

// assertIntSliceEqual is a test helper that compares int slices element-wise.
func assertIntSliceEqual(t *testing.T, want, got []int) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length: got %d (%v), want %d (%v)", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %d, want %d (full: got %v, want %v)", i, got[i], want[i], got, want)
		}
	}
}
