package snapshot

import (
	"iter"
	"math"
	"time"
)

const (
	// DefaultMinCapacity is the smallest ring capacity used by CapacityFor.
	DefaultMinCapacity = 10

	// leadCoverage is how many presentation-lead windows of samples a ring retains.
	leadCoverage = 2.5
)

// CapacityFor returns the ring capacity that covers the presentation lead with margin:
//
//	max(minimum, ceil((lead / sendInterval) * 2.5))
//
// A non-positive minimum selects DefaultMinCapacity. A non-positive sendInterval
// yields minimum.
func CapacityFor(lead, sendInterval time.Duration, minimum int) int {
	if minimum <= 0 {
		minimum = DefaultMinCapacity
	}
	if sendInterval <= 0 || lead <= 0 {
		return minimum
	}

	needed := math.Ceil(float64(lead) / float64(sendInterval) * leadCoverage)
	if needed > math.MaxInt32 {
		needed = math.MaxInt32
	}

	return max(minimum, int(needed))
}

// Ring is a fixed-capacity history of snapshots ordered newest first.
//
// Entries [0, Len()) have strictly decreasing timestamps. Add inserts a snapshot at its
// sorted position and evicts the oldest entry when the ring is full. Evict and
// EvictOlderThan remove entries from the old end. Slots are never resized.
//
// A Ring is not safe for concurrent use. Confine it to one goroutine, or share it
// between one writer and one reader through a SharedRing.
type Ring struct {
	slots []Snapshot
	head  int // physical index of the newest entry
	size  int
}

// NewRing creates an empty ring holding at most capacity snapshots.
//
// Panics if capacity is less than 1.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		panic("snapshot: ring capacity must be at least 1")
	}

	return &Ring{slots: make([]Snapshot, capacity)}
}

// Len returns the number of retained snapshots.
func (r *Ring) Len() int {
	return r.size
}

// Cap returns the fixed capacity of the ring.
func (r *Ring) Cap() int {
	return len(r.slots)
}

// At returns the i-th newest snapshot; At(0) is the newest.
//
// Panics if i is outside [0, Len()).
func (r *Ring) At(i int) Snapshot {
	if i < 0 || i >= r.size {
		panic("snapshot: ring index out of range")
	}

	return r.slots[r.phys(i)]
}

// Newest returns the most recent snapshot, or false if the ring is empty.
func (r *Ring) Newest() (Snapshot, bool) {
	if r.size == 0 {
		return Snapshot{}, false
	}

	return r.slots[r.head], true
}

// Oldest returns the least recent snapshot, or false if the ring is empty.
func (r *Ring) Oldest() (Snapshot, bool) {
	if r.size == 0 {
		return Snapshot{}, false
	}

	return r.slots[r.phys(r.size-1)], true
}

// Add inserts s at its sorted position and reports whether it was retained.
//
// A snapshot newer than every entry becomes index 0. Late arrivals are inserted in
// place. When the ring is full the oldest entry is evicted, unless s itself would be
// the oldest, in which case s is dropped. A snapshot whose timestamp equals a
// retained one is dropped.
func (r *Ring) Add(s Snapshot) bool {
	// find the first entry older than s
	k := 0
	for ; k < r.size; k++ {
		ticks := r.slots[r.phys(k)].Ticks
		if ticks == s.Ticks {
			return false
		}
		if ticks < s.Ticks {
			break
		}
	}

	full := r.size == len(r.slots)
	if full && k == r.size {
		return false
	}

	if k == 0 {
		r.head = (r.head - 1 + len(r.slots)) % len(r.slots)
		r.slots[r.head] = s
		if !full {
			r.size++
		}

		return true
	}

	last := r.size
	if full {
		last = r.size - 1
	} else {
		r.size++
	}
	for j := last; j > k; j-- {
		r.slots[r.phys(j)] = r.slots[r.phys(j-1)]
	}
	r.slots[r.phys(k)] = s

	return true
}

// Evict removes up to n of the oldest snapshots and returns how many were removed.
func (r *Ring) Evict(n int) int {
	n = min(max(n, 0), r.size)
	for i := r.size - n; i < r.size; i++ {
		r.slots[r.phys(i)] = Snapshot{}
	}
	r.size -= n

	return n
}

// EvictOlderThan removes every snapshot with a timestamp before ticks and returns how
// many were removed.
func (r *Ring) EvictOlderThan(ticks int64) int {
	keep := r.size
	for keep > 0 && r.slots[r.phys(keep-1)].Ticks < ticks {
		keep--
	}

	return r.Evict(r.size - keep)
}

// Reset removes every snapshot.
func (r *Ring) Reset() {
	clear(r.slots)
	r.head = 0
	r.size = 0
}

// All returns an iterator over (index, snapshot) pairs from newest to oldest.
func (r *Ring) All() iter.Seq2[int, Snapshot] {
	return func(yield func(int, Snapshot) bool) {
		for i := 0; i < r.size; i++ {
			if !yield(i, r.slots[r.phys(i)]) {
				return
			}
		}
	}
}

// Snapshots appends the retained snapshots, newest first, to dst and returns it.
func (r *Ring) Snapshots(dst []Snapshot) []Snapshot {
	for i := 0; i < r.size; i++ {
		dst = append(dst, r.slots[r.phys(i)])
	}

	return dst
}

func (r *Ring) phys(i int) int {
	return (r.head + i) % len(r.slots)
}
