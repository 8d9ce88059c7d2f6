package snapshot

import "sync"

// SharedRing guards a Ring with a read-write lock so that a network goroutine can add
// snapshots while a simulation goroutine reconstructs from them.
type SharedRing struct {
	mu   sync.RWMutex
	ring *Ring
}

// NewSharedRing creates a shared ring with the given capacity.
//
// Panics if capacity is less than 1.
func NewSharedRing(capacity int) *SharedRing {
	return &SharedRing{ring: NewRing(capacity)}
}

// Add inserts s under the write lock. See Ring.Add.
func (s *SharedRing) Add(snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ring.Add(snap)
}

// Read calls fn with the ring while holding the read lock. fn must not retain the
// ring or modify it.
func (s *SharedRing) Read(fn func(r *Ring)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fn(s.ring)
}

// Write calls fn with the ring while holding the write lock.
func (s *SharedRing) Write(fn func(r *Ring)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.ring)
}

// Len returns the number of retained snapshots.
func (s *SharedRing) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ring.Len()
}

// Cap returns the fixed capacity of the ring.
func (s *SharedRing) Cap() int {
	return s.ring.Cap()
}
