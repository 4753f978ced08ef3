// Package ingest receives target batches from the vision client and hands
// the most recent one to the control loop.
package ingest

import "sync"

// Slot is a single-element queue. A Put replaces any value not yet taken,
// so a consumer only ever sees the freshest item.
type Slot[T any] struct {
	mu    sync.Mutex
	value T
	full  bool
	puts  uint64
	drops uint64
	takes uint64
}

// NewSlot returns an empty Slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{}
}

// Put stores v, discarding any unread value. It reports whether a value
// was discarded.
func (s *Slot[T]) Put(v T) (dropped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped = s.full
	if dropped {
		s.drops++
	}
	s.value = v
	s.full = true
	s.puts++
	return dropped
}

// TryTake removes and returns the stored value without blocking. ok is
// false when the slot is empty.
func (s *Slot[T]) TryTake() (v T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.full {
		return v, false
	}
	v = s.value
	var zero T
	s.value = zero
	s.full = false
	s.takes++
	return v, true
}

// Len returns 1 when a value is waiting and 0 otherwise.
func (s *Slot[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return 1
	}
	return 0
}

// SlotStats are cumulative counters for a Slot.
type SlotStats struct {
	Puts  uint64 `json:"puts"`
	Drops uint64 `json:"drops"`
	Takes uint64 `json:"takes"`
}

// Stats returns a snapshot of the slot counters.
func (s *Slot[T]) Stats() SlotStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SlotStats{Puts: s.puts, Drops: s.drops, Takes: s.takes}
}
