package ledger

import "sync"

// Store serializes access to the snapshot. The ledgers themselves are pure
// value types; the store exists because the HTTP handlers and the workers
// share one logical writer, and the aggregate invariants only hold if
// transitions never interleave.
type Store struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewStore creates a store seeded from a (possibly empty) snapshot. The
// seed is normalized so a stale persisted copy cannot introduce drifted
// totals.
func NewStore(seed Snapshot) *Store {
	return &Store{snap: seed.Normalize()}
}

// Update applies a transition under the store lock and returns the
// resulting snapshot. The transition must be pure; it receives the current
// snapshot by value and returns the next one.
func (s *Store) Update(transition func(Snapshot) Snapshot) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = transition(s.snap)
	return s.snap
}

// Snapshot returns the current state tree.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}
