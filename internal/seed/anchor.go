package seed

import "sync"

// AnchorSlot holds at most one Anchor and hands it out atomically to the
// first seeding pass that asks, clearing it in the same step. Setting a
// new anchor replaces any unconsumed one; only the latest detach/delete
// needs protection, persisted skip records cover everything older.
type AnchorSlot struct {
	mu     sync.Mutex
	anchor *Anchor
}

// Set stores an anchor for the next seeding pass.
func (s *AnchorSlot) Set(a Anchor) {
	s.mu.Lock()
	s.anchor = &a
	s.mu.Unlock()
}

// Take returns the pending anchor, or nil, and clears the slot either way.
func (s *AnchorSlot) Take() *Anchor {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.anchor
	s.anchor = nil
	return a
}
