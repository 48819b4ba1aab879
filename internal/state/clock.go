package state

import "sync/atomic"

// Sequence numbers outstanding requests so that a late response can be
// recognised and dropped. Only the most recently issued number is current.
type Sequence struct {
	n atomic.Uint64
}

// Next issues a new sequence number, invalidating all earlier ones.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// Current reports whether seq is still the latest issued number.
func (s *Sequence) Current(seq uint64) bool {
	return s.n.Load() == seq
}

// Last returns the most recently issued number without issuing a new one.
func (s *Sequence) Last() uint64 {
	return s.n.Load()
}
