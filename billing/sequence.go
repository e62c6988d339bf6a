package billing

import "sync/atomic"

// Sequence hands out the tie-breaking TotalOrdering of billing events.
// Values must be unique and increasing across goroutines.
type Sequence interface {
	Next() int64
}

// AtomicSequence is a lock-free Sequence.
type AtomicSequence struct {
	n atomic.Int64
}

// NewSequence returns a Sequence whose first value is start.
func NewSequence(start int64) *AtomicSequence {
	s := &AtomicSequence{}
	s.n.Store(start - 1)
	return s
}

func (s *AtomicSequence) Next() int64 { return s.n.Add(1) }
