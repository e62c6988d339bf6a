// Package blocking turns recorded blocking states into the periods during
// which billing is disabled.
package blocking

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvariantViolation is the value panics in this package wrap. It marks
// a programming error, never bad input data.
var ErrInvariantViolation = errors.New("junction: invariant violation")

func violation(format string, args ...any) {
	panic(fmt.Errorf("%w: "+format, append([]any{ErrInvariantViolation}, args...)...))
}

// DisabledDuration is the half-open period [Start, End) during which
// billing is disabled. A nil End means the period has not ended.
type DisabledDuration struct {
	Start time.Time
	End   *time.Time
}

// NewDisabledDuration returns [start, end). It panics if end is before start.
func NewDisabledDuration(start time.Time, end *time.Time) DisabledDuration {
	if end != nil && end.Before(start) {
		violation("duration ends at %s before it starts at %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return DisabledDuration{Start: start, End: end}
}

// IsOpen reports whether the duration has no end.
func (d DisabledDuration) IsOpen() bool { return d.End == nil }

// Contains reports whether t falls in [Start, End).
func (d DisabledDuration) Contains(t time.Time) bool {
	if t.Before(d.Start) {
		return false
	}
	return d.End == nil || t.Before(*d.End)
}

// Length returns End-Start. ok is false for open durations.
func (d DisabledDuration) Length() (length time.Duration, ok bool) {
	if d.End == nil {
		return 0, false
	}
	return d.End.Sub(d.Start), true
}

// Compare orders durations by start, then by end with open ends last.
func (d DisabledDuration) Compare(o DisabledDuration) int {
	if c := d.Start.Compare(o.Start); c != 0 {
		return c
	}
	switch {
	case d.End == nil && o.End == nil:
		return 0
	case d.End == nil:
		return 1
	case o.End == nil:
		return -1
	}
	return d.End.Compare(*o.End)
}

// Disjoint reports whether d ends strictly before o starts. Durations that
// touch (d.End == o.Start) are not disjoint.
func (d DisabledDuration) Disjoint(o DisabledDuration) bool {
	return d.End != nil && d.End.Before(o.Start)
}

func (d DisabledDuration) String() string {
	end := "∞"
	if d.End != nil {
		end = d.End.Format(time.RFC3339)
	}
	return fmt.Sprintf("[%s, %s)", d.Start.Format(time.RFC3339), end)
}

// Merge joins two overlapping or touching durations. b must not start
// before a; Merge panics otherwise, or when the two are disjoint.
func Merge(a, b DisabledDuration) DisabledDuration {
	if b.Start.Before(a.Start) {
		violation("merge of %s with earlier %s", a, b)
	}
	if a.Disjoint(b) {
		violation("merge of disjoint %s and %s", a, b)
	}
	if a.End == nil || b.End == nil {
		return DisabledDuration{Start: a.Start}
	}
	end := *a.End
	if b.End.After(end) {
		end = *b.End
	}
	return DisabledDuration{Start: a.Start, End: &end}
}

// Union returns the minimal ascending list of pairwise disjoint durations
// covering exactly the input. The input is not modified.
func Union(durations []DisabledDuration) []DisabledDuration {
	if len(durations) == 0 {
		return nil
	}
	sorted := make([]DisabledDuration, len(durations))
	copy(sorted, durations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Compare(sorted[j]) < 0 })

	out := make([]DisabledDuration, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if cur.Disjoint(next) {
			out = append(out, cur)
			cur = next
			continue
		}
		cur = Merge(cur, next)
	}
	return append(out, cur)
}
