package blocking

import "time"

// MinDuration is the default shortest closed duration Extract keeps: one
// calendar day. Whole days are counted on the calendar of the extractor's
// location, so a midnight-to-midnight block across a DST change still
// counts as a day.
const MinDuration = 24 * time.Hour

type key struct {
	scope     Scope
	blockedID string
	service   string
}

// Extractor folds blocking states into disabled durations. Each
// (scope, blocked object, service) triple keeps its own open start;
// a block while open and an unblock while closed are ignored.
type Extractor struct {
	minLength time.Duration
	loc       *time.Location
	open      map[key]*time.Time
	keys      []key
	closed    map[key][]DisabledDuration
}

// NewExtractor returns an Extractor that drops closed durations shorter
// than minLength.
func NewExtractor(minLength time.Duration) *Extractor {
	return &Extractor{
		minLength: minLength,
		loc:       time.UTC,
		open:      make(map[key]*time.Time),
		closed:    make(map[key][]DisabledDuration),
	}
}

// In sets the location whose calendar measures whole days of minLength.
// A nil location means UTC.
func (x *Extractor) In(loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.UTC
	}
	x.loc = loc
	return x
}

// Add feeds the next state. States must arrive in Sort order.
func (x *Extractor) Add(s *State) {
	k := key{scope: s.Scope, blockedID: s.BlockedID.String(), service: s.Service}
	start, seen := x.open[k]
	if !seen {
		x.keys = append(x.keys, k)
	}

	switch {
	case s.BlockBilling && start == nil:
		at := s.EffectiveDate
		x.open[k] = &at
	case !s.BlockBilling && start != nil:
		end := s.EffectiveDate
		x.closed[k] = append(x.closed[k], NewDisabledDuration(*start, &end))
		x.open[k] = nil
	default:
		if !seen {
			x.open[k] = nil
		}
	}
}

// Durations returns the durations of every key in first-seen order, each
// key's durations in time order. A key still open yields an open duration.
func (x *Extractor) Durations() []DisabledDuration {
	var out []DisabledDuration
	for _, k := range x.keys {
		for _, d := range x.closed[k] {
			if x.longEnough(d) {
				out = append(out, d)
			}
		}
		if start := x.open[k]; start != nil {
			out = append(out, DisabledDuration{Start: *start})
		}
	}
	return out
}

// longEnough reports whether the closed duration d spans minLength, with
// whole days taken as calendar days in x.loc.
func (x *Extractor) longEnough(d DisabledDuration) bool {
	days := int(x.minLength / (24 * time.Hour))
	rest := x.minLength % (24 * time.Hour)
	threshold := d.Start.In(x.loc).AddDate(0, 0, days).Add(rest)
	return !d.End.Before(threshold)
}

// Extract returns the disabled durations described by states, measuring
// days in UTC. The input is sorted on a copy first.
func Extract(states []*State, minLength time.Duration) []DisabledDuration {
	return ExtractIn(states, minLength, time.UTC)
}

// ExtractIn is Extract with days measured on the calendar of loc.
func ExtractIn(states []*State, minLength time.Duration, loc *time.Location) []DisabledDuration {
	sorted := make([]*State, len(states))
	copy(sorted, states)
	Sort(sorted)

	x := NewExtractor(minLength).In(loc)
	for _, s := range sorted {
		x.Add(s)
	}
	return x.Durations()
}
