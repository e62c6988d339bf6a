package junction

import (
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/xraph/junction/billing"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/subscription"
)

// Calculator rewrites a billing event set so that blocked periods are not
// billed. Each disabled duration [s, e) of a subscription becomes a
// START_BILLING_DISABLED marker at s and, when closed, an
// END_BILLING_DISABLED marker at e; real events inside the duration are
// dropped.
//
// Calculator holds no mutable state beyond its Sequence and is safe for
// concurrent use on distinct event sets.
type Calculator struct {
	seq       billing.Sequence
	minLength time.Duration
	logger    *slog.Logger
}

// NewCalculator returns a Calculator drawing marker orderings from seq.
func NewCalculator(seq billing.Sequence, minLength time.Duration, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{seq: seq, minLength: minLength, logger: logger}
}

// InsertBlockingEvents applies states to the events of subs, skipping the
// subscriptions in skip. It returns the adjusted set and whether anything
// changed. Running it again on its own output changes nothing.
func (c *Calculator) InsertBlockingEvents(set billing.EventSet, subs []*subscription.Subscription, skip []id.SubscriptionID, states []*blocking.State) (billing.EventSet, bool) {
	if set.IsEmpty() {
		return set, false
	}

	var additions, removals []*billing.Event
	for _, sub := range subs {
		if lo.Contains(skip, sub.ID) {
			continue
		}
		events := set.ForSubscription(sub.ID)
		if len(events) == 0 {
			continue
		}

		durations := blocking.Union(blocking.ExtractIn(applicableStates(states, sub), c.minLength, c.location(events[0])))
		add, remove := c.adjust(events, durations)
		if len(add)+len(remove) > 0 {
			c.logger.Debug("blocking adjusted subscription",
				"subscription_id", sub.ID.String(),
				"durations", len(durations),
				"added", len(add),
				"removed", len(remove),
			)
		}
		additions = append(additions, add...)
		removals = append(removals, remove...)
	}

	if len(additions)+len(removals) == 0 {
		return set, false
	}
	return set.Apply(additions, removals), true
}

// location is the time zone whose calendar measures blocked days. An
// unknown zone falls back to UTC.
func (c *Calculator) location(e *billing.Event) *time.Location {
	if e.TimeZone() == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.TimeZone())
	if err != nil {
		c.logger.Warn("unknown time zone, measuring blocked days in UTC",
			"subscription_id", e.SubscriptionID().String(),
			"time_zone", e.TimeZone(),
		)
		return time.UTC
	}
	return loc
}

// applicableStates keeps the account-wide states plus those aimed at the
// subscription or its bundle, minus anything after the subscription ended.
func applicableStates(states []*blocking.State, sub *subscription.Subscription) []*blocking.State {
	return lo.Filter(states, func(s *blocking.State, _ int) bool {
		if sub.EndsBefore(s.EffectiveDate) {
			return false
		}
		switch s.Scope {
		case blocking.ScopeAccount:
			return true
		case blocking.ScopeBundle:
			return s.BlockedID == sub.BundleID
		case blocking.ScopeSubscription:
			return s.BlockedID == sub.ID
		}
		return false
	})
}

// adjust diffs the markers durations call for against those already in
// events. events belong to one subscription and are in billing order.
func (c *Calculator) adjust(events []*billing.Event, durations []blocking.DisabledDuration) (additions, removals []*billing.Event) {
	stateful := lo.Reject(events, func(e *billing.Event, _ int) bool { return e.IsDisableMarker() })

	var desired []*billing.Event
	for _, d := range durations {
		if prev := lastBefore(stateful, d.Start); prev != nil {
			desired = append(desired, billing.NewDisableEvent(c.seq, d.Start, prev))
		}
		if d.End != nil {
			prev := lastBefore(stateful, *d.End)
			if prev == nil {
				prev = enableMarkerAt(events, *d.End)
			}
			if prev != nil {
				desired = append(desired, billing.NewEnableEvent(c.seq, *d.End, prev))
			}
		}
		for _, e := range events {
			if !e.IsMarker() && d.Contains(e.EffectiveDate()) {
				removals = append(removals, e)
			}
		}
	}

	markers := lo.Filter(events, func(e *billing.Event, _ int) bool { return e.IsMarker() })
	for _, want := range desired {
		if !lo.ContainsBy(markers, func(have *billing.Event) bool { return sameMarker(want, have) }) {
			additions = append(additions, want)
		}
	}
	for _, have := range markers {
		if !lo.ContainsBy(desired, func(want *billing.Event) bool { return sameMarker(want, have) }) {
			removals = append(removals, have)
		}
	}
	return additions, removals
}

// lastBefore returns the last event strictly before t.
func lastBefore(events []*billing.Event, t time.Time) *billing.Event {
	var last *billing.Event
	for _, e := range events {
		if !e.EffectiveDate().Before(t) {
			break
		}
		last = e
	}
	return last
}

func enableMarkerAt(events []*billing.Event, t time.Time) *billing.Event {
	e, _ := lo.Find(events, func(e *billing.Event) bool {
		return e.IsEnableMarker() && e.EffectiveDate().Equal(t)
	})
	return e
}

func sameMarker(a, b *billing.Event) bool {
	return a.SubscriptionID() == b.SubscriptionID() &&
		a.TransitionType() == b.TransitionType() &&
		a.EffectiveDate().Equal(b.EffectiveDate())
}
