package billing

import (
	"slices"

	"github.com/samber/lo"

	"github.com/xraph/junction/catalog"
	"github.com/xraph/junction/id"
)

// EventSet is an immutable, Compare-ordered set of billing events plus the
// account invoicing flags that travel with it.
type EventSet struct {
	events                []*Event
	autoInvoiceOff        bool
	autoInvoiceDraft      bool
	autoInvoiceReuseDraft bool
	excluded              []id.SubscriptionID
}

// NewEventSet sorts events into a set. Events comparing equal to one
// already present are dropped.
func NewEventSet(events ...*Event) EventSet {
	return EventSet{events: sortedUnique(nil, events)}
}

func sortedUnique(existing, additions []*Event) []*Event {
	out := make([]*Event, 0, len(existing)+len(additions))
	out = append(out, existing...)
	out = append(out, additions...)
	slices.SortStableFunc(out, Compare)
	return slices.CompactFunc(out, func(a, b *Event) bool { return Compare(a, b) == 0 })
}

// Apply returns a new set with additions inserted and removals taken out.
// The receiver is left unchanged.
func (s EventSet) Apply(additions, removals []*Event) EventSet {
	next := s
	merged := sortedUnique(s.events, additions)

	gone := make([]*Event, len(removals))
	copy(gone, removals)
	slices.SortFunc(gone, Compare)

	next.events = lo.Reject(merged, func(e *Event, _ int) bool {
		_, found := slices.BinarySearchFunc(gone, e, Compare)
		return found
	})
	next.excluded = slices.Clone(s.excluded)
	return next
}

// Events returns the events in order.
func (s EventSet) Events() []*Event { return slices.Clone(s.events) }

func (s EventSet) Len() int { return len(s.events) }

func (s EventSet) IsEmpty() bool { return len(s.events) == 0 }

// Contains reports whether an event comparing equal to e is in the set.
func (s EventSet) Contains(e *Event) bool {
	_, found := slices.BinarySearchFunc(s.events, e, Compare)
	return found
}

// ForSubscription returns the subscription's events in order.
func (s EventSet) ForSubscription(subID id.SubscriptionID) []*Event {
	return lo.Filter(s.events, func(e *Event, _ int) bool { return e.subscriptionID == subID })
}

// SubscriptionIDs returns the subscriptions with at least one event.
func (s EventSet) SubscriptionIDs() []id.SubscriptionID {
	return lo.Uniq(lo.Map(s.events, func(e *Event, _ int) id.SubscriptionID { return e.subscriptionID }))
}

// Usages returns the distinct usage definitions referenced by the events,
// by name.
func (s EventSet) Usages() []catalog.Usage {
	all := lo.FlatMap(s.events, func(e *Event, _ int) []catalog.Usage { return e.usages })
	return lo.UniqBy(all, func(u catalog.Usage) string { return u.Name })
}

func (s EventSet) AutoInvoiceOff() bool        { return s.autoInvoiceOff }
func (s EventSet) AutoInvoiceDraft() bool      { return s.autoInvoiceDraft }
func (s EventSet) AutoInvoiceReuseDraft() bool { return s.autoInvoiceReuseDraft }

func (s EventSet) WithAutoInvoiceOff(v bool) EventSet {
	s.autoInvoiceOff = v
	return s
}

func (s EventSet) WithAutoInvoiceDraft(v bool) EventSet {
	s.autoInvoiceDraft = v
	return s
}

func (s EventSet) WithAutoInvoiceReuseDraft(v bool) EventSet {
	s.autoInvoiceReuseDraft = v
	return s
}

// ExcludedSubscriptionIDs returns the subscriptions whose events must not
// be invoiced.
func (s EventSet) ExcludedSubscriptionIDs() []id.SubscriptionID { return slices.Clone(s.excluded) }

// WithExcludedSubscriptions returns a copy of s with ids added to the
// exclusion list.
func (s EventSet) WithExcludedSubscriptions(ids ...id.SubscriptionID) EventSet {
	s.excluded = lo.Uniq(append(slices.Clone(s.excluded), ids...))
	return s
}

// IsExcluded reports whether invoicing is off for the subscription.
func (s EventSet) IsExcluded(subID id.SubscriptionID) bool {
	return lo.Contains(s.excluded, subID)
}
