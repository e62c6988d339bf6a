package junction_test

import (
	"testing"
	"time"

	"github.com/xraph/junction"
	"github.com/xraph/junction/account"
	"github.com/xraph/junction/billing"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/catalog"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/subscription"
	"github.com/xraph/junction/types"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func testCatalog() *catalog.Static {
	monthly := func(cents int64) *catalog.Recurring {
		return &catalog.Recurring{BillingPeriod: catalog.Monthly, Price: catalog.Price{types.USD(cents)}}
	}
	return catalog.NewStatic("test",
		catalog.Plan{
			Name: "planA",
			Phases: []catalog.Phase{
				{Type: catalog.PhaseTrial, Fixed: &catalog.Fixed{Price: catalog.Price{types.USD(0)}}},
				{Type: catalog.PhaseEvergreen, Recurring: monthly(1000)},
			},
		},
		catalog.Plan{
			Name:   "planB",
			Phases: []catalog.Phase{{Type: catalog.PhaseEvergreen, Recurring: monthly(2500)}},
		},
	)
}

type harness struct {
	t    *testing.T
	seq  *billing.AtomicSequence
	cat  *catalog.Static
	acct *account.Account
	calc *junction.Calculator
}

func newHarness(t *testing.T) *harness {
	seq := billing.NewSequence(1)
	return &harness{
		t:    t,
		seq:  seq,
		cat:  testCatalog(),
		acct: &account.Account{ID: id.NewAccountID(), Currency: "usd", BillCycleDayLocal: 1},
		calc: junction.NewCalculator(seq, blocking.MinDuration, nil),
	}
}

func (h *harness) subscription(bundle id.BundleID) *subscription.Subscription {
	return &subscription.Subscription{
		ID:        id.NewSubscriptionID(),
		AccountID: h.acct.ID,
		BundleID:  bundle,
	}
}

func (h *harness) event(sub *subscription.Subscription, typ subscription.TransitionType, at time.Time, plan string, phase catalog.PhaseType) *billing.Event {
	h.t.Helper()
	tr := &subscription.Transition{
		SubscriptionID: sub.ID,
		Type:           typ,
		EffectiveDate:  at,
		PrevPlan:       plan,
		PrevPhase:      phase,
		NextPlan:       plan,
		NextPhase:      phase,
	}
	e, err := billing.NewEvent(h.seq, h.cat, h.acct, sub, tr, 1)
	if err != nil {
		h.t.Fatalf("NewEvent: %v", err)
	}
	return e
}

func (h *harness) state(scope blocking.Scope, blocked id.ID, at time.Time, block bool) *blocking.State {
	return &blocking.State{
		Entity:        types.NewEntity(),
		ID:            id.NewBlockingStateID(),
		AccountID:     h.acct.ID,
		BlockedID:     blocked,
		Scope:         scope,
		Service:       "svc",
		BlockBilling:  block,
		EffectiveDate: at,
	}
}

type want struct {
	typ subscription.TransitionType
	at  time.Time
}

func assertTimeline(t *testing.T, got []*billing.Event, expected ...want) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("got %d events %v, want %d", len(got), got, len(expected))
	}
	for i, w := range expected {
		if got[i].TransitionType() != w.typ || !got[i].EffectiveDate().Equal(w.at) {
			t.Errorf("event %d = %s %s, want %s %s", i, got[i].TransitionType(), got[i].EffectiveDate().Format(time.DateOnly), w.typ, w.at.Format(time.DateOnly))
		}
	}
}

func TestCalculatorClosedDuration(t *testing.T) {
	h := newHarness(t)
	sub := h.subscription(id.NewBundleID())
	create := h.event(sub, subscription.TransitionCreate, date(2020, 1, 1), "planA", catalog.PhaseEvergreen)
	inside := h.event(sub, subscription.TransitionPhase, date(2020, 2, 15), "planA", catalog.PhaseEvergreen)
	after := h.event(sub, subscription.TransitionChange, date(2020, 3, 1), "planB", catalog.PhaseEvergreen)

	set := billing.NewEventSet(create, inside, after)
	states := []*blocking.State{
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 2, 10), true),
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 2, 20), false),
	}

	out, changed := h.calc.InsertBlockingEvents(set, []*subscription.Subscription{sub}, nil, states)
	if !changed {
		t.Fatal("expected a change")
	}
	events := out.Events()
	assertTimeline(t, events,
		want{subscription.TransitionCreate, date(2020, 1, 1)},
		want{subscription.TransitionStartBillingDisabled, date(2020, 2, 10)},
		want{subscription.TransitionEndBillingDisabled, date(2020, 2, 20)},
		want{subscription.TransitionChange, date(2020, 3, 1)},
	)

	disable, enable := events[1], events[2]
	if disable.Plan().Name != "planA" || disable.Phase().Type != catalog.PhaseEvergreen || disable.Currency() != "usd" {
		t.Errorf("disable marker lost plan attributes: %s", disable)
	}
	if disable.FixedPrice() != nil || disable.BillingPeriod() != catalog.NoBillingPeriod {
		t.Errorf("disable marker still bills: fixed=%v period=%s", disable.FixedPrice(), disable.BillingPeriod())
	}
	// P_e is the PHASE event inside the duration: it is the state that
	// would apply had nothing been blocked.
	if enable.BillingPeriod() != catalog.Monthly || !types.EqualPtr(enable.RecurringPrice(), types.USD(1000).Ptr()) {
		t.Errorf("enable marker did not restore billing: %s", enable)
	}
	if set.Len() != 3 {
		t.Error("input set was modified")
	}
}

func TestCalculatorChangeOnUnblockDate(t *testing.T) {
	h := newHarness(t)
	sub := h.subscription(id.NewBundleID())
	create := h.event(sub, subscription.TransitionCreate, date(2020, 1, 1), "planA", catalog.PhaseEvergreen)
	change := h.event(sub, subscription.TransitionChange, date(2020, 2, 20), "planB", catalog.PhaseEvergreen)

	states := []*blocking.State{
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 2, 10), true),
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 2, 20), false),
	}
	out, changed := h.calc.InsertBlockingEvents(billing.NewEventSet(create, change), []*subscription.Subscription{sub}, nil, states)
	if !changed {
		t.Fatal("expected a change")
	}
	events := out.Events()
	assertTimeline(t, events,
		want{subscription.TransitionCreate, date(2020, 1, 1)},
		want{subscription.TransitionStartBillingDisabled, date(2020, 2, 10)},
		want{subscription.TransitionEndBillingDisabled, date(2020, 2, 20)},
		want{subscription.TransitionChange, date(2020, 2, 20)},
	)
	if last := events[len(events)-1]; last.Plan().Name != "planB" {
		t.Errorf("plan in effect after 2020-02-20 = %s, want planB", last.Plan().Name)
	}

	again, changed := h.calc.InsertBlockingEvents(out, []*subscription.Subscription{sub}, nil, states)
	if changed || again.Len() != out.Len() {
		t.Errorf("second pass changed the set: %v", again.Events())
	}
}

func TestCalculatorMeasuresDaysInAccountTimeZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}
	h := newHarness(t)
	h.acct.TimeZone = "America/New_York"
	sub := h.subscription(id.NewBundleID())
	set := billing.NewEventSet(h.event(sub, subscription.TransitionCreate, date(2020, 1, 1), "planA", catalog.PhaseEvergreen))

	// 2020-03-08 is 23 hours long in New York.
	start := time.Date(2020, 3, 8, 0, 0, 0, 0, ny)
	end := time.Date(2020, 3, 9, 0, 0, 0, 0, ny)
	states := []*blocking.State{
		h.state(blocking.ScopeSubscription, sub.ID, start, true),
		h.state(blocking.ScopeSubscription, sub.ID, end, false),
	}
	out, changed := h.calc.InsertBlockingEvents(set, []*subscription.Subscription{sub}, nil, states)
	if !changed {
		t.Fatal("a full local day of blocking was dropped")
	}
	assertTimeline(t, out.Events(),
		want{subscription.TransitionCreate, date(2020, 1, 1)},
		want{subscription.TransitionStartBillingDisabled, start},
		want{subscription.TransitionEndBillingDisabled, end},
	)
}

func TestCalculatorAttributePreservation(t *testing.T) {
	h := newHarness(t)
	sub := h.subscription(id.NewBundleID())
	create := h.event(sub, subscription.TransitionCreate, date(2020, 1, 1), "planA", catalog.PhaseTrial)

	states := []*blocking.State{
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 2, 10), true),
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 2, 20), false),
	}
	out, _ := h.calc.InsertBlockingEvents(billing.NewEventSet(create), []*subscription.Subscription{sub}, nil, states)
	events := out.Events()
	assertTimeline(t, events,
		want{subscription.TransitionCreate, date(2020, 1, 1)},
		want{subscription.TransitionStartBillingDisabled, date(2020, 2, 10)},
		want{subscription.TransitionEndBillingDisabled, date(2020, 2, 20)},
	)
	if events[1].FixedPrice() != nil {
		t.Error("disable marker carries a fixed price")
	}
	enable := events[2]
	if !types.EqualPtr(enable.FixedPrice(), create.FixedPrice()) || enable.BillingPeriod() != create.BillingPeriod() || enable.Currency() != create.Currency() {
		t.Errorf("enable marker = %s, want the attributes of %s", enable, create)
	}
	if enable.Phase() != create.Phase() || enable.BillCycleDay() != create.BillCycleDay() {
		t.Error("enable marker lost phase or bill cycle day")
	}
}

func TestCalculatorOpenDuration(t *testing.T) {
	h := newHarness(t)
	sub := h.subscription(id.NewBundleID())
	set := billing.NewEventSet(
		h.event(sub, subscription.TransitionCreate, date(2020, 1, 1), "planA", catalog.PhaseEvergreen),
		h.event(sub, subscription.TransitionChange, date(2020, 3, 1), "planB", catalog.PhaseEvergreen),
		h.event(sub, subscription.TransitionChange, date(2020, 4, 1), "planA", catalog.PhaseEvergreen),
	)
	states := []*blocking.State{h.state(blocking.ScopeSubscription, sub.ID, date(2020, 3, 1), true)}

	out, changed := h.calc.InsertBlockingEvents(set, []*subscription.Subscription{sub}, nil, states)
	if !changed {
		t.Fatal("expected a change")
	}
	assertTimeline(t, out.Events(),
		want{subscription.TransitionCreate, date(2020, 1, 1)},
		want{subscription.TransitionStartBillingDisabled, date(2020, 3, 1)},
	)
}

func TestCalculatorDurationBeforeFirstEvent(t *testing.T) {
	h := newHarness(t)
	sub := h.subscription(id.NewBundleID())
	create := h.event(sub, subscription.TransitionCreate, date(2020, 1, 10), "planA", catalog.PhaseEvergreen)
	states := []*blocking.State{
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 1, 5), true),
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 1, 20), false),
	}

	out, changed := h.calc.InsertBlockingEvents(billing.NewEventSet(create), []*subscription.Subscription{sub}, nil, states)
	if !changed {
		t.Fatal("expected a change")
	}
	events := out.Events()
	assertTimeline(t, events, want{subscription.TransitionEndBillingDisabled, date(2020, 1, 20)})
	if !types.EqualPtr(events[0].RecurringPrice(), create.RecurringPrice()) {
		t.Error("enable marker does not restore the removed CREATE")
	}
}

func TestCalculatorIdempotent(t *testing.T) {
	h := newHarness(t)
	bundle := id.NewBundleID()
	sub := h.subscription(bundle)
	set := billing.NewEventSet(
		h.event(sub, subscription.TransitionCreate, date(2020, 1, 1), "planA", catalog.PhaseTrial),
		h.event(sub, subscription.TransitionPhase, date(2020, 1, 31), "planA", catalog.PhaseEvergreen),
		h.event(sub, subscription.TransitionChange, date(2020, 2, 15), "planB", catalog.PhaseEvergreen),
		h.event(sub, subscription.TransitionChange, date(2020, 6, 1), "planA", catalog.PhaseEvergreen),
	)
	states := []*blocking.State{
		h.state(blocking.ScopeBundle, bundle, date(2020, 1, 20), true),
		h.state(blocking.ScopeBundle, bundle, date(2020, 2, 20), false),
		h.state(blocking.ScopeAccount, h.acct.ID, date(2020, 2, 18), true),
		h.state(blocking.ScopeAccount, h.acct.ID, date(2020, 3, 1), false),
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 5, 1), true),
	}
	subs := []*subscription.Subscription{sub}

	once, changed := h.calc.InsertBlockingEvents(set, subs, nil, states)
	if !changed {
		t.Fatal("first run changed nothing")
	}
	twice, changed := h.calc.InsertBlockingEvents(once, subs, nil, states)
	if changed {
		t.Errorf("second run changed the set: %v -> %v", once.Events(), twice.Events())
	}
	assertTimeline(t, twice.Events(),
		want{subscription.TransitionCreate, date(2020, 1, 1)},
		want{subscription.TransitionStartBillingDisabled, date(2020, 1, 20)},
		want{subscription.TransitionEndBillingDisabled, date(2020, 3, 1)},
		want{subscription.TransitionStartBillingDisabled, date(2020, 5, 1)},
	)
}

func TestCalculatorIdempotentWhenBlockedFromStart(t *testing.T) {
	h := newHarness(t)
	sub := h.subscription(id.NewBundleID())
	set := billing.NewEventSet(h.event(sub, subscription.TransitionCreate, date(2020, 1, 1), "planA", catalog.PhaseEvergreen))
	states := []*blocking.State{
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 1, 1), true),
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 1, 15), false),
	}
	subs := []*subscription.Subscription{sub}

	once, _ := h.calc.InsertBlockingEvents(set, subs, nil, states)
	assertTimeline(t, once.Events(), want{subscription.TransitionEndBillingDisabled, date(2020, 1, 15)})
	if _, changed := h.calc.InsertBlockingEvents(once, subs, nil, states); changed {
		t.Error("second run changed the set")
	}
}

func TestCalculatorRemovesStaleMarkers(t *testing.T) {
	h := newHarness(t)
	sub := h.subscription(id.NewBundleID())
	set := billing.NewEventSet(h.event(sub, subscription.TransitionCreate, date(2020, 1, 1), "planA", catalog.PhaseEvergreen))
	subs := []*subscription.Subscription{sub}

	blocked, _ := h.calc.InsertBlockingEvents(set, subs, nil, []*blocking.State{
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 2, 1), true),
	})
	assertTimeline(t, blocked.Events(),
		want{subscription.TransitionCreate, date(2020, 1, 1)},
		want{subscription.TransitionStartBillingDisabled, date(2020, 2, 1)},
	)

	// The block now ends; the open marker is replaced by a closed pair.
	states := []*blocking.State{
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 2, 1), true),
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 2, 10), false),
	}
	out, changed := h.calc.InsertBlockingEvents(blocked, subs, nil, states)
	if !changed {
		t.Fatal("expected a change")
	}
	assertTimeline(t, out.Events(),
		want{subscription.TransitionCreate, date(2020, 1, 1)},
		want{subscription.TransitionStartBillingDisabled, date(2020, 2, 1)},
		want{subscription.TransitionEndBillingDisabled, date(2020, 2, 10)},
	)

	cleared, changed := h.calc.InsertBlockingEvents(out, subs, nil, nil)
	if !changed {
		t.Fatal("expected markers to be removed")
	}
	assertTimeline(t, cleared.Events(), want{subscription.TransitionCreate, date(2020, 1, 1)})
}

func TestCalculatorSubDayBlockIgnored(t *testing.T) {
	h := newHarness(t)
	sub := h.subscription(id.NewBundleID())
	set := billing.NewEventSet(h.event(sub, subscription.TransitionCreate, date(2020, 1, 1), "planA", catalog.PhaseEvergreen))
	states := []*blocking.State{
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 2, 1), true),
		h.state(blocking.ScopeSubscription, sub.ID, date(2020, 2, 1).Add(12*time.Hour), false),
	}
	if _, changed := h.calc.InsertBlockingEvents(set, []*subscription.Subscription{sub}, nil, states); changed {
		t.Error("a twelve hour block changed the set")
	}
}

func TestCalculatorScopes(t *testing.T) {
	h := newHarness(t)
	bundleA, bundleB := id.NewBundleID(), id.NewBundleID()
	subA := h.subscription(bundleA)
	subB := h.subscription(bundleB)
	set := billing.NewEventSet(
		h.event(subA, subscription.TransitionCreate, date(2020, 1, 1), "planA", catalog.PhaseEvergreen),
		h.event(subB, subscription.TransitionCreate, date(2020, 1, 1), "planB", catalog.PhaseEvergreen),
	)
	subs := []*subscription.Subscription{subA, subB}

	t.Run("bundle applies to its own subscriptions", func(t *testing.T) {
		states := []*blocking.State{h.state(blocking.ScopeBundle, bundleA, date(2020, 2, 1), true)}
		out, _ := h.calc.InsertBlockingEvents(set, subs, nil, states)
		if n := len(out.ForSubscription(subA.ID)); n != 2 {
			t.Errorf("subA has %d events, want 2", n)
		}
		if n := len(out.ForSubscription(subB.ID)); n != 1 {
			t.Errorf("subB has %d events, want 1", n)
		}
	})

	t.Run("account applies to every subscription", func(t *testing.T) {
		states := []*blocking.State{h.state(blocking.ScopeAccount, h.acct.ID, date(2020, 2, 1), true)}
		out, _ := h.calc.InsertBlockingEvents(set, subs, nil, states)
		for _, sub := range subs {
			if n := len(out.ForSubscription(sub.ID)); n != 2 {
				t.Errorf("%s has %d events, want 2", sub.ID, n)
			}
		}
	})

	t.Run("skipped subscriptions are untouched", func(t *testing.T) {
		states := []*blocking.State{h.state(blocking.ScopeAccount, h.acct.ID, date(2020, 2, 1), true)}
		out, _ := h.calc.InsertBlockingEvents(set, subs, []id.SubscriptionID{subA.ID}, states)
		if n := len(out.ForSubscription(subA.ID)); n != 1 {
			t.Errorf("skipped subA has %d events, want 1", n)
		}
	})
}

func TestCalculatorIgnoresStatesAfterEndDate(t *testing.T) {
	h := newHarness(t)
	sub := h.subscription(id.NewBundleID())
	end := date(2020, 3, 1)
	sub.EndDate = &end
	set := billing.NewEventSet(
		h.event(sub, subscription.TransitionCreate, date(2020, 1, 1), "planA", catalog.PhaseEvergreen),
		h.event(sub, subscription.TransitionCancel, end, "planA", catalog.PhaseEvergreen),
	)
	states := []*blocking.State{h.state(blocking.ScopeSubscription, sub.ID, date(2020, 4, 1), true)}
	if _, changed := h.calc.InsertBlockingEvents(set, []*subscription.Subscription{sub}, nil, states); changed {
		t.Error("a state after the end date changed the set")
	}
}

func TestCalculatorEmptySet(t *testing.T) {
	h := newHarness(t)
	sub := h.subscription(id.NewBundleID())
	states := []*blocking.State{h.state(blocking.ScopeSubscription, sub.ID, date(2020, 4, 1), true)}
	out, changed := h.calc.InsertBlockingEvents(billing.EventSet{}, []*subscription.Subscription{sub}, nil, states)
	if changed || out.Len() != 0 {
		t.Error("empty set changed")
	}
}
