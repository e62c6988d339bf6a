package billing_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/junction/account"
	"github.com/xraph/junction/billing"
	"github.com/xraph/junction/catalog"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/subscription"
	"github.com/xraph/junction/types"
)

var base = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return base.AddDate(0, 0, n) }

func testCatalog() *catalog.Static {
	return catalog.NewStatic("test",
		catalog.Plan{
			Name:    "gold-monthly",
			Product: "Gold",
			Phases: []catalog.Phase{
				{Type: catalog.PhaseTrial, Fixed: &catalog.Fixed{Price: catalog.Price{types.USD(0)}}},
				{
					Type:      catalog.PhaseEvergreen,
					Fixed:     &catalog.Fixed{Price: catalog.Price{types.USD(500)}},
					Recurring: &catalog.Recurring{BillingPeriod: catalog.Monthly, Price: catalog.Price{types.USD(4900)}},
					Usages: []catalog.Usage{
						{Name: "seats", Type: catalog.UsageCapacity, BillingPeriod: catalog.Monthly},
						{Name: "calls", Type: catalog.UsageConsumable, BillingPeriod: catalog.Monthly},
					},
				},
			},
		},
		catalog.Plan{
			Name: "silver-monthly",
			Phases: []catalog.Phase{
				{
					Type:      catalog.PhaseEvergreen,
					Recurring: &catalog.Recurring{BillingPeriod: catalog.Monthly, Price: catalog.Price{types.USD(1900)}},
					Usages:    []catalog.Usage{{Name: "calls", Type: catalog.UsageConsumable, BillingPeriod: catalog.Monthly}},
				},
			},
		},
	)
}

type fixture struct {
	seq  *billing.AtomicSequence
	cat  *catalog.Static
	acct *account.Account
	sub  *subscription.Subscription
}

func newFixture() *fixture {
	acctID := id.NewAccountID()
	return &fixture{
		seq:  billing.NewSequence(1),
		cat:  testCatalog(),
		acct: &account.Account{ID: acctID, Currency: "usd", BillCycleDayLocal: 1},
		sub: &subscription.Subscription{
			ID:        id.NewSubscriptionID(),
			AccountID: acctID,
			BundleID:  id.NewBundleID(),
			StartDate: day(0),
		},
	}
}

func (f *fixture) event(t *testing.T, typ subscription.TransitionType, at time.Time, prev, next string, phase catalog.PhaseType) *billing.Event {
	t.Helper()
	tr := &subscription.Transition{
		ID:             id.NewTransitionID(),
		SubscriptionID: f.sub.ID,
		Type:           typ,
		EffectiveDate:  at,
		PrevPlan:       prev,
		PrevPhase:      phase,
		NextPlan:       next,
		NextPhase:      phase,
	}
	e, err := billing.NewEvent(f.seq, f.cat, f.acct, f.sub, tr, 1)
	if err != nil {
		t.Fatalf("NewEvent(%s): %v", typ, err)
	}
	return e
}

func TestNewEvent(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name      string
		typ       subscription.TransitionType
		fixed     *types.Money
		recurring *types.Money
		usages    int
	}{
		{"create", subscription.TransitionCreate, types.USD(500).Ptr(), types.USD(4900).Ptr(), 2},
		{"bcd change drops fixed", subscription.TransitionBCDChange, nil, types.USD(4900).Ptr(), 2},
		{"cancel clears prices", subscription.TransitionCancel, nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := "gold-monthly"
			if tt.typ == subscription.TransitionCancel {
				next = ""
			}
			e := f.event(t, tt.typ, day(1), "gold-monthly", next, catalog.PhaseEvergreen)
			if !types.EqualPtr(e.FixedPrice(), tt.fixed) {
				t.Errorf("fixed = %v, want %v", e.FixedPrice(), tt.fixed)
			}
			if !types.EqualPtr(e.RecurringPrice(), tt.recurring) {
				t.Errorf("recurring = %v, want %v", e.RecurringPrice(), tt.recurring)
			}
			if e.BillingPeriod() != catalog.Monthly {
				t.Errorf("period = %s, want MONTHLY", e.BillingPeriod())
			}
			if len(e.Usages()) != tt.usages {
				t.Errorf("usages = %d, want %d", len(e.Usages()), tt.usages)
			}
			if e.Plan().Name != "gold-monthly" {
				t.Errorf("plan = %s", e.Plan().Name)
			}
			if e.Description() != string(tt.typ) {
				t.Errorf("description = %q", e.Description())
			}
			if e.SubscriptionID() != f.sub.ID || e.BundleID() != f.sub.BundleID || e.Currency() != "usd" {
				t.Error("identity fields not copied")
			}
		})
	}
}

func TestNewEventCatalogError(t *testing.T) {
	f := newFixture()
	f.acct.Currency = "jpy"
	tr := &subscription.Transition{
		SubscriptionID: f.sub.ID,
		Type:           subscription.TransitionCreate,
		EffectiveDate:  day(0),
		NextPlan:       "gold-monthly",
		NextPhase:      catalog.PhaseEvergreen,
	}
	_, err := billing.NewEvent(f.seq, f.cat, f.acct, f.sub, tr, 1)
	if !errors.Is(err, catalog.ErrLookup) || !errors.Is(err, catalog.ErrNoPrice) {
		t.Fatalf("err = %v, want a no-price catalog error", err)
	}
}

func TestNewEventRejectsSyntheticTransitions(t *testing.T) {
	f := newFixture()
	tr := &subscription.Transition{
		Type:          subscription.TransitionStartBillingDisabled,
		EffectiveDate: day(0),
		NextPlan:      "gold-monthly",
		NextPhase:     catalog.PhaseEvergreen,
	}
	if _, err := billing.NewEvent(f.seq, f.cat, f.acct, f.sub, tr, 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestMarkers(t *testing.T) {
	f := newFixture()
	prev := f.event(t, subscription.TransitionCreate, day(0), "", "gold-monthly", catalog.PhaseEvergreen)

	d := billing.NewDisableEvent(f.seq, day(5), prev)
	if !d.IsDisableMarker() || d.IsEnableMarker() || !d.IsMarker() {
		t.Fatalf("disable marker flags wrong: %s", d)
	}
	if d.FixedPrice() != nil || d.RecurringPrice() != nil || d.Usages() != nil {
		t.Error("disable marker carries prices or usages")
	}
	if d.BillingPeriod() != catalog.NoBillingPeriod {
		t.Errorf("disable period = %s", d.BillingPeriod())
	}
	if d.Plan() != prev.Plan() || d.Phase() != prev.Phase() || d.BillCycleDay() != prev.BillCycleDay() {
		t.Error("disable marker does not copy plan, phase and bill cycle day")
	}

	e := billing.NewEnableEvent(f.seq, day(9), prev)
	if !e.IsEnableMarker() || e.IsDisableMarker() {
		t.Fatalf("enable marker flags wrong: %s", e)
	}
	if !types.EqualPtr(e.FixedPrice(), prev.FixedPrice()) || !types.EqualPtr(e.RecurringPrice(), prev.RecurringPrice()) {
		t.Error("enable marker does not restore prices")
	}
	if e.BillingPeriod() != prev.BillingPeriod() || e.Currency() != prev.Currency() {
		t.Error("enable marker does not restore period and currency")
	}
	if !(prev.TotalOrdering() < d.TotalOrdering() && d.TotalOrdering() < e.TotalOrdering()) {
		t.Error("total ordering not increasing")
	}
}

func TestCompare(t *testing.T) {
	f := newFixture()
	create := f.event(t, subscription.TransitionCreate, day(0), "", "gold-monthly", catalog.PhaseEvergreen)
	change := f.event(t, subscription.TransitionChange, day(3), "gold-monthly", "silver-monthly", catalog.PhaseEvergreen)
	disable := billing.NewDisableEvent(f.seq, day(3), create)
	cancel := f.event(t, subscription.TransitionCancel, day(3), "silver-monthly", "", catalog.PhaseEvergreen)
	enable := billing.NewEnableEvent(f.seq, day(3), create)

	other := newFixture()
	other.seq = f.seq
	otherCreate := other.event(t, subscription.TransitionCreate, day(-10), "", "gold-monthly", catalog.PhaseEvergreen)

	if billing.Compare(create, change) >= 0 {
		t.Error("earlier date must sort first")
	}
	if billing.Compare(disable, enable) >= 0 || billing.Compare(enable, disable) <= 0 {
		t.Error("disable marker must sort before enable marker on the same date")
	}
	if billing.Compare(enable, change) >= 0 || billing.Compare(enable, cancel) >= 0 {
		t.Error("enable marker must sort before real events on the same date")
	}
	if billing.Compare(disable, cancel) >= 0 {
		t.Error("disable marker must sort before real events on the same date")
	}
	if billing.Compare(change, cancel) >= 0 {
		t.Error("real events on the same date fall back to total ordering")
	}
	if c := billing.Compare(create, otherCreate); c == 0 || c != -billing.Compare(otherCreate, create) {
		t.Error("subscriptions must order antisymmetrically")
	}

	all := []*billing.Event{create, change, disable, cancel, enable, otherCreate}
	for _, a := range all {
		if billing.Compare(a, a) != 0 {
			t.Errorf("Compare(%s, itself) != 0", a)
		}
		for _, b := range all {
			if a != b && billing.Compare(a, b) == 0 {
				t.Errorf("distinct events %s and %s compare equal", a, b)
			}
			for _, c := range all {
				if billing.Compare(a, b) < 0 && billing.Compare(b, c) < 0 && billing.Compare(a, c) >= 0 {
					t.Errorf("Compare not transitive over %s, %s, %s", a, b, c)
				}
			}
		}
	}
}

func TestEventSetApply(t *testing.T) {
	f := newFixture()
	create := f.event(t, subscription.TransitionCreate, day(0), "", "gold-monthly", catalog.PhaseEvergreen)
	change := f.event(t, subscription.TransitionChange, day(3), "gold-monthly", "silver-monthly", catalog.PhaseEvergreen)
	disable := billing.NewDisableEvent(f.seq, day(2), create)

	set := billing.NewEventSet(change, create).WithAutoInvoiceDraft(true)
	next := set.Apply([]*billing.Event{disable, disable}, []*billing.Event{change})

	if set.Len() != 2 || !set.Contains(change) || set.Contains(disable) {
		t.Fatalf("receiver modified: %v", set.Events())
	}
	got := next.Events()
	if len(got) != 2 || got[0] != create || got[1] != disable {
		t.Fatalf("Apply = %v", got)
	}
	if !next.AutoInvoiceDraft() {
		t.Error("flags not carried over")
	}
	if events := set.Events(); events[0] != create {
		t.Errorf("NewEventSet did not sort: %v", events)
	}
}

func TestEventSetViews(t *testing.T) {
	f := newFixture()
	create := f.event(t, subscription.TransitionCreate, day(0), "", "gold-monthly", catalog.PhaseEvergreen)
	change := f.event(t, subscription.TransitionChange, day(3), "gold-monthly", "silver-monthly", catalog.PhaseEvergreen)

	other := newFixture()
	other.seq = f.seq
	otherCreate := other.event(t, subscription.TransitionCreate, day(1), "", "silver-monthly", catalog.PhaseEvergreen)

	set := billing.NewEventSet(create, change, otherCreate).
		WithAutoInvoiceOff(true).
		WithExcludedSubscriptions(other.sub.ID, other.sub.ID)

	if n := len(set.ForSubscription(f.sub.ID)); n != 2 {
		t.Errorf("ForSubscription = %d events, want 2", n)
	}
	if n := len(set.SubscriptionIDs()); n != 2 {
		t.Errorf("SubscriptionIDs = %d, want 2", n)
	}
	usages := set.Usages()
	if len(usages) != 2 {
		t.Errorf("Usages = %v, want seats and calls", usages)
	}
	if !set.AutoInvoiceOff() || set.AutoInvoiceReuseDraft() {
		t.Error("flags wrong")
	}
	if ids := set.ExcludedSubscriptionIDs(); len(ids) != 1 || !set.IsExcluded(other.sub.ID) || set.IsExcluded(f.sub.ID) {
		t.Errorf("excluded = %v", ids)
	}
}

func TestSequenceConcurrent(t *testing.T) {
	seq := billing.NewSequence(100)
	if first := seq.Next(); first != 100 {
		t.Fatalf("first = %d, want 100", first)
	}

	const workers, each = 8, 500
	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, each)
			for range each {
				local = append(local, seq.Next())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, v := range local {
				if seen[v] {
					t.Errorf("duplicate value %d", v)
				}
				seen[v] = true
			}
		}()
	}
	wg.Wait()
	if len(seen) != workers*each {
		t.Errorf("got %d values, want %d", len(seen), workers*each)
	}
}
