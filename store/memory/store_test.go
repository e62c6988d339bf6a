package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/junction"
	"github.com/xraph/junction/account"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/store"
	"github.com/xraph/junction/store/memory"
	"github.com/xraph/junction/subscription"
	"github.com/xraph/junction/types"
)

var base = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	a := &account.Account{ID: id.NewAccountID(), Currency: "usd", BillCycleDayLocal: 15}
	if err := s.UpsertAccount(ctx, a); err != nil {
		t.Fatal(err)
	}
	a.BillCycleDayLocal = 20
	if err := s.UpsertAccount(ctx, a); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.BillCycleDayLocal != 20 {
		t.Errorf("bcd = %d, want 20", got.BillCycleDayLocal)
	}

	if _, err := s.GetAccount(ctx, id.NewAccountID()); !junction.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestSubscriptionsAndTransitions(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	acct := id.NewAccountID()
	bundle := id.NewBundleID()

	later := &subscription.Subscription{ID: id.NewSubscriptionID(), AccountID: acct, BundleID: bundle, StartDate: base.AddDate(0, 1, 0)}
	first := &subscription.Subscription{ID: id.NewSubscriptionID(), AccountID: acct, BundleID: bundle, StartDate: base}
	for _, sub := range []*subscription.Subscription{later, first} {
		if err := s.CreateSubscription(ctx, sub); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.CreateSubscription(ctx, first); !errors.Is(err, junction.ErrAlreadyExists) {
		t.Errorf("duplicate create err = %v", err)
	}

	subs, err := s.ListAccountSubscriptions(ctx, acct)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 || subs[0].ID != first.ID {
		t.Fatalf("subscriptions not ordered by start date: %v", subs)
	}

	for i, typ := range []subscription.TransitionType{subscription.TransitionPhase, subscription.TransitionCreate} {
		tr := &subscription.Transition{
			ID:             id.NewTransitionID(),
			SubscriptionID: first.ID,
			Type:           typ,
			EffectiveDate:  base.AddDate(0, 0, 30*(1-i)),
			TotalOrdering:  int64(i + 1),
		}
		if err := s.RecordTransition(ctx, tr); err != nil {
			t.Fatal(err)
		}
	}
	trs, err := s.ListTransitions(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(trs) != 2 || trs[0].Type != subscription.TransitionCreate {
		t.Errorf("transitions not ordered by date: %v", trs)
	}

	orphan := &subscription.Transition{ID: id.NewTransitionID(), SubscriptionID: id.NewSubscriptionID()}
	if err := s.RecordTransition(ctx, orphan); !junction.IsNotFound(err) {
		t.Errorf("orphan transition err = %v", err)
	}
}

func TestBlockingStatesComeBackInEffectiveDateOrder(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	acct := id.NewAccountID()
	bundle := id.NewBundleID()

	for _, offset := range []int{5, 1, 3} {
		st := &blocking.State{
			Entity:        types.NewEntity(),
			ID:            id.NewBlockingStateID(),
			AccountID:     acct,
			BlockedID:     bundle,
			Scope:         blocking.ScopeBundle,
			Service:       "svc",
			BlockBilling:  offset != 3,
			EffectiveDate: base.AddDate(0, 0, offset),
		}
		if err := s.RecordBlockingState(ctx, st); err != nil {
			t.Fatal(err)
		}
	}

	states, err := store.BlockingStates(s).ListForAccount(ctx, acct)
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != 3 {
		t.Fatalf("got %d states", len(states))
	}
	for i := 1; i < len(states); i++ {
		if states[i].EffectiveDate.Before(states[i-1].EffectiveDate) {
			t.Errorf("states out of order at %d", i)
		}
	}

	byBundle, err := s.ListBlockingStates(ctx, bundle)
	if err != nil || len(byBundle) != 3 {
		t.Errorf("ListBlockingStates = %d, %v", len(byBundle), err)
	}
	if other, _ := s.ListAccountBlockingStates(ctx, id.NewAccountID()); len(other) != 0 {
		t.Errorf("other account sees %d states", len(other))
	}
}

func TestClose(t *testing.T) {
	s := memory.New()
	if err := s.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()
	if err := s.Ping(context.Background()); !errors.Is(err, junction.ErrStoreClosed) {
		t.Errorf("Ping after Close = %v", err)
	}
}
