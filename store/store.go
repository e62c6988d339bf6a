package store

import (
	"context"

	"github.com/xraph/junction/account"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/subscription"
)

// Store is the unified storage interface for all Junction entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Account methods
	UpsertAccount(ctx context.Context, a *account.Account) error
	GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error)

	// Subscription methods
	CreateSubscription(ctx context.Context, s *subscription.Subscription) error
	GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error)
	UpdateSubscription(ctx context.Context, s *subscription.Subscription) error
	ListAccountSubscriptions(ctx context.Context, accountID id.AccountID) ([]*subscription.Subscription, error)
	ListBundleSubscriptions(ctx context.Context, bundleID id.BundleID) ([]*subscription.Subscription, error)

	// Transition methods
	RecordTransition(ctx context.Context, t *subscription.Transition) error
	ListTransitions(ctx context.Context, subID id.SubscriptionID) ([]*subscription.Transition, error)

	// Blocking state methods
	RecordBlockingState(ctx context.Context, s *blocking.State) error
	ListAccountBlockingStates(ctx context.Context, accountID id.AccountID) ([]*blocking.State, error)
	ListBlockingStates(ctx context.Context, blockedID id.ID) ([]*blocking.State, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Domain views over a Store.

// Accounts adapts s to account.Store.
func Accounts(s Store) account.Store { return accounts{s} }

// Subscriptions adapts s to subscription.Store.
func Subscriptions(s Store) subscription.Store { return subscriptions{s} }

// BlockingStates adapts s to blocking.Store.
func BlockingStates(s Store) blocking.Store { return blockingStates{s} }

type accounts struct{ s Store }

func (a accounts) Upsert(ctx context.Context, acct *account.Account) error {
	return a.s.UpsertAccount(ctx, acct)
}

func (a accounts) Get(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	return a.s.GetAccount(ctx, accountID)
}

type subscriptions struct{ s Store }

func (v subscriptions) Create(ctx context.Context, sub *subscription.Subscription) error {
	return v.s.CreateSubscription(ctx, sub)
}

func (v subscriptions) Get(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	return v.s.GetSubscription(ctx, subID)
}

func (v subscriptions) Update(ctx context.Context, sub *subscription.Subscription) error {
	return v.s.UpdateSubscription(ctx, sub)
}

func (v subscriptions) ListForAccount(ctx context.Context, accountID id.AccountID) ([]*subscription.Subscription, error) {
	return v.s.ListAccountSubscriptions(ctx, accountID)
}

func (v subscriptions) ListForBundle(ctx context.Context, bundleID id.BundleID) ([]*subscription.Subscription, error) {
	return v.s.ListBundleSubscriptions(ctx, bundleID)
}

func (v subscriptions) AddTransition(ctx context.Context, t *subscription.Transition) error {
	return v.s.RecordTransition(ctx, t)
}

func (v subscriptions) ListTransitions(ctx context.Context, subID id.SubscriptionID) ([]*subscription.Transition, error) {
	return v.s.ListTransitions(ctx, subID)
}

type blockingStates struct{ s Store }

func (b blockingStates) Record(ctx context.Context, st *blocking.State) error {
	return b.s.RecordBlockingState(ctx, st)
}

func (b blockingStates) ListForAccount(ctx context.Context, accountID id.AccountID) ([]*blocking.State, error) {
	return b.s.ListAccountBlockingStates(ctx, accountID)
}

func (b blockingStates) ListForBlockedID(ctx context.Context, blockedID id.ID) ([]*blocking.State, error) {
	return b.s.ListBlockingStates(ctx, blockedID)
}
