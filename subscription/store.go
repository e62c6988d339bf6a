package subscription

import (
	"context"

	"github.com/xraph/junction/id"
)

type Store interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, subID id.SubscriptionID) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
	// ListForAccount returns the account's subscriptions ordered by bundle,
	// then start date.
	ListForAccount(ctx context.Context, accountID id.AccountID) ([]*Subscription, error)
	ListForBundle(ctx context.Context, bundleID id.BundleID) ([]*Subscription, error)

	AddTransition(ctx context.Context, t *Transition) error
	// ListTransitions returns the subscription's transitions ordered by
	// effective date, then TotalOrdering.
	ListTransitions(ctx context.Context, subID id.SubscriptionID) ([]*Transition, error)
}
