// Package plugin provides an extensible plugin system for Junction.
// Plugins can hook into lifecycle events to observe billing computations.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/junction/account"
	"github.com/xraph/junction/billing"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/subscription"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Input hooks
// ──────────────────────────────────────────────────

// OnAccountUpdated is called after an account is created or updated.
type OnAccountUpdated interface {
	Plugin
	OnAccountUpdated(ctx context.Context, acct *account.Account) error
}

// OnSubscriptionCreated is called after a subscription is created.
type OnSubscriptionCreated interface {
	Plugin
	OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) error
}

// OnTransitionRecorded is called after a subscription transition is stored.
type OnTransitionRecorded interface {
	Plugin
	OnTransitionRecorded(ctx context.Context, tr *subscription.Transition) error
}

// OnBlockingStateRecorded is called after a blocking state is stored.
type OnBlockingStateRecorded interface {
	Plugin
	OnBlockingStateRecorded(ctx context.Context, state *blocking.State) error
}

// ──────────────────────────────────────────────────
// Computation hooks
// ──────────────────────────────────────────────────

// OnSubscriptionSkipped is called when a subscription is left out of an
// account's billing events.
type OnSubscriptionSkipped interface {
	Plugin
	OnSubscriptionSkipped(ctx context.Context, subID id.SubscriptionID, reason string) error
}

// OnSubscriptionFailed is called when the events of one subscription could
// not be computed.
type OnSubscriptionFailed interface {
	Plugin
	OnSubscriptionFailed(ctx context.Context, subID id.SubscriptionID, cause error) error
}

// OnBillingEventsComputed is called once per BillingEventsForAccount call.
type OnBillingEventsComputed interface {
	Plugin
	OnBillingEventsComputed(ctx context.Context, accountID id.AccountID, set billing.EventSet, blockingApplied bool, elapsed time.Duration) error
}
