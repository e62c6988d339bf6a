package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/junction/account"
	"github.com/xraph/junction/billing"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/subscription"
)

// DefaultTimeout bounds every hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                  []OnInit
	onShutdown              []OnShutdown
	onAccountUpdated        []OnAccountUpdated
	onSubscriptionCreated   []OnSubscriptionCreated
	onTransitionRecorded    []OnTransitionRecorded
	onBlockingStateRecorded []OnBlockingStateRecorded
	onSubscriptionSkipped   []OnSubscriptionSkipped
	onSubscriptionFailed    []OnSubscriptionFailed
	onBillingEventsComputed []OnBillingEventsComputed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnAccountUpdated); ok {
		r.onAccountUpdated = append(r.onAccountUpdated, v)
	}
	if v, ok := p.(OnSubscriptionCreated); ok {
		r.onSubscriptionCreated = append(r.onSubscriptionCreated, v)
	}
	if v, ok := p.(OnTransitionRecorded); ok {
		r.onTransitionRecorded = append(r.onTransitionRecorded, v)
	}
	if v, ok := p.(OnBlockingStateRecorded); ok {
		r.onBlockingStateRecorded = append(r.onBlockingStateRecorded, v)
	}
	if v, ok := p.(OnSubscriptionSkipped); ok {
		r.onSubscriptionSkipped = append(r.onSubscriptionSkipped, v)
	}
	if v, ok := p.(OnSubscriptionFailed); ok {
		r.onSubscriptionFailed = append(r.onSubscriptionFailed, v)
	}
	if v, ok := p.(OnBillingEventsComputed); ok {
		r.onBillingEventsComputed = append(r.onBillingEventsComputed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeFor[OnInit]()},
	{"OnShutdown", reflect.TypeFor[OnShutdown]()},
	{"OnAccountUpdated", reflect.TypeFor[OnAccountUpdated]()},
	{"OnSubscriptionCreated", reflect.TypeFor[OnSubscriptionCreated]()},
	{"OnTransitionRecorded", reflect.TypeFor[OnTransitionRecorded]()},
	{"OnBlockingStateRecorded", reflect.TypeFor[OnBlockingStateRecorded]()},
	{"OnSubscriptionSkipped", reflect.TypeFor[OnSubscriptionSkipped]()},
	{"OnSubscriptionFailed", reflect.TypeFor[OnSubscriptionFailed]()},
	{"OnBillingEventsComputed", reflect.TypeFor[OnBillingEventsComputed]()},
}

// implementedInterfaces returns the names of the hooks p implements.
func implementedInterfaces(p Plugin) []string {
	var out []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			out = append(out, h.name)
		}
	}
	return out
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit calls fn for every hook, logging failures. Hook errors never reach
// the caller.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, hooks []T, fn func(T) error) {
	for _, p := range hooks {
		if err := r.callWithTimeout(ctx, p.Name(), func() error { return fn(p) }); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

func snapshot[T any](r *Registry, list *[]T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return *list
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	emit(ctx, r, "OnInit", snapshot(r, &r.onInit), func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", snapshot(r, &r.onShutdown), func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitAccountUpdated emits an account updated event.
func (r *Registry) EmitAccountUpdated(ctx context.Context, acct *account.Account) {
	emit(ctx, r, "OnAccountUpdated", snapshot(r, &r.onAccountUpdated), func(p OnAccountUpdated) error {
		return p.OnAccountUpdated(ctx, acct)
	})
}

// EmitSubscriptionCreated emits a subscription created event.
func (r *Registry) EmitSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) {
	emit(ctx, r, "OnSubscriptionCreated", snapshot(r, &r.onSubscriptionCreated), func(p OnSubscriptionCreated) error {
		return p.OnSubscriptionCreated(ctx, sub)
	})
}

// EmitTransitionRecorded emits a transition recorded event.
func (r *Registry) EmitTransitionRecorded(ctx context.Context, tr *subscription.Transition) {
	emit(ctx, r, "OnTransitionRecorded", snapshot(r, &r.onTransitionRecorded), func(p OnTransitionRecorded) error {
		return p.OnTransitionRecorded(ctx, tr)
	})
}

// EmitBlockingStateRecorded emits a blocking state recorded event.
func (r *Registry) EmitBlockingStateRecorded(ctx context.Context, state *blocking.State) {
	emit(ctx, r, "OnBlockingStateRecorded", snapshot(r, &r.onBlockingStateRecorded), func(p OnBlockingStateRecorded) error {
		return p.OnBlockingStateRecorded(ctx, state)
	})
}

// EmitSubscriptionSkipped emits a subscription skipped event.
func (r *Registry) EmitSubscriptionSkipped(ctx context.Context, subID id.SubscriptionID, reason string) {
	emit(ctx, r, "OnSubscriptionSkipped", snapshot(r, &r.onSubscriptionSkipped), func(p OnSubscriptionSkipped) error {
		return p.OnSubscriptionSkipped(ctx, subID, reason)
	})
}

// EmitSubscriptionFailed emits a subscription failed event.
func (r *Registry) EmitSubscriptionFailed(ctx context.Context, subID id.SubscriptionID, cause error) {
	emit(ctx, r, "OnSubscriptionFailed", snapshot(r, &r.onSubscriptionFailed), func(p OnSubscriptionFailed) error {
		return p.OnSubscriptionFailed(ctx, subID, cause)
	})
}

// EmitBillingEventsComputed emits a billing events computed event.
func (r *Registry) EmitBillingEventsComputed(ctx context.Context, accountID id.AccountID, set billing.EventSet, blockingApplied bool, elapsed time.Duration) {
	emit(ctx, r, "OnBillingEventsComputed", snapshot(r, &r.onBillingEventsComputed), func(p OnBillingEventsComputed) error {
		return p.OnBillingEventsComputed(ctx, accountID, set, blockingApplied, elapsed)
	})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
