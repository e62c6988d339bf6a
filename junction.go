package junction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/junction/account"
	"github.com/xraph/junction/billing"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/catalog"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/plugin"
	"github.com/xraph/junction/store"
	"github.com/xraph/junction/subscription"
	"github.com/xraph/junction/types"
)

// Junction is the billing event engine. It owns no goroutines; every
// method may be called concurrently.
type Junction struct {
	store   store.Store
	catalog catalog.Catalog
	plugins *plugin.Registry
	logger  *slog.Logger
	seq     billing.Sequence

	// Configuration
	minBlockingDuration time.Duration
	failFast            bool
	skipMigrate         bool

	calculator *Calculator
}

// New creates a new Junction instance.
func New(s store.Store, opts ...Option) *Junction {
	j := &Junction{
		store:               s,
		plugins:             plugin.NewRegistry(),
		logger:              slog.Default(),
		seq:                 billing.NewSequence(1),
		minBlockingDuration: blocking.MinDuration,
	}

	for _, opt := range opts {
		opt(j)
	}

	j.calculator = NewCalculator(j.seq, j.minBlockingDuration, j.logger)
	return j
}

// Option configures a Junction instance.
type Option func(*Junction)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Junction) {
		j.logger = logger
		j.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(j *Junction) {
		_ = j.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithCatalog sets the catalog billing events are priced from.
func WithCatalog(c catalog.Catalog) Option {
	return func(j *Junction) {
		j.catalog = c
	}
}

// WithSequence replaces the TotalOrdering source of billing events.
func WithSequence(seq billing.Sequence) Option {
	return func(j *Junction) {
		j.seq = seq
	}
}

// WithMinBlockingDuration sets the shortest closed blocked period that
// still disables billing.
func WithMinBlockingDuration(d time.Duration) Option {
	return func(j *Junction) {
		j.minBlockingDuration = d
	}
}

// WithFailFast makes BillingEventsForAccount abort on the first
// subscription whose events cannot be computed instead of skipping it.
func WithFailFast(enabled bool) Option {
	return func(j *Junction) {
		j.failFast = enabled
	}
}

// WithPluginTimeout bounds how long a single plugin hook may run.
func WithPluginTimeout(d time.Duration) Option {
	return func(j *Junction) {
		j.plugins.WithTimeout(d)
	}
}

// WithoutMigrate makes Start leave the store schema untouched.
func WithoutMigrate() Option {
	return func(j *Junction) {
		j.skipMigrate = true
	}
}

// Start migrates the store and initializes plugins.
func (j *Junction) Start(ctx context.Context) error {
	if j.catalog == nil {
		return ErrNoCatalog
	}
	if !j.skipMigrate {
		if err := j.store.Migrate(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}

	j.plugins.EmitInit(ctx, j)

	j.logger.Info("junction started",
		"min_blocking_duration", j.minBlockingDuration,
		"fail_fast", j.failFast,
		"plugins", j.plugins.Count(),
	)
	return nil
}

// Stop shuts down the Junction.
func (j *Junction) Stop() error {
	j.plugins.EmitShutdown(context.Background())
	return j.store.Close()
}

// Store returns the underlying store.
func (j *Junction) Store() store.Store { return j.store }

// Calculator returns the blocking calculator used by the engine.
func (j *Junction) Calculator() *Calculator { return j.calculator }

// ──────────────────────────────────────────────────
// Inputs
// ──────────────────────────────────────────────────

// UpsertAccount creates or replaces an account's invoicing settings.
func (j *Junction) UpsertAccount(ctx context.Context, a *account.Account) error {
	if a.ID.IsNil() {
		a.ID = id.NewAccountID()
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	a.Currency = types.NormalizeCurrency(a.Currency)
	if a.CreatedAt.IsZero() {
		a.Entity = types.NewEntity()
	} else {
		a.Touch()
	}

	if err := j.store.UpsertAccount(ctx, a); err != nil {
		return err
	}

	j.plugins.EmitAccountUpdated(ctx, a)
	return nil
}

// CreateSubscription records a subscription of the account topology.
func (j *Junction) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	if sub.ID.IsNil() {
		sub.ID = id.NewSubscriptionID()
	}
	if sub.AccountID.IsNil() || sub.BundleID.IsNil() {
		return ValidationError{Field: "subscription", Message: "account and bundle are required"}
	}
	if sub.EndDate != nil && sub.EndDate.Before(sub.StartDate) {
		return ValidationError{Field: "end_date", Message: "ends before it starts"}
	}
	sub.Entity = types.NewEntity()

	if err := j.store.CreateSubscription(ctx, sub); err != nil {
		return err
	}

	j.plugins.EmitSubscriptionCreated(ctx, sub)
	return nil
}

// RecordTransition appends a transition to a subscription's history. A
// CANCEL transition also sets the subscription end date.
func (j *Junction) RecordTransition(ctx context.Context, tr *subscription.Transition) error {
	if tr.Type.Synthetic() {
		return ValidationError{Field: "type", Message: fmt.Sprintf("%s is reserved for blocking markers", tr.Type)}
	}
	sub, err := j.store.GetSubscription(ctx, tr.SubscriptionID)
	if err != nil {
		return err
	}
	if tr.ID.IsNil() {
		tr.ID = id.NewTransitionID()
	}
	if tr.TotalOrdering == 0 {
		tr.TotalOrdering = j.seq.Next()
	}
	tr.Entity = types.NewEntity()

	if err := j.store.RecordTransition(ctx, tr); err != nil {
		return err
	}

	if tr.Type == subscription.TransitionCancel {
		end := tr.EffectiveDate
		sub.EndDate = &end
		sub.Touch()
		if err := j.store.UpdateSubscription(ctx, sub); err != nil {
			return err
		}
	}

	j.plugins.EmitTransitionRecorded(ctx, tr)
	return nil
}

// SetBlockingState records a blocking state. States are never updated.
func (j *Junction) SetBlockingState(ctx context.Context, s *blocking.State) error {
	if s.BlockedID.IsNil() || s.AccountID.IsNil() {
		return ValidationError{Field: "blocking_state", Message: "account and blocked object are required"}
	}
	switch s.Scope {
	case blocking.ScopeAccount, blocking.ScopeBundle, blocking.ScopeSubscription:
	default:
		return ValidationError{Field: "scope", Message: fmt.Sprintf("unknown scope %q", s.Scope)}
	}
	if s.ID.IsNil() {
		s.ID = id.NewBlockingStateID()
	}
	s.Entity = types.NewEntity()

	if err := j.store.RecordBlockingState(ctx, s); err != nil {
		return err
	}

	j.plugins.EmitBlockingStateRecorded(ctx, s)
	return nil
}

// ──────────────────────────────────────────────────
// Billing events
// ──────────────────────────────────────────────────

// BillingEventsForAccount computes the account's billing events with
// blocked periods applied.
//
// A subscription whose events cannot be computed is left out and its
// failure reported in a MultiError; the returned set is still valid in
// that case. With WithFailFast the first failure is returned instead.
func (j *Junction) BillingEventsForAccount(ctx context.Context, accountID id.AccountID) (billing.EventSet, error) {
	start := time.Now()
	if j.catalog == nil {
		return billing.EventSet{}, ErrNoCatalog
	}

	acct, err := j.store.GetAccount(ctx, accountID)
	if err != nil {
		return billing.EventSet{}, err
	}
	subs, err := j.store.ListAccountSubscriptions(ctx, accountID)
	if err != nil {
		return billing.EventSet{}, err
	}

	var (
		events   []*billing.Event
		skip     []id.SubscriptionID
		excluded []id.SubscriptionID
		failures MultiError
	)
	for _, sub := range subs {
		subEvents, err := j.subscriptionEvents(ctx, acct, sub)
		switch {
		case errors.Is(err, errSkipSubscription):
			skip = append(skip, sub.ID)
			j.logger.Debug("subscription skipped", "subscription_id", sub.ID.String(), "reason", err.Error())
			j.plugins.EmitSubscriptionSkipped(ctx, sub.ID, err.Error())
			continue
		case err != nil:
			if ctx.Err() != nil || !isSubscriptionLocal(err) {
				return billing.EventSet{}, err
			}
			serr := &SubscriptionError{SubscriptionID: sub.ID, Err: err}
			if j.failFast {
				return billing.EventSet{}, serr
			}
			skip = append(skip, sub.ID)
			failures.Add(serr)
			j.logger.Error("subscription billing events failed",
				"account_id", accountID.String(),
				"subscription_id", sub.ID.String(),
				"error", err,
			)
			j.plugins.EmitSubscriptionFailed(ctx, sub.ID, err)
			continue
		}

		events = append(events, subEvents...)
		if acct.InvoicingOff(sub.BundleID) {
			excluded = append(excluded, sub.ID)
		}
	}

	set := billing.NewEventSet(events...).
		WithAutoInvoiceOff(acct.AutoInvoiceOff).
		WithAutoInvoiceDraft(acct.AutoInvoiceDraft).
		WithAutoInvoiceReuseDraft(acct.AutoInvoiceReuseDraft).
		WithExcludedSubscriptions(excluded...)

	states, err := j.store.ListAccountBlockingStates(ctx, accountID)
	if err != nil {
		return billing.EventSet{}, err
	}
	set, applied := j.calculator.InsertBlockingEvents(set, subs, skip, states)

	elapsed := time.Since(start)
	j.logger.Debug("billing events computed",
		"account_id", accountID.String(),
		"subscriptions", len(subs),
		"events", set.Len(),
		"blocking_states", len(states),
		"blocking_applied", applied,
		"elapsed", elapsed,
	)
	j.plugins.EmitBillingEventsComputed(ctx, accountID, set, applied, elapsed)

	if failures.HasErrors() {
		return set, failures
	}
	return set, nil
}

var errSkipSubscription = errors.New("junction: subscription has no opening transition")

// isSubscriptionLocal reports whether err concerns only the subscription
// being computed, as opposed to the store or the account.
func isSubscriptionLocal(err error) bool {
	var verr ValidationError
	return IsCatalogError(err) || errors.As(err, &verr)
}

func (j *Junction) subscriptionEvents(ctx context.Context, acct *account.Account, sub *subscription.Subscription) ([]*billing.Event, error) {
	transitions, err := j.store.ListTransitions(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	if len(transitions) == 0 || !transitions[0].Type.OpensBilling() {
		return nil, errSkipSubscription
	}

	bcd, err := acct.BillCycleDay(sub.StartDate)
	if err != nil {
		return nil, ValidationError{Field: "time_zone", Message: err.Error()}
	}

	out := make([]*billing.Event, 0, len(transitions))
	for _, tr := range transitions {
		e, err := billing.NewEvent(j.seq, j.catalog, acct, sub, tr, bcd)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
