// Package observability provides a metrics extension for Junction that
// records lifecycle event counts through a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/junction/account"
	"github.com/xraph/junction/billing"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/plugin"
	"github.com/xraph/junction/subscription"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                  = (*MetricsExtension)(nil)
	_ plugin.OnInit                  = (*MetricsExtension)(nil)
	_ plugin.OnAccountUpdated        = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCreated   = (*MetricsExtension)(nil)
	_ plugin.OnTransitionRecorded    = (*MetricsExtension)(nil)
	_ plugin.OnBlockingStateRecorded = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionSkipped   = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionFailed    = (*MetricsExtension)(nil)
	_ plugin.OnBillingEventsComputed = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Junction plugin to automatically track billing metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Input metrics
	AccountUpdated        Counter
	SubscriptionCreated   Counter
	TransitionRecorded    Counter
	BlockingStateRecorded Counter
	BillingBlocked        Counter
	BillingUnblocked      Counter

	// Computation metrics
	ComputeRuns          Counter
	ComputeLatency       Histogram
	EventsPerAccount     Histogram
	BlockingApplied      Counter
	SubscriptionsSkipped Counter
	SubscriptionsFailed  Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		AccountUpdated:        factory.Counter("junction.account.updated"),
		SubscriptionCreated:   factory.Counter("junction.subscription.created"),
		TransitionRecorded:    factory.Counter("junction.transition.recorded"),
		BlockingStateRecorded: factory.Counter("junction.blocking.recorded"),
		BillingBlocked:        factory.Counter("junction.blocking.billing_blocked"),
		BillingUnblocked:      factory.Counter("junction.blocking.billing_unblocked"),

		ComputeRuns:          factory.Counter("junction.events.computed"),
		ComputeLatency:       factory.Histogram("junction.events.latency_ms"),
		EventsPerAccount:     factory.Histogram("junction.events.per_account"),
		BlockingApplied:      factory.Counter("junction.events.blocking_applied"),
		SubscriptionsSkipped: factory.Counter("junction.subscription.skipped"),
		SubscriptionsFailed:  factory.Counter("junction.subscription.failed"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// OnAccountUpdated implements plugin.OnAccountUpdated.
func (m *MetricsExtension) OnAccountUpdated(_ context.Context, _ *account.Account) error {
	m.AccountUpdated.Inc()
	return nil
}

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (m *MetricsExtension) OnSubscriptionCreated(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionCreated.Inc()
	return nil
}

// OnTransitionRecorded implements plugin.OnTransitionRecorded.
func (m *MetricsExtension) OnTransitionRecorded(_ context.Context, _ *subscription.Transition) error {
	m.TransitionRecorded.Inc()
	return nil
}

// OnBlockingStateRecorded implements plugin.OnBlockingStateRecorded.
func (m *MetricsExtension) OnBlockingStateRecorded(_ context.Context, s *blocking.State) error {
	m.BlockingStateRecorded.Inc()
	if s.BlockBilling {
		m.BillingBlocked.Inc()
	} else {
		m.BillingUnblocked.Inc()
	}
	return nil
}

// OnSubscriptionSkipped implements plugin.OnSubscriptionSkipped.
func (m *MetricsExtension) OnSubscriptionSkipped(_ context.Context, _ id.SubscriptionID, _ string) error {
	m.SubscriptionsSkipped.Inc()
	return nil
}

// OnSubscriptionFailed implements plugin.OnSubscriptionFailed.
func (m *MetricsExtension) OnSubscriptionFailed(_ context.Context, _ id.SubscriptionID, _ error) error {
	m.SubscriptionsFailed.Inc()
	return nil
}

// OnBillingEventsComputed implements plugin.OnBillingEventsComputed.
func (m *MetricsExtension) OnBillingEventsComputed(_ context.Context, _ id.AccountID, set billing.EventSet, applied bool, elapsed time.Duration) error {
	m.ComputeRuns.Inc()
	m.ComputeLatency.Observe(float64(elapsed.Milliseconds()))
	m.EventsPerAccount.Observe(float64(set.Len()))
	if applied {
		m.BlockingApplied.Inc()
	}
	return nil
}
