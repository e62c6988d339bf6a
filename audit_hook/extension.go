// Package audithook bridges Junction lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/junction/account"
	"github.com/xraph/junction/billing"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/plugin"
	"github.com/xraph/junction/subscription"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                  = (*Extension)(nil)
	_ plugin.OnAccountUpdated        = (*Extension)(nil)
	_ plugin.OnSubscriptionCreated   = (*Extension)(nil)
	_ plugin.OnTransitionRecorded    = (*Extension)(nil)
	_ plugin.OnBlockingStateRecorded = (*Extension)(nil)
	_ plugin.OnSubscriptionSkipped   = (*Extension)(nil)
	_ plugin.OnSubscriptionFailed    = (*Extension)(nil)
	_ plugin.OnBillingEventsComputed = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It matches chronicle.Emitter but is defined locally; callers inject the
// concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Junction lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Input hooks
// ──────────────────────────────────────────────────

// OnAccountUpdated implements plugin.OnAccountUpdated.
func (e *Extension) OnAccountUpdated(ctx context.Context, a *account.Account) error {
	return e.record(ctx, ActionAccountUpdated, SeverityInfo, OutcomeSuccess,
		ResourceAccount, a.ID.String(), CategoryBilling, nil,
		"currency", a.Currency,
		"bill_cycle_day", a.BillCycleDayLocal,
		"auto_invoice_off", a.AutoInvoiceOff,
	)
}

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (e *Extension) OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionCreated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategorySubscription, nil,
		"account_id", sub.AccountID.String(),
		"bundle_id", sub.BundleID.String(),
	)
}

// OnTransitionRecorded implements plugin.OnTransitionRecorded.
func (e *Extension) OnTransitionRecorded(ctx context.Context, tr *subscription.Transition) error {
	return e.record(ctx, ActionTransitionRecorded, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, tr.SubscriptionID.String(), CategorySubscription, nil,
		"type", string(tr.Type),
		"effective_date", tr.EffectiveDate.Format(time.RFC3339),
		"plan", tr.NextPlan,
	)
}

// OnBlockingStateRecorded implements plugin.OnBlockingStateRecorded.
// Billing blocks are recorded as warnings.
func (e *Extension) OnBlockingStateRecorded(ctx context.Context, s *blocking.State) error {
	severity := SeverityInfo
	if s.BlockBilling {
		severity = SeverityWarning
	}
	return e.record(ctx, ActionBlockingStateRecorded, severity, OutcomeSuccess,
		ResourceBlockingState, s.ID.String(), CategoryAccess, nil,
		"blocked_id", s.BlockedID.String(),
		"scope", string(s.Scope),
		"state", s.StateName,
		"service", s.Service,
		"block_billing", s.BlockBilling,
		"effective_date", s.EffectiveDate.Format(time.RFC3339),
	)
}

// ──────────────────────────────────────────────────
// Computation hooks
// ──────────────────────────────────────────────────

// OnSubscriptionSkipped implements plugin.OnSubscriptionSkipped.
func (e *Extension) OnSubscriptionSkipped(ctx context.Context, subID id.SubscriptionID, reason string) error {
	return e.record(ctx, ActionSubscriptionSkipped, SeverityWarning, OutcomePartial,
		ResourceSubscription, subID.String(), CategoryBilling, nil,
		"skip_reason", reason,
	)
}

// OnSubscriptionFailed implements plugin.OnSubscriptionFailed.
func (e *Extension) OnSubscriptionFailed(ctx context.Context, subID id.SubscriptionID, cause error) error {
	return e.record(ctx, ActionSubscriptionFailed, SeverityError, OutcomeFailure,
		ResourceSubscription, subID.String(), CategoryBilling, cause,
	)
}

// OnBillingEventsComputed implements plugin.OnBillingEventsComputed.
func (e *Extension) OnBillingEventsComputed(ctx context.Context, accountID id.AccountID, set billing.EventSet, applied bool, elapsed time.Duration) error {
	return e.record(ctx, ActionEventsComputed, SeverityInfo, OutcomeSuccess,
		ResourceAccount, accountID.String(), CategoryBilling, nil,
		"events", set.Len(),
		"blocking_applied", applied,
		"excluded_subscriptions", len(set.ExcludedSubscriptionIDs()),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
