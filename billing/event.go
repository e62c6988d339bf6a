// Package billing computes the billing events invoices are generated from.
package billing

import (
	"fmt"
	"time"

	"github.com/xraph/junction/account"
	"github.com/xraph/junction/catalog"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/subscription"
	"github.com/xraph/junction/types"
)

// Event is one point on a subscription's billing timeline. Events are
// immutable.
type Event struct {
	accountID      id.AccountID
	bundleID       id.BundleID
	subscriptionID id.SubscriptionID
	effectiveDate  time.Time
	plan           *catalog.Plan
	phase          *catalog.Phase
	billingPeriod  catalog.BillingPeriod
	fixedPrice     *types.Money
	recurringPrice *types.Money
	usages         []catalog.Usage
	currency       string
	billCycleDay   int
	transitionType subscription.TransitionType
	description    string
	totalOrdering  int64
	timeZone       string
}

// NewEvent computes the billing event for one subscription transition,
// resolving prices from cat in the account currency.
func NewEvent(seq Sequence, cat catalog.Catalog, acct *account.Account, sub *subscription.Subscription, tr *subscription.Transition, bcd int) (*Event, error) {
	if tr.Type.Synthetic() {
		return nil, fmt.Errorf("billing: transition %s of subscription %s has synthetic type %s", tr.ID, sub.ID, tr.Type)
	}

	active := tr.Type != subscription.TransitionCancel
	planName, phaseType := tr.NextPlan, tr.NextPhase
	if !active {
		planName, phaseType = tr.PrevPlan, tr.PrevPhase
	}

	res, err := catalog.Resolve(cat, planName, phaseType, tr.EffectiveDate, acct.Currency)
	if err != nil {
		return nil, err
	}

	e := &Event{
		accountID:      sub.AccountID,
		bundleID:       sub.BundleID,
		subscriptionID: sub.ID,
		effectiveDate:  tr.EffectiveDate,
		plan:           res.Plan,
		phase:          res.Phase,
		billingPeriod:  res.BillingPeriod,
		currency:       types.NormalizeCurrency(acct.Currency),
		billCycleDay:   bcd,
		transitionType: tr.Type,
		description:    string(tr.Type),
		totalOrdering:  seq.Next(),
		timeZone:       acct.TimeZone,
	}
	if active {
		e.recurringPrice = res.RecurringPrice
		e.usages = res.Usages
		if tr.Type != subscription.TransitionBCDChange {
			e.fixedPrice = res.FixedPrice
		}
	}
	return e, nil
}

// NewDisableEvent returns the START_BILLING_DISABLED marker at t. The
// marker keeps prev's plan and phase but carries no price.
func NewDisableEvent(seq Sequence, t time.Time, prev *Event) *Event {
	return &Event{
		accountID:      prev.accountID,
		bundleID:       prev.bundleID,
		subscriptionID: prev.subscriptionID,
		effectiveDate:  t,
		plan:           prev.plan,
		phase:          prev.phase,
		billingPeriod:  catalog.NoBillingPeriod,
		currency:       prev.currency,
		billCycleDay:   prev.billCycleDay,
		transitionType: subscription.TransitionStartBillingDisabled,
		description:    string(subscription.TransitionStartBillingDisabled),
		totalOrdering:  seq.Next(),
		timeZone:       prev.timeZone,
	}
}

// NewEnableEvent returns the END_BILLING_DISABLED marker at t, restoring
// the billing state of prev.
func NewEnableEvent(seq Sequence, t time.Time, prev *Event) *Event {
	return &Event{
		accountID:      prev.accountID,
		bundleID:       prev.bundleID,
		subscriptionID: prev.subscriptionID,
		effectiveDate:  t,
		plan:           prev.plan,
		phase:          prev.phase,
		billingPeriod:  prev.billingPeriod,
		fixedPrice:     prev.fixedPrice,
		recurringPrice: prev.recurringPrice,
		usages:         prev.usages,
		currency:       prev.currency,
		billCycleDay:   prev.billCycleDay,
		transitionType: subscription.TransitionEndBillingDisabled,
		description:    string(subscription.TransitionEndBillingDisabled),
		totalOrdering:  seq.Next(),
		timeZone:       prev.timeZone,
	}
}

func (e *Event) AccountID() id.AccountID                     { return e.accountID }
func (e *Event) BundleID() id.BundleID                       { return e.bundleID }
func (e *Event) SubscriptionID() id.SubscriptionID           { return e.subscriptionID }
func (e *Event) EffectiveDate() time.Time                    { return e.effectiveDate }
func (e *Event) Plan() *catalog.Plan                         { return e.plan }
func (e *Event) Phase() *catalog.Phase                       { return e.phase }
func (e *Event) BillingPeriod() catalog.BillingPeriod        { return e.billingPeriod }
func (e *Event) FixedPrice() *types.Money                    { return e.fixedPrice }
func (e *Event) RecurringPrice() *types.Money                { return e.recurringPrice }
func (e *Event) Currency() string                            { return e.currency }
func (e *Event) BillCycleDay() int                           { return e.billCycleDay }
func (e *Event) TransitionType() subscription.TransitionType { return e.transitionType }
func (e *Event) Description() string                         { return e.description }
func (e *Event) TotalOrdering() int64                        { return e.totalOrdering }
func (e *Event) TimeZone() string                            { return e.timeZone }

// Usages returns a copy of the usage definitions billed by the event.
func (e *Event) Usages() []catalog.Usage {
	if len(e.usages) == 0 {
		return nil
	}
	out := make([]catalog.Usage, len(e.usages))
	copy(out, e.usages)
	return out
}

// IsDisableMarker reports whether the event starts a blocked period.
func (e *Event) IsDisableMarker() bool {
	return e.transitionType == subscription.TransitionStartBillingDisabled
}

// IsEnableMarker reports whether the event ends a blocked period.
func (e *Event) IsEnableMarker() bool {
	return e.transitionType == subscription.TransitionEndBillingDisabled
}

// IsMarker reports whether the event was synthesized from blocking states.
func (e *Event) IsMarker() bool { return e.transitionType.Synthetic() }

func (e *Event) String() string {
	plan := ""
	if e.plan != nil {
		plan = e.plan.Name
	}
	return fmt.Sprintf("%s %s %s plan=%s seq=%d", e.subscriptionID, e.effectiveDate.Format(time.RFC3339), e.transitionType, plan, e.totalOrdering)
}
