package subscription

import (
	"time"

	"github.com/xraph/junction/catalog"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/types"
)

type Category string

const (
	CategoryBase       Category = "base"
	CategoryAddOn      Category = "add_on"
	CategoryStandalone Category = "standalone"
)

type Subscription struct {
	types.Entity
	ID        id.SubscriptionID `json:"id"`
	AccountID id.AccountID      `json:"account_id"`
	BundleID  id.BundleID       `json:"bundle_id"`
	Category  Category          `json:"category"`
	StartDate time.Time         `json:"start_date"`
	EndDate   *time.Time        `json:"end_date,omitempty"`
}

// EndsBefore reports whether the subscription has ended by t.
func (s *Subscription) EndsBefore(t time.Time) bool {
	return s.EndDate != nil && s.EndDate.Before(t)
}

type TransitionType string

const (
	TransitionCreate               TransitionType = "CREATE"
	TransitionTransfer             TransitionType = "TRANSFER"
	TransitionMigrateBilling       TransitionType = "MIGRATE_BILLING"
	TransitionChange               TransitionType = "CHANGE"
	TransitionPhase                TransitionType = "PHASE"
	TransitionCancel               TransitionType = "CANCEL"
	TransitionUncancel             TransitionType = "UNCANCEL"
	TransitionBCDChange            TransitionType = "BCD_CHANGE"
	TransitionStartBillingDisabled TransitionType = "START_BILLING_DISABLED"
	TransitionEndBillingDisabled   TransitionType = "END_BILLING_DISABLED"
)

// OpensBilling reports whether a subscription's billing history may start
// with this transition.
func (t TransitionType) OpensBilling() bool {
	switch t {
	case TransitionCreate, TransitionTransfer, TransitionMigrateBilling:
		return true
	}
	return false
}

// Synthetic reports whether the type is only ever produced by the blocking
// calculator.
func (t TransitionType) Synthetic() bool {
	return t == TransitionStartBillingDisabled || t == TransitionEndBillingDisabled
}

// Transition is one entry of a subscription's billing history.
type Transition struct {
	types.Entity
	ID             id.TransitionID   `json:"id"`
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	Type           TransitionType    `json:"type"`
	EffectiveDate  time.Time         `json:"effective_date"`
	PrevPlan       string            `json:"prev_plan,omitempty"`
	PrevPhase      catalog.PhaseType `json:"prev_phase,omitempty"`
	NextPlan       string            `json:"next_plan,omitempty"`
	NextPhase      catalog.PhaseType `json:"next_phase,omitempty"`
	TotalOrdering  int64             `json:"total_ordering"`
}
