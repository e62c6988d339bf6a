package blocking

import (
	"sort"
	"time"

	"github.com/xraph/junction/id"
	"github.com/xraph/junction/types"
)

type Scope string

const (
	ScopeAccount      Scope = "account"
	ScopeBundle       Scope = "bundle"
	ScopeSubscription Scope = "subscription"
)

// StateOverdue is the state name the overdue service records.
const StateOverdue = "OVERDUE"

// State is a recorded change of the blocking status of an account, bundle
// or subscription, as seen by one service. States are immutable once
// recorded.
type State struct {
	types.Entity
	ID               id.BlockingStateID `json:"id"`
	AccountID        id.AccountID       `json:"account_id"`
	BlockedID        id.ID              `json:"blocked_id"`
	Scope            Scope              `json:"scope"`
	StateName        string             `json:"state_name"`
	Service          string             `json:"service"`
	BlockChange      bool               `json:"block_change"`
	BlockEntitlement bool               `json:"block_entitlement"`
	BlockBilling     bool               `json:"block_billing"`
	EffectiveDate    time.Time          `json:"effective_date"`
}

// Sort orders states by effective date, then by recording time. Ties keep
// their input order.
func Sort(states []*State) {
	sort.SliceStable(states, func(i, j int) bool {
		a, b := states[i], states[j]
		if !a.EffectiveDate.Equal(b.EffectiveDate) {
			return a.EffectiveDate.Before(b.EffectiveDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
