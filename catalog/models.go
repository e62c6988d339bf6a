package catalog

import (
	"strings"

	"github.com/xraph/junction/types"
)

type BillingPeriod string

const (
	NoBillingPeriod BillingPeriod = "NO_BILLING_PERIOD"
	Daily           BillingPeriod = "DAILY"
	Weekly          BillingPeriod = "WEEKLY"
	BiWeekly        BillingPeriod = "BIWEEKLY"
	ThirtyDays      BillingPeriod = "THIRTY_DAYS"
	Monthly         BillingPeriod = "MONTHLY"
	Quarterly       BillingPeriod = "QUARTERLY"
	Annual          BillingPeriod = "ANNUAL"
)

type PhaseType string

const (
	PhaseTrial     PhaseType = "TRIAL"
	PhaseDiscount  PhaseType = "DISCOUNT"
	PhaseFixedTerm PhaseType = "FIXEDTERM"
	PhaseEvergreen PhaseType = "EVERGREEN"
)

type UsageType string

const (
	UsageConsumable UsageType = "CONSUMABLE"
	UsageCapacity   UsageType = "CAPACITY"
)

// Price is a multi-currency price table.
type Price []types.Money

// In returns the entry for currency, if any.
func (p Price) In(currency string) (types.Money, bool) {
	currency = types.NormalizeCurrency(currency)
	for _, m := range p {
		if types.NormalizeCurrency(m.Currency) == currency {
			return types.New(m.Amount, currency), true
		}
	}
	return types.Money{}, false
}

type Fixed struct {
	Price Price `json:"prices" yaml:"prices"`
}

type Recurring struct {
	BillingPeriod BillingPeriod `json:"billing_period" yaml:"billing_period"`
	Price         Price         `json:"prices" yaml:"prices"`
}

type Usage struct {
	Name          string        `json:"name" yaml:"name"`
	Type          UsageType     `json:"type" yaml:"type"`
	BillingPeriod BillingPeriod `json:"billing_period" yaml:"billing_period"`
}

type Phase struct {
	Name      string     `json:"name" yaml:"name"`
	Type      PhaseType  `json:"type" yaml:"type"`
	Fixed     *Fixed     `json:"fixed,omitempty" yaml:"fixed,omitempty"`
	Recurring *Recurring `json:"recurring,omitempty" yaml:"recurring,omitempty"`
	Usages    []Usage    `json:"usages,omitempty" yaml:"usages,omitempty"`
}

// BillingPeriod returns the recurring billing period of the phase, or
// NoBillingPeriod when the phase has no recurring component.
func (p *Phase) BillingPeriod() BillingPeriod {
	if p == nil || p.Recurring == nil || p.Recurring.BillingPeriod == "" {
		return NoBillingPeriod
	}
	return p.Recurring.BillingPeriod
}

type Plan struct {
	Name    string  `json:"name" yaml:"name"`
	Product string  `json:"product" yaml:"product"`
	Phases  []Phase `json:"phases" yaml:"phases"`
}

// FindPhase returns the phase of the given type, or nil.
func (p *Plan) FindPhase(t PhaseType) *Phase {
	for i := range p.Phases {
		if p.Phases[i].Type == t {
			return &p.Phases[i]
		}
	}
	return nil
}

// PhaseName is the conventional name of a plan phase, e.g. "pistol-monthly-trial".
func PhaseName(plan string, t PhaseType) string {
	return plan + "-" + strings.ToLower(string(t))
}
