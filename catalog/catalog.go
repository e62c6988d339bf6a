// Package catalog resolves the plans, phases and prices billing events are
// computed from.
package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/xraph/junction/types"
)

var (
	// ErrLookup is wrapped by every *Error returned from a Catalog.
	ErrLookup = errors.New("junction: catalog lookup failed")

	ErrPlanNotFound  = errors.New("plan not found")
	ErrPhaseNotFound = errors.New("phase not found")
	ErrNoPrice       = errors.New("no price for currency")
)

// Catalog is the read-only lookup the billing engine depends on.
// Implementations must be synchronous and side-effect free.
type Catalog interface {
	FindPlan(name string, at time.Time) (*Plan, error)
}

// Error describes a failed catalog lookup.
type Error struct {
	Plan     string
	Phase    PhaseType
	Currency string
	At       time.Time
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: plan %q", ErrLookup, e.Plan)
	if e.Phase != "" {
		msg += fmt.Sprintf(" phase %s", e.Phase)
	}
	if e.Currency != "" {
		msg += fmt.Sprintf(" currency %s", e.Currency)
	}
	return msg + fmt.Sprintf(" at %s: %v", e.At.Format(time.RFC3339), e.Err)
}

func (e *Error) Unwrap() []error { return []error{ErrLookup, e.Err} }

// Resolution is the priced view of one plan phase in one currency.
type Resolution struct {
	Plan           *Plan
	Phase          *Phase
	BillingPeriod  BillingPeriod
	FixedPrice     *types.Money
	RecurringPrice *types.Money
	Usages         []Usage
}

// Resolve looks up a plan phase and prices it in currency. A phase without
// a fixed or recurring component yields a nil price for it; a component
// whose price table lacks the currency is an error.
func Resolve(c Catalog, planName string, phaseType PhaseType, at time.Time, currency string) (*Resolution, error) {
	fail := func(err error) (*Resolution, error) {
		return nil, &Error{Plan: planName, Phase: phaseType, Currency: currency, At: at, Err: err}
	}

	p, err := c.FindPlan(planName, at)
	if err != nil {
		return fail(err)
	}
	ph := p.FindPhase(phaseType)
	if ph == nil {
		return fail(ErrPhaseNotFound)
	}

	res := &Resolution{
		Plan:          p,
		Phase:         ph,
		BillingPeriod: ph.BillingPeriod(),
		Usages:        ph.Usages,
	}
	if ph.Fixed != nil {
		m, ok := ph.Fixed.Price.In(currency)
		if !ok {
			return fail(ErrNoPrice)
		}
		res.FixedPrice = m.Ptr()
	}
	if ph.Recurring != nil {
		m, ok := ph.Recurring.Price.In(currency)
		if !ok {
			return fail(ErrNoPrice)
		}
		res.RecurringPrice = m.Ptr()
	}
	return res, nil
}
