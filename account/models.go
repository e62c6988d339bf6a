// Package account holds the invoicing settings of billing accounts.
package account

import (
	"fmt"
	"time"

	"github.com/xraph/junction/id"
	"github.com/xraph/junction/types"
)

type Account struct {
	types.Entity
	ID       id.AccountID `json:"id"`
	Name     string       `json:"name"`
	Currency string       `json:"currency"`
	// BillCycleDayLocal is the day of month invoices are cut on. Zero aligns
	// each subscription to its own start day.
	BillCycleDayLocal     int           `json:"bill_cycle_day_local"`
	TimeZone              string        `json:"time_zone"`
	AutoInvoiceOff        bool          `json:"auto_invoice_off"`
	AutoInvoiceDraft      bool          `json:"auto_invoice_draft"`
	AutoInvoiceReuseDraft bool          `json:"auto_invoice_reuse_draft"`
	AutoInvoiceOffBundles []id.BundleID `json:"auto_invoice_off_bundles,omitempty"`
}

// Location returns the account time zone, UTC when unset.
func (a *Account) Location() (*time.Location, error) {
	if a.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("account %s: time zone %q: %w", a.ID, a.TimeZone, err)
	}
	return loc, nil
}

// BillCycleDay returns the bill cycle day for a subscription starting at
// start.
func (a *Account) BillCycleDay(start time.Time) (int, error) {
	if a.BillCycleDayLocal > 0 {
		return a.BillCycleDayLocal, nil
	}
	loc, err := a.Location()
	if err != nil {
		return 0, err
	}
	return start.In(loc).Day(), nil
}

// InvoicingOff reports whether invoicing is switched off for the bundle.
func (a *Account) InvoicingOff(bundleID id.BundleID) bool {
	for _, b := range a.AutoInvoiceOffBundles {
		if b == bundleID {
			return true
		}
	}
	return false
}

func (a *Account) Validate() error {
	if a.ID.IsNil() {
		return fmt.Errorf("account: missing id")
	}
	if types.NormalizeCurrency(a.Currency) == "" {
		return fmt.Errorf("account %s: missing currency", a.ID)
	}
	if a.BillCycleDayLocal < 0 || a.BillCycleDayLocal > 31 {
		return fmt.Errorf("account %s: bill cycle day %d out of range", a.ID, a.BillCycleDayLocal)
	}
	return nil
}
