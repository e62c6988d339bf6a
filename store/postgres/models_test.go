package postgres

import (
	"testing"
	"time"

	"github.com/xraph/junction/account"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/id"
)

func TestAccountModelBundles(t *testing.T) {
	bundle := id.NewBundleID()
	a := &account.Account{
		ID:                    id.NewAccountID(),
		Currency:              "USD",
		TimeZone:              "Europe/Paris",
		AutoInvoiceOffBundles: []id.BundleID{bundle},
	}

	got, err := fromAccountModel(toAccountModel(a))
	if err != nil {
		t.Fatalf("fromAccountModel: %v", err)
	}
	if len(got.AutoInvoiceOffBundles) != 1 || got.AutoInvoiceOffBundles[0] != bundle {
		t.Errorf("bundles = %v, want [%s]", got.AutoInvoiceOffBundles, bundle)
	}
	if got.TimeZone != "Europe/Paris" {
		t.Errorf("TimeZone = %q", got.TimeZone)
	}

	m := toAccountModel(&account.Account{ID: id.NewAccountID()})
	m.AutoInvoiceOffBundles = []byte("null")
	got, err = fromAccountModel(m)
	if err != nil {
		t.Fatalf("null bundles: %v", err)
	}
	if got.AutoInvoiceOffBundles != nil {
		t.Errorf("bundles = %v, want nil", got.AutoInvoiceOffBundles)
	}
}

func TestBlockingStateModelRejectsForeignPrefix(t *testing.T) {
	st := &blocking.State{
		ID:            id.NewBlockingStateID(),
		AccountID:     id.NewAccountID(),
		BlockedID:     id.NewBundleID(),
		Scope:         blocking.ScopeBundle,
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	m := toBlockingStateModel(st)
	m.AccountID = id.NewSubscriptionID().String()

	if _, err := fromBlockingStateModel(m); err == nil {
		t.Error("expected prefix error for account id")
	}
}
