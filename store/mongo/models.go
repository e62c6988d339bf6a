package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/junction/account"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/catalog"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/subscription"
	"github.com/xraph/junction/types"
)

// ==================== Account models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:junction_accounts"`

	ID                    string    `grove:"id,pk"                    bson:"_id"`
	Name                  string    `grove:"name"                     bson:"name"`
	Currency              string    `grove:"currency"                 bson:"currency"`
	BillCycleDayLocal     int       `grove:"bill_cycle_day_local"     bson:"bill_cycle_day_local"`
	TimeZone              string    `grove:"time_zone"                bson:"time_zone"`
	AutoInvoiceOff        bool      `grove:"auto_invoice_off"         bson:"auto_invoice_off"`
	AutoInvoiceDraft      bool      `grove:"auto_invoice_draft"       bson:"auto_invoice_draft"`
	AutoInvoiceReuseDraft bool      `grove:"auto_invoice_reuse_draft" bson:"auto_invoice_reuse_draft"`
	AutoInvoiceOffBundles []string  `grove:"auto_invoice_off_bundles" bson:"auto_invoice_off_bundles,omitempty"`
	CreatedAt             time.Time `grove:"created_at"               bson:"created_at"`
	UpdatedAt             time.Time `grove:"updated_at"               bson:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	bundles := make([]string, len(a.AutoInvoiceOffBundles))
	for i, b := range a.AutoInvoiceOffBundles {
		bundles[i] = b.String()
	}

	return &accountModel{
		ID:                    a.ID.String(),
		Name:                  a.Name,
		Currency:              a.Currency,
		BillCycleDayLocal:     a.BillCycleDayLocal,
		TimeZone:              a.TimeZone,
		AutoInvoiceOff:        a.AutoInvoiceOff,
		AutoInvoiceDraft:      a.AutoInvoiceDraft,
		AutoInvoiceReuseDraft: a.AutoInvoiceReuseDraft,
		AutoInvoiceOffBundles: bundles,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	acctID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, err
	}

	var bundles []id.BundleID
	for _, raw := range m.AutoInvoiceOffBundles {
		b, err := id.ParseBundleID(raw)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}

	return &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                    acctID,
		Name:                  m.Name,
		Currency:              m.Currency,
		BillCycleDayLocal:     m.BillCycleDayLocal,
		TimeZone:              m.TimeZone,
		AutoInvoiceOff:        m.AutoInvoiceOff,
		AutoInvoiceDraft:      m.AutoInvoiceDraft,
		AutoInvoiceReuseDraft: m.AutoInvoiceReuseDraft,
		AutoInvoiceOffBundles: bundles,
	}, nil
}

// ==================== Subscription models ====================

type subscriptionModel struct {
	grove.BaseModel `grove:"table:junction_subscriptions"`

	ID        string     `grove:"id,pk"      bson:"_id"`
	AccountID string     `grove:"account_id" bson:"account_id"`
	BundleID  string     `grove:"bundle_id"  bson:"bundle_id"`
	Category  string     `grove:"category"   bson:"category"`
	StartDate time.Time  `grove:"start_date" bson:"start_date"`
	EndDate   *time.Time `grove:"end_date"   bson:"end_date,omitempty"`
	CreatedAt time.Time  `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `grove:"updated_at" bson:"updated_at"`
}

func toSubscriptionModel(sub *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		ID:        sub.ID.String(),
		AccountID: sub.AccountID.String(),
		BundleID:  sub.BundleID.String(),
		Category:  string(sub.Category),
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
		CreatedAt: sub.CreatedAt,
		UpdatedAt: sub.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	subID, err := id.ParseSubscriptionID(m.ID)
	if err != nil {
		return nil, err
	}
	acctID, err := id.ParseAccountID(m.AccountID)
	if err != nil {
		return nil, err
	}
	bundleID, err := id.ParseBundleID(m.BundleID)
	if err != nil {
		return nil, err
	}

	return &subscription.Subscription{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        subID,
		AccountID: acctID,
		BundleID:  bundleID,
		Category:  subscription.Category(m.Category),
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
	}, nil
}

// ==================== Transition models ====================

type transitionModel struct {
	grove.BaseModel `grove:"table:junction_transitions"`

	ID             string    `grove:"id,pk"           bson:"_id"`
	SubscriptionID string    `grove:"subscription_id" bson:"subscription_id"`
	Type           string    `grove:"type"            bson:"type"`
	EffectiveDate  time.Time `grove:"effective_date"  bson:"effective_date"`
	PrevPlan       string    `grove:"prev_plan"       bson:"prev_plan,omitempty"`
	PrevPhase      string    `grove:"prev_phase"      bson:"prev_phase,omitempty"`
	NextPlan       string    `grove:"next_plan"       bson:"next_plan,omitempty"`
	NextPhase      string    `grove:"next_phase"      bson:"next_phase,omitempty"`
	TotalOrdering  int64     `grove:"total_ordering"  bson:"total_ordering"`
	CreatedAt      time.Time `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"      bson:"updated_at"`
}

func toTransitionModel(t *subscription.Transition) *transitionModel {
	return &transitionModel{
		ID:             t.ID.String(),
		SubscriptionID: t.SubscriptionID.String(),
		Type:           string(t.Type),
		EffectiveDate:  t.EffectiveDate,
		PrevPlan:       t.PrevPlan,
		PrevPhase:      string(t.PrevPhase),
		NextPlan:       t.NextPlan,
		NextPhase:      string(t.NextPhase),
		TotalOrdering:  t.TotalOrdering,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func fromTransitionModel(m *transitionModel) (*subscription.Transition, error) {
	txID, err := id.ParseTransitionID(m.ID)
	if err != nil {
		return nil, err
	}
	subID, err := id.ParseSubscriptionID(m.SubscriptionID)
	if err != nil {
		return nil, err
	}

	return &subscription.Transition{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             txID,
		SubscriptionID: subID,
		Type:           subscription.TransitionType(m.Type),
		EffectiveDate:  m.EffectiveDate,
		PrevPlan:       m.PrevPlan,
		PrevPhase:      catalog.PhaseType(m.PrevPhase),
		NextPlan:       m.NextPlan,
		NextPhase:      catalog.PhaseType(m.NextPhase),
		TotalOrdering:  m.TotalOrdering,
	}, nil
}

// ==================== Blocking state models ====================

type blockingStateModel struct {
	grove.BaseModel `grove:"table:junction_blocking_states"`

	ID               string    `grove:"id,pk"             bson:"_id"`
	AccountID        string    `grove:"account_id"        bson:"account_id"`
	BlockedID        string    `grove:"blocked_id"        bson:"blocked_id"`
	Scope            string    `grove:"scope"             bson:"scope"`
	StateName        string    `grove:"state_name"        bson:"state_name"`
	Service          string    `grove:"service"           bson:"service"`
	BlockChange      bool      `grove:"block_change"      bson:"block_change"`
	BlockEntitlement bool      `grove:"block_entitlement" bson:"block_entitlement"`
	BlockBilling     bool      `grove:"block_billing"     bson:"block_billing"`
	EffectiveDate    time.Time `grove:"effective_date"    bson:"effective_date"`
	CreatedAt        time.Time `grove:"created_at"        bson:"created_at"`
	UpdatedAt        time.Time `grove:"updated_at"        bson:"updated_at"`
}

func toBlockingStateModel(st *blocking.State) *blockingStateModel {
	return &blockingStateModel{
		ID:               st.ID.String(),
		AccountID:        st.AccountID.String(),
		BlockedID:        st.BlockedID.String(),
		Scope:            string(st.Scope),
		StateName:        st.StateName,
		Service:          st.Service,
		BlockChange:      st.BlockChange,
		BlockEntitlement: st.BlockEntitlement,
		BlockBilling:     st.BlockBilling,
		EffectiveDate:    st.EffectiveDate,
		CreatedAt:        st.CreatedAt,
		UpdatedAt:        st.UpdatedAt,
	}
}

func fromBlockingStateModel(m *blockingStateModel) (*blocking.State, error) {
	stID, err := id.ParseBlockingStateID(m.ID)
	if err != nil {
		return nil, err
	}
	acctID, err := id.ParseAccountID(m.AccountID)
	if err != nil {
		return nil, err
	}
	blockedID, err := id.Parse(m.BlockedID)
	if err != nil {
		return nil, err
	}

	return &blocking.State{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:               stID,
		AccountID:        acctID,
		BlockedID:        blockedID,
		Scope:            blocking.Scope(m.Scope),
		StateName:        m.StateName,
		Service:          m.Service,
		BlockChange:      m.BlockChange,
		BlockEntitlement: m.BlockEntitlement,
		BlockBilling:     m.BlockBilling,
		EffectiveDate:    m.EffectiveDate,
	}, nil
}
