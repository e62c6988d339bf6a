// Package sqlite implements store.Store on SQLite through the Grove ORM.
// Timestamps are stored as UTC text so they sort lexically.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/junction"
	"github.com/xraph/junction/account"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/id"
	junctionstore "github.com/xraph/junction/store"
	"github.com/xraph/junction/subscription"
)

// compile-time interface check
var _ junctionstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("junction/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("junction/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Account Store ====================

func (s *Store) UpsertAccount(ctx context.Context, a *account.Account) error {
	m := toAccountModel(a)
	m.UpdatedAt = now()
	_, err := s.sdb.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("currency = EXCLUDED.currency").
		Set("bill_cycle_day_local = EXCLUDED.bill_cycle_day_local").
		Set("time_zone = EXCLUDED.time_zone").
		Set("auto_invoice_off = EXCLUDED.auto_invoice_off").
		Set("auto_invoice_draft = EXCLUDED.auto_invoice_draft").
		Set("auto_invoice_reuse_draft = EXCLUDED.auto_invoice_reuse_draft").
		Set("auto_invoice_off_bundles = EXCLUDED.auto_invoice_off_bundles").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	m := new(accountModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", accountID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, junction.ErrAccountNotFound
		}
		return nil, err
	}
	return fromAccountModel(m)
}

// ==================== Subscription Store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	m.StartDate = m.StartDate.UTC()
	res, err := s.sdb.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return junction.ErrAlreadyExists
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", subID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, junction.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return fromSubscriptionModel(m)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return junction.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) ListAccountSubscriptions(ctx context.Context, accountID id.AccountID) ([]*subscription.Subscription, error) {
	return s.listSubscriptions(ctx, "account_id = ?", accountID.String())
}

func (s *Store) ListBundleSubscriptions(ctx context.Context, bundleID id.BundleID) ([]*subscription.Subscription, error) {
	return s.listSubscriptions(ctx, "bundle_id = ?", bundleID.String())
}

func (s *Store) listSubscriptions(ctx context.Context, where string, arg string) ([]*subscription.Subscription, error) {
	var models []subscriptionModel
	err := s.sdb.NewSelect(&models).
		Where(where, arg).
		OrderExpr("bundle_id ASC, start_date ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*subscription.Subscription, len(models))
	for i := range models {
		sub, err := fromSubscriptionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sub
	}
	return result, nil
}

// ==================== Transition Store ====================

func (s *Store) RecordTransition(ctx context.Context, t *subscription.Transition) error {
	if _, err := s.GetSubscription(ctx, t.SubscriptionID); err != nil {
		return err
	}
	m := toTransitionModel(t)
	m.EffectiveDate = m.EffectiveDate.UTC()
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) ListTransitions(ctx context.Context, subID id.SubscriptionID) ([]*subscription.Transition, error) {
	var models []transitionModel
	err := s.sdb.NewSelect(&models).
		Where("subscription_id = ?", subID.String()).
		OrderExpr("effective_date ASC, total_ordering ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*subscription.Transition, len(models))
	for i := range models {
		t, err := fromTransitionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

// ==================== Blocking State Store ====================

func (s *Store) RecordBlockingState(ctx context.Context, st *blocking.State) error {
	m := toBlockingStateModel(st)
	m.EffectiveDate = m.EffectiveDate.UTC()
	m.CreatedAt = m.CreatedAt.UTC()
	res, err := s.sdb.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return junction.ErrAlreadyExists
	}
	return nil
}

func (s *Store) ListAccountBlockingStates(ctx context.Context, accountID id.AccountID) ([]*blocking.State, error) {
	return s.listBlockingStates(ctx, "account_id = ?", accountID.String())
}

func (s *Store) ListBlockingStates(ctx context.Context, blockedID id.ID) ([]*blocking.State, error) {
	return s.listBlockingStates(ctx, "blocked_id = ?", blockedID.String())
}

func (s *Store) listBlockingStates(ctx context.Context, where string, arg string) ([]*blocking.State, error) {
	var models []blockingStateModel
	err := s.sdb.NewSelect(&models).
		Where(where, arg).
		OrderExpr("effective_date ASC, created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*blocking.State, len(models))
	for i := range models {
		st, err := fromBlockingStateModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = st
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
