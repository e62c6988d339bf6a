// Package mongo implements store.Store on MongoDB through the Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/junction"
	"github.com/xraph/junction/account"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/id"
	junctionstore "github.com/xraph/junction/store"
	"github.com/xraph/junction/subscription"
)

// Collection name constants.
const (
	colSubscriptions  = "junction_subscriptions"
	colTransitions    = "junction_transitions"
	colBlockingStates = "junction_blocking_states"
)

// compile-time interface check
var _ junctionstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all junction collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("junction/mongo: migrate %s indexes: %w", col, err)
		}
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

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"name":                     m.Name,
			"currency":                 m.Currency,
			"bill_cycle_day_local":     m.BillCycleDayLocal,
			"time_zone":                m.TimeZone,
			"auto_invoice_off":         m.AutoInvoiceOff,
			"auto_invoice_draft":       m.AutoInvoiceDraft,
			"auto_invoice_reuse_draft": m.AutoInvoiceReuseDraft,
			"auto_invoice_off_bundles": m.AutoInvoiceOffBundles,
			"updated_at":               m.UpdatedAt,
		}, "$setOnInsert": bson.M{
			"created_at": m.CreatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("junction/mongo: upsert account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": accountID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, junction.ErrAccountNotFound
		}
		return nil, fmt.Errorf("junction/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

// ==================== Subscription Store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return junction.ErrAlreadyExists
		}
		return fmt.Errorf("junction/mongo: create subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": subID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, junction.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("junction/mongo: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("junction/mongo: update subscription: %w", err)
	}
	if res.MatchedCount() == 0 {
		return junction.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) ListAccountSubscriptions(ctx context.Context, accountID id.AccountID) ([]*subscription.Subscription, error) {
	return s.listSubscriptions(ctx, bson.M{"account_id": accountID.String()})
}

func (s *Store) ListBundleSubscriptions(ctx context.Context, bundleID id.BundleID) ([]*subscription.Subscription, error) {
	return s.listSubscriptions(ctx, bson.M{"bundle_id": bundleID.String()})
}

func (s *Store) listSubscriptions(ctx context.Context, filter bson.M) ([]*subscription.Subscription, error) {
	var models []subscriptionModel
	err := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{
			{Key: "bundle_id", Value: 1},
			{Key: "start_date", Value: 1},
			{Key: "_id", Value: 1},
		}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("junction/mongo: list subscriptions: %w", err)
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
	_, err := s.mdb.NewInsert(toTransitionModel(t)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("junction/mongo: record transition: %w", err)
	}
	return nil
}

func (s *Store) ListTransitions(ctx context.Context, subID id.SubscriptionID) ([]*subscription.Transition, error) {
	var models []transitionModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"subscription_id": subID.String()}).
		Sort(bson.D{
			{Key: "effective_date", Value: 1},
			{Key: "total_ordering", Value: 1},
		}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("junction/mongo: list transitions: %w", err)
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
	_, err := s.mdb.NewInsert(toBlockingStateModel(st)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return junction.ErrAlreadyExists
		}
		return fmt.Errorf("junction/mongo: record blocking state: %w", err)
	}
	return nil
}

func (s *Store) ListAccountBlockingStates(ctx context.Context, accountID id.AccountID) ([]*blocking.State, error) {
	return s.listBlockingStates(ctx, bson.M{"account_id": accountID.String()})
}

func (s *Store) ListBlockingStates(ctx context.Context, blockedID id.ID) ([]*blocking.State, error) {
	return s.listBlockingStates(ctx, bson.M{"blocked_id": blockedID.String()})
}

func (s *Store) listBlockingStates(ctx context.Context, filter bson.M) ([]*blocking.State, error) {
	var models []blockingStateModel
	err := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{
			{Key: "effective_date", Value: 1},
			{Key: "created_at", Value: 1},
		}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("junction/mongo: list blocking states: %w", err)
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all junction collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSubscriptions: {
			{Keys: bson.D{{Key: "account_id", Value: 1}}},
			{Keys: bson.D{{Key: "bundle_id", Value: 1}, {Key: "start_date", Value: 1}}},
		},
		colTransitions: {
			{Keys: bson.D{
				{Key: "subscription_id", Value: 1},
				{Key: "effective_date", Value: 1},
				{Key: "total_ordering", Value: 1},
			}},
		},
		colBlockingStates: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "effective_date", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "blocked_id", Value: 1}, {Key: "effective_date", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}
}
