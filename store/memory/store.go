// Package memory implements store.Store in process memory. It is meant for
// tests and single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/junction"
	"github.com/xraph/junction/account"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/id"
	"github.com/xraph/junction/store"
	"github.com/xraph/junction/subscription"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	accounts      map[id.AccountID]*account.Account
	subscriptions map[id.SubscriptionID]*subscription.Subscription
	transitions   map[id.SubscriptionID][]*subscription.Transition
	states        []*blocking.State
	closed        bool
}

func New() *Store {
	return &Store{
		accounts:      make(map[id.AccountID]*account.Account),
		subscriptions: make(map[id.SubscriptionID]*subscription.Subscription),
		transitions:   make(map[id.SubscriptionID][]*subscription.Transition),
	}
}

// Account Store implementation
func (s *Store) UpsertAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	cp.AutoInvoiceOffBundles = append([]id.BundleID(nil), a.AutoInvoiceOffBundles...)
	s.accounts[a.ID] = &cp
	return nil
}

func (s *Store) GetAccount(_ context.Context, accountID id.AccountID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[accountID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, junction.ErrAccountNotFound
}

// Subscription Store implementation
func (s *Store) CreateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID]; exists {
		return junction.ErrAlreadyExists
	}
	cp := *sub
	s.subscriptions[sub.ID] = &cp
	return nil
}

func (s *Store) GetSubscription(_ context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.subscriptions[subID]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, junction.ErrSubscriptionNotFound
}

func (s *Store) UpdateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID]; !exists {
		return junction.ErrSubscriptionNotFound
	}
	cp := *sub
	s.subscriptions[sub.ID] = &cp
	return nil
}

func (s *Store) ListAccountSubscriptions(_ context.Context, accountID id.AccountID) ([]*subscription.Subscription, error) {
	return s.listSubscriptions(func(sub *subscription.Subscription) bool { return sub.AccountID == accountID }), nil
}

func (s *Store) ListBundleSubscriptions(_ context.Context, bundleID id.BundleID) ([]*subscription.Subscription, error) {
	return s.listSubscriptions(func(sub *subscription.Subscription) bool { return sub.BundleID == bundleID }), nil
}

func (s *Store) listSubscriptions(match func(*subscription.Subscription) bool) []*subscription.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*subscription.Subscription, 0)
	for _, sub := range s.subscriptions {
		if match(sub) {
			cp := *sub
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if c := a.BundleID.Compare(b.BundleID); c != 0 {
			return c < 0
		}
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		return a.ID.Compare(b.ID) < 0
	})
	return result
}

// Transition Store implementation
func (s *Store) RecordTransition(_ context.Context, t *subscription.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[t.SubscriptionID]; !exists {
		return junction.ErrSubscriptionNotFound
	}
	cp := *t
	list := append(s.transitions[t.SubscriptionID], &cp)
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].EffectiveDate.Equal(list[j].EffectiveDate) {
			return list[i].EffectiveDate.Before(list[j].EffectiveDate)
		}
		return list[i].TotalOrdering < list[j].TotalOrdering
	})
	s.transitions[t.SubscriptionID] = list
	return nil
}

func (s *Store) ListTransitions(_ context.Context, subID id.SubscriptionID) ([]*subscription.Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.transitions[subID]
	result := make([]*subscription.Transition, len(list))
	for i, t := range list {
		cp := *t
		result[i] = &cp
	}
	return result, nil
}

// Blocking state Store implementation
func (s *Store) RecordBlockingState(_ context.Context, st *blocking.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.states {
		if existing.ID == st.ID {
			return junction.ErrAlreadyExists
		}
	}
	cp := *st
	s.states = append(s.states, &cp)
	blocking.Sort(s.states)
	return nil
}

func (s *Store) ListAccountBlockingStates(_ context.Context, accountID id.AccountID) ([]*blocking.State, error) {
	return s.listStates(func(st *blocking.State) bool { return st.AccountID == accountID }), nil
}

func (s *Store) ListBlockingStates(_ context.Context, blockedID id.ID) ([]*blocking.State, error) {
	return s.listStates(func(st *blocking.State) bool { return st.BlockedID == blockedID }), nil
}

func (s *Store) listStates(match func(*blocking.State) bool) []*blocking.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*blocking.State, 0)
	for _, st := range s.states {
		if match(st) {
			cp := *st
			result = append(result, &cp)
		}
	}
	return result
}

// Core methods
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return junction.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
