package blocking

import (
	"context"

	"github.com/xraph/junction/id"
)

type Store interface {
	Record(ctx context.Context, s *State) error
	// ListForAccount returns every state recorded for the account and its
	// bundles and subscriptions, in Sort order.
	ListForAccount(ctx context.Context, accountID id.AccountID) ([]*State, error)
	ListForBlockedID(ctx context.Context, blockedID id.ID) ([]*State, error)
}
