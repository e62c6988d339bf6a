package account

import (
	"context"

	"github.com/xraph/junction/id"
)

type Store interface {
	Upsert(ctx context.Context, a *Account) error
	Get(ctx context.Context, accountID id.AccountID) (*Account, error)
}
