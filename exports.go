package junction

import (
	"github.com/xraph/junction/billing"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/types"
)

// Re-export common types for convenience so users don't have to import
// the subpackages for everyday use.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// EventSet is re-exported from billing package.
type EventSet = billing.EventSet

// DisabledDuration is re-exported from blocking package.
type DisabledDuration = blocking.DisabledDuration

// Re-export Money constructors
var (
	USD  = types.USD
	EUR  = types.EUR
	GBP  = types.GBP
	Zero = types.Zero
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
