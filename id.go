package junction

import "github.com/xraph/junction/id"

// ID is the primary identifier type for all Junction entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
