package dedup

import "context"

// Store answers whether a content item already has a persisted
// analysis. Marking happens implicitly when a result is persisted, so
// the store is read-only; durability across restarts comes from the
// underlying persistence.
type Store interface {
	HasAnalyzed(ctx context.Context, itemID string) (bool, error)
}
