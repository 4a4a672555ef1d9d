package dedup

import (
	"context"
	"fmt"

	"github.com/mlundberg/borsradar/internal/adapters/database"
)

// PGStore answers analysis presence from the unique item_id column.
// The unique constraint is what makes concurrent marking safe: two
// writers racing on the same item resolve at the database.
type PGStore struct {
	db *database.DB
}

// NewPGStore creates a database-backed dedup store
func NewPGStore(db *database.DB) *PGStore {
	return &PGStore{db: db}
}

// HasAnalyzed checks whether a result row exists for the item
func (s *PGStore) HasAnalyzed(ctx context.Context, itemID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM items WHERE item_id = $1 AND analyzed_at IS NOT NULL)`

	if err := s.db.DB().GetContext(ctx, &exists, query, itemID); err != nil {
		return false, fmt.Errorf("failed to check item: %w", err)
	}
	return exists, nil
}
