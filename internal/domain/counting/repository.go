package counting

import (
	"context"

	"stocktake/internal/core/id"
	"stocktake/internal/domain"
)

// SessionFilter extends the common list filter with session-specific criteria.
type SessionFilter struct {
	domain.ListFilter

	LocationID *id.ID
	Status     *SessionStatus
	CountType  *CountType
}

// Repository defines persistence operations for count sessions.
// GetByID and GetForUpdate return the full aggregate: session header, areas
// in sort order, and each area's items.
type Repository interface {
	// Create inserts the session with its areas (and any items)
	Create(ctx context.Context, session *CountSession) error

	// GetByID loads the full aggregate
	GetByID(ctx context.Context, sessionID id.ID) (*CountSession, error)

	// GetForUpdate loads the full aggregate with a row lock on the session
	// header. Must be called inside a transaction.
	GetForUpdate(ctx context.Context, sessionID id.ID) (*CountSession, error)

	// Update persists the session header with an optimistic version check
	// and upserts its areas and items. Returns ConcurrentModification when
	// the stored version does not match.
	Update(ctx context.Context, session *CountSession) error

	// List retrieves session headers (without areas/items) with filtering
	List(ctx context.Context, filter SessionFilter) (domain.ListResult[*CountSession], error)
}
