// Package adjustment provides the stock adjustment register: immutable
// movement records of counted-vs-expected deltas produced by completed
// count sessions. Surplus is recorded as receipt, shortage as expense.
package adjustment

import (
	"context"
	"time"

	"stocktake/internal/core/entity"
	"stocktake/internal/core/id"
	"stocktake/internal/core/types"
)

// Balance is the net adjustment quantity for one (location, product) pair.
type Balance struct {
	LocationID id.ID          `db:"location_id" json:"locationId"`
	ProductID  id.ID          `db:"product_id" json:"productId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
}

// Repository defines persistence operations for adjustment movements.
type Repository interface {
	// InsertMovements appends movement records. Movements are immutable.
	InsertMovements(ctx context.Context, movements []entity.StockAdjustment) error

	// DeleteStaleByRecorder removes movements written by earlier posting
	// iterations of a recorder document.
	DeleteStaleByRecorder(ctx context.Context, recorderID id.ID, currentVersion int) error

	// ListByRecorder returns all movements written by a recorder document
	ListByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockAdjustment, error)

	// GetBalances returns net adjustment per product for a location within
	// a period. Zero time bounds mean unbounded.
	GetBalances(ctx context.Context, locationID id.ID, from, to time.Time) ([]Balance, error)
}
