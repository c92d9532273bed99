package product

import (
	"context"

	"stocktake/internal/core/id"
	"stocktake/internal/core/types"
	"stocktake/internal/domain"
)

// Repository defines persistence operations for the product catalog.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetParLevels returns the par level per product for a location.
	// Products without a configured par are absent from the map.
	GetParLevels(ctx context.Context, locationID id.ID) (map[id.ID]types.Quantity, error)

	// GetUnitCosts returns the unit cost per product for the given ids.
	GetUnitCosts(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Money, error)

	// UpsertParLevel creates or replaces the par level for (product, location)
	UpsertParLevel(ctx context.Context, level *ParLevel) error

	// DeleteParLevel removes the par level for (product, location)
	DeleteParLevel(ctx context.Context, productID, locationID id.ID) error

	// ListParLevels returns all par levels configured for a location
	ListParLevels(ctx context.Context, locationID id.ID) ([]ParLevel, error)
}
