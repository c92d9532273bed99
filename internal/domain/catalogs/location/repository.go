package location

import (
	"context"

	"stocktake/internal/core/id"
	"stocktake/internal/domain"
)

// Repository defines persistence operations for the location catalog.
// GetByID and List return locations with their area templates loaded.
type Repository interface {
	domain.CatalogRepository[*Location]

	// GetAreaTemplates returns a location's area templates in sort order
	GetAreaTemplates(ctx context.Context, locationID id.ID) ([]AreaTemplate, error)

	// ReplaceAreaTemplates replaces a location's templates atomically
	ReplaceAreaTemplates(ctx context.Context, locationID id.ID, templates []AreaTemplate) error
}
