package dto

import (
	"stocktake/internal/core/types"
)

// --- Product Requests ---

// CreateProductRequest creates a product. Code is numerator-assigned when
// omitted.
type CreateProductRequest struct {
	Code          string          `json:"code"`
	Name          string          `json:"name" binding:"required"`
	Unit          string          `json:"unit" binding:"required,oneof=bottle case keg each kg liter"`
	ContainerSize *types.Quantity `json:"containerSize"`
	UnitCost      string          `json:"unitCost" binding:"required"`
	Category      string          `json:"category"`
	SupplierSKU   *string         `json:"supplierSku"`
}

// UpdateProductRequest updates a product with optimistic locking.
type UpdateProductRequest struct {
	Name          *string         `json:"name"`
	Unit          *string         `json:"unit" binding:"omitempty,oneof=bottle case keg each kg liter"`
	ContainerSize *types.Quantity `json:"containerSize"`
	UnitCost      *string         `json:"unitCost"`
	Category      *string         `json:"category"`
	SupplierSKU   *string         `json:"supplierSku"`
	IsActive      *bool           `json:"isActive"`
	Version       int             `json:"version" binding:"required,min=1"`
}

// SetParLevelRequest sets the expected on-hand quantity for a product at a
// location.
type SetParLevelRequest struct {
	LocationID string         `json:"locationId" binding:"required,uuid"`
	Quantity   types.Quantity `json:"quantity"`
}

// --- Location Requests ---

// CreateLocationRequest creates a location with its counting areas.
type CreateLocationRequest struct {
	Code      string   `json:"code"`
	Name      string   `json:"name" binding:"required"`
	Address   *string  `json:"address"`
	Timezone  string   `json:"timezone"`
	AreaNames []string `json:"areaNames"`
}

// UpdateLocationRequest updates a location with optimistic locking.
type UpdateLocationRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Timezone *string `json:"timezone"`
	IsActive *bool   `json:"isActive"`
	Version  int     `json:"version" binding:"required,min=1"`
}

// SetAreaTemplatesRequest replaces a location's counting areas, in order.
type SetAreaTemplatesRequest struct {
	AreaNames []string `json:"areaNames" binding:"required,min=1"`
}
