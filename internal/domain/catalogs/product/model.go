// Package product provides the Product catalog: the beverages and goods
// counted during stock takes, with their unit costs and par levels.
package product

import (
	"context"

	"stocktake/internal/core/apperror"
	"stocktake/internal/core/entity"
	"stocktake/internal/core/id"
	"stocktake/internal/core/types"
)

// Unit defines how a product is measured and counted.
type Unit string

const (
	UnitBottle Unit = "bottle"
	UnitCase   Unit = "case"
	UnitKeg    Unit = "keg"
	UnitEach   Unit = "each"
	UnitKg     Unit = "kg"
	UnitLiter  Unit = "liter"
)

// Product represents a counted good.
type Product struct {
	entity.Catalog

	// Unit is the counting unit ("bottle", "keg", ...)
	Unit Unit `db:"unit" json:"unit"`

	// ContainerSize is the container volume/weight in the unit's terms
	// (e.g. 0.7 for a 700ml bottle). Informational.
	ContainerSize *types.Quantity `db:"container_size" json:"containerSize,omitempty"`

	// UnitCost is the cost per unit, used for variance valuation
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// Category groups products for reporting ("spirits", "wine", "beer")
	Category string `db:"category" json:"category,omitempty"`

	// SupplierSKU is the supplier's article for reordering
	SupplierSKU *string `db:"supplier_sku" json:"supplierSku,omitempty"`

	// IsActive indicates the product is currently stocked
	IsActive bool `db:"is_active" json:"isActive"`
}

// ParLevel is the expected on-hand quantity for a product at a location.
// It is a session-level baseline for counts, not a per-area figure.
type ParLevel struct {
	ProductID  id.ID          `db:"product_id" json:"productId"`
	LocationID id.ID          `db:"location_id" json:"locationId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
}

// NewProduct creates a new product with required fields.
func NewProduct(code, name string, unit Unit, unitCost types.Money) *Product {
	return &Product{
		Catalog:  entity.NewCatalog(code, name),
		Unit:     unit,
		UnitCost: unitCost,
		IsActive: true,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !isValidUnit(p.Unit) {
		return apperror.NewValidation("invalid unit").
			WithDetail("field", "unit").
			WithDetail("value", string(p.Unit))
	}
	if p.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost must not be negative").
			WithDetail("field", "unitCost")
	}
	return nil
}

// Validate checks par level invariants.
func (pl *ParLevel) Validate(ctx context.Context) error {
	if id.IsNil(pl.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if id.IsNil(pl.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	if pl.Quantity < 0 {
		return apperror.NewValidation("par level must not be negative").
			WithDetail("field", "quantity")
	}
	return nil
}

func isValidUnit(u Unit) bool {
	switch u {
	case UnitBottle, UnitCase, UnitKeg, UnitEach, UnitKg, UnitLiter:
		return true
	}
	return false
}
