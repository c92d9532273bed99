package product

import (
	"context"
	"testing"

	"stocktake/internal/core/id"
	"stocktake/internal/core/types"
)

func TestProductValidate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*Product)
		wantErr bool
	}{
		{"valid", func(p *Product) {}, false},
		{"missing name", func(p *Product) { p.Name = "" }, true},
		{"missing code", func(p *Product) { p.Code = "" }, true},
		{"bad unit", func(p *Product) { p.Unit = "barrel" }, true},
		{"negative cost", func(p *Product) { p.UnitCost = types.MustMoney("-1") }, true},
		{"zero cost ok", func(p *Product) { p.UnitCost = types.ZeroMoney() }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProduct("VODKA-01", "House Vodka", UnitBottle, types.MustMoney("19.99"))
			tt.mutate(p)
			err := p.Validate(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParLevelValidate(t *testing.T) {
	ctx := context.Background()
	productID, locationID := id.New(), id.New()

	tests := []struct {
		name    string
		level   ParLevel
		wantErr bool
	}{
		{"valid", ParLevel{ProductID: productID, LocationID: locationID, Quantity: types.NewQuantityFromInt(10)}, false},
		{"zero quantity ok", ParLevel{ProductID: productID, LocationID: locationID}, false},
		{"nil product", ParLevel{LocationID: locationID, Quantity: types.QuantityOne}, true},
		{"nil location", ParLevel{ProductID: productID, Quantity: types.QuantityOne}, true},
		{"negative quantity", ParLevel{ProductID: productID, LocationID: locationID, Quantity: -types.QuantityOne}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.level.Validate(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
