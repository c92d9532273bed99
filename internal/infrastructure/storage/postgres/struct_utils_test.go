package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktake/internal/core/entity"
	"stocktake/internal/core/types"
	"stocktake/internal/domain/catalogs/product"
)

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[product.Product]()

	// Embedded Catalog/BaseCatalog/BaseEntity columns must be flattened in.
	assert.Contains(t, cols, "id")
	assert.Contains(t, cols, "code")
	assert.Contains(t, cols, "name")
	assert.Contains(t, cols, "version")
	assert.Contains(t, cols, "deletion_mark")
	assert.Contains(t, cols, "unit")
	assert.Contains(t, cols, "unit_cost")
	assert.NotContains(t, cols, "-")
}

func TestStructToMap(t *testing.T) {
	p := product.NewProduct("VODKA-01", "House Vodka", product.UnitBottle, types.MustMoney("19.99"))
	p.Category = "spirits"

	m := StructToMap(p)
	require.NotNil(t, m)

	assert.Equal(t, p.ID, m["id"])
	assert.Equal(t, "VODKA-01", m["code"])
	assert.Equal(t, "House Vodka", m["name"])
	assert.Equal(t, product.UnitBottle, m["unit"])
	assert.Equal(t, "spirits", m["category"])
	assert.Equal(t, 1, m["version"])
}

func TestStructToMapSkipsIgnoredFields(t *testing.T) {
	l := entity.Catalog{}
	m := StructToMap(&l)
	_, hasDash := m["-"]
	assert.False(t, hasDash)
}

func TestStructToMapNonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("hello"))
}
