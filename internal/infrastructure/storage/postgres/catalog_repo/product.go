package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocktake/internal/core/id"
	"stocktake/internal/core/types"
	"stocktake/internal/domain/catalogs/product"
	"stocktake/internal/infrastructure/storage/postgres"
)

const (
	productTable  = "cat_products"
	parLevelTable = "cat_par_levels"
)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
	txManager *postgres.TxManager
}

// NewProductRepo creates a product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*product.Product](
			txManager,
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
		txManager: txManager,
	}
}

// GetParLevels returns parLevel per product for a location.
func (r *ProductRepo) GetParLevels(ctx context.Context, locationID id.ID) (map[id.ID]types.Quantity, error) {
	sql, args, err := r.Builder().
		Select("product_id", "quantity").
		From(parLevelTable).
		Where(squirrel.Eq{"location_id": locationID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query par levels: %w", err)
	}
	defer rows.Close()

	levels := make(map[id.ID]types.Quantity)
	for rows.Next() {
		var productID id.ID
		var quantity types.Quantity
		if err := rows.Scan(&productID, &quantity); err != nil {
			return nil, fmt.Errorf("scan par level: %w", err)
		}
		levels[productID] = quantity
	}
	return levels, rows.Err()
}

// GetUnitCosts returns the unit cost per product for the given ids.
func (r *ProductRepo) GetUnitCosts(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Money, error) {
	costs := make(map[id.ID]types.Money, len(productIDs))
	if len(productIDs) == 0 {
		return costs, nil
	}

	sql, args, err := r.Builder().
		Select("id", "unit_cost").
		From(productTable).
		Where(squirrel.Eq{"id": productIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query unit costs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID id.ID
		var cost types.Money
		if err := rows.Scan(&productID, &cost); err != nil {
			return nil, fmt.Errorf("scan unit cost: %w", err)
		}
		costs[productID] = cost
	}
	return costs, rows.Err()
}

// UpsertParLevel creates or replaces the par level for (product, location).
func (r *ProductRepo) UpsertParLevel(ctx context.Context, level *product.ParLevel) error {
	sql, args, err := r.Builder().
		Insert(parLevelTable).
		Columns("product_id", "location_id", "quantity").
		Values(level.ProductID, level.LocationID, level.Quantity).
		Suffix("ON CONFLICT (product_id, location_id) DO UPDATE SET quantity = EXCLUDED.quantity").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert par level: %w", err)
	}
	return nil
}

// DeleteParLevel removes the par level for (product, location).
func (r *ProductRepo) DeleteParLevel(ctx context.Context, productID, locationID id.ID) error {
	sql, args, err := r.Builder().
		Delete(parLevelTable).
		Where(squirrel.Eq{"product_id": productID, "location_id": locationID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete par level: %w", err)
	}
	return nil
}

// ListParLevels returns all par levels configured for a location.
func (r *ProductRepo) ListParLevels(ctx context.Context, locationID id.ID) ([]product.ParLevel, error) {
	sql, args, err := r.Builder().
		Select("product_id", "location_id", "quantity").
		From(parLevelTable).
		Where(squirrel.Eq{"location_id": locationID}).
		OrderBy("product_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var levels []product.ParLevel
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &levels, sql, args...); err != nil {
		return nil, fmt.Errorf("list par levels: %w", err)
	}
	return levels, nil
}
