package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocktake/internal/core/id"
	"stocktake/internal/domain"
	"stocktake/internal/domain/catalogs/location"
	"stocktake/internal/infrastructure/storage/postgres"
)

const (
	locationTable     = "cat_locations"
	areaTemplateTable = "cat_area_templates"
)

// LocationRepo implements location.Repository.
type LocationRepo struct {
	*BaseCatalogRepo[*location.Location]
	txManager *postgres.TxManager
}

// NewLocationRepo creates a location repository.
func NewLocationRepo(txManager *postgres.TxManager) *LocationRepo {
	return &LocationRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*location.Location](
			txManager,
			locationTable,
			postgres.ExtractDBColumns[location.Location](),
			func() *location.Location { return &location.Location{} },
		),
		txManager: txManager,
	}
}

// GetByID loads a location with its area templates.
func (r *LocationRepo) GetByID(ctx context.Context, locationID id.ID) (*location.Location, error) {
	loc, err := r.BaseCatalogRepo.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	templates, err := r.GetAreaTemplates(ctx, locationID)
	if err != nil {
		return nil, err
	}
	loc.AreaTemplates = templates
	return loc, nil
}

// GetAreaTemplates returns a location's area templates in sort order.
func (r *LocationRepo) GetAreaTemplates(ctx context.Context, locationID id.ID) ([]location.AreaTemplate, error) {
	sql, args, err := r.Builder().
		Select("id", "location_id", "name", "sort_order").
		From(areaTemplateTable).
		Where(squirrel.Eq{"location_id": locationID}).
		OrderBy("sort_order ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var templates []location.AreaTemplate
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &templates, sql, args...); err != nil {
		return nil, fmt.Errorf("list area templates: %w", err)
	}
	return templates, nil
}

// ReplaceAreaTemplates replaces a location's templates atomically.
// Call inside a transaction.
func (r *LocationRepo) ReplaceAreaTemplates(ctx context.Context, locationID id.ID, templates []location.AreaTemplate) error {
	querier := r.txManager.GetQuerier(ctx)

	delSQL, delArgs, err := r.Builder().
		Delete(areaTemplateTable).
		Where(squirrel.Eq{"location_id": locationID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete area templates: %w", err)
	}

	if len(templates) == 0 {
		return nil
	}

	insert := r.Builder().
		Insert(areaTemplateTable).
		Columns("id", "location_id", "name", "sort_order")
	for _, tpl := range templates {
		insert = insert.Values(tpl.ID, tpl.LocationID, tpl.Name, tpl.SortOrder)
	}

	sql, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert area templates: %w", err)
	}
	return nil
}

// List loads location headers and hydrates their area templates.
func (r *LocationRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*location.Location], error) {
	result, err := r.BaseCatalogRepo.List(ctx, filter)
	if err != nil {
		return result, err
	}
	for _, loc := range result.Items {
		templates, err := r.GetAreaTemplates(ctx, loc.ID)
		if err != nil {
			return result, err
		}
		loc.AreaTemplates = templates
	}
	return result, nil
}
