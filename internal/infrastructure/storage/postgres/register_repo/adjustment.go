// Package register_repo provides PostgreSQL implementations for
// accumulation register repositories.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocktake/internal/core/entity"
	"stocktake/internal/core/id"
	"stocktake/internal/domain/registers/adjustment"
	"stocktake/internal/infrastructure/storage/postgres"
)

const adjustmentTable = "reg_stock_adjustments"

// AdjustmentRepo implements adjustment.Repository.
type AdjustmentRepo struct {
	txManager *postgres.TxManager
	cols      []string
}

// NewAdjustmentRepo creates the adjustment register repository.
func NewAdjustmentRepo(txManager *postgres.TxManager) *AdjustmentRepo {
	return &AdjustmentRepo{
		txManager: txManager,
		cols:      postgres.ExtractDBColumns[entity.StockAdjustment](),
	}
}

func (r *AdjustmentRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// InsertMovements appends movement records in a single multi-row insert.
func (r *AdjustmentRepo) InsertMovements(ctx context.Context, movements []entity.StockAdjustment) error {
	if len(movements) == 0 {
		return nil
	}

	insert := r.builder().
		Insert(adjustmentTable).
		Columns(r.cols...)
	for i := range movements {
		data := postgres.StructToMap(&movements[i])
		vals := make([]any, len(r.cols))
		for j, col := range r.cols {
			vals[j] = data[col]
		}
		insert = insert.Values(vals...)
	}

	sql, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

// DeleteStaleByRecorder removes movements written by earlier posting
// iterations of the recorder document.
func (r *AdjustmentRepo) DeleteStaleByRecorder(ctx context.Context, recorderID id.ID, currentVersion int) error {
	sql, args, err := r.builder().
		Delete(adjustmentTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		Where(squirrel.Lt{"recorder_version": currentVersion}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete stale movements: %w", err)
	}
	return nil
}

// ListByRecorder returns all movements written by a recorder document.
func (r *AdjustmentRepo) ListByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockAdjustment, error) {
	sql, args, err := r.builder().
		Select(r.cols...).
		From(adjustmentTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		OrderBy("line_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockAdjustment
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

// GetBalances returns net adjustment per product for a location within a
// period. Zero time bounds mean unbounded.
func (r *AdjustmentRepo) GetBalances(ctx context.Context, locationID id.ID, from, to time.Time) ([]adjustment.Balance, error) {
	q := r.builder().
		Select(
			"location_id",
			"product_id",
			"SUM(CASE WHEN record_type = 'receipt' THEN quantity ELSE -quantity END) AS quantity",
		).
		From(adjustmentTable).
		Where(squirrel.Eq{"location_id": locationID}).
		GroupBy("location_id", "product_id").
		OrderBy("product_id ASC")

	if !from.IsZero() {
		q = q.Where(squirrel.GtOrEq{"period": from})
	}
	if !to.IsZero() {
		q = q.Where(squirrel.LtOrEq{"period": to})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []adjustment.Balance
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("get balances: %w", err)
	}
	return balances, nil
}
