// Package counting_repo provides the PostgreSQL implementation of the count
// session repository. Sessions are stored as a header row plus child area
// and item rows; the aggregate is loaded and saved as a whole.
package counting_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocktake/internal/core/apperror"
	"stocktake/internal/core/id"
	"stocktake/internal/domain"
	"stocktake/internal/domain/counting"
	"stocktake/internal/infrastructure/storage/postgres"
)

const (
	sessionTable = "doc_count_sessions"
	areaTable    = "doc_count_areas"
	itemTable    = "doc_count_items"
)

// SessionRepo implements counting.Repository.
type SessionRepo struct {
	txManager   *postgres.TxManager
	sessionCols []string
	areaCols    []string
	itemCols    []string
}

// NewSessionRepo creates the session repository.
func NewSessionRepo(txManager *postgres.TxManager) *SessionRepo {
	return &SessionRepo{
		txManager:   txManager,
		sessionCols: postgres.ExtractDBColumns[counting.CountSession](),
		areaCols:    postgres.ExtractDBColumns[counting.CountArea](),
		itemCols:    postgres.ExtractDBColumns[counting.CountItem](),
	}
}

func (r *SessionRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts the session with its areas and items.
func (r *SessionRepo) Create(ctx context.Context, session *counting.CountSession) error {
	data := postgres.StructToMap(session)
	filtered := make(map[string]any, len(r.sessionCols))
	for _, col := range r.sessionCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().
		Insert(sessionTable).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return r.insertChildren(ctx, session)
}

// GetByID loads the full aggregate.
func (r *SessionRepo) GetByID(ctx context.Context, sessionID id.ID) (*counting.CountSession, error) {
	return r.get(ctx, sessionID, false)
}

// GetForUpdate loads the full aggregate with a row lock on the session
// header. Must run inside a transaction.
func (r *SessionRepo) GetForUpdate(ctx context.Context, sessionID id.ID) (*counting.CountSession, error) {
	return r.get(ctx, sessionID, true)
}

func (r *SessionRepo) get(ctx context.Context, sessionID id.ID, forUpdate bool) (*counting.CountSession, error) {
	q := r.builder().
		Select(r.sessionCols...).
		From(sessionTable).
		Where(squirrel.Eq{"id": sessionID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	session := &counting.CountSession{}
	if err := pgxscan.Get(ctx, querier, session, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("count session", sessionID.String())
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if err := r.loadChildren(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *SessionRepo) loadChildren(ctx context.Context, session *counting.CountSession) error {
	querier := r.txManager.GetQuerier(ctx)

	areaSQL, areaArgs, err := r.builder().
		Select(r.areaCols...).
		From(areaTable).
		Where(squirrel.Eq{"session_id": session.ID}).
		OrderBy("sort_order ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build area query: %w", err)
	}

	var areas []counting.CountArea
	if err := pgxscan.Select(ctx, querier, &areas, areaSQL, areaArgs...); err != nil {
		return fmt.Errorf("load areas: %w", err)
	}

	areaIndex := make(map[id.ID]int, len(areas))
	for i := range areas {
		areas[i].Items = make([]counting.CountItem, 0)
		areaIndex[areas[i].ID] = i
	}

	itemSQL, itemArgs, err := r.builder().
		Select(r.itemCols...).
		From(itemTable).
		Where(squirrel.Expr("area_id IN (SELECT id FROM "+areaTable+" WHERE session_id = ?)", session.ID)).
		OrderBy("counted_at ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build item query: %w", err)
	}

	var items []counting.CountItem
	if err := pgxscan.Select(ctx, querier, &items, itemSQL, itemArgs...); err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	for _, item := range items {
		if idx, ok := areaIndex[item.AreaID]; ok {
			areas[idx].Items = append(areas[idx].Items, item)
		}
	}

	session.Areas = areas
	return nil
}

// Update persists the session header with an optimistic version check and
// rewrites its areas and items. The model owns area/item state; the rows
// are replaced wholesale, keeping their stable ids.
func (r *SessionRepo) Update(ctx context.Context, session *counting.CountSession) error {
	data := postgres.StructToMap(session)
	filtered := make(map[string]any, len(r.sessionCols))
	for _, col := range r.sessionCols {
		if col == "id" || col == "version" {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().
		Update(sessionTable).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": session.ID}).
		Where(squirrel.Eq{"version": session.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("count session", session.ID)
	}
	session.SetVersion(session.Version + 1)

	if err := r.deleteChildren(ctx, session.ID); err != nil {
		return err
	}
	return r.insertChildren(ctx, session)
}

func (r *SessionRepo) deleteChildren(ctx context.Context, sessionID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)

	itemSQL, itemArgs, err := r.builder().
		Delete(itemTable).
		Where(squirrel.Expr("area_id IN (SELECT id FROM "+areaTable+" WHERE session_id = ?)", sessionID)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build item delete: %w", err)
	}
	if _, err := querier.Exec(ctx, itemSQL, itemArgs...); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	areaSQL, areaArgs, err := r.builder().
		Delete(areaTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build area delete: %w", err)
	}
	if _, err := querier.Exec(ctx, areaSQL, areaArgs...); err != nil {
		return fmt.Errorf("delete areas: %w", err)
	}
	return nil
}

func (r *SessionRepo) insertChildren(ctx context.Context, session *counting.CountSession) error {
	if len(session.Areas) == 0 {
		return nil
	}
	querier := r.txManager.GetQuerier(ctx)

	areaInsert := r.builder().
		Insert(areaTable).
		Columns(r.areaCols...)
	var haveItems bool
	itemInsert := r.builder().
		Insert(itemTable).
		Columns(r.itemCols...)

	for i := range session.Areas {
		area := &session.Areas[i]
		areaData := postgres.StructToMap(area)
		areaVals := make([]any, len(r.areaCols))
		for j, col := range r.areaCols {
			areaVals[j] = areaData[col]
		}
		areaInsert = areaInsert.Values(areaVals...)

		for k := range area.Items {
			itemData := postgres.StructToMap(&area.Items[k])
			itemVals := make([]any, len(r.itemCols))
			for j, col := range r.itemCols {
				itemVals[j] = itemData[col]
			}
			itemInsert = itemInsert.Values(itemVals...)
			haveItems = true
		}
	}

	areaSQL, areaArgs, err := areaInsert.ToSql()
	if err != nil {
		return fmt.Errorf("build area insert: %w", err)
	}
	if _, err := querier.Exec(ctx, areaSQL, areaArgs...); err != nil {
		return fmt.Errorf("insert areas: %w", err)
	}

	if haveItems {
		itemSQL, itemArgs, err := itemInsert.ToSql()
		if err != nil {
			return fmt.Errorf("build item insert: %w", err)
		}
		if _, err := querier.Exec(ctx, itemSQL, itemArgs...); err != nil {
			return fmt.Errorf("insert items: %w", err)
		}
	}
	return nil
}

// List retrieves session headers (without areas/items) with filtering.
func (r *SessionRepo) List(ctx context.Context, filter counting.SessionFilter) (domain.ListResult[*counting.CountSession], error) {
	result := domain.ListResult[*counting.CountSession]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder().
		Select(r.sessionCols...).
		From(sessionTable)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"number": pattern},
		})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.CountType != nil {
		q = q.Where(squirrel.Eq{"count_type": *filter.CountType})
	}

	querier := r.txManager.GetQuerier(ctx)

	countSQL, countArgs, err := r.builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count sessions: %w", err)
	}

	// Newest first: UUIDv7 ids are time-ordered.
	q = q.OrderBy("id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list sessions: %w", err)
	}
	return result, nil
}
