package domain

import (
	"context"

	"stocktake/internal/core/apperror"
	"stocktake/internal/core/entity"
	"stocktake/internal/core/id"
	"stocktake/internal/core/tx"
	"stocktake/pkg/logger"
)

// CatalogService provides generic business logic for catalog entities.
// Embed it in entity-specific services and extend via hooks.
type CatalogService[T entity.Validatable] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager
	hooks     *HookRegistry[T]
	name      string
}

// NewCatalogService creates a generic catalog service.
func NewCatalogService[T entity.Validatable](
	name string,
	repo CatalogRepository[T],
	txManager tx.Manager,
) *CatalogService[T] {
	return &CatalogService[T]{
		repo:      repo,
		txManager: txManager,
		hooks:     NewHookRegistry[T](),
		name:      name,
	}
}

// Hooks exposes the registry so concrete services can attach behavior.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// Create validates and persists a new entity.
func (s *CatalogService[T]) Create(ctx context.Context, ent T) error {
	if err := ent.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.RunBeforeCreate(ctx, ent); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, ent); err != nil {
			return err
		}
		if err := s.hooks.RunAfterCreate(ctx, ent); err != nil {
			return err
		}

		logger.Info(ctx, "catalog entity created", "catalog", s.name)
		return nil
	})
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	var zero T
	if id.IsNil(entityID) {
		return zero, apperror.NewValidation("id is required")
	}
	return s.repo.GetByID(ctx, entityID)
}

// GetByCode retrieves entity by its unique code.
func (s *CatalogService[T]) GetByCode(ctx context.Context, code string) (T, error) {
	var zero T
	if code == "" {
		return zero, apperror.NewValidation("code is required")
	}
	return s.repo.GetByCode(ctx, code)
}

// Update validates and persists changes to an existing entity.
func (s *CatalogService[T]) Update(ctx context.Context, ent T) error {
	if err := ent.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.RunBeforeUpdate(ctx, ent); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, ent); err != nil {
			return err
		}
		if err := s.hooks.RunAfterUpdate(ctx, ent); err != nil {
			return err
		}

		logger.Info(ctx, "catalog entity updated", "catalog", s.name)
		return nil
	})
}

// SetDeletionMark toggles the soft-delete mark.
func (s *CatalogService[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	if id.IsNil(entityID) {
		return apperror.NewValidation("id is required")
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SetDeletionMark(ctx, entityID, marked)
	})
}

// List retrieves entities with filtering and pagination.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListFilter().Limit
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	return s.repo.List(ctx, filter)
}

// Exists checks whether an entity with the given ID exists.
func (s *CatalogService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	if id.IsNil(entityID) {
		return false, nil
	}
	return s.repo.Exists(ctx, entityID)
}
