package product

import (
	"context"
	"fmt"

	"stocktake/internal/core/id"
	"stocktake/internal/core/tx"
	"stocktake/internal/core/types"
	"stocktake/internal/domain"
	"stocktake/pkg/logger"
)

// Numerator assigns catalog codes when none is provided.
type Numerator interface {
	Next(ctx context.Context, documentType string) (string, error)
}

// Service provides business logic for the product catalog.
// It is the read-only catalog collaborator of the counting engine.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	txManager tx.Manager
	numerator Numerator
}

// NewService creates a product service.
func NewService(repo Repository, txManager tx.Manager, numerator Numerator) *Service {
	svc := &Service{
		CatalogService: domain.NewCatalogService[*Product]("product", repo, txManager),
		repo:           repo,
		txManager:      txManager,
		numerator:      numerator,
	}
	svc.Hooks().OnBeforeCreate(svc.prepareForCreate)
	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	if p.Code == "" {
		code, err := s.numerator.Next(ctx, "Product")
		if err != nil {
			return fmt.Errorf("generate product code: %w", err)
		}
		p.Code = code
	}
	return nil
}

// GetParLevels returns the par level per product for a location.
func (s *Service) GetParLevels(ctx context.Context, locationID id.ID) (map[id.ID]types.Quantity, error) {
	return s.repo.GetParLevels(ctx, locationID)
}

// GetUnitCosts returns the unit cost per product.
func (s *Service) GetUnitCosts(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Money, error) {
	if len(productIDs) == 0 {
		return map[id.ID]types.Money{}, nil
	}
	return s.repo.GetUnitCosts(ctx, productIDs)
}

// SetParLevel creates or replaces the par level for (product, location).
func (s *Service) SetParLevel(ctx context.Context, level *ParLevel) error {
	if err := level.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpsertParLevel(ctx, level); err != nil {
			return err
		}
		logger.Info(ctx, "par level set",
			"product_id", level.ProductID, "location_id", level.LocationID,
			"quantity", level.Quantity.String())
		return nil
	})
}

// RemoveParLevel deletes the par level for (product, location).
func (s *Service) RemoveParLevel(ctx context.Context, productID, locationID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.DeleteParLevel(ctx, productID, locationID)
	})
}

// ListParLevels returns all par levels configured for a location.
func (s *Service) ListParLevels(ctx context.Context, locationID id.ID) ([]ParLevel, error) {
	return s.repo.ListParLevels(ctx, locationID)
}
