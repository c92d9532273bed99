package location

import (
	"context"
	"fmt"

	"stocktake/internal/core/apperror"
	"stocktake/internal/core/id"
	"stocktake/internal/core/tx"
	"stocktake/internal/domain"
	"stocktake/pkg/logger"
)

// Numerator assigns catalog codes when none is provided.
type Numerator interface {
	Next(ctx context.Context, documentType string) (string, error)
}

// Service provides business logic for the location catalog.
// It supplies area templates to the counting engine.
type Service struct {
	*domain.CatalogService[*Location]
	repo      Repository
	txManager tx.Manager
	numerator Numerator
}

// NewService creates a location service.
func NewService(repo Repository, txManager tx.Manager, numerator Numerator) *Service {
	svc := &Service{
		CatalogService: domain.NewCatalogService[*Location]("location", repo, txManager),
		repo:           repo,
		txManager:      txManager,
		numerator:      numerator,
	}
	svc.Hooks().OnBeforeCreate(svc.prepareForCreate)
	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, l *Location) error {
	if l.Code == "" {
		code, err := s.numerator.Next(ctx, "Location")
		if err != nil {
			return fmt.Errorf("generate location code: %w", err)
		}
		l.Code = code
	}
	return nil
}

// GetAreaTemplates returns the counting area names for a location, in order.
func (s *Service) GetAreaTemplates(ctx context.Context, locationID id.ID) ([]string, error) {
	templates, err := s.repo.GetAreaTemplates(ctx, locationID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(templates))
	for i, tpl := range templates {
		names[i] = tpl.Name
	}
	return names, nil
}

// SetAreaTemplates replaces a location's counting areas. Existing sessions
// keep the areas they were created with.
func (s *Service) SetAreaTemplates(ctx context.Context, locationID id.ID, names []string) error {
	if id.IsNil(locationID) {
		return apperror.NewValidation("location id is required")
	}
	if len(names) == 0 {
		return apperror.NewValidation("at least one area is required")
	}
	seen := make(map[string]struct{}, len(names))
	templates := make([]AreaTemplate, 0, len(names))
	for i, name := range names {
		if name == "" {
			return apperror.NewValidation("area name is required")
		}
		if _, dup := seen[name]; dup {
			return apperror.NewValidation("duplicate area name").WithDetail("name", name)
		}
		seen[name] = struct{}{}
		templates = append(templates, AreaTemplate{
			ID:         id.New(),
			LocationID: locationID,
			Name:       name,
			SortOrder:  i,
		})
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.Exists(ctx, locationID)
		if err != nil {
			return err
		}
		if !exists {
			return apperror.NewNotFound("location", locationID)
		}
		if err := s.repo.ReplaceAreaTemplates(ctx, locationID, templates); err != nil {
			return err
		}
		logger.Info(ctx, "area templates replaced",
			"location_id", locationID, "areas", len(templates))
		return nil
	})
}
