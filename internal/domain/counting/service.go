package counting

import (
	"context"
	"sync"

	"stocktake/internal/core/apperror"
	appctx "stocktake/internal/core/context"
	"stocktake/internal/core/id"
	"stocktake/internal/core/tx"
	"stocktake/internal/core/types"
	"stocktake/internal/domain"
	"stocktake/pkg/logger"
)

// DocumentType identifies count sessions in numbering, audit and movement
// records.
const DocumentType = "CountSession"

// CatalogReader supplies par levels and unit costs from the product catalog.
// Read-only collaborator.
type CatalogReader interface {
	// GetParLevels returns parLevel per product for a location.
	// Products without a par level are simply absent from the map.
	GetParLevels(ctx context.Context, locationID id.ID) (map[id.ID]types.Quantity, error)

	// GetUnitCosts returns the unit cost per product. Products without a
	// known cost are absent from the map.
	GetUnitCosts(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Money, error)
}

// AreaProvider supplies the configured counting areas for a location,
// in counting order.
type AreaProvider interface {
	GetAreaTemplates(ctx context.Context, locationID id.ID) ([]string, error)
}

// AdjustmentRecorder persists stock adjustment movements for a completed
// session. Runs inside the completion transaction.
type AdjustmentRecorder interface {
	RecordAdjustments(ctx context.Context, session *CountSession, report *VarianceReport) error
}

// VarianceObserver is notified after a session completes and its variance
// report is computed. Observer failures do not fail the completion.
type VarianceObserver interface {
	VarianceComputed(ctx context.Context, session *CountSession, report *VarianceReport) error
}

// Numerator assigns document numbers.
type Numerator interface {
	Next(ctx context.Context, documentType string) (string, error)
}

// AuditRecorder records audit trail entries. Best effort.
type AuditRecorder interface {
	Record(ctx context.Context, action, entityType string, entityID id.ID, payload any) error
}

// Service orchestrates count session operations: transactions, per-session
// serialization, catalog lookups, movement generation and audit.
type Service struct {
	repo        Repository
	txManager   tx.Manager
	catalog     CatalogReader
	areas       AreaProvider
	adjustments AdjustmentRecorder
	numerator   Numerator
	audit       AuditRecorder
	observers   []VarianceObserver

	// sessionLocks serializes operations per session id. Combined with
	// GetForUpdate and the repository's optimistic version check this
	// guarantees exactly one of two racing CompleteArea calls performs
	// the session-level completion.
	sessionLocks sync.Map
}

// NewService creates the counting service.
func NewService(
	repo Repository,
	txManager tx.Manager,
	catalog CatalogReader,
	areas AreaProvider,
	adjustments AdjustmentRecorder,
	numerator Numerator,
	audit AuditRecorder,
) *Service {
	return &Service{
		repo:        repo,
		txManager:   txManager,
		catalog:     catalog,
		areas:       areas,
		adjustments: adjustments,
		numerator:   numerator,
		audit:       audit,
	}
}

// AddObserver registers a variance observer (alert evaluation etc.).
func (s *Service) AddObserver(obs VarianceObserver) {
	s.observers = append(s.observers, obs)
}

func (s *Service) lockSession(sessionID id.ID) func() {
	v, _ := s.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Create builds a draft session pre-populated with the location's configured
// areas and a numerator-assigned number.
func (s *Service) Create(ctx context.Context, locationID id.ID, name string, countType CountType) (*CountSession, error) {
	if id.IsNil(locationID) {
		return nil, apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	if countType == "" {
		countType = CountFull
	}

	areaNames, err := s.areas.GetAreaTemplates(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if len(areaNames) == 0 {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"location has no counting areas configured").
			WithDetail("locationId", locationID)
	}

	session := NewCountSession(locationID, name, countType, areaNames)
	session.CreatedBy = appctx.GetUserID(ctx)

	if err := session.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.Next(ctx, DocumentType)
		if err != nil {
			return err
		}
		session.Number = number
		return s.repo.Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "session.create", session.ID, session)
	logger.Info(ctx, "count session created",
		"session_id", session.ID, "number", session.Number, "areas", len(session.Areas))
	return session, nil
}

// GetByID loads the full session aggregate.
func (s *Service) GetByID(ctx context.Context, sessionID id.ID) (*CountSession, error) {
	if id.IsNil(sessionID) {
		return nil, apperror.NewValidation("session id is required")
	}
	return s.repo.GetByID(ctx, sessionID)
}

// List retrieves session headers with filtering.
func (s *Service) List(ctx context.Context, filter SessionFilter) (domain.ListResult[*CountSession], error) {
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultListFilter().Limit
	}
	return s.repo.List(ctx, filter)
}

// Start transitions a draft session to in_progress.
func (s *Service) Start(ctx context.Context, sessionID id.ID) (*CountSession, error) {
	var session *CountSession
	err := s.withSession(ctx, sessionID, func(ctx context.Context, loaded *CountSession) error {
		if err := loaded.Start(); err != nil {
			return err
		}
		session = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "session.start", sessionID, session.Status)
	logger.Info(ctx, "count session started", "session_id", sessionID)
	return session, nil
}

// RecordItem upserts one product's counted quantity in an area.
// The counter's identity is taken from the request context.
func (s *Service) RecordItem(ctx context.Context, sessionID, areaID, productID id.ID, fullUnits int64, partialUnit types.Quantity, notes string) (*CountItem, error) {
	if id.IsNil(productID) {
		return nil, apperror.NewValidation("product id is required")
	}
	countedBy := appctx.GetUserID(ctx)

	var item *CountItem
	err := s.withSession(ctx, sessionID, func(ctx context.Context, session *CountSession) error {
		recorded, err := session.RecordItem(areaID, productID, fullUnits, partialUnit, countedBy, notes)
		if err != nil {
			return err
		}
		item = recorded
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "count item recorded",
		"session_id", sessionID, "area_id", areaID, "product_id", productID,
		"total_quantity", item.TotalQuantity.String())
	return item, nil
}

// CompleteArea marks an area completed. When it was the last open area the
// session transitions to completed: the variance report is computed, stock
// adjustment movements are written in the same transaction, and observers
// are notified afterwards.
func (s *Service) CompleteArea(ctx context.Context, sessionID, areaID id.ID) (*CountSession, *VarianceReport, error) {
	var (
		session *CountSession
		report  *VarianceReport
	)

	unlock := s.lockSession(sessionID)
	defer unlock()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		loaded, err := s.repo.GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}

		sessionCompleted, err := loaded.CompleteArea(areaID)
		if err != nil {
			return err
		}

		if sessionCompleted {
			computed, err := s.buildReport(ctx, loaded)
			if err != nil {
				return err
			}
			loaded.SetTotalValue(computed.CountedValue())
			loaded.MarkPosted()

			if err := s.adjustments.RecordAdjustments(ctx, loaded, computed); err != nil {
				return err
			}
			report = computed
		}

		if err := s.repo.Update(ctx, loaded); err != nil {
			return err
		}
		session = loaded
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordAudit(ctx, "area.complete", areaID, session.Status)
	if report != nil {
		s.recordAudit(ctx, "session.complete", sessionID, report)
		s.notifyObservers(ctx, session, report)
		logger.Info(ctx, "count session completed",
			"session_id", sessionID, "items_counted", session.ItemsCounted,
			"variance_percent", report.VariancePercent.String())
	} else {
		logger.Info(ctx, "count area completed", "session_id", sessionID, "area_id", areaID)
	}
	return session, report, nil
}

// ReopenArea reverts a completed area to in_progress while the session is
// still open.
func (s *Service) ReopenArea(ctx context.Context, sessionID, areaID id.ID) (*CountSession, error) {
	var session *CountSession
	err := s.withSession(ctx, sessionID, func(ctx context.Context, loaded *CountSession) error {
		if err := loaded.ReopenArea(areaID); err != nil {
			return err
		}
		session = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "area.reopen", areaID, session.Status)
	logger.Info(ctx, "count area reopened", "session_id", sessionID, "area_id", areaID)
	return session, nil
}

// Approve transitions a completed session to approved.
func (s *Service) Approve(ctx context.Context, sessionID id.ID) (*CountSession, error) {
	approvedBy := appctx.GetUserID(ctx)

	var session *CountSession
	err := s.withSession(ctx, sessionID, func(ctx context.Context, loaded *CountSession) error {
		if err := loaded.Approve(approvedBy); err != nil {
			return err
		}
		session = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "session.approve", sessionID, session.Status)
	logger.Info(ctx, "count session approved", "session_id", sessionID, "approved_by", approvedBy)
	return session, nil
}

// CurrentArea returns the area the counting workflow should target next.
func (s *Service) CurrentArea(ctx context.Context, sessionID id.ID) (*CountArea, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	area := session.CurrentArea()
	if area == nil {
		return nil, apperror.NewNotFound("area", sessionID)
	}
	return area, nil
}

// RemainingExpected computes the advisory expected quantity for a product in
// the active area, fresh from persisted state.
func (s *Service) RemainingExpected(ctx context.Context, sessionID, productID, activeAreaID id.ID) (types.Quantity, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if session.Area(activeAreaID) == nil {
		return 0, apperror.NewNotFound("area", activeAreaID)
	}

	parLevels, err := s.catalog.GetParLevels(ctx, session.LocationID)
	if err != nil {
		return 0, err
	}
	return RemainingExpected(session, productID, parLevels[productID], activeAreaID), nil
}

// Variance recomputes the variance report for a completed or approved
// session. Idempotent: it reads only persisted items and catalog data.
func (s *Service) Variance(ctx context.Context, sessionID id.ID) (*VarianceReport, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != SessionCompleted && session.Status != SessionApproved {
		return nil, apperror.NewBusinessRule(apperror.CodeInvalidTransition,
			"variance report requires a completed session").
			WithDetail("status", string(session.Status))
	}
	return s.buildReport(ctx, session)
}

// withSession runs fn against the locked, row-locked aggregate and persists
// the result with the optimistic version check.
func (s *Service) withSession(ctx context.Context, sessionID id.ID, fn func(ctx context.Context, session *CountSession) error) error {
	if id.IsNil(sessionID) {
		return apperror.NewValidation("session id is required")
	}

	unlock := s.lockSession(sessionID)
	defer unlock()

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		session, err := s.repo.GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(ctx, session); err != nil {
			return err
		}
		return s.repo.Update(ctx, session)
	})
}

func (s *Service) buildReport(ctx context.Context, session *CountSession) (*VarianceReport, error) {
	parLevels, err := s.catalog.GetParLevels(ctx, session.LocationID)
	if err != nil {
		return nil, err
	}

	productSet := make(map[id.ID]struct{})
	for i := range session.Areas {
		for j := range session.Areas[i].Items {
			productSet[session.Areas[i].Items[j].ProductID] = struct{}{}
		}
	}
	for productID, par := range parLevels {
		if par > 0 {
			productSet[productID] = struct{}{}
		}
	}
	productIDs := make([]id.ID, 0, len(productSet))
	for productID := range productSet {
		productIDs = append(productIDs, productID)
	}

	unitCosts, err := s.catalog.GetUnitCosts(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	return Aggregate(session, parLevels, unitCosts), nil
}

func (s *Service) notifyObservers(ctx context.Context, session *CountSession, report *VarianceReport) {
	for _, obs := range s.observers {
		if err := obs.VarianceComputed(ctx, session, report); err != nil {
			logger.Warn(ctx, "variance observer failed",
				"session_id", session.ID, "error", err)
		}
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID id.ID, payload any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, DocumentType, entityID, payload); err != nil {
		logger.Warn(ctx, "audit record failed", "action", action, "error", err)
	}
}
