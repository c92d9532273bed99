package adjustment

import (
	"context"
	"time"

	"stocktake/internal/core/entity"
	"stocktake/internal/core/id"
	"stocktake/internal/domain/counting"
	"stocktake/pkg/logger"
)

// Service writes adjustment movements for completed count sessions.
// It implements counting.AdjustmentRecorder.
type Service struct {
	repo Repository
}

// NewService creates the adjustment register service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordAdjustments translates a variance report into register movements:
// positive variance (surplus) becomes a receipt, negative variance
// (shortage) an expense. Zero-variance products produce no movement.
//
// Movements are keyed by the session's posting version; stale movements
// from earlier postings of the same session are removed first, keeping
// the operation idempotent per posting.
func (s *Service) RecordAdjustments(ctx context.Context, session *counting.CountSession, report *counting.VarianceReport) error {
	if err := s.repo.DeleteStaleByRecorder(ctx, session.ID, session.PostedVersion); err != nil {
		return err
	}

	period := time.Now().UTC()
	if session.CompletedAt != nil {
		period = *session.CompletedAt
	}

	movements := make([]entity.StockAdjustment, 0, len(report.Items))
	for _, item := range report.Items {
		if item.Variance.IsZero() {
			continue
		}

		recordType := entity.RecordTypeReceipt
		quantity := item.Variance
		if item.Variance.IsNegative() {
			recordType = entity.RecordTypeExpense
			quantity = item.Variance.Abs()
		}

		movements = append(movements, entity.NewStockAdjustment(
			session.ID,
			counting.DocumentType,
			session.PostedVersion,
			period,
			recordType,
			session.LocationID,
			item.ProductID,
			quantity,
		))
	}

	if len(movements) == 0 {
		logger.Info(ctx, "no adjustments to record", "session_id", session.ID)
		return nil
	}

	if err := s.repo.InsertMovements(ctx, movements); err != nil {
		return err
	}
	logger.Info(ctx, "adjustments recorded",
		"session_id", session.ID, "movements", len(movements),
		"posted_version", session.PostedVersion)
	return nil
}

// ListBySession returns the movements a session produced.
func (s *Service) ListBySession(ctx context.Context, sessionID id.ID) ([]entity.StockAdjustment, error) {
	return s.repo.ListByRecorder(ctx, sessionID)
}

// GetBalances returns net adjustment per product for a location in a period.
func (s *Service) GetBalances(ctx context.Context, locationID id.ID, from, to time.Time) ([]Balance, error) {
	return s.repo.GetBalances(ctx, locationID, from, to)
}
