// Package counting provides the CountSession document: a physical stock take
// for one location, split into areas that are counted and completed in order.
package counting

import (
	"context"
	"time"

	"stocktake/internal/core/apperror"
	"stocktake/internal/core/entity"
	"stocktake/internal/core/id"
	"stocktake/internal/core/types"
)

// SessionStatus represents the status of a count session.
type SessionStatus string

const (
	SessionDraft      SessionStatus = "draft"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionApproved   SessionStatus = "approved"
)

// AreaStatus represents the status of a count area within a session.
type AreaStatus string

const (
	AreaPending    AreaStatus = "pending"
	AreaInProgress AreaStatus = "in_progress"
	AreaCompleted  AreaStatus = "completed"
)

// CountType classifies the count job. Informational only: it does not alter
// reconciliation or variance logic.
type CountType string

const (
	CountFull  CountType = "full"
	CountSpot  CountType = "spot"
	CountCycle CountType = "cycle"
)

// CountSession is the aggregate root for one stock take. It exclusively owns
// its areas; areas cannot outlive the session or move to another one.
type CountSession struct {
	entity.Document

	Name       string        `db:"name" json:"name"`
	LocationID id.ID         `db:"location_id" json:"locationId"`
	CountType  CountType     `db:"count_type" json:"countType"`
	Status     SessionStatus `db:"status" json:"status"`

	StartedAt   *time.Time `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	ApprovedAt  *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	ApprovedBy  *string    `db:"approved_by" json:"approvedBy,omitempty"`

	// Totals (recomputed on every item write and on completion)
	ItemsCounted int         `db:"items_counted" json:"itemsCounted"`
	TotalValue   types.Money `db:"total_value" json:"totalValue"`

	Areas []CountArea `db:"-" json:"areas"`
}

// CountArea is a physical sub-location of a session (e.g. "Main Bar").
// It holds at most one CountItem per product; re-entering a product
// overwrites the previous entry.
type CountArea struct {
	ID        id.ID      `db:"id" json:"id"`
	SessionID id.ID      `db:"session_id" json:"sessionId"`
	Name      string     `db:"name" json:"name"`
	SortOrder int        `db:"sort_order" json:"sortOrder"`
	Status    AreaStatus `db:"status" json:"status"`

	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	Items []CountItem `db:"-" json:"items"`
}

// CountItem is one product's counted quantity inside one area.
// TotalQuantity is derived and always recomputed from FullUnits and
// PartialUnit; it is never accepted from a caller.
type CountItem struct {
	ID        id.ID `db:"id" json:"id"`
	AreaID    id.ID `db:"area_id" json:"areaId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	FullUnits     int64          `db:"full_units" json:"fullUnits"`
	PartialUnit   types.Quantity `db:"partial_unit" json:"partialUnit"`
	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`

	CountedBy string    `db:"counted_by" json:"countedBy"`
	CountedAt time.Time `db:"counted_at" json:"countedAt"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
}

// NewCountSession creates a draft session for a location. Areas are supplied
// by the location configuration, in counting order.
func NewCountSession(locationID id.ID, name string, countType CountType, areaNames []string) *CountSession {
	s := &CountSession{
		Document:   entity.NewDocument(),
		Name:       name,
		LocationID: locationID,
		CountType:  countType,
		Status:     SessionDraft,
		TotalValue: types.ZeroMoney(),
		Areas:      make([]CountArea, 0, len(areaNames)),
	}
	for i, areaName := range areaNames {
		s.Areas = append(s.Areas, CountArea{
			ID:        id.New(),
			SessionID: s.ID,
			Name:      areaName,
			SortOrder: i,
			Status:    AreaPending,
			Items:     make([]CountItem, 0),
		})
	}
	return s
}

// Validate implements entity.Validatable.
func (s *CountSession) Validate(ctx context.Context) error {
	if s.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if id.IsNil(s.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	switch s.CountType {
	case CountFull, CountSpot, CountCycle:
	default:
		return apperror.NewValidation("unknown count type").WithDetail("countType", string(s.CountType))
	}
	if len(s.Areas) == 0 {
		return apperror.NewValidation("session must have at least one area")
	}
	return nil
}

// Start transitions the session draft -> in_progress.
func (s *CountSession) Start() error {
	if s.Status != SessionDraft {
		return apperror.NewInvalidTransition(string(s.Status), string(SessionInProgress))
	}
	s.Status = SessionInProgress
	now := time.Now().UTC()
	s.StartedAt = &now
	return nil
}

// RecordItem upserts a count entry for a product in an area.
// FullUnits must be >= 0 and partialUnit must be in [0,1).
// Recording into a completed area is rejected without mutation.
func (s *CountSession) RecordItem(areaID, productID id.ID, fullUnits int64, partialUnit types.Quantity, countedBy, notes string) (*CountItem, error) {
	if s.Status == SessionCompleted || s.Status == SessionApproved {
		return nil, apperror.NewInvalidTransition(string(s.Status), string(SessionInProgress))
	}

	area := s.findArea(areaID)
	if area == nil {
		return nil, apperror.NewNotFound("area", areaID)
	}
	if area.Status == AreaCompleted {
		return nil, apperror.NewAreaCompleted(areaID.String())
	}

	if fullUnits < 0 {
		return nil, apperror.NewInvalidQuantity("fullUnits must not be negative").
			WithDetail("fullUnits", fullUnits)
	}
	if partialUnit < 0 || partialUnit >= types.QuantityOne {
		return nil, apperror.NewInvalidQuantity("partialUnit must be in [0,1)").
			WithDetail("partialUnit", partialUnit.String())
	}

	// First entry starts the session and the area.
	if s.Status == SessionDraft {
		if err := s.Start(); err != nil {
			return nil, err
		}
	}
	if area.Status == AreaPending {
		area.Status = AreaInProgress
	}

	total := types.NewQuantityFromInt(fullUnits) + partialUnit
	now := time.Now().UTC()

	item := area.findItem(productID)
	if item == nil {
		area.Items = append(area.Items, CountItem{
			ID:        id.New(),
			AreaID:    area.ID,
			ProductID: productID,
		})
		item = &area.Items[len(area.Items)-1]
	}
	item.FullUnits = fullUnits
	item.PartialUnit = partialUnit
	item.TotalQuantity = total
	item.CountedBy = countedBy
	item.CountedAt = now
	item.Notes = notes

	s.recalculateTotals()
	return item, nil
}

// CompleteArea marks an area completed. An area with no items is validly
// completed ("nothing found here"). Returns true when this completion closed
// the last open area and the session itself transitioned to completed.
func (s *CountSession) CompleteArea(areaID id.ID) (sessionCompleted bool, err error) {
	if s.Status == SessionCompleted || s.Status == SessionApproved {
		return false, apperror.NewInvalidTransition(string(s.Status), string(SessionCompleted))
	}

	area := s.findArea(areaID)
	if area == nil {
		return false, apperror.NewNotFound("area", areaID)
	}
	if area.Status == AreaCompleted {
		return false, apperror.NewInvalidTransition(string(AreaCompleted), string(AreaCompleted))
	}

	if s.Status == SessionDraft {
		if err := s.Start(); err != nil {
			return false, err
		}
	}

	now := time.Now().UTC()
	area.Status = AreaCompleted
	area.CompletedAt = &now

	if s.allAreasCompleted() {
		s.Status = SessionCompleted
		s.CompletedAt = &now
		s.recalculateTotals()
		return true, nil
	}
	return false, nil
}

// ReopenArea transitions a completed area back to in_progress for
// corrections. Allowed only while the session is still open.
func (s *CountSession) ReopenArea(areaID id.ID) error {
	if s.Status == SessionCompleted || s.Status == SessionApproved {
		return apperror.NewInvalidTransition(string(s.Status), string(SessionInProgress))
	}

	area := s.findArea(areaID)
	if area == nil {
		return apperror.NewNotFound("area", areaID)
	}
	if area.Status != AreaCompleted {
		return apperror.NewInvalidTransition(string(area.Status), string(AreaInProgress))
	}

	area.Status = AreaInProgress
	area.CompletedAt = nil
	return nil
}

// Approve transitions the session completed -> approved.
func (s *CountSession) Approve(approvedBy string) error {
	if s.Status != SessionCompleted {
		return apperror.NewInvalidTransition(string(s.Status), string(SessionApproved))
	}
	s.Status = SessionApproved
	now := time.Now().UTC()
	s.ApprovedAt = &now
	s.ApprovedBy = &approvedBy
	return nil
}

// CurrentArea returns the first area (in stored order) that is not completed.
// When every area is completed, the last area is returned for read-only
// review. Derived purely from persisted statuses, so it survives restarts.
func (s *CountSession) CurrentArea() *CountArea {
	if len(s.Areas) == 0 {
		return nil
	}
	for i := range s.Areas {
		if s.Areas[i].Status != AreaCompleted {
			return &s.Areas[i]
		}
	}
	return &s.Areas[len(s.Areas)-1]
}

// Area returns the area with the given id, or nil.
func (s *CountSession) Area(areaID id.ID) *CountArea {
	return s.findArea(areaID)
}

func (s *CountSession) findArea(areaID id.ID) *CountArea {
	for i := range s.Areas {
		if s.Areas[i].ID == areaID {
			return &s.Areas[i]
		}
	}
	return nil
}

func (s *CountSession) allAreasCompleted() bool {
	for i := range s.Areas {
		if s.Areas[i].Status != AreaCompleted {
			return false
		}
	}
	return true
}

func (s *CountSession) recalculateTotals() {
	s.ItemsCounted = 0
	for i := range s.Areas {
		s.ItemsCounted += len(s.Areas[i].Items)
	}
}

// SetTotalValue records the cost-weighted counted total produced by the
// variance aggregation.
func (s *CountSession) SetTotalValue(v types.Money) {
	s.TotalValue = v
}

func (a *CountArea) findItem(productID id.ID) *CountItem {
	for i := range a.Items {
		if a.Items[i].ProductID == productID {
			return &a.Items[i]
		}
	}
	return nil
}

// Item returns the area's entry for a product, or nil.
func (a *CountArea) Item(productID id.ID) *CountItem {
	return a.findItem(productID)
}
