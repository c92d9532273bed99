package dto

import (
	"stocktake/internal/core/types"
)

// --- Count Session Requests ---

// CreateSessionRequest creates a count session for a location.
// Areas are copied from the location's templates, not supplied here.
type CreateSessionRequest struct {
	LocationID string `json:"locationId" binding:"required,uuid"`
	Name       string `json:"name" binding:"required"`
	CountType  string `json:"countType" binding:"omitempty,oneof=full spot cycle"`
}

// RecordItemRequest records one product's counted quantity in an area.
// TotalQuantity is derived server-side and never accepted from the client.
type RecordItemRequest struct {
	ProductID   string         `json:"productId" binding:"required,uuid"`
	FullUnits   int64          `json:"fullUnits"`
	PartialUnit types.Quantity `json:"partialUnit"`
	Notes       string         `json:"notes"`
}

// SessionListQuery filters the session list.
type SessionListQuery struct {
	ListQuery
	LocationID string `form:"locationId" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=draft in_progress completed approved"`
	CountType  string `form:"countType" binding:"omitempty,oneof=full spot cycle"`
}

// --- Reconciliation ---

// RemainingExpectedResponse is the advisory expected quantity for a product
// while counting an area.
type RemainingExpectedResponse struct {
	SessionID         string         `json:"sessionId"`
	AreaID            string         `json:"areaId"`
	ProductID         string         `json:"productId"`
	RemainingExpected types.Quantity `json:"remainingExpected"`
}
