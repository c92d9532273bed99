package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stocktake/internal/core/id"
	"stocktake/internal/domain/counting"
	"stocktake/internal/infrastructure/http/v1/dto"
)

// CountHandler handles count session endpoints.
type CountHandler struct {
	*BaseHandler
	service *counting.Service
}

// NewCountHandler creates a count session handler.
func NewCountHandler(service *counting.Service) *CountHandler {
	return &CountHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create creates a draft session for a location.
// POST /api/v1/count-sessions
func (h *CountHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	locationID, err := id.Parse(req.LocationID)
	if err != nil {
		h.Error(c, invalidID("locationId", req.LocationID))
		return
	}

	session, err := h.service.Create(c.Request.Context(), locationID, req.Name, counting.CountType(req.CountType))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// List retrieves session headers with filtering.
// GET /api/v1/count-sessions
func (h *CountHandler) List(c *gin.Context) {
	var q dto.SessionListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := counting.SessionFilter{ListFilter: h.ListFilter(q.ListQuery)}
	if q.LocationID != "" {
		locationID, err := id.Parse(q.LocationID)
		if err != nil {
			h.Error(c, invalidID("locationId", q.LocationID))
			return
		}
		filter.LocationID = &locationID
	}
	if q.Status != "" {
		status := counting.SessionStatus(q.Status)
		filter.Status = &status
	}
	if q.CountType != "" {
		countType := counting.CountType(q.CountType)
		filter.CountType = &countType
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get loads the full session aggregate.
// GET /api/v1/count-sessions/:id
func (h *CountHandler) Get(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	session, err := h.service.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, session)
}

// Start transitions a draft session to in_progress.
// POST /api/v1/count-sessions/:id/start
func (h *CountHandler) Start(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	session, err := h.service.Start(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, session)
}

// RecordItem upserts one product's counted quantity in an area.
// PUT /api/v1/count-sessions/:id/areas/:areaId/items
func (h *CountHandler) RecordItem(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	areaID, ok := h.ParseID(c, "areaId")
	if !ok {
		return
	}

	var req dto.RecordItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, invalidID("productId", req.ProductID))
		return
	}

	item, err := h.service.RecordItem(c.Request.Context(), sessionID, areaID, productID, req.FullUnits, req.PartialUnit, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// CompleteArea marks an area completed. The response carries the updated
// session; when this completion closed the session, the variance report is
// included as well.
// POST /api/v1/count-sessions/:id/areas/:areaId/complete
func (h *CountHandler) CompleteArea(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	areaID, ok := h.ParseID(c, "areaId")
	if !ok {
		return
	}

	session, report, err := h.service.CompleteArea(c.Request.Context(), sessionID, areaID)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := gin.H{"session": session}
	if report != nil {
		resp["variance"] = report
	}
	h.OK(c, resp)
}

// ReopenArea reverts a completed area to in_progress.
// POST /api/v1/count-sessions/:id/areas/:areaId/reopen
func (h *CountHandler) ReopenArea(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	areaID, ok := h.ParseID(c, "areaId")
	if !ok {
		return
	}

	session, err := h.service.ReopenArea(c.Request.Context(), sessionID, areaID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, session)
}

// Approve transitions a completed session to approved.
// POST /api/v1/count-sessions/:id/approve
func (h *CountHandler) Approve(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	session, err := h.service.Approve(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, session)
}

// CurrentArea returns the area the counting workflow should target next.
// GET /api/v1/count-sessions/:id/current-area
func (h *CountHandler) CurrentArea(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	area, err := h.service.CurrentArea(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, area)
}

// RemainingExpected returns the advisory expected quantity for a product in
// the active area.
// GET /api/v1/count-sessions/:id/areas/:areaId/remaining-expected/:productId
func (h *CountHandler) RemainingExpected(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	areaID, ok := h.ParseID(c, "areaId")
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	remaining, err := h.service.RemainingExpected(c.Request.Context(), sessionID, productID, areaID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.RemainingExpectedResponse{
		SessionID:         sessionID.String(),
		AreaID:            areaID.String(),
		ProductID:         productID.String(),
		RemainingExpected: remaining,
	})
}

// Variance recomputes the variance report for a completed session.
// GET /api/v1/count-sessions/:id/variance
func (h *CountHandler) Variance(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	report, err := h.service.Variance(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
