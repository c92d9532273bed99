package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stocktake/internal/domain/catalogs/location"
	"stocktake/internal/domain/catalogs/product"
	"stocktake/internal/infrastructure/http/v1/dto"
)

// LocationHandler handles location catalog endpoints.
type LocationHandler struct {
	*BaseHandler
	service  *location.Service
	products *product.Service
}

// NewLocationHandler creates a location handler.
func NewLocationHandler(service *location.Service, products *product.Service) *LocationHandler {
	return &LocationHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
		products:    products,
	}
}

// Create creates a location with its counting areas.
// POST /api/v1/locations
func (h *LocationHandler) Create(c *gin.Context) {
	var req dto.CreateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	loc := location.NewLocation(req.Code, req.Name)
	loc.Address = req.Address
	loc.Timezone = req.Timezone

	if err := h.service.Create(c.Request.Context(), loc); err != nil {
		h.Error(c, err)
		return
	}
	if len(req.AreaNames) > 0 {
		if err := h.service.SetAreaTemplates(c.Request.Context(), loc.ID, req.AreaNames); err != nil {
			h.Error(c, err)
			return
		}
		created, err := h.service.GetByID(c.Request.Context(), loc.ID)
		if err != nil {
			h.Error(c, err)
			return
		}
		loc = created
	}
	c.JSON(http.StatusCreated, loc)
}

// List retrieves locations with filtering.
// GET /api/v1/locations
func (h *LocationHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), h.ListFilter(q))
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

// Get retrieves a location by id.
// GET /api/v1/locations/:id
func (h *LocationHandler) Get(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	loc, err := h.service.GetByID(c.Request.Context(), locationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, loc)
}

// Update modifies a location with optimistic locking.
// PUT /api/v1/locations/:id
func (h *LocationHandler) Update(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	loc, err := h.service.GetByID(c.Request.Context(), locationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	loc.SetVersion(req.Version)

	if req.Name != nil {
		loc.Name = *req.Name
	}
	if req.Address != nil {
		loc.Address = req.Address
	}
	if req.Timezone != nil {
		loc.Timezone = *req.Timezone
	}
	if req.IsActive != nil {
		loc.IsActive = *req.IsActive
	}

	if err := h.service.Update(c.Request.Context(), loc); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, loc)
}

// SetDeletionMark soft-deletes or restores a location.
// POST /api/v1/locations/:id/deletion-mark
func (h *LocationHandler) SetDeletionMark(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(c.Request.Context(), locationID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "deletion mark updated")
}

// SetAreaTemplates replaces a location's counting areas.
// PUT /api/v1/locations/:id/areas
func (h *LocationHandler) SetAreaTemplates(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetAreaTemplatesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetAreaTemplates(c.Request.Context(), locationID, req.AreaNames); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "area templates updated")
}

// ListParLevels returns all par levels configured for a location.
// GET /api/v1/locations/:id/par-levels
func (h *LocationHandler) ListParLevels(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	levels, err := h.products.ListParLevels(c.Request.Context(), locationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, levels)
}
