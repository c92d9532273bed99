package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stocktake/internal/core/apperror"
	"stocktake/internal/core/id"
	"stocktake/internal/core/types"
	"stocktake/internal/domain/catalogs/product"
	"stocktake/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
}

// NewProductHandler creates a product handler.
func NewProductHandler(service *product.Service) *ProductHandler {
	return &ProductHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create creates a product.
// POST /api/v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	unitCost, err := types.NewMoneyFromString(req.UnitCost)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid unit cost").WithDetail("unitCost", req.UnitCost))
		return
	}

	p := product.NewProduct(req.Code, req.Name, product.Unit(req.Unit), unitCost)
	p.ContainerSize = req.ContainerSize
	p.Category = req.Category
	p.SupplierSKU = req.SupplierSKU

	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// List retrieves products with filtering.
// GET /api/v1/products
func (h *ProductHandler) List(c *gin.Context) {
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

// Get retrieves a product by id.
// GET /api/v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Update modifies a product with optimistic locking.
// PUT /api/v1/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	p.SetVersion(req.Version)

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Unit != nil {
		p.Unit = product.Unit(*req.Unit)
	}
	if req.ContainerSize != nil {
		p.ContainerSize = req.ContainerSize
	}
	if req.UnitCost != nil {
		unitCost, err := types.NewMoneyFromString(*req.UnitCost)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid unit cost").WithDetail("unitCost", *req.UnitCost))
			return
		}
		p.UnitCost = unitCost
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.SupplierSKU != nil {
		p.SupplierSKU = req.SupplierSKU
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := h.service.Update(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// SetDeletionMark soft-deletes or restores a product.
// POST /api/v1/products/:id/deletion-mark
func (h *ProductHandler) SetDeletionMark(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(c.Request.Context(), productID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "deletion mark updated")
}

// SetParLevel sets the expected on-hand quantity for (product, location).
// PUT /api/v1/products/:id/par-levels
func (h *ProductHandler) SetParLevel(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetParLevelRequest
	if !h.BindJSON(c, &req) {
		return
	}
	locationID, err := id.Parse(req.LocationID)
	if err != nil {
		h.Error(c, invalidID("locationId", req.LocationID))
		return
	}

	level := &product.ParLevel{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   req.Quantity,
	}
	if err := h.service.SetParLevel(c.Request.Context(), level); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, level)
}

// RemoveParLevel deletes the par level for (product, location).
// DELETE /api/v1/products/:id/par-levels/:locationId
func (h *ProductHandler) RemoveParLevel(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	locationID, ok := h.ParseID(c, "locationId")
	if !ok {
		return
	}

	if err := h.service.RemoveParLevel(c.Request.Context(), productID, locationID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
