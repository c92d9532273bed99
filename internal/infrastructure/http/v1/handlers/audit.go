package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"stocktake/internal/infrastructure/storage/postgres"
)

// AuditHandler exposes the audit trail of an entity.
type AuditHandler struct {
	*BaseHandler
	audit *postgres.AuditService
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(audit *postgres.AuditService) *AuditHandler {
	return &AuditHandler{
		BaseHandler: NewBaseHandler(),
		audit:       audit,
	}
}

// EntityHistory returns audit entries for one entity, newest first.
// GET /api/v1/audit/:entityType/:id
func (h *AuditHandler) EntityHistory(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	entityType := c.Param("entityType")
	limit := 100
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.audit.GetEntityHistory(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entries)
}
