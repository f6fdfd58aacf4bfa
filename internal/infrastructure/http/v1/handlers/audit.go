package handlers

import (
	"github.com/gin-gonic/gin"

	"stocktally/internal/domain/audit"
)

// AuditHandler serves the audit trail listing.
type AuditHandler struct {
	*BaseHandler
	recorder audit.Recorder
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, recorder audit.Recorder) *AuditHandler {
	return &AuditHandler{BaseHandler: base, recorder: recorder}
}

// RegisterRoutes registers the audit routes.
func (h *AuditHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Recent)
}

// Recent handles GET /audit: the most recent entries, newest first.
func (h *AuditHandler) Recent(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 100)

	entries, err := h.recorder.Recent(c.Request.Context(), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"entries": entries})
}
