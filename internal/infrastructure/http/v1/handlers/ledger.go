package handlers

import (
	"github.com/gin-gonic/gin"

	"stocktally/internal/domain/ledger"
	"stocktally/internal/infrastructure/http/v1/dto"
)

// LedgerHandler serves the purchase and sale document endpoints.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers the ledger routes.
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/purchases", h.CreatePurchase)
	rg.GET("/purchases/:number", h.GetPurchase)
	rg.POST("/sales", h.CreateSale)
	rg.GET("/sales/:number", h.GetSale)
}

// CreatePurchase handles POST /documents/purchases.
func (h *LedgerHandler) CreatePurchase(c *gin.Context) {
	var req dto.CreatePurchaseDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	totals, err := h.service.CreatePurchaseDocument(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedData(c, dto.FromDocumentTotals(totals))
}

// GetPurchase handles GET /documents/purchases/:number.
func (h *LedgerHandler) GetPurchase(c *gin.Context) {
	lines, totals, err := h.service.GetPurchaseDocument(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseDocument(lines, totals))
}

// CreateSale handles POST /documents/sales.
func (h *LedgerHandler) CreateSale(c *gin.Context) {
	var req dto.CreateSaleDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	totals, err := h.service.CreateSaleDocument(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedData(c, dto.FromDocumentTotals(totals))
}

// GetSale handles GET /documents/sales/:number.
func (h *LedgerHandler) GetSale(c *gin.Context) {
	lines, totals, err := h.service.GetSaleDocument(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSaleDocument(lines, totals))
}
