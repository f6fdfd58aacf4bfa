package handlers

import (
	"github.com/gin-gonic/gin"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/domain/catalogs/stockitem"
	"stocktally/internal/infrastructure/http/v1/dto"
)

// StockItemHandler serves the stock item catalog endpoints.
type StockItemHandler struct {
	*BaseHandler
	service *stockitem.Service
}

// NewStockItemHandler creates a new stock item handler.
func NewStockItemHandler(base *BaseHandler, service *stockitem.Service) *StockItemHandler {
	return &StockItemHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers the stock item routes.
func (h *StockItemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}

// Create handles POST /items.
func (h *StockItemHandler) Create(c *gin.Context) {
	var req dto.CreateStockItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedData(c, dto.FromStockItem(item))
}

// Get handles GET /items/:id.
func (h *StockItemHandler) Get(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid item id").WithDetail("id", c.Param("id")))
		return
	}

	item, err := h.service.Get(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockItem(item))
}

// List handles GET /items.
func (h *StockItemHandler) List(c *gin.Context) {
	filter := stockitem.ListFilter{
		Search: c.Query("search"),
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.StockItemListResponse{
		Items:  make([]*dto.StockItemResponse, len(items)),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for i, item := range items {
		resp.Items[i] = dto.FromStockItem(item)
	}
	h.OK(c, resp)
}
