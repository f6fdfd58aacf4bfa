package dto

import (
	"time"

	"stocktally/internal/domain/catalogs/stockitem"
)

// CreateStockItemRequest represents a request to create a stock item.
type CreateStockItemRequest struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description" binding:"required"`
	UOM         string `json:"uom" binding:"required"`
}

// ToEntity converts request to domain entity.
func (r *CreateStockItemRequest) ToEntity() *stockitem.StockItem {
	return stockitem.NewStockItem(r.Code, r.Description, r.UOM)
}

// StockItemResponse represents a stock item in API responses.
type StockItemResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	UOM         string    `json:"uom"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FromStockItem converts domain entity to response DTO.
func FromStockItem(item *stockitem.StockItem) *StockItemResponse {
	return &StockItemResponse{
		ID:          item.ID.String(),
		Code:        item.Code,
		Description: item.Name,
		UOM:         item.UOM,
		CreatedAt:   item.CreatedAt,
	}
}

// StockItemListResponse represents a list of stock items.
type StockItemListResponse struct {
	Items  []*StockItemResponse `json:"items"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}
