// Package stockitem provides the stock item catalog.
// A stock item is the unit everything else references: ledger records
// and count entries are keyed by it.
package stockitem

import (
	"context"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/entity"
)

// StockItem represents a tracked stock item.
// The Code is unique; Name carries the description shown on reports.
type StockItem struct {
	entity.Catalog

	// UOM is the unit of measure (e.g. "pcs", "kg", "ltr")
	UOM string `db:"uom" json:"uom"`
}

// NewStockItem creates a new stock item.
func NewStockItem(code, description, uom string) *StockItem {
	return &StockItem{
		Catalog: entity.NewCatalog(code, description),
		UOM:     uom,
	}
}

// Validate implements entity.Validatable.
func (s *StockItem) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if s.UOM == "" {
		return apperror.NewValidation("unit of measure is required").
			WithDetail("field", "uom")
	}

	return nil
}
