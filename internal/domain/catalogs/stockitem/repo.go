package stockitem

import (
	"context"

	"stocktally/internal/core/id"
)

// ListFilter narrows List results.
type ListFilter struct {
	// Search matches code or description, case-insensitive substring
	Search string

	Limit  int
	Offset int
}

// Repository defines the interface for stock item persistence.
type Repository interface {
	// Create inserts a new stock item.
	Create(ctx context.Context, item *StockItem) error

	// Get retrieves a stock item by ID.
	// Returns apperror.NewNotFound when the item does not exist.
	Get(ctx context.Context, itemID id.ID) (*StockItem, error)

	// FindByCode retrieves a stock item by its unique code.
	FindByCode(ctx context.Context, code string) (*StockItem, error)

	// List retrieves stock items matching the filter, ordered by code.
	List(ctx context.Context, filter ListFilter) ([]*StockItem, error)
}
