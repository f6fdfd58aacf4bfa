package stockitem

import (
	"context"
	"fmt"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/pkg/logger"
)

// Service provides business logic for the stock item catalog.
type Service struct {
	repo Repository
}

// NewService creates a new stock item service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates the item and enforces code uniqueness.
// Items are immutable once referenced by a transaction, so there is no
// update operation.
func (s *Service) Create(ctx context.Context, item *StockItem) error {
	if err := item.Validate(ctx); err != nil {
		return err
	}

	if existing, err := s.repo.FindByCode(ctx, item.Code); err == nil && existing != nil {
		return apperror.NewDuplicate("stock item", "code", item.Code)
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return fmt.Errorf("create stock item: %w", err)
	}

	logger.Info(ctx, "stock item created",
		"item_id", item.ID,
		"code", item.Code,
	)

	return nil
}

// Get retrieves a stock item, failing fast with NotFound for unknown IDs.
func (s *Service) Get(ctx context.Context, itemID id.ID) (*StockItem, error) {
	return s.repo.Get(ctx, itemID)
}

// FindByCode retrieves a stock item by code.
func (s *Service) FindByCode(ctx context.Context, code string) (*StockItem, error) {
	return s.repo.FindByCode(ctx, code)
}

// List retrieves stock items matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*StockItem, error) {
	return s.repo.List(ctx, filter)
}
