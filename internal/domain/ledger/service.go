package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/entity"
	"stocktally/internal/core/id"
	"stocktally/internal/core/tx"
	"stocktally/internal/domain/audit"
	"stocktally/internal/domain/catalogs/stockitem"
	"stocktally/pkg/logger"
	"stocktally/pkg/numerator"
)

// LineInput is one document line as submitted by the caller.
type LineInput struct {
	ItemID    id.ID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// PurchaseDocumentInput describes a purchase document to record.
// The document number comes from the supplier's paperwork.
type PurchaseDocumentInput struct {
	Number       string
	Date         time.Time
	SupplierName string
	Lines        []LineInput
}

// SaleDocumentInput describes a sale document to record.
// The document number is generated.
type SaleDocumentInput struct {
	Date         time.Time
	CustomerName string
	Lines        []LineInput
}

// Service provides the document-entry workflows for the ledgers.
type Service struct {
	repo    Repository
	items   stockitem.Repository
	txm     tx.Manager
	numbers *numerator.Service
	auditor audit.Recorder
}

// NewService creates a new ledger service.
func NewService(repo Repository, items stockitem.Repository, txm tx.Manager, numbers *numerator.Service, auditor audit.Recorder) *Service {
	return &Service{
		repo:    repo,
		items:   items,
		txm:     txm,
		numbers: numbers,
		auditor: auditor,
	}
}

// CreatePurchaseDocument records all lines of one purchase document
// atomically. Document numbers are unique across purchases.
func (s *Service) CreatePurchaseDocument(ctx context.Context, input PurchaseDocumentInput) (DocumentTotals, error) {
	if input.Number == "" {
		return DocumentTotals{}, apperror.NewValidation("document number is required").
			WithDetail("field", "documentNumber")
	}
	if len(input.Lines) == 0 {
		return DocumentTotals{}, apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	exists, err := s.repo.PurchaseDocumentExists(ctx, input.Number)
	if err != nil {
		return DocumentTotals{}, fmt.Errorf("check document number: %w", err)
	}
	if exists {
		return DocumentTotals{}, apperror.NewDuplicate("purchase document", "number", input.Number)
	}

	lines := make([]*Purchase, 0, len(input.Lines))
	for i, in := range input.Lines {
		if _, err := s.items.Get(ctx, in.ItemID); err != nil {
			return DocumentTotals{}, err
		}

		p := &Purchase{
			ItemID:       in.ItemID,
			SupplierName: input.SupplierName,
			Quantity:     in.Quantity,
			UnitPrice:    in.UnitPrice,
		}
		p.Document = entity.NewDocument(input.Number, input.Date)

		if err := p.Validate(ctx); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return DocumentTotals{}, appErr.WithDetail("lineNo", i+1)
			}
			return DocumentTotals{}, err
		}
		lines = append(lines, p)
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreatePurchases(ctx, lines)
	})
	if err != nil {
		return DocumentTotals{}, fmt.Errorf("create purchases: %w", err)
	}

	totals := PurchaseTotals(lines)
	s.recordAudit(ctx, "Purchase", lines[0].ID, fmt.Sprintf(
		"purchase document %s: %d lines, total value %s",
		totals.Number, len(lines), totals.TotalValue,
	), lines)

	logger.Info(ctx, "purchase document recorded",
		"document_number", totals.Number,
		"lines", len(lines),
	)

	return totals, nil
}

// CreateSaleDocument records all lines of one sale document atomically.
// The document number is generated (SAL-NNNNNN).
func (s *Service) CreateSaleDocument(ctx context.Context, input SaleDocumentInput) (DocumentTotals, error) {
	if len(input.Lines) == 0 {
		return DocumentTotals{}, apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	number, err := s.numbers.GetNextNumber(ctx, numerator.DefaultConfig("SAL"), input.Date)
	if err != nil {
		return DocumentTotals{}, fmt.Errorf("generate sale number: %w", err)
	}

	lines := make([]*Sale, 0, len(input.Lines))
	for i, in := range input.Lines {
		if _, err := s.items.Get(ctx, in.ItemID); err != nil {
			return DocumentTotals{}, err
		}

		sl := &Sale{
			ItemID:       in.ItemID,
			CustomerName: input.CustomerName,
			Quantity:     in.Quantity,
			UnitPrice:    in.UnitPrice,
		}
		sl.Document = entity.NewDocument(number, input.Date)

		if err := sl.Validate(ctx); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return DocumentTotals{}, appErr.WithDetail("lineNo", i+1)
			}
			return DocumentTotals{}, err
		}
		lines = append(lines, sl)
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreateSales(ctx, lines)
	})
	if err != nil {
		return DocumentTotals{}, fmt.Errorf("create sales: %w", err)
	}

	totals := SaleTotals(lines)
	s.recordAudit(ctx, "Sale", lines[0].ID, fmt.Sprintf(
		"sale document %s: %d lines, total value %s",
		totals.Number, len(lines), totals.TotalValue,
	), lines)

	logger.Info(ctx, "sale document recorded",
		"document_number", totals.Number,
		"lines", len(lines),
	)

	return totals, nil
}

// GetPurchaseDocument retrieves a purchase document with totals.
func (s *Service) GetPurchaseDocument(ctx context.Context, number string) ([]*Purchase, DocumentTotals, error) {
	lines, err := s.repo.GetPurchasesByDocument(ctx, number)
	if err != nil {
		return nil, DocumentTotals{}, fmt.Errorf("get purchase document: %w", err)
	}
	if len(lines) == 0 {
		return nil, DocumentTotals{}, apperror.NewNotFound("purchase document", number)
	}
	return lines, PurchaseTotals(lines), nil
}

// GetSaleDocument retrieves a sale document with totals.
func (s *Service) GetSaleDocument(ctx context.Context, number string) ([]*Sale, DocumentTotals, error) {
	lines, err := s.repo.GetSalesByDocument(ctx, number)
	if err != nil {
		return nil, DocumentTotals{}, fmt.Errorf("get sale document: %w", err)
	}
	if len(lines) == 0 {
		return nil, DocumentTotals{}, apperror.NewNotFound("sale document", number)
	}
	return lines, SaleTotals(lines), nil
}

func (s *Service) recordAudit(ctx context.Context, entityType string, entityID id.ID, description string, payload any) {
	if s.auditor == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Warn(ctx, "audit payload marshal failed", "error", err)
		raw = nil
	}
	err = s.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionCreate,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		Payload:     raw,
	})
	if err != nil {
		logger.Warn(ctx, "audit record failed", "error", err)
	}
}
