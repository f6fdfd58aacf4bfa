// Package ledger provides the purchase and sale transaction ledgers.
// Records are immutable and append-only: documents are entered in
// multi-line batches sharing one document number and never edited.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/entity"
	"stocktally/internal/core/id"
	"stocktally/internal/core/types"
)

// Purchase represents one line of a purchase document.
type Purchase struct {
	entity.Document

	ItemID       id.ID           `db:"item_id" json:"itemId"`
	SupplierName string          `db:"supplier_name" json:"supplierName"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unitPrice"`
}

// Validate implements entity.Validatable.
func (p *Purchase) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(p.ItemID) {
		return apperror.NewValidation("stock item is required").
			WithDetail("field", "itemId")
	}
	if p.SupplierName == "" {
		return apperror.NewValidation("supplier name is required").
			WithDetail("field", "supplierName")
	}
	if !p.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}
	return nil
}

// Sale represents one line of a sale document.
type Sale struct {
	entity.Document

	ItemID       id.ID           `db:"item_id" json:"itemId"`
	CustomerName string          `db:"customer_name" json:"customerName"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unitPrice"`
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(s.ItemID) {
		return apperror.NewValidation("stock item is required").
			WithDetail("field", "itemId")
	}
	if s.CustomerName == "" {
		return apperror.NewValidation("customer name is required").
			WithDetail("field", "customerName")
	}
	if !s.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if s.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}
	return nil
}

// DocumentTotals carries the quantity and value sums of one document,
// used for invoice and receipt display.
type DocumentTotals struct {
	Number        string          `json:"documentNumber"`
	Date          time.Time       `json:"transactionDate"`
	Counterparty  string          `json:"counterparty"`
	TotalQuantity decimal.Decimal `json:"totalQuantity"`
	TotalValue    decimal.Decimal `json:"totalValue"`
}

// PurchaseTotals folds purchase lines into document totals.
// Lines are assumed to belong to the same document.
func PurchaseTotals(lines []*Purchase) DocumentTotals {
	t := DocumentTotals{TotalQuantity: types.Zero, TotalValue: types.Zero}
	for _, l := range lines {
		t.Number = l.Number
		t.Date = l.Date
		t.Counterparty = l.SupplierName
		t.TotalQuantity = t.TotalQuantity.Add(l.Quantity)
		t.TotalValue = t.TotalValue.Add(l.Quantity.Mul(l.UnitPrice))
	}
	return t
}

// SaleTotals folds sale lines into document totals.
func SaleTotals(lines []*Sale) DocumentTotals {
	t := DocumentTotals{TotalQuantity: types.Zero, TotalValue: types.Zero}
	for _, l := range lines {
		t.Number = l.Number
		t.Date = l.Date
		t.Counterparty = l.CustomerName
		t.TotalQuantity = t.TotalQuantity.Add(l.Quantity)
		t.TotalValue = t.TotalValue.Add(l.Quantity.Mul(l.UnitPrice))
	}
	return t
}
