package entity

import (
	"context"
	"time"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/types"
)

// Document is the base type for business transactions.
// Examples: purchase and sale ledger records.
// Documents are immutable once created; there is no update path.
type Document struct {
	BaseEntity

	// Number groups the lines of one business document
	Number string `db:"document_number" json:"documentNumber"`

	// Date is the business date (day granularity, UTC midnight)
	Date time.Time `db:"transaction_date" json:"transactionDate"`
}

// NewDocument creates a new Document with a generated ID.
func NewDocument(number string, date time.Time) Document {
	return Document{
		BaseEntity: NewBaseEntity(),
		Number:     number,
		Date:       types.Day(date),
	}
}

// Validate implements Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if d.Number == "" {
		return apperror.NewValidation("document number is required").
			WithDetail("field", "documentNumber")
	}
	if d.Date.IsZero() {
		return apperror.NewValidation("transaction date is required").
			WithDetail("field", "transactionDate")
	}
	return nil
}
