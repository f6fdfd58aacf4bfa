// Package counting provides physical inventory count sessions.
// A session records the counted on-hand quantity of items on one date;
// entries are immutable once recorded.
package counting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/entity"
	"stocktally/internal/core/id"
	"stocktally/internal/core/types"
)

// Session is one physical count event.
type Session struct {
	entity.BaseEntity

	// Date is the count date (day granularity, UTC midnight)
	Date  time.Time `db:"session_date" json:"sessionDate"`
	Notes string    `db:"notes" json:"notes,omitempty"`
}

// NewSession creates a session for the given date.
func NewSession(date time.Time, notes string) *Session {
	return &Session{
		BaseEntity: entity.NewBaseEntity(),
		Date:       types.Day(date),
		Notes:      notes,
	}
}

// Validate implements entity.Validatable.
func (s *Session) Validate(ctx context.Context) error {
	if s.Date.IsZero() {
		return apperror.NewValidation("session date is required").
			WithDetail("field", "sessionDate")
	}
	return nil
}

// Entry is one counted item within a session. A session holds at most
// one entry per item.
type Entry struct {
	entity.BaseEntity

	SessionID id.ID           `db:"session_id" json:"sessionId"`
	ItemID    id.ID           `db:"item_id" json:"itemId"`
	Quantity  decimal.Decimal `db:"counted_quantity" json:"countedQuantity"`
}

// Validate implements entity.Validatable.
func (e *Entry) Validate(ctx context.Context) error {
	if id.IsNil(e.SessionID) {
		return apperror.NewValidation("session is required").
			WithDetail("field", "sessionId")
	}
	if id.IsNil(e.ItemID) {
		return apperror.NewValidation("stock item is required").
			WithDetail("field", "itemId")
	}
	if e.Quantity.IsNegative() {
		return apperror.NewValidation("counted quantity cannot be negative").
			WithDetail("field", "countedQuantity")
	}
	return nil
}
