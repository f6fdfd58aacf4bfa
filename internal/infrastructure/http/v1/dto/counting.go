package dto

import (
	"github.com/shopspring/decimal"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/core/types"
	"stocktally/internal/domain/counting"
)

// CountEntryRequest is one counted line. An empty quantity means the
// item was not counted and the line is skipped.
type CountEntryRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	Quantity string `json:"quantity,omitempty"`
}

// CreateCountSessionRequest records a physical count session.
type CreateCountSessionRequest struct {
	Date    string              `json:"sessionDate" binding:"required"`
	Notes   string              `json:"notes,omitempty"`
	Entries []CountEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

// ToInput converts request to the service input.
func (r *CreateCountSessionRequest) ToInput() (counting.SessionInput, error) {
	date, err := ParseDate("sessionDate", r.Date)
	if err != nil {
		return counting.SessionInput{}, err
	}

	entries := make([]counting.EntryInput, 0, len(r.Entries))
	for i, e := range r.Entries {
		itemID, err := id.Parse(e.ItemID)
		if err != nil {
			return counting.SessionInput{}, apperror.NewValidation("invalid item id").
				WithDetail("field", "itemId").
				WithDetail("lineNo", i+1)
		}

		var qty *decimal.Decimal
		if e.Quantity != "" {
			d, err := types.ParseDecimal(e.Quantity)
			if err != nil {
				return counting.SessionInput{}, apperror.NewValidation("invalid quantity").
					WithDetail("field", "quantity").
					WithDetail("lineNo", i+1)
			}
			qty = &d
		}
		entries = append(entries, counting.EntryInput{ItemID: itemID, Quantity: qty})
	}

	return counting.SessionInput{Date: date, Notes: r.Notes, Entries: entries}, nil
}

// CountEntryResponse is one count entry in API responses.
type CountEntryResponse struct {
	ID       string          `json:"id"`
	ItemID   string          `json:"itemId"`
	Quantity decimal.Decimal `json:"countedQuantity"`
}

// CountSessionResponse is a count session with its entries.
type CountSessionResponse struct {
	ID      string               `json:"id"`
	Date    string               `json:"sessionDate"`
	Notes   string               `json:"notes,omitempty"`
	Entries []CountEntryResponse `json:"entries"`
}

// FromCountSession converts a session and its entries to a response
// DTO.
func FromCountSession(session *counting.Session, entries []*counting.Entry) *CountSessionResponse {
	resp := &CountSessionResponse{
		ID:      session.ID.String(),
		Date:    FormatDate(session.Date),
		Notes:   session.Notes,
		Entries: make([]CountEntryResponse, len(entries)),
	}
	for i, e := range entries {
		resp.Entries[i] = CountEntryResponse{
			ID:       e.ID.String(),
			ItemID:   e.ItemID.String(),
			Quantity: e.Quantity,
		}
	}
	return resp
}
