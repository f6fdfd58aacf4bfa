package dto

import (
	"github.com/shopspring/decimal"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/core/types"
	"stocktally/internal/domain/ledger"
)

// DocumentLineRequest is one line of a purchase or sale document.
// Quantities and prices travel as strings to preserve decimal
// precision.
type DocumentLineRequest struct {
	ItemID    string `json:"itemId" binding:"required"`
	Quantity  string `json:"quantity" binding:"required"`
	UnitPrice string `json:"unitPrice" binding:"required"`
}

func (r *DocumentLineRequest) toInput(lineNo int) (ledger.LineInput, error) {
	itemID, err := id.Parse(r.ItemID)
	if err != nil {
		return ledger.LineInput{}, apperror.NewValidation("invalid item id").
			WithDetail("field", "itemId").
			WithDetail("lineNo", lineNo)
	}
	qty, err := types.ParseDecimal(r.Quantity)
	if err != nil {
		return ledger.LineInput{}, apperror.NewValidation("invalid quantity").
			WithDetail("field", "quantity").
			WithDetail("lineNo", lineNo)
	}
	price, err := types.ParseDecimal(r.UnitPrice)
	if err != nil {
		return ledger.LineInput{}, apperror.NewValidation("invalid unit price").
			WithDetail("field", "unitPrice").
			WithDetail("lineNo", lineNo)
	}
	return ledger.LineInput{ItemID: itemID, Quantity: qty, UnitPrice: price}, nil
}

func linesToInput(lines []DocumentLineRequest) ([]ledger.LineInput, error) {
	out := make([]ledger.LineInput, 0, len(lines))
	for i, l := range lines {
		in, err := l.toInput(i + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// CreatePurchaseDocumentRequest records a purchase document. The
// number comes from the supplier's paperwork.
type CreatePurchaseDocumentRequest struct {
	Number       string                `json:"documentNumber" binding:"required"`
	Date         string                `json:"transactionDate" binding:"required"`
	SupplierName string                `json:"supplierName" binding:"required"`
	Lines        []DocumentLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts request to the service input.
func (r *CreatePurchaseDocumentRequest) ToInput() (ledger.PurchaseDocumentInput, error) {
	date, err := ParseDate("transactionDate", r.Date)
	if err != nil {
		return ledger.PurchaseDocumentInput{}, err
	}
	lines, err := linesToInput(r.Lines)
	if err != nil {
		return ledger.PurchaseDocumentInput{}, err
	}
	return ledger.PurchaseDocumentInput{
		Number:       r.Number,
		Date:         date,
		SupplierName: r.SupplierName,
		Lines:        lines,
	}, nil
}

// CreateSaleDocumentRequest records a sale document. The number is
// generated.
type CreateSaleDocumentRequest struct {
	Date         string                `json:"transactionDate" binding:"required"`
	CustomerName string                `json:"customerName" binding:"required"`
	Lines        []DocumentLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts request to the service input.
func (r *CreateSaleDocumentRequest) ToInput() (ledger.SaleDocumentInput, error) {
	date, err := ParseDate("transactionDate", r.Date)
	if err != nil {
		return ledger.SaleDocumentInput{}, err
	}
	lines, err := linesToInput(r.Lines)
	if err != nil {
		return ledger.SaleDocumentInput{}, err
	}
	return ledger.SaleDocumentInput{
		Date:         date,
		CustomerName: r.CustomerName,
		Lines:        lines,
	}, nil
}

// DocumentLineResponse is one document line in API responses.
type DocumentLineResponse struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"itemId"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Value     decimal.Decimal `json:"value"`
}

// DocumentResponse is a full document with lines and totals.
type DocumentResponse struct {
	Number        string                 `json:"documentNumber"`
	Date          string                 `json:"transactionDate"`
	Counterparty  string                 `json:"counterparty"`
	TotalQuantity decimal.Decimal        `json:"totalQuantity"`
	TotalValue    decimal.Decimal        `json:"totalValue"`
	Lines         []DocumentLineResponse `json:"lines"`
}

// DocumentTotalsResponse is the creation response: totals only.
type DocumentTotalsResponse struct {
	Number        string          `json:"documentNumber"`
	Date          string          `json:"transactionDate"`
	Counterparty  string          `json:"counterparty"`
	TotalQuantity decimal.Decimal `json:"totalQuantity"`
	TotalValue    decimal.Decimal `json:"totalValue"`
}

// FromDocumentTotals converts document totals to a response DTO.
func FromDocumentTotals(t ledger.DocumentTotals) *DocumentTotalsResponse {
	return &DocumentTotalsResponse{
		Number:        t.Number,
		Date:          FormatDate(t.Date),
		Counterparty:  t.Counterparty,
		TotalQuantity: t.TotalQuantity,
		TotalValue:    t.TotalValue,
	}
}

// FromPurchaseDocument converts purchase lines and totals to a
// response DTO.
func FromPurchaseDocument(lines []*ledger.Purchase, totals ledger.DocumentTotals) *DocumentResponse {
	resp := &DocumentResponse{
		Number:        totals.Number,
		Date:          FormatDate(totals.Date),
		Counterparty:  totals.Counterparty,
		TotalQuantity: totals.TotalQuantity,
		TotalValue:    totals.TotalValue,
		Lines:         make([]DocumentLineResponse, len(lines)),
	}
	for i, l := range lines {
		resp.Lines[i] = DocumentLineResponse{
			ID:        l.ID.String(),
			ItemID:    l.ItemID.String(),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Value:     l.Quantity.Mul(l.UnitPrice),
		}
	}
	return resp
}

// FromSaleDocument converts sale lines and totals to a response DTO.
func FromSaleDocument(lines []*ledger.Sale, totals ledger.DocumentTotals) *DocumentResponse {
	resp := &DocumentResponse{
		Number:        totals.Number,
		Date:          FormatDate(totals.Date),
		Counterparty:  totals.Counterparty,
		TotalQuantity: totals.TotalQuantity,
		TotalValue:    totals.TotalValue,
		Lines:         make([]DocumentLineResponse, len(lines)),
	}
	for i, l := range lines {
		resp.Lines[i] = DocumentLineResponse{
			ID:        l.ID.String(),
			ItemID:    l.ItemID.String(),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Value:     l.Quantity.Mul(l.UnitPrice),
		}
	}
	return resp
}
