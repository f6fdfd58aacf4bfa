// Package reports builds the read-side views over the ledgers, counts
// and the reconciliation engine: the period stock report, the monthly
// dashboard and the count summary.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"stocktally/internal/domain/catalogs/stockitem"
	"stocktally/internal/domain/recon"
)

// PeriodFilter narrows the period report.
type PeriodFilter struct {
	// Search matches item code or description
	Search string

	// Start/End bound the period; when nil the fiscal year around
	// Reference is used (Mar 1 to end of February)
	Start *time.Time
	End   *time.Time

	// Reference anchors the default fiscal window; required when
	// Start or End is nil
	Reference time.Time
}

// PeriodRow is one item's reconciliation within the period report.
type PeriodRow struct {
	Item *stockitem.StockItem `json:"item"`
	recon.ItemResult
}

// PeriodReport is the full period stock report.
type PeriodReport struct {
	Start          time.Time       `json:"periodStart"`
	End            time.Time       `json:"periodEnd"`
	Rows           []PeriodRow     `json:"rows"`
	TotalValuation decimal.Decimal `json:"totalValuation"`
}

// MovementTotal is a cross-item quantity and value sum over one ledger.
type MovementTotal struct {
	Quantity decimal.Decimal `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
}

// TopItem is one entry of a top-movers list.
type TopItem struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Value       decimal.Decimal `json:"value"`
}

// TrendPoint is one month of the purchase/sale trend. The series is a
// quantity series; the money totals ride along for tooltips.
type TrendPoint struct {
	Label string     `json:"label"` // e.g. "Jan 2026"
	Year  int        `json:"year"`
	Month time.Month `json:"month"`

	PurchaseQuantity decimal.Decimal `json:"purchaseQuantity"`
	SaleQuantity     decimal.Decimal `json:"saleQuantity"`
	PurchaseValue    decimal.Decimal `json:"purchaseValue"`
	SaleValue        decimal.Decimal `json:"saleValue"`
}

// MonthlySnapshot is the dashboard view for one calendar month.
type MonthlySnapshot struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`

	OpeningQuantity decimal.Decimal `json:"openingQuantity"`
	OpeningValue    decimal.Decimal `json:"openingValue"`

	Purchases MovementTotal `json:"purchases"`
	Sales     MovementTotal `json:"sales"`

	// VarianceQuantity sums the variance of every count entry in the
	// month, each measured against its own prior baseline
	VarianceQuantity decimal.Decimal `json:"varianceQuantity"`

	ClosingQuantity decimal.Decimal `json:"closingQuantity"`
	ClosingValue    decimal.Decimal `json:"closingValue"`

	TopSales     []TopItem    `json:"topSales"`
	TopPurchases []TopItem    `json:"topPurchases"`
	Trend        []TrendPoint `json:"trend"`
}

// CountSummaryFilter narrows the count summary. When both bounds are
// nil the report covers the date of the most recent count session.
type CountSummaryFilter struct {
	// Search matches item code or description
	Search string

	From *time.Time
	To   *time.Time
}

// CountSummaryRow is one item's latest count within the range,
// reconciled against the system quantity at the count date.
type CountSummaryRow struct {
	Item        *stockitem.StockItem `json:"item"`
	SessionDate time.Time            `json:"sessionDate"`

	System        decimal.Decimal `json:"systemQuantity"`
	Counted       decimal.Decimal `json:"countedQuantity"`
	Variance      decimal.Decimal `json:"variance"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Valuation     decimal.Decimal `json:"valuation"`     // counted × price
	VarianceValue decimal.Decimal `json:"varianceValue"` // variance × price
}

// CountSummaryTotals are the grand totals of a count summary.
type CountSummaryTotals struct {
	System        decimal.Decimal `json:"systemQuantity"`
	Counted       decimal.Decimal `json:"countedQuantity"`
	Variance      decimal.Decimal `json:"variance"`
	Valuation     decimal.Decimal `json:"valuation"`
	VarianceValue decimal.Decimal `json:"varianceValue"`
}

// CountSummaryReport is the reconciliation view of physical counts.
type CountSummaryReport struct {
	From   time.Time          `json:"from"`
	To     time.Time          `json:"to"`
	Rows   []CountSummaryRow  `json:"rows"`
	Totals CountSummaryTotals `json:"totals"`
}
