package recon

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stocktally/internal/core/id"
	"stocktally/internal/core/types"
)

// ItemResult is the reconciliation of one item over a period.
// Counted and Variance are nil when the item was not counted in the
// period.
type ItemResult struct {
	ItemID id.ID     `json:"itemId"`
	Start  time.Time `json:"periodStart"`
	End    time.Time `json:"periodEnd"`

	Opening   decimal.Decimal `json:"openingQuantity"`
	Purchases decimal.Decimal `json:"purchasedQuantity"`
	Sales     decimal.Decimal `json:"soldQuantity"`

	Counted  *decimal.Decimal `json:"countedQuantity,omitempty"`
	System   decimal.Decimal  `json:"systemQuantity"`
	Variance *decimal.Decimal `json:"variance,omitempty"`

	UnitPrice     decimal.Decimal  `json:"unitPrice"`
	Valuation     decimal.Decimal  `json:"valuation"`
	VarianceValue *decimal.Decimal `json:"varianceValue,omitempty"`

	LastMovement *time.Time `json:"lastMovementDate,omitempty"`
}

func sumQuantities(movs []Movement, upTo time.Time) decimal.Decimal {
	total := types.Zero
	for _, m := range movs {
		if !m.Date.After(upTo) {
			total = total.Add(m.Quantity)
		}
	}
	return total
}

func lastMovementDate(groups ...[]Movement) *time.Time {
	var last *time.Time
	for _, movs := range groups {
		for _, m := range movs {
			if last == nil || m.Date.After(*last) {
				d := m.Date
				last = &d
			}
		}
	}
	return last
}

// ReconcileItem computes the full reconciliation of one item over
// [start, end]: opening balance, period movement, variance against the
// latest count in the period, and the closing system quantity with its
// valuation.
//
// The opening balance respects any count dated before the period. If
// the period contains a count, the variance is measured against the
// opening plus movement up to the count date, and the counted quantity
// rebaselines the closing.
func (e *Engine) ReconcileItem(ctx context.Context, itemID id.ID, start, end time.Time) (ItemResult, error) {
	start = types.Day(start)
	end = types.Day(end)

	result := ItemResult{ItemID: itemID, Start: start, End: end}

	opening, err := e.SystemQuantity(ctx, itemID, types.PreviousDay(start), AtOrBefore)
	if err != nil {
		return ItemResult{}, err
	}
	result.Opening = opening

	// One fetch per ledger; sub-range sums are folded locally.
	fromExclusive := types.PreviousDay(start)
	purchases, err := e.ledger.PurchasesInRange(ctx, itemID, &fromExclusive, end)
	if err != nil {
		return ItemResult{}, err
	}
	sales, err := e.ledger.SalesInRange(ctx, itemID, &fromExclusive, end)
	if err != nil {
		return ItemResult{}, err
	}
	result.Purchases = sumQuantities(purchases, end)
	result.Sales = sumQuantities(sales, end)
	result.LastMovement = lastMovementDate(purchases, sales)

	counts, err := e.counts.CountsInRange(ctx, CountFilter{ItemID: &itemID, From: start, To: end})
	if err != nil {
		return ItemResult{}, err
	}

	if len(counts) > 0 {
		count := counts[0] // latest by date, then entry id

		systemAtCount := opening.
			Add(sumQuantities(purchases, count.SessionDate)).
			Sub(sumQuantities(sales, count.SessionDate))
		variance := count.Quantity.Sub(systemAtCount)

		counted := count.Quantity
		result.Counted = &counted
		result.Variance = &variance

		// The count rebaselines the closing: only movement after the
		// count date still applies.
		result.System = counted.
			Add(result.Purchases.Sub(sumQuantities(purchases, count.SessionDate))).
			Sub(result.Sales.Sub(sumQuantities(sales, count.SessionDate)))
	} else {
		result.System = opening.Add(result.Purchases).Sub(result.Sales)
	}

	price, err := e.LatestUnitPrice(ctx, itemID, end)
	if err != nil {
		return ItemResult{}, err
	}
	result.UnitPrice = price
	result.Valuation = result.System.Mul(price)
	if result.Variance != nil {
		v := result.Variance.Mul(price)
		result.VarianceValue = &v
	}

	return result, nil
}
