// Package recon implements stock reconciliation: resolving the physical
// baseline, net ledger movement, expected system quantity and variance
// against counted quantities.
package recon

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stocktally/internal/core/id"
	"stocktally/internal/core/types"
)

// BoundaryPolicy controls whether a count on the reference date itself
// may serve as baseline.
type BoundaryPolicy int

const (
	// StrictBefore considers counts dated strictly before the
	// reference date. Used when computing the system quantity a count
	// is compared against, so a count never baselines itself.
	StrictBefore BoundaryPolicy = iota

	// AtOrBefore considers counts dated at or before the reference
	// date. Used for closing balances, where a count on the reference
	// date is the best available truth.
	AtOrBefore
)

func (p BoundaryPolicy) String() string {
	switch p {
	case StrictBefore:
		return "strict-before"
	case AtOrBefore:
		return "at-or-before"
	default:
		return fmt.Sprintf("BoundaryPolicy(%d)", int(p))
	}
}

// Movement is one ledger record as the engine sees it: a dated quantity
// with the price it moved at.
type Movement struct {
	Date      time.Time
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Value returns quantity × unit price.
func (m Movement) Value() decimal.Decimal {
	return m.Quantity.Mul(m.UnitPrice)
}

// Count is one count entry as the engine sees it. EntryID carries the
// creation-ordered entry id used to break same-date ties.
type Count struct {
	EntryID     id.ID
	ItemID      id.ID
	SessionDate time.Time
	Quantity    decimal.Decimal
}

// CountFilter narrows CountsInRange.
type CountFilter struct {
	ItemID *id.ID
	From   time.Time
	To     time.Time
}

// Baseline is the resolved starting point for a system quantity
// computation. CountDate is nil when the item has never been counted,
// in which case Quantity is zero and movement is summed from the
// beginning of the ledger.
type Baseline struct {
	CountDate *time.Time
	Quantity  decimal.Decimal
}

// LedgerStore is the ledger access the engine needs. Range queries use
// an exclusive lower bound (nil = unbounded) and inclusive upper bound.
type LedgerStore interface {
	PurchasesInRange(ctx context.Context, itemID id.ID, fromExclusive *time.Time, toInclusive time.Time) ([]Movement, error)
	SalesInRange(ctx context.Context, itemID id.ID, fromExclusive *time.Time, toInclusive time.Time) ([]Movement, error)

	// LatestPurchaseAtOrBefore returns the most recent purchase dated
	// at or before asOf, or nil when there is none.
	LatestPurchaseAtOrBefore(ctx context.Context, itemID id.ID, asOf time.Time) (*Movement, error)
}

// CountStore is the count access the engine needs. "Latest" is ordered
// by session date, ties broken by highest entry id.
type CountStore interface {
	LatestCountBefore(ctx context.Context, itemID id.ID, date time.Time) (*Count, error)
	LatestCountAtOrBefore(ctx context.Context, itemID id.ID, date time.Time) (*Count, error)
	CountsInRange(ctx context.Context, filter CountFilter) ([]Count, error)
}

// Engine computes system quantities and variances. It is stateless;
// every result is a pure function of the stores.
type Engine struct {
	ledger LedgerStore
	counts CountStore
}

// NewEngine creates a reconciliation engine over the given stores.
func NewEngine(ledger LedgerStore, counts CountStore) *Engine {
	return &Engine{ledger: ledger, counts: counts}
}

// ResolveBaseline finds the count that anchors a system quantity
// computation as of the given date.
func (e *Engine) ResolveBaseline(ctx context.Context, itemID id.ID, asOf time.Time, policy BoundaryPolicy) (Baseline, error) {
	asOf = types.Day(asOf)

	var (
		count *Count
		err   error
	)
	switch policy {
	case AtOrBefore:
		count, err = e.counts.LatestCountAtOrBefore(ctx, itemID, asOf)
	default:
		count, err = e.counts.LatestCountBefore(ctx, itemID, asOf)
	}
	if err != nil {
		return Baseline{}, fmt.Errorf("resolve baseline (%s, %s): %w", asOf.Format("2006-01-02"), policy, err)
	}

	if count == nil {
		return Baseline{Quantity: types.Zero}, nil
	}
	date := types.Day(count.SessionDate)
	return Baseline{CountDate: &date, Quantity: count.Quantity}, nil
}

// NetMovement returns purchases minus sales over (fromExclusive,
// toInclusive]. A nil fromExclusive means the range is unbounded below.
// The result is zero, never an error, for an item with no records.
func (e *Engine) NetMovement(ctx context.Context, itemID id.ID, fromExclusive *time.Time, toInclusive time.Time) (decimal.Decimal, error) {
	toInclusive = types.Day(toInclusive)
	if fromExclusive != nil {
		d := types.Day(*fromExclusive)
		fromExclusive = &d
	}

	purchases, err := e.ledger.PurchasesInRange(ctx, itemID, fromExclusive, toInclusive)
	if err != nil {
		return types.Zero, fmt.Errorf("purchases in range: %w", err)
	}
	sales, err := e.ledger.SalesInRange(ctx, itemID, fromExclusive, toInclusive)
	if err != nil {
		return types.Zero, fmt.Errorf("sales in range: %w", err)
	}

	net := types.Zero
	for _, m := range purchases {
		net = net.Add(m.Quantity)
	}
	for _, m := range sales {
		net = net.Sub(m.Quantity)
	}
	return net, nil
}

// SystemQuantity returns the expected on-hand quantity as of the given
// date: the baseline count quantity plus net movement since the count.
// Movements dated on the baseline count day are excluded; the count is
// an end-of-day snapshot.
func (e *Engine) SystemQuantity(ctx context.Context, itemID id.ID, asOf time.Time, policy BoundaryPolicy) (decimal.Decimal, error) {
	baseline, err := e.ResolveBaseline(ctx, itemID, asOf, policy)
	if err != nil {
		return types.Zero, err
	}

	net, err := e.NetMovement(ctx, itemID, baseline.CountDate, asOf)
	if err != nil {
		return types.Zero, err
	}
	return baseline.Quantity.Add(net), nil
}

// Variance returns counted minus system quantity for the given count.
// The system quantity is anchored strictly before the count date, so
// the count being evaluated never serves as its own baseline.
func (e *Engine) Variance(ctx context.Context, itemID id.ID, count Count) (decimal.Decimal, error) {
	system, err := e.SystemQuantity(ctx, itemID, count.SessionDate, StrictBefore)
	if err != nil {
		return types.Zero, err
	}
	return count.Quantity.Sub(system), nil
}

// LatestUnitPrice returns the unit price of the most recent purchase
// dated at or before asOf, or zero when the item has never been bought.
func (e *Engine) LatestUnitPrice(ctx context.Context, itemID id.ID, asOf time.Time) (decimal.Decimal, error) {
	purchase, err := e.ledger.LatestPurchaseAtOrBefore(ctx, itemID, types.Day(asOf))
	if err != nil {
		return types.Zero, fmt.Errorf("latest purchase: %w", err)
	}
	if purchase == nil {
		return types.Zero, nil
	}
	return purchase.UnitPrice, nil
}
