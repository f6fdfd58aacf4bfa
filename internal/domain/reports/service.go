package reports

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/core/types"
	"stocktally/internal/domain/catalogs/stockitem"
	"stocktally/internal/domain/counting"
	"stocktally/internal/domain/recon"
	"stocktally/pkg/logger"
)

// topMoversLimit caps the dashboard top-movers lists.
const topMoversLimit = 5

// trendMonths is the length of the dashboard trend, current month
// included.
const trendMonths = 6

// defaultConcurrency bounds the per-item fan-out of report builds.
const defaultConcurrency = 8

// ItemStore is the catalog access reports need.
type ItemStore interface {
	Get(ctx context.Context, itemID id.ID) (*stockitem.StockItem, error)
	List(ctx context.Context, filter stockitem.ListFilter) ([]*stockitem.StockItem, error)
}

// SessionStore resolves the default range of the count summary.
type SessionStore interface {
	LatestSession(ctx context.Context) (*counting.Session, error)
}

// AggregateStore provides cross-item ledger sums computed in SQL.
// Ranges are inclusive on both ends.
type AggregateStore interface {
	PurchaseTotals(ctx context.Context, from, to time.Time) (MovementTotal, error)
	SaleTotals(ctx context.Context, from, to time.Time) (MovementTotal, error)
	TopPurchases(ctx context.Context, from, to time.Time, limit int) ([]TopItem, error)
	TopSales(ctx context.Context, from, to time.Time, limit int) ([]TopItem, error)
}

// Service builds reports. All reports are pure functions of the stores:
// rebuilding one over unchanged data yields the same result.
type Service struct {
	engine      *recon.Engine
	counts      recon.CountStore
	items       ItemStore
	sessions    SessionStore
	agg         AggregateStore
	concurrency int
}

// NewService creates a reports service.
func NewService(engine *recon.Engine, counts recon.CountStore, items ItemStore, sessions SessionStore, agg AggregateStore) *Service {
	return &Service{
		engine:      engine,
		counts:      counts,
		items:       items,
		sessions:    sessions,
		agg:         agg,
		concurrency: defaultConcurrency,
	}
}

// PeriodReport reconciles every matching item over the period. Missing
// bounds default to the fiscal year around the reference date (March 1
// through end of February); the reference must be set whenever a bound
// is omitted. Nothing here reads the clock.
func (s *Service) PeriodReport(ctx context.Context, filter PeriodFilter) (*PeriodReport, error) {
	var start, end time.Time
	if filter.Start == nil || filter.End == nil {
		if filter.Reference.IsZero() {
			return nil, apperror.NewValidation("reference date required when period bounds are omitted")
		}
		start, end = types.FiscalYearWindow(filter.Reference)
	}
	if filter.Start != nil {
		start = types.Day(*filter.Start)
	}
	if filter.End != nil {
		end = types.Day(*filter.End)
	}
	if end.Before(start) {
		return nil, apperror.NewValidation("period end precedes period start").
			WithDetail("start", start.Format("2006-01-02")).
			WithDetail("end", end.Format("2006-01-02"))
	}

	items, err := s.items.List(ctx, stockitem.ListFilter{Search: filter.Search})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	rows := make([]PeriodRow, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			result, err := s.engine.ReconcileItem(gctx, item.ID, start, end)
			if err != nil {
				return fmt.Errorf("reconcile %s: %w", item.Code, err)
			}
			rows[i] = PeriodRow{Item: item, ItemResult: result}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := types.Zero
	for _, row := range rows {
		total = total.Add(row.Valuation)
	}

	logger.Debug(ctx, "period report built",
		"items", len(rows),
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
	)

	return &PeriodReport{Start: start, End: end, Rows: rows, TotalValuation: total}, nil
}

// MonthlyTotals builds the dashboard snapshot for one calendar month.
// The month is explicit; nothing reads the clock.
func (s *Service) MonthlyTotals(ctx context.Context, year int, month time.Month) (*MonthlySnapshot, error) {
	if month < time.January || month > time.December {
		return nil, apperror.NewValidation("month out of range").
			WithDetail("month", int(month))
	}

	monthStart := types.MonthStart(year, month)
	monthEnd := types.MonthEnd(year, month)
	prevEnd := types.PreviousDay(monthStart)

	snap := &MonthlySnapshot{Year: year, Month: month}

	openingQty, openingValue, err := s.openingTotals(ctx, prevEnd)
	if err != nil {
		return nil, err
	}
	snap.OpeningQuantity = openingQty
	snap.OpeningValue = openingValue

	if snap.Purchases, err = s.agg.PurchaseTotals(ctx, monthStart, monthEnd); err != nil {
		return nil, fmt.Errorf("month purchase totals: %w", err)
	}
	if snap.Sales, err = s.agg.SaleTotals(ctx, monthStart, monthEnd); err != nil {
		return nil, fmt.Errorf("month sale totals: %w", err)
	}

	counts, err := s.counts.CountsInRange(ctx, recon.CountFilter{From: monthStart, To: monthEnd})
	if err != nil {
		return nil, fmt.Errorf("counts in month: %w", err)
	}
	variance := types.Zero
	for _, c := range counts {
		v, err := s.engine.Variance(ctx, c.ItemID, c)
		if err != nil {
			return nil, err
		}
		variance = variance.Add(v)
	}
	snap.VarianceQuantity = variance

	snap.ClosingQuantity = openingQty.Add(snap.Purchases.Quantity).Sub(snap.Sales.Quantity)
	snap.ClosingValue = openingValue.Add(snap.Purchases.Value).Sub(snap.Sales.Value)

	if snap.TopSales, err = s.agg.TopSales(ctx, monthStart, monthEnd, topMoversLimit); err != nil {
		return nil, fmt.Errorf("top sales: %w", err)
	}
	if snap.TopPurchases, err = s.agg.TopPurchases(ctx, monthStart, monthEnd, topMoversLimit); err != nil {
		return nil, fmt.Errorf("top purchases: %w", err)
	}

	if snap.Trend, err = s.trend(ctx, year, month); err != nil {
		return nil, err
	}

	return snap, nil
}

// openingTotals sums the system quantity and its valuation over all
// items as of the given date.
func (s *Service) openingTotals(ctx context.Context, asOf time.Time) (qty, value types.Quantity, err error) {
	items, err := s.items.List(ctx, stockitem.ListFilter{})
	if err != nil {
		return types.Zero, types.Zero, fmt.Errorf("list items: %w", err)
	}

	var mu sync.Mutex
	qty, value = types.Zero, types.Zero

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, item := range items {
		item := item
		g.Go(func() error {
			system, err := s.engine.SystemQuantity(gctx, item.ID, asOf, recon.AtOrBefore)
			if err != nil {
				return err
			}
			price, err := s.engine.LatestUnitPrice(gctx, item.ID, asOf)
			if err != nil {
				return err
			}
			mu.Lock()
			qty = qty.Add(system)
			value = value.Add(system.Mul(price))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.Zero, types.Zero, err
	}
	return qty, value, nil
}

// trend builds the trailing purchase/sale quantity series ending at
// the given month, rolling over year boundaries.
func (s *Service) trend(ctx context.Context, year int, month time.Month) ([]TrendPoint, error) {
	points := make([]TrendPoint, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		y, m := types.ShiftMonth(year, month, -i)
		from := types.MonthStart(y, m)
		to := types.MonthEnd(y, m)

		purchases, err := s.agg.PurchaseTotals(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("trend purchases %s: %w", from.Format("2006-01"), err)
		}
		sales, err := s.agg.SaleTotals(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("trend sales %s: %w", from.Format("2006-01"), err)
		}

		points = append(points, TrendPoint{
			Label:            from.Format("Jan 2006"),
			Year:             y,
			Month:            m,
			PurchaseQuantity: purchases.Quantity,
			SaleQuantity:     sales.Quantity,
			PurchaseValue:    purchases.Value,
			SaleValue:        sales.Value,
		})
	}
	return points, nil
}

// CountSummary reconciles the latest count of each item within the
// range. Search narrows the rows to items matching by code or
// description. With no bounds given, the range collapses to the date
// of the most recent count session; with no sessions at all the report
// is empty.
func (s *Service) CountSummary(ctx context.Context, filter CountSummaryFilter) (*CountSummaryReport, error) {
	report := &CountSummaryReport{
		Totals: CountSummaryTotals{
			System: types.Zero, Counted: types.Zero, Variance: types.Zero,
			Valuation: types.Zero, VarianceValue: types.Zero,
		},
	}

	from, to, ok, err := s.summaryRange(ctx, filter)
	if err != nil {
		return nil, err
	}
	if !ok {
		return report, nil
	}
	report.From, report.To = from, to

	counts, err := s.counts.CountsInRange(ctx, recon.CountFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("counts in range: %w", err)
	}

	var matched map[id.ID]struct{}
	if filter.Search != "" {
		items, err := s.items.List(ctx, stockitem.ListFilter{Search: filter.Search})
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		matched = make(map[id.ID]struct{}, len(items))
		for _, it := range items {
			matched[it.ID] = struct{}{}
		}
	}

	// Counts arrive date DESC, id DESC: the first entry seen per item
	// is its latest count in the range.
	seen := make(map[id.ID]struct{}, len(counts))
	for _, c := range counts {
		if matched != nil {
			if _, ok := matched[c.ItemID]; !ok {
				continue
			}
		}
		if _, dup := seen[c.ItemID]; dup {
			continue
		}
		seen[c.ItemID] = struct{}{}

		item, err := s.items.Get(ctx, c.ItemID)
		if err != nil {
			return nil, err
		}

		system, err := s.engine.SystemQuantity(ctx, c.ItemID, c.SessionDate, recon.StrictBefore)
		if err != nil {
			return nil, err
		}
		price, err := s.engine.LatestUnitPrice(ctx, c.ItemID, c.SessionDate)
		if err != nil {
			return nil, err
		}
		variance := c.Quantity.Sub(system)

		row := CountSummaryRow{
			Item:          item,
			SessionDate:   c.SessionDate,
			System:        system,
			Counted:       c.Quantity,
			Variance:      variance,
			UnitPrice:     price,
			Valuation:     c.Quantity.Mul(price),
			VarianceValue: variance.Mul(price),
		}
		report.Rows = append(report.Rows, row)

		report.Totals.System = report.Totals.System.Add(row.System)
		report.Totals.Counted = report.Totals.Counted.Add(row.Counted)
		report.Totals.Variance = report.Totals.Variance.Add(row.Variance)
		report.Totals.Valuation = report.Totals.Valuation.Add(row.Valuation)
		report.Totals.VarianceValue = report.Totals.VarianceValue.Add(row.VarianceValue)
	}

	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].Item.Code < report.Rows[j].Item.Code
	})

	return report, nil
}

// summaryRange resolves the count summary bounds. ok is false when no
// bounds were given and no sessions exist.
func (s *Service) summaryRange(ctx context.Context, filter CountSummaryFilter) (from, to time.Time, ok bool, err error) {
	if filter.From == nil && filter.To == nil {
		latest, err := s.sessions.LatestSession(ctx)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("latest session: %w", err)
		}
		if latest == nil {
			return time.Time{}, time.Time{}, false, nil
		}
		d := types.Day(latest.Date)
		return d, d, true, nil
	}

	if filter.From != nil {
		from = types.Day(*filter.From)
	}
	if filter.To != nil {
		to = types.Day(*filter.To)
	}
	if filter.From == nil {
		from = to
	}
	if filter.To == nil {
		to = from
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, false, apperror.NewValidation("range end precedes range start").
			WithDetail("from", from.Format("2006-01-02")).
			WithDetail("to", to.Format("2006-01-02"))
	}
	return from, to, true, nil
}
