package reports

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/core/types"
	"stocktally/internal/domain/catalogs/stockitem"
	"stocktally/internal/domain/counting"
	"stocktally/internal/domain/recon"
)

// fakeStore is an in-memory implementation of every store the reports
// service needs, with the same ordering rules as the SQL repositories.
type fakeStore struct {
	items     []*stockitem.StockItem
	purchases []movement
	sales     []movement
	counts    []recon.Count
	sessions  []*counting.Session
}

type movement struct {
	itemID    id.ID
	date      time.Time
	quantity  decimal.Decimal
	unitPrice decimal.Decimal
}

func (f *fakeStore) addItem(code, description string) *stockitem.StockItem {
	item := stockitem.NewStockItem(code, description, "pcs")
	f.items = append(f.items, item)
	return item
}

func (f *fakeStore) addPurchase(itemID id.ID, d time.Time, qty, price string) {
	f.purchases = append(f.purchases, movement{
		itemID: itemID, date: types.Day(d),
		quantity:  decimal.RequireFromString(qty),
		unitPrice: decimal.RequireFromString(price),
	})
}

func (f *fakeStore) addSale(itemID id.ID, d time.Time, qty, price string) {
	f.sales = append(f.sales, movement{
		itemID: itemID, date: types.Day(d),
		quantity:  decimal.RequireFromString(qty),
		unitPrice: decimal.RequireFromString(price),
	})
}

func (f *fakeStore) addCount(itemID id.ID, d time.Time, qty string) {
	day := types.Day(d)
	for _, s := range f.sessions {
		if s.Date.Equal(day) {
			f.counts = append(f.counts, recon.Count{
				EntryID: id.New(), ItemID: itemID, SessionDate: day,
				Quantity: decimal.RequireFromString(qty),
			})
			return
		}
	}
	f.sessions = append(f.sessions, counting.NewSession(day, ""))
	f.counts = append(f.counts, recon.Count{
		EntryID: id.New(), ItemID: itemID, SessionDate: day,
		Quantity: decimal.RequireFromString(qty),
	})
}

// --- ItemStore ---

func (f *fakeStore) Get(ctx context.Context, itemID id.ID) (*stockitem.StockItem, error) {
	for _, it := range f.items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return nil, apperror.NewNotFound("stock item", itemID)
}

func (f *fakeStore) List(ctx context.Context, filter stockitem.ListFilter) ([]*stockitem.StockItem, error) {
	needle := strings.ToLower(filter.Search)
	var out []*stockitem.StockItem
	for _, it := range f.items {
		if needle != "" &&
			!strings.Contains(strings.ToLower(it.Code), needle) &&
			!strings.Contains(strings.ToLower(it.Name), needle) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// --- SessionStore ---

func (f *fakeStore) LatestSession(ctx context.Context) (*counting.Session, error) {
	var latest *counting.Session
	for _, s := range f.sessions {
		if latest == nil || s.Date.After(latest.Date) {
			latest = s
		}
	}
	return latest, nil
}

// --- recon.LedgerStore ---

func inRange(d time.Time, fromExclusive *time.Time, toInclusive time.Time) bool {
	if fromExclusive != nil && !d.After(*fromExclusive) {
		return false
	}
	return !d.After(toInclusive)
}

func (f *fakeStore) PurchasesInRange(ctx context.Context, itemID id.ID, fromExclusive *time.Time, toInclusive time.Time) ([]recon.Movement, error) {
	var out []recon.Movement
	for _, m := range f.purchases {
		if m.itemID == itemID && inRange(m.date, fromExclusive, toInclusive) {
			out = append(out, recon.Movement{Date: m.date, Quantity: m.quantity, UnitPrice: m.unitPrice})
		}
	}
	return out, nil
}

func (f *fakeStore) SalesInRange(ctx context.Context, itemID id.ID, fromExclusive *time.Time, toInclusive time.Time) ([]recon.Movement, error) {
	var out []recon.Movement
	for _, m := range f.sales {
		if m.itemID == itemID && inRange(m.date, fromExclusive, toInclusive) {
			out = append(out, recon.Movement{Date: m.date, Quantity: m.quantity, UnitPrice: m.unitPrice})
		}
	}
	return out, nil
}

func (f *fakeStore) LatestPurchaseAtOrBefore(ctx context.Context, itemID id.ID, asOf time.Time) (*recon.Movement, error) {
	var best *movement
	for i := range f.purchases {
		m := &f.purchases[i]
		if m.itemID != itemID || m.date.After(asOf) {
			continue
		}
		if best == nil || m.date.After(best.date) {
			best = m
		}
	}
	if best == nil {
		return nil, nil
	}
	return &recon.Movement{Date: best.date, Quantity: best.quantity, UnitPrice: best.unitPrice}, nil
}

// --- recon.CountStore ---

func (f *fakeStore) filteredCounts(itemID *id.ID, keep func(time.Time) bool) []recon.Count {
	var out []recon.Count
	for _, c := range f.counts {
		if itemID != nil && c.ItemID != *itemID {
			continue
		}
		if keep(c.SessionDate) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SessionDate.Equal(out[j].SessionDate) {
			return out[i].SessionDate.After(out[j].SessionDate)
		}
		return out[i].EntryID.String() > out[j].EntryID.String()
	})
	return out
}

func (f *fakeStore) LatestCountBefore(ctx context.Context, itemID id.ID, date time.Time) (*recon.Count, error) {
	counts := f.filteredCounts(&itemID, func(d time.Time) bool { return d.Before(date) })
	if len(counts) == 0 {
		return nil, nil
	}
	return &counts[0], nil
}

func (f *fakeStore) LatestCountAtOrBefore(ctx context.Context, itemID id.ID, date time.Time) (*recon.Count, error) {
	counts := f.filteredCounts(&itemID, func(d time.Time) bool { return !d.After(date) })
	if len(counts) == 0 {
		return nil, nil
	}
	return &counts[0], nil
}

func (f *fakeStore) CountsInRange(ctx context.Context, filter recon.CountFilter) ([]recon.Count, error) {
	return f.filteredCounts(filter.ItemID, func(d time.Time) bool {
		return !d.Before(filter.From) && !d.After(filter.To)
	}), nil
}

// --- AggregateStore ---

func (f *fakeStore) ledgerTotals(movs []movement, from, to time.Time) MovementTotal {
	t := MovementTotal{Quantity: types.Zero, Value: types.Zero}
	for _, m := range movs {
		if m.date.Before(from) || m.date.After(to) {
			continue
		}
		t.Quantity = t.Quantity.Add(m.quantity)
		t.Value = t.Value.Add(m.quantity.Mul(m.unitPrice))
	}
	return t
}

func (f *fakeStore) PurchaseTotals(ctx context.Context, from, to time.Time) (MovementTotal, error) {
	return f.ledgerTotals(f.purchases, from, to), nil
}

func (f *fakeStore) SaleTotals(ctx context.Context, from, to time.Time) (MovementTotal, error) {
	return f.ledgerTotals(f.sales, from, to), nil
}

func (f *fakeStore) topMovers(movs []movement, from, to time.Time, limit int) []TopItem {
	perItem := make(map[id.ID]*TopItem)
	for _, m := range movs {
		if m.date.Before(from) || m.date.After(to) {
			continue
		}
		top, ok := perItem[m.itemID]
		if !ok {
			var code, desc string
			for _, it := range f.items {
				if it.ID == m.itemID {
					code, desc = it.Code, it.Name
				}
			}
			top = &TopItem{Code: code, Description: desc, Quantity: types.Zero, Value: types.Zero}
			perItem[m.itemID] = top
		}
		top.Quantity = top.Quantity.Add(m.quantity)
		top.Value = top.Value.Add(m.quantity.Mul(m.unitPrice))
	}

	out := make([]TopItem, 0, len(perItem))
	for _, t := range perItem {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity.GreaterThan(out[j].Quantity) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeStore) TopPurchases(ctx context.Context, from, to time.Time, limit int) ([]TopItem, error) {
	return f.topMovers(f.purchases, from, to, limit), nil
}

func (f *fakeStore) TopSales(ctx context.Context, from, to time.Time, limit int) ([]TopItem, error) {
	return f.topMovers(f.sales, from, to, limit), nil
}

func newTestService(store *fakeStore) *Service {
	engine := recon.NewEngine(store, store)
	return NewService(engine, store, store, store, store)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestPeriodReport_CountRebaseline(t *testing.T) {
	store := &fakeStore{}
	item := store.addItem("A001", "Widget")

	store.addPurchase(item.ID, date(2025, time.January, 10), "100", "5")
	store.addSale(item.ID, date(2025, time.January, 15), "30", "8")
	store.addCount(item.ID, date(2025, time.January, 20), "60")
	store.addPurchase(item.ID, date(2025, time.January, 25), "10", "5")

	svc := newTestService(store)
	report, err := svc.PeriodReport(context.Background(), PeriodFilter{
		Start: ptr(date(2025, time.January, 1)),
		End:   ptr(date(2025, time.January, 31)),
	})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.Equal(t, "A001", row.Item.Code)
	assert.Equal(t, "0", row.Opening.String())
	assert.Equal(t, "110", row.Purchases.String())
	assert.Equal(t, "30", row.Sales.String())
	require.NotNil(t, row.Variance)
	assert.Equal(t, "-10", row.Variance.String())
	// Count of 60 rebaselines; +10 purchased after.
	assert.Equal(t, "70", row.System.String())
	assert.Equal(t, "350", row.Valuation.String())
	assert.Equal(t, "350", report.TotalValuation.String())
}

func TestPeriodReport_OpeningRespectsPriorCount(t *testing.T) {
	store := &fakeStore{}
	item := store.addItem("A001", "Widget")

	store.addPurchase(item.ID, date(2024, time.December, 1), "100", "5")
	store.addCount(item.ID, date(2024, time.December, 20), "80")
	store.addPurchase(item.ID, date(2024, time.December, 28), "5", "5")

	svc := newTestService(store)
	report, err := svc.PeriodReport(context.Background(), PeriodFilter{
		Start: ptr(date(2025, time.January, 1)),
		End:   ptr(date(2025, time.January, 31)),
	})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	// Opening = counted 80 + 5 purchased after the count.
	assert.Equal(t, "85", report.Rows[0].Opening.String())
	assert.Equal(t, "85", report.Rows[0].System.String())
}

func TestPeriodReport_DefaultFiscalWindow(t *testing.T) {
	store := &fakeStore{}
	store.addItem("A001", "Widget")
	svc := newTestService(store)

	report, err := svc.PeriodReport(context.Background(), PeriodFilter{
		Reference: date(2026, time.January, 15),
	})
	require.NoError(t, err)

	// January 2026 falls in the fiscal year that started March 2025.
	assert.True(t, report.Start.Equal(date(2025, time.March, 1)))
	assert.True(t, report.End.Equal(date(2026, time.February, 28)))
}

func TestPeriodReport_Idempotent(t *testing.T) {
	store := &fakeStore{}
	item := store.addItem("A001", "Widget")
	store.addPurchase(item.ID, date(2025, time.January, 10), "100", "5")
	store.addCount(item.ID, date(2025, time.January, 20), "90")

	svc := newTestService(store)
	filter := PeriodFilter{
		Start: ptr(date(2025, time.January, 1)),
		End:   ptr(date(2025, time.January, 31)),
	}

	first, err := svc.PeriodReport(context.Background(), filter)
	require.NoError(t, err)
	second, err := svc.PeriodReport(context.Background(), filter)
	require.NoError(t, err)

	require.Len(t, second.Rows, len(first.Rows))
	for i := range first.Rows {
		assert.True(t, first.Rows[i].System.Equal(second.Rows[i].System))
		assert.True(t, first.Rows[i].Valuation.Equal(second.Rows[i].Valuation))
	}
	assert.True(t, first.TotalValuation.Equal(second.TotalValuation))
}

func TestPeriodReport_RequiresReferenceWithoutBounds(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.PeriodReport(context.Background(), PeriodFilter{})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	// Explicit bounds need no reference.
	_, err = svc.PeriodReport(context.Background(), PeriodFilter{
		Start: ptr(date(2025, time.January, 1)),
		End:   ptr(date(2025, time.January, 31)),
	})
	require.NoError(t, err)
}

func TestMonthlyTotals_TrendAcrossYearBoundary(t *testing.T) {
	store := &fakeStore{}
	item := store.addItem("A001", "Widget")

	store.addPurchase(item.ID, date(2025, time.November, 10), "10", "2")
	store.addSale(item.ID, date(2026, time.January, 5), "4", "3")
	store.addPurchase(item.ID, date(2026, time.February, 3), "6", "2")

	svc := newTestService(store)
	snap, err := svc.MonthlyTotals(context.Background(), 2026, time.February)
	require.NoError(t, err)

	require.Len(t, snap.Trend, 6)
	labels := make([]string, 0, 6)
	for _, p := range snap.Trend {
		labels = append(labels, p.Label)
	}
	assert.Equal(t, []string{
		"Sep 2025", "Oct 2025", "Nov 2025", "Dec 2025", "Jan 2026", "Feb 2026",
	}, labels)

	// The series carries quantities, not money.
	assert.Equal(t, "10", snap.Trend[2].PurchaseQuantity.String()) // Nov
	assert.Equal(t, "4", snap.Trend[4].SaleQuantity.String())      // Jan
	assert.Equal(t, "6", snap.Trend[5].PurchaseQuantity.String())  // Feb
	assert.Equal(t, "0", snap.Trend[5].SaleQuantity.String())

	assert.Equal(t, "20", snap.Trend[2].PurchaseValue.String()) // Nov: 10 × 2
	assert.Equal(t, "12", snap.Trend[4].SaleValue.String())     // Jan: 4 × 3
}

func TestMonthlyTotals_OpeningAndClosing(t *testing.T) {
	store := &fakeStore{}
	item := store.addItem("A001", "Widget")

	store.addPurchase(item.ID, date(2025, time.December, 10), "100", "5")
	store.addSale(item.ID, date(2026, time.January, 8), "20", "8")
	store.addCount(item.ID, date(2026, time.January, 15), "78")

	svc := newTestService(store)
	snap, err := svc.MonthlyTotals(context.Background(), 2026, time.January)
	require.NoError(t, err)

	assert.Equal(t, "100", snap.OpeningQuantity.String())
	assert.Equal(t, "500", snap.OpeningValue.String())
	assert.Equal(t, "20", snap.Sales.Quantity.String())
	assert.Equal(t, "160", snap.Sales.Value.String())
	// System at the count: 100 − 20 = 80; counted 78.
	assert.Equal(t, "-2", snap.VarianceQuantity.String())
	assert.Equal(t, "80", snap.ClosingQuantity.String())
	assert.Equal(t, "340", snap.ClosingValue.String())

	require.Len(t, snap.TopSales, 1)
	assert.Equal(t, "A001", snap.TopSales[0].Code)
}

func TestMonthlyTotals_RejectsBadMonth(t *testing.T) {
	svc := newTestService(&fakeStore{})
	_, err := svc.MonthlyTotals(context.Background(), 2026, time.Month(13))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCountSummary_DefaultsToLatestSession(t *testing.T) {
	store := &fakeStore{}
	itemA := store.addItem("A001", "Widget")
	itemB := store.addItem("B002", "Gadget")

	store.addPurchase(itemA.ID, date(2025, time.January, 10), "100", "5")
	store.addPurchase(itemB.ID, date(2025, time.January, 10), "50", "2")

	// Older session: must not appear in the default report.
	store.addCount(itemA.ID, date(2025, time.January, 20), "98")
	// Latest session.
	store.addCount(itemA.ID, date(2025, time.February, 10), "95")
	store.addCount(itemB.ID, date(2025, time.February, 10), "50")

	svc := newTestService(store)
	report, err := svc.CountSummary(context.Background(), CountSummaryFilter{})
	require.NoError(t, err)

	assert.True(t, report.From.Equal(date(2025, time.February, 10)))
	assert.True(t, report.To.Equal(date(2025, time.February, 10)))
	require.Len(t, report.Rows, 2)

	rowA := report.Rows[0]
	assert.Equal(t, "A001", rowA.Item.Code)
	// System anchored to the January count: 98, counted 95.
	assert.Equal(t, "98", rowA.System.String())
	assert.Equal(t, "-3", rowA.Variance.String())
	assert.Equal(t, "475", rowA.Valuation.String())     // 95 × 5
	assert.Equal(t, "-15", rowA.VarianceValue.String()) // −3 × 5

	assert.Equal(t, "0", report.Rows[1].Variance.String())
	assert.Equal(t, "148", report.Totals.System.String())
	assert.Equal(t, "145", report.Totals.Counted.String())
	assert.Equal(t, "-3", report.Totals.Variance.String())
	assert.Equal(t, "575", report.Totals.Valuation.String())
}

func TestCountSummary_DedupLatestEntryPerItem(t *testing.T) {
	store := &fakeStore{}
	item := store.addItem("A001", "Widget")

	store.addPurchase(item.ID, date(2025, time.March, 1), "10", "1")
	store.addCount(item.ID, date(2025, time.March, 5), "9")
	store.addCount(item.ID, date(2025, time.March, 12), "8")

	svc := newTestService(store)
	report, err := svc.CountSummary(context.Background(), CountSummaryFilter{
		From: ptr(date(2025, time.March, 1)),
		To:   ptr(date(2025, time.March, 31)),
	})
	require.NoError(t, err)

	// Only the March 12 count survives the dedup.
	require.Len(t, report.Rows, 1)
	assert.True(t, report.Rows[0].SessionDate.Equal(date(2025, time.March, 12)))
	assert.Equal(t, "8", report.Rows[0].Counted.String())
	// System anchored to the March 5 count.
	assert.Equal(t, "9", report.Rows[0].System.String())
	assert.Equal(t, "-1", report.Rows[0].Variance.String())
}

func TestCountSummary_SearchFiltersItems(t *testing.T) {
	store := &fakeStore{}
	itemA := store.addItem("A001", "Widget")
	itemB := store.addItem("B002", "Gadget")

	store.addPurchase(itemA.ID, date(2025, time.March, 1), "10", "5")
	store.addPurchase(itemB.ID, date(2025, time.March, 1), "20", "2")
	store.addCount(itemA.ID, date(2025, time.March, 10), "9")
	store.addCount(itemB.ID, date(2025, time.March, 10), "20")

	svc := newTestService(store)
	report, err := svc.CountSummary(context.Background(), CountSummaryFilter{Search: "gadg"})
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	assert.Equal(t, "B002", report.Rows[0].Item.Code)
	assert.Equal(t, "20", report.Totals.Counted.String())
	assert.Equal(t, "0", report.Totals.Variance.String())
}

func TestCountSummary_EmptyWithoutSessions(t *testing.T) {
	svc := newTestService(&fakeStore{})
	report, err := svc.CountSummary(context.Background(), CountSummaryFilter{})
	require.NoError(t, err)
	assert.Empty(t, report.Rows)
	assert.True(t, report.Totals.Counted.IsZero())
}
