package recon

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktally/internal/core/id"
	"stocktally/internal/core/types"
)

// memStore is an in-memory LedgerStore + CountStore with the same
// ordering rules as the SQL repositories: latest count by session date
// DESC, entry id DESC.
type memStore struct {
	purchases []ledgerRec
	sales     []ledgerRec
	counts    []Count
}

type ledgerRec struct {
	itemID    id.ID
	date      time.Time
	quantity  decimal.Decimal
	unitPrice decimal.Decimal
}

func (m *memStore) addPurchase(itemID id.ID, date time.Time, qty, price string) {
	m.purchases = append(m.purchases, ledgerRec{
		itemID: itemID, date: types.Day(date),
		quantity:  decimal.RequireFromString(qty),
		unitPrice: decimal.RequireFromString(price),
	})
}

func (m *memStore) addSale(itemID id.ID, date time.Time, qty, price string) {
	m.sales = append(m.sales, ledgerRec{
		itemID: itemID, date: types.Day(date),
		quantity:  decimal.RequireFromString(qty),
		unitPrice: decimal.RequireFromString(price),
	})
}

func (m *memStore) addCount(itemID id.ID, date time.Time, qty string) Count {
	c := Count{
		EntryID:     id.New(),
		ItemID:      itemID,
		SessionDate: types.Day(date),
		Quantity:    decimal.RequireFromString(qty),
	}
	m.counts = append(m.counts, c)
	return c
}

func inRange(date time.Time, fromExclusive *time.Time, toInclusive time.Time) bool {
	if fromExclusive != nil && !date.After(*fromExclusive) {
		return false
	}
	return !date.After(toInclusive)
}

func (m *memStore) PurchasesInRange(ctx context.Context, itemID id.ID, fromExclusive *time.Time, toInclusive time.Time) ([]Movement, error) {
	var out []Movement
	for _, r := range m.purchases {
		if r.itemID == itemID && inRange(r.date, fromExclusive, toInclusive) {
			out = append(out, Movement{Date: r.date, Quantity: r.quantity, UnitPrice: r.unitPrice})
		}
	}
	return out, nil
}

func (m *memStore) SalesInRange(ctx context.Context, itemID id.ID, fromExclusive *time.Time, toInclusive time.Time) ([]Movement, error) {
	var out []Movement
	for _, r := range m.sales {
		if r.itemID == itemID && inRange(r.date, fromExclusive, toInclusive) {
			out = append(out, Movement{Date: r.date, Quantity: r.quantity, UnitPrice: r.unitPrice})
		}
	}
	return out, nil
}

func (m *memStore) LatestPurchaseAtOrBefore(ctx context.Context, itemID id.ID, asOf time.Time) (*Movement, error) {
	var best *ledgerRec
	for i := range m.purchases {
		r := &m.purchases[i]
		if r.itemID != itemID || r.date.After(asOf) {
			continue
		}
		if best == nil || r.date.After(best.date) {
			best = r
		}
	}
	if best == nil {
		return nil, nil
	}
	return &Movement{Date: best.date, Quantity: best.quantity, UnitPrice: best.unitPrice}, nil
}

func (m *memStore) latestCount(itemID id.ID, keep func(time.Time) bool) *Count {
	matching := make([]Count, 0)
	for _, c := range m.counts {
		if c.ItemID == itemID && keep(c.SessionDate) {
			matching = append(matching, c)
		}
	}
	if len(matching) == 0 {
		return nil
	}
	sort.Slice(matching, func(i, j int) bool {
		if !matching[i].SessionDate.Equal(matching[j].SessionDate) {
			return matching[i].SessionDate.After(matching[j].SessionDate)
		}
		return matching[i].EntryID.String() > matching[j].EntryID.String()
	})
	c := matching[0]
	return &c
}

func (m *memStore) LatestCountBefore(ctx context.Context, itemID id.ID, date time.Time) (*Count, error) {
	return m.latestCount(itemID, func(d time.Time) bool { return d.Before(date) }), nil
}

func (m *memStore) LatestCountAtOrBefore(ctx context.Context, itemID id.ID, date time.Time) (*Count, error) {
	return m.latestCount(itemID, func(d time.Time) bool { return !d.After(date) }), nil
}

func (m *memStore) CountsInRange(ctx context.Context, filter CountFilter) ([]Count, error) {
	var out []Count
	for _, c := range m.counts {
		if filter.ItemID != nil && c.ItemID != *filter.ItemID {
			continue
		}
		if c.SessionDate.Before(filter.From) || c.SessionDate.After(filter.To) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SessionDate.Equal(out[j].SessionDate) {
			return out[i].SessionDate.After(out[j].SessionDate)
		}
		return out[i].EntryID.String() > out[j].EntryID.String()
	})
	return out, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSystemQuantity_ZeroActivityItem(t *testing.T) {
	store := &memStore{}
	engine := NewEngine(store, store)
	ctx := context.Background()
	itemID := id.New()

	baseline, err := engine.ResolveBaseline(ctx, itemID, date(2025, time.June, 1), AtOrBefore)
	require.NoError(t, err)
	assert.Nil(t, baseline.CountDate)
	assert.True(t, baseline.Quantity.IsZero())

	system, err := engine.SystemQuantity(ctx, itemID, date(2025, time.June, 1), AtOrBefore)
	require.NoError(t, err)
	assert.True(t, system.IsZero())

	price, err := engine.LatestUnitPrice(ctx, itemID, date(2025, time.June, 1))
	require.NoError(t, err)
	assert.True(t, price.IsZero())
}

func TestSystemQuantity_LedgerOnly(t *testing.T) {
	store := &memStore{}
	engine := NewEngine(store, store)
	ctx := context.Background()
	itemID := id.New()

	store.addPurchase(itemID, date(2025, time.January, 10), "100", "5")
	store.addSale(itemID, date(2025, time.January, 15), "30", "8")

	system, err := engine.SystemQuantity(ctx, itemID, date(2025, time.January, 31), AtOrBefore)
	require.NoError(t, err)
	assert.Equal(t, "70", system.String())

	price, err := engine.LatestUnitPrice(ctx, itemID, date(2025, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, "5", price.String())
	assert.Equal(t, "350", system.Mul(price).String())
}

func TestVariance_CountAgainstLedger(t *testing.T) {
	store := &memStore{}
	engine := NewEngine(store, store)
	ctx := context.Background()
	itemID := id.New()

	store.addPurchase(itemID, date(2025, time.January, 10), "100", "5")
	store.addSale(itemID, date(2025, time.January, 15), "30", "8")
	count := store.addCount(itemID, date(2025, time.January, 20), "60")

	variance, err := engine.Variance(ctx, itemID, count)
	require.NoError(t, err)
	assert.Equal(t, "-10", variance.String(), "counted 60 vs system 70")

	// After the count, the count is the baseline.
	system, err := engine.SystemQuantity(ctx, itemID, date(2025, time.January, 20), AtOrBefore)
	require.NoError(t, err)
	assert.Equal(t, "60", system.String())

	store.addPurchase(itemID, date(2025, time.January, 25), "10", "5")
	system, err = engine.SystemQuantity(ctx, itemID, date(2025, time.January, 31), AtOrBefore)
	require.NoError(t, err)
	assert.Equal(t, "70", system.String(), "counted 60 + purchased 10")
}

func TestVariance_CountNeverBaselinesItself(t *testing.T) {
	store := &memStore{}
	engine := NewEngine(store, store)
	ctx := context.Background()
	itemID := id.New()

	store.addPurchase(itemID, date(2025, time.March, 1), "50", "2")
	count := store.addCount(itemID, date(2025, time.March, 10), "48")

	// With AtOrBefore the count is its own baseline and the variance
	// would degenerate to zero; Variance must anchor strictly before.
	variance, err := engine.Variance(ctx, itemID, count)
	require.NoError(t, err)
	assert.Equal(t, "-2", variance.String())
}

func TestVariance_RoundTrip(t *testing.T) {
	store := &memStore{}
	engine := NewEngine(store, store)
	ctx := context.Background()
	itemID := id.New()

	store.addPurchase(itemID, date(2025, time.February, 3), "25", "4")
	store.addSale(itemID, date(2025, time.February, 7), "5", "6")
	count := store.addCount(itemID, date(2025, time.February, 14), "17")

	system, err := engine.SystemQuantity(ctx, itemID, count.SessionDate, StrictBefore)
	require.NoError(t, err)
	variance, err := engine.Variance(ctx, itemID, count)
	require.NoError(t, err)

	// system + variance == counted, always.
	assert.True(t, system.Add(variance).Equal(count.Quantity))
}

func TestResolveBaseline_SameDateTieBreak(t *testing.T) {
	store := &memStore{}
	engine := NewEngine(store, store)
	ctx := context.Background()
	itemID := id.New()

	// Two counts on the same date: the later entry (higher
	// creation-ordered id) wins.
	store.addCount(itemID, date(2025, time.April, 1), "40")
	later := store.addCount(itemID, date(2025, time.April, 1), "42")

	baseline, err := engine.ResolveBaseline(ctx, itemID, date(2025, time.April, 15), AtOrBefore)
	require.NoError(t, err)
	require.NotNil(t, baseline.CountDate)
	assert.True(t, baseline.Quantity.Equal(later.Quantity))
}

func TestResolveBaseline_BoundaryPolicy(t *testing.T) {
	store := &memStore{}
	engine := NewEngine(store, store)
	ctx := context.Background()
	itemID := id.New()

	store.addCount(itemID, date(2025, time.May, 1), "30")
	store.addCount(itemID, date(2025, time.May, 10), "25")

	// AtOrBefore on the count date sees the count itself.
	b, err := engine.ResolveBaseline(ctx, itemID, date(2025, time.May, 10), AtOrBefore)
	require.NoError(t, err)
	assert.Equal(t, "25", b.Quantity.String())

	// StrictBefore on the count date falls back to the prior count.
	b, err = engine.ResolveBaseline(ctx, itemID, date(2025, time.May, 10), StrictBefore)
	require.NoError(t, err)
	assert.Equal(t, "30", b.Quantity.String())
}

func TestNetMovement_Boundaries(t *testing.T) {
	store := &memStore{}
	engine := NewEngine(store, store)
	ctx := context.Background()
	itemID := id.New()

	store.addPurchase(itemID, date(2025, time.June, 1), "10", "1")
	store.addPurchase(itemID, date(2025, time.June, 5), "20", "1")
	store.addSale(itemID, date(2025, time.June, 5), "3", "2")
	store.addSale(itemID, date(2025, time.June, 10), "7", "2")

	// Unbounded below, inclusive above.
	net, err := engine.NetMovement(ctx, itemID, nil, date(2025, time.June, 10))
	require.NoError(t, err)
	assert.Equal(t, "20", net.String())

	// Exclusive lower bound: June 1 purchase excluded, June 5 pair
	// (same date, both included) and June 10 sale counted.
	from := date(2025, time.June, 1)
	net, err = engine.NetMovement(ctx, itemID, &from, date(2025, time.June, 10))
	require.NoError(t, err)
	assert.Equal(t, "10", net.String())

	// Upper bound excludes later records.
	net, err = engine.NetMovement(ctx, itemID, nil, date(2025, time.June, 4))
	require.NoError(t, err)
	assert.Equal(t, "10", net.String())
}

func TestSystemQuantity_MovementOnCountDateExcluded(t *testing.T) {
	store := &memStore{}
	engine := NewEngine(store, store)
	ctx := context.Background()
	itemID := id.New()

	store.addPurchase(itemID, date(2025, time.July, 1), "100", "3")
	store.addCount(itemID, date(2025, time.July, 10), "90")
	// Same-day sale: the count is the end-of-day snapshot, so the sale
	// is already reflected in it.
	store.addSale(itemID, date(2025, time.July, 10), "5", "4")

	system, err := engine.SystemQuantity(ctx, itemID, date(2025, time.July, 31), AtOrBefore)
	require.NoError(t, err)
	assert.Equal(t, "90", system.String())
}

func TestReconcileItem_CountRebaselinesClosing(t *testing.T) {
	store := &memStore{}
	engine := NewEngine(store, store)
	ctx := context.Background()
	itemID := id.New()

	// Before the period: establishes the opening balance.
	store.addPurchase(itemID, date(2024, time.December, 20), "40", "5")

	store.addPurchase(itemID, date(2025, time.January, 10), "100", "5")
	store.addSale(itemID, date(2025, time.January, 15), "30", "8")
	store.addCount(itemID, date(2025, time.January, 20), "100")
	store.addPurchase(itemID, date(2025, time.January, 25), "10", "6")

	result, err := engine.ReconcileItem(ctx, itemID, date(2025, time.January, 1), date(2025, time.January, 31))
	require.NoError(t, err)

	assert.Equal(t, "40", result.Opening.String())
	assert.Equal(t, "110", result.Purchases.String())
	assert.Equal(t, "30", result.Sales.String())

	require.NotNil(t, result.Counted)
	assert.Equal(t, "100", result.Counted.String())
	require.NotNil(t, result.Variance)
	// System at count date: 40 opening + 100 − 30 = 110; counted 100.
	assert.Equal(t, "-10", result.Variance.String())

	// Closing: counted 100 + purchase 10 after the count.
	assert.Equal(t, "110", result.System.String())
	assert.Equal(t, "6", result.UnitPrice.String())
	assert.Equal(t, "660", result.Valuation.String())

	require.NotNil(t, result.LastMovement)
	assert.True(t, result.LastMovement.Equal(date(2025, time.January, 25)))
}

func TestReconcileItem_NoCountInPeriod(t *testing.T) {
	store := &memStore{}
	engine := NewEngine(store, store)
	ctx := context.Background()
	itemID := id.New()

	store.addPurchase(itemID, date(2025, time.January, 10), "100", "5")
	store.addSale(itemID, date(2025, time.January, 15), "30", "8")

	result, err := engine.ReconcileItem(ctx, itemID, date(2025, time.January, 1), date(2025, time.January, 31))
	require.NoError(t, err)

	assert.Nil(t, result.Counted)
	assert.Nil(t, result.Variance)
	assert.Equal(t, "70", result.System.String())
	assert.Equal(t, "350", result.Valuation.String())
}

func TestLatestUnitPrice_MostRecentPurchaseWins(t *testing.T) {
	store := &memStore{}
	engine := NewEngine(store, store)
	ctx := context.Background()
	itemID := id.New()

	store.addPurchase(itemID, date(2025, time.August, 1), "10", "5")
	store.addPurchase(itemID, date(2025, time.August, 15), "10", "5.50")

	price, err := engine.LatestUnitPrice(ctx, itemID, date(2025, time.August, 31))
	require.NoError(t, err)
	assert.Equal(t, "5.5", price.String())

	// As of an earlier date, the older price applies.
	price, err = engine.LatestUnitPrice(ctx, itemID, date(2025, time.August, 10))
	require.NoError(t, err)
	assert.Equal(t, "5", price.String())
}
