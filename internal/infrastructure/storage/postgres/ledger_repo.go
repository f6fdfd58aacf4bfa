package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stocktally/internal/core/id"
	"stocktally/internal/core/types"
	"stocktally/internal/domain/ledger"
	"stocktally/internal/domain/recon"
	"stocktally/internal/domain/reports"
)

const (
	purchasesTable = "doc_purchases"
	salesTable     = "doc_sales"
)

var (
	purchaseColumns = []string{
		"id", "document_number", "transaction_date", "item_id",
		"supplier_name", "quantity", "unit_price", "created_at",
	}
	saleColumns = []string{
		"id", "document_number", "transaction_date", "item_id",
		"customer_name", "quantity", "unit_price", "created_at",
	}
)

// Compile-time interface checks.
var (
	_ ledger.Repository      = (*LedgerRepo)(nil)
	_ recon.LedgerStore      = (*LedgerRepo)(nil)
	_ reports.AggregateStore = (*LedgerRepo)(nil)
)

// LedgerRepo is the PostgreSQL store for both transaction ledgers. It
// serves the write workflows, the reconciliation engine's range reads
// and the dashboard aggregates.
type LedgerRepo struct {
	txManager *TxManager
	inserter  *BatchInserter
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		inserter:  NewBatchInserter(txManager),
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreatePurchases batch inserts purchase lines.
func (r *LedgerRepo) CreatePurchases(ctx context.Context, lines []*ledger.Purchase) error {
	if len(lines) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		rows := make([][]any, 0, len(lines))
		for _, l := range lines {
			rows = append(rows, []any{
				l.ID, l.Number, l.Date, l.ItemID,
				l.SupplierName, l.Quantity, l.UnitPrice, l.CreatedAt,
			})
		}
		if _, err := r.inserter.CopyFromSlice(ctx, purchasesTable, purchaseColumns, rows); err != nil {
			return fmt.Errorf("copy purchases: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(purchasesTable).Columns(purchaseColumns...)
	for _, l := range lines {
		q = q.Values(l.ID, l.Number, l.Date, l.ItemID, l.SupplierName, l.Quantity, l.UnitPrice, l.CreatedAt)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchases: %w", err)
	}
	return nil
}

// CreateSales batch inserts sale lines.
func (r *LedgerRepo) CreateSales(ctx context.Context, lines []*ledger.Sale) error {
	if len(lines) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		rows := make([][]any, 0, len(lines))
		for _, l := range lines {
			rows = append(rows, []any{
				l.ID, l.Number, l.Date, l.ItemID,
				l.CustomerName, l.Quantity, l.UnitPrice, l.CreatedAt,
			})
		}
		if _, err := r.inserter.CopyFromSlice(ctx, salesTable, saleColumns, rows); err != nil {
			return fmt.Errorf("copy sales: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(salesTable).Columns(saleColumns...)
	for _, l := range lines {
		q = q.Values(l.ID, l.Number, l.Date, l.ItemID, l.CustomerName, l.Quantity, l.UnitPrice, l.CreatedAt)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sales: %w", err)
	}
	return nil
}

// GetPurchasesByDocument retrieves all lines of one purchase document.
func (r *LedgerRepo) GetPurchasesByDocument(ctx context.Context, number string) ([]*ledger.Purchase, error) {
	q := r.builder.Select(purchaseColumns...).
		From(purchasesTable).
		Where(squirrel.Eq{"document_number": number}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []*ledger.Purchase
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select purchases: %w", err)
	}
	return lines, nil
}

// GetSalesByDocument retrieves all lines of one sale document.
func (r *LedgerRepo) GetSalesByDocument(ctx context.Context, number string) ([]*ledger.Sale, error) {
	q := r.builder.Select(saleColumns...).
		From(salesTable).
		Where(squirrel.Eq{"document_number": number}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []*ledger.Sale
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select sales: %w", err)
	}
	return lines, nil
}

// PurchaseDocumentExists reports whether a purchase document number is
// already taken.
func (r *LedgerRepo) PurchaseDocumentExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE document_number = $1)", purchasesTable),
		number,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check document number: %w", err)
	}
	return exists, nil
}

// --- recon.LedgerStore ---

func (r *LedgerRepo) movementsInRange(ctx context.Context, table string, itemID id.ID, fromExclusive *time.Time, toInclusive time.Time) ([]recon.Movement, error) {
	q := r.builder.Select(
		"transaction_date AS date", "quantity", "unit_price",
	).From(table).
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.LtOrEq{"transaction_date": toInclusive}).
		OrderBy("transaction_date", "created_at")

	if fromExclusive != nil {
		q = q.Where(squirrel.Gt{"transaction_date": *fromExclusive})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []recon.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return movements, nil
}

// PurchasesInRange implements recon.LedgerStore.
func (r *LedgerRepo) PurchasesInRange(ctx context.Context, itemID id.ID, fromExclusive *time.Time, toInclusive time.Time) ([]recon.Movement, error) {
	return r.movementsInRange(ctx, purchasesTable, itemID, fromExclusive, toInclusive)
}

// SalesInRange implements recon.LedgerStore.
func (r *LedgerRepo) SalesInRange(ctx context.Context, itemID id.ID, fromExclusive *time.Time, toInclusive time.Time) ([]recon.Movement, error) {
	return r.movementsInRange(ctx, salesTable, itemID, fromExclusive, toInclusive)
}

// LatestPurchaseAtOrBefore implements recon.LedgerStore.
func (r *LedgerRepo) LatestPurchaseAtOrBefore(ctx context.Context, itemID id.ID, asOf time.Time) (*recon.Movement, error) {
	q := r.builder.Select(
		"transaction_date AS date", "quantity", "unit_price",
	).From(purchasesTable).
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.LtOrEq{"transaction_date": asOf}).
		OrderBy("transaction_date DESC", "created_at DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movement recon.Movement
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &movement, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select latest purchase: %w", err)
	}
	return &movement, nil
}

// --- reports.AggregateStore ---

func (r *LedgerRepo) ledgerTotals(ctx context.Context, table string, from, to time.Time) (reports.MovementTotal, error) {
	sql := fmt.Sprintf(`
		SELECT COALESCE(SUM(quantity), 0)              AS quantity,
		       COALESCE(SUM(quantity * unit_price), 0) AS value
		FROM %s
		WHERE transaction_date >= $1 AND transaction_date <= $2
	`, table)

	total := reports.MovementTotal{Quantity: types.Zero, Value: types.Zero}
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, from, to).
		Scan(&total.Quantity, &total.Value)
	if err != nil {
		return reports.MovementTotal{}, fmt.Errorf("sum %s: %w", table, err)
	}
	return total, nil
}

// PurchaseTotals implements reports.AggregateStore.
func (r *LedgerRepo) PurchaseTotals(ctx context.Context, from, to time.Time) (reports.MovementTotal, error) {
	return r.ledgerTotals(ctx, purchasesTable, from, to)
}

// SaleTotals implements reports.AggregateStore.
func (r *LedgerRepo) SaleTotals(ctx context.Context, from, to time.Time) (reports.MovementTotal, error) {
	return r.ledgerTotals(ctx, salesTable, from, to)
}

func (r *LedgerRepo) topMovers(ctx context.Context, table string, from, to time.Time, limit int) ([]reports.TopItem, error) {
	sql := fmt.Sprintf(`
		SELECT i.code                                    AS code,
		       i.name                                    AS description,
		       COALESCE(SUM(t.quantity), 0)              AS quantity,
		       COALESCE(SUM(t.quantity * t.unit_price), 0) AS value
		FROM %s t
		JOIN %s i ON i.id = t.item_id
		WHERE t.transaction_date >= $1 AND t.transaction_date <= $2
		GROUP BY i.code, i.name
		ORDER BY SUM(t.quantity) DESC
		LIMIT $3
	`, table, stockItemsTable)

	var items []reports.TopItem
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, from, to, limit); err != nil {
		return nil, fmt.Errorf("top movers %s: %w", table, err)
	}
	return items, nil
}

// TopPurchases implements reports.AggregateStore.
func (r *LedgerRepo) TopPurchases(ctx context.Context, from, to time.Time, limit int) ([]reports.TopItem, error) {
	return r.topMovers(ctx, purchasesTable, from, to, limit)
}

// TopSales implements reports.AggregateStore.
func (r *LedgerRepo) TopSales(ctx context.Context, from, to time.Time, limit int) ([]reports.TopItem, error) {
	return r.topMovers(ctx, salesTable, from, to, limit)
}
