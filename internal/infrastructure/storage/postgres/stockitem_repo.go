package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/domain/catalogs/stockitem"
)

const stockItemsTable = "cat_stock_items"

var stockItemColumns = []string{"id", "code", "name", "uom", "created_at"}

// Compile-time check that StockItemRepo implements stockitem.Repository.
var _ stockitem.Repository = (*StockItemRepo)(nil)

// StockItemRepo is the PostgreSQL stock item catalog.
type StockItemRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockItemRepo creates a new stock item repository.
func NewStockItemRepo(txManager *TxManager) *StockItemRepo {
	return &StockItemRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new stock item.
func (r *StockItemRepo) Create(ctx context.Context, item *stockitem.StockItem) error {
	q := r.builder.Insert(stockItemsTable).
		Columns(stockItemColumns...).
		Values(item.ID, item.Code, item.Name, item.UOM, item.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock item: %w", err)
	}
	return nil
}

// Get retrieves a stock item by ID.
func (r *StockItemRepo) Get(ctx context.Context, itemID id.ID) (*stockitem.StockItem, error) {
	q := r.builder.Select(stockItemColumns...).
		From(stockItemsTable).
		Where(squirrel.Eq{"id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item stockitem.StockItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("stock item", itemID)
		}
		return nil, fmt.Errorf("select stock item: %w", err)
	}
	return &item, nil
}

// FindByCode retrieves a stock item by its unique code.
func (r *StockItemRepo) FindByCode(ctx context.Context, code string) (*stockitem.StockItem, error) {
	q := r.builder.Select(stockItemColumns...).
		From(stockItemsTable).
		Where(squirrel.Eq{"code": code})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item stockitem.StockItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("stock item", code)
		}
		return nil, fmt.Errorf("select stock item: %w", err)
	}
	return &item, nil
}

// List retrieves stock items matching the filter, ordered by code.
func (r *StockItemRepo) List(ctx context.Context, filter stockitem.ListFilter) ([]*stockitem.StockItem, error) {
	q := r.builder.Select(stockItemColumns...).
		From(stockItemsTable).
		OrderBy("code")

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
		})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*stockitem.StockItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock items: %w", err)
	}
	return items, nil
}
