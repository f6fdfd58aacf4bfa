// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/domain/catalogs/stockitem"
	"stocktally/internal/domain/counting"
	"stocktally/internal/domain/ledger"
	"stocktally/internal/infrastructure/storage/postgres"
	"stocktally/pkg/logger"
	"stocktally/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	itemRepo := postgres.NewStockItemRepo(txManager)
	ledgerRepo := postgres.NewLedgerRepo(txManager)
	countRepo := postgres.NewCountRepo(txManager)

	itemService := stockitem.NewService(itemRepo)
	ledgerService := ledger.NewService(ledgerRepo, itemRepo, txManager, numerator.New(pool.Pool), auditService)
	countingService := counting.NewService(countRepo, itemRepo, txManager, auditService)

	items, err := seedStockItems(ctx, itemService, log)
	if err != nil {
		log.Fatalw("failed to seed stock items", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDocuments(ctx, ledgerService, items, log); err != nil {
			log.Fatalw("failed to seed documents", "error", err)
		}
		if err := seedCountSession(ctx, countingService, items, log); err != nil {
			log.Fatalw("failed to seed count session", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedStockItems(ctx context.Context, svc *stockitem.Service, log *logger.Logger) (map[string]id.ID, error) {
	seeds := []struct {
		code        string
		description string
		uom         string
	}{
		{"ITM-00001", "Copy paper A4 80gsm", "pack"},
		{"ITM-00002", "Ballpoint pen blue", "pcs"},
		{"ITM-00003", "Desktop stapler", "pcs"},
		{"ITM-00004", "Paper clips 28mm (box of 100)", "box"},
		{"ITM-00005", "Lever arch file", "pcs"},
		{"ITM-00006", "Whiteboard marker black", "pcs"},
	}

	ids := make(map[string]id.ID, len(seeds))
	for _, s := range seeds {
		existing, err := svc.FindByCode(ctx, s.code)
		if err == nil && existing != nil {
			ids[s.code] = existing.ID
			continue
		}
		if err != nil && !apperror.IsNotFound(err) {
			return nil, fmt.Errorf("check item %s: %w", s.code, err)
		}

		item := stockitem.NewStockItem(s.code, s.description, s.uom)
		if err := svc.Create(ctx, item); err != nil {
			return nil, fmt.Errorf("create item %s: %w", s.code, err)
		}
		ids[s.code] = item.ID
		log.Infow("stock item seeded", "code", s.code, "item_id", item.ID)
	}

	return ids, nil
}

func seedDocuments(ctx context.Context, svc *ledger.Service, items map[string]id.ID, log *logger.Logger) error {
	qty := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	purchases := []ledger.PurchaseDocumentInput{
		{
			Number:       "PI-2024-001",
			Date:         monthStart,
			SupplierName: "Office Supplies Ltd",
			Lines: []ledger.LineInput{
				{ItemID: items["ITM-00001"], Quantity: qty("100"), UnitPrice: qty("4.50")},
				{ItemID: items["ITM-00002"], Quantity: qty("500"), UnitPrice: qty("0.35")},
				{ItemID: items["ITM-00003"], Quantity: qty("20"), UnitPrice: qty("12.00")},
			},
		},
		{
			Number:       "PI-2024-002",
			Date:         monthStart.AddDate(0, 0, 5),
			SupplierName: "Stationery World",
			Lines: []ledger.LineInput{
				{ItemID: items["ITM-00004"], Quantity: qty("50"), UnitPrice: qty("1.20")},
				{ItemID: items["ITM-00005"], Quantity: qty("40"), UnitPrice: qty("3.75")},
				{ItemID: items["ITM-00006"], Quantity: qty("60"), UnitPrice: qty("1.10")},
			},
		},
	}

	for _, p := range purchases {
		totals, err := svc.CreatePurchaseDocument(ctx, p)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeDuplicate {
				log.Infow("purchase document already exists", "number", p.Number)
				continue
			}
			return fmt.Errorf("seed purchase %s: %w", p.Number, err)
		}
		log.Infow("purchase document seeded", "number", totals.Number, "total_value", totals.TotalValue)
	}

	sales := []ledger.SaleDocumentInput{
		{
			Date:         monthStart.AddDate(0, 0, 8),
			CustomerName: "Acme Corp",
			Lines: []ledger.LineInput{
				{ItemID: items["ITM-00001"], Quantity: qty("30"), UnitPrice: qty("6.00")},
				{ItemID: items["ITM-00002"], Quantity: qty("120"), UnitPrice: qty("0.50")},
			},
		},
		{
			Date:         monthStart.AddDate(0, 0, 12),
			CustomerName: "Globex Trading",
			Lines: []ledger.LineInput{
				{ItemID: items["ITM-00005"], Quantity: qty("10"), UnitPrice: qty("5.25")},
				{ItemID: items["ITM-00006"], Quantity: qty("15"), UnitPrice: qty("1.80")},
			},
		},
	}

	for _, s := range sales {
		totals, err := svc.CreateSaleDocument(ctx, s)
		if err != nil {
			return fmt.Errorf("seed sale for %s: %w", s.CustomerName, err)
		}
		log.Infow("sale document seeded", "number", totals.Number, "total_value", totals.TotalValue)
	}

	return nil
}

func seedCountSession(ctx context.Context, svc *counting.Service, items map[string]id.ID, log *logger.Logger) error {
	qty := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	now := time.Now().UTC()

	session, entries, err := svc.CreateSession(ctx, counting.SessionInput{
		Date:  time.Date(now.Year(), now.Month(), 15, 0, 0, 0, 0, time.UTC),
		Notes: "Mid-month stock take (seeded)",
		Entries: []counting.EntryInput{
			{ItemID: items["ITM-00001"], Quantity: qty("68")},
			{ItemID: items["ITM-00002"], Quantity: qty("375")},
			{ItemID: items["ITM-00003"], Quantity: qty("20")},
			{ItemID: items["ITM-00004"]}, // not counted
			{ItemID: items["ITM-00005"], Quantity: qty("29")},
			{ItemID: items["ITM-00006"], Quantity: qty("44")},
		},
	})
	if err != nil {
		return fmt.Errorf("seed count session: %w", err)
	}

	log.Infow("count session seeded",
		"session_id", session.ID,
		"session_date", session.Date.Format("2006-01-02"),
		"entries", len(entries),
	)
	return nil
}
