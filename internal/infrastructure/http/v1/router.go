// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stocktally/internal/domain/catalogs/stockitem"
	"stocktally/internal/domain/counting"
	"stocktally/internal/domain/ledger"
	"stocktally/internal/domain/recon"
	"stocktally/internal/domain/reports"
	"stocktally/internal/infrastructure/http/v1/handlers"
	"stocktally/internal/infrastructure/http/v1/middleware"
	"stocktally/internal/infrastructure/storage/postgres"
	"stocktally/pkg/logger"
	"stocktally/pkg/numerator"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// Version is reported by the info endpoint
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Infrastructure
	txManager := postgres.NewTxManager(cfg.Pool)
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		// zstd codec init cannot fail with default options
		panic(err)
	}
	numbers := numerator.New(cfg.Pool.Pool)

	// Repositories
	itemRepo := postgres.NewStockItemRepo(txManager)
	ledgerRepo := postgres.NewLedgerRepo(txManager)
	countRepo := postgres.NewCountRepo(txManager)

	// Domain services
	itemService := stockitem.NewService(itemRepo)
	ledgerService := ledger.NewService(ledgerRepo, itemRepo, txManager, numbers, auditService)
	countingService := counting.NewService(countRepo, itemRepo, txManager, auditService)
	engine := recon.NewEngine(ledgerRepo, countRepo)
	reportService := reports.NewService(engine, countRepo, itemRepo, countRepo, ledgerRepo)

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	base := handlers.NewBaseHandler()
	api := router.Group("/api/v1")
	{
		handlers.NewStockItemHandler(base, itemService).
			RegisterRoutes(api.Group("/items"))

		handlers.NewLedgerHandler(base, ledgerService).
			RegisterRoutes(api.Group("/documents"))

		handlers.NewCountingHandler(base, countingService).
			RegisterRoutes(api.Group("/count-sessions"))

		handlers.NewReportsHandler(base, reportService).
			RegisterRoutes(api.Group("/reports"))

		handlers.NewAuditHandler(base, auditService).
			RegisterRoutes(api.Group("/audit"))
	}

	return router
}
