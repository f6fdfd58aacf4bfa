package ledger

import (
	"context"
)

// Repository defines the interface for ledger persistence.
// Range and point queries used by the reconciliation engine are defined
// separately on recon.LedgerStore; the postgres repository implements both.
type Repository interface {
	// CreatePurchases batch inserts the lines of one purchase document.
	CreatePurchases(ctx context.Context, lines []*Purchase) error

	// CreateSales batch inserts the lines of one sale document.
	CreateSales(ctx context.Context, lines []*Sale) error

	// GetPurchasesByDocument retrieves all lines of a purchase document.
	// Returns an empty slice when the document does not exist.
	GetPurchasesByDocument(ctx context.Context, number string) ([]*Purchase, error)

	// GetSalesByDocument retrieves all lines of a sale document.
	GetSalesByDocument(ctx context.Context, number string) ([]*Sale, error)

	// PurchaseDocumentExists reports whether a purchase document number
	// is already in use.
	PurchaseDocumentExists(ctx context.Context, number string) (bool, error)
}
