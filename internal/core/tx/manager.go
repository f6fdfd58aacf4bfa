// Package tx defines the transaction boundary used by domain services.
package tx

import (
	"context"
)

// Manager runs a function within a storage transaction.
// Implementations must roll back when fn returns an error.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
