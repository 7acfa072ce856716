package repository

import (
	"context"

	"github.com/shopline/backend/domain"
)

// StockRepository persists per-product stock records and their audit trail.
// Callers are expected to serialize mutations per product (the inventory
// ledger does); the conditional updates below are a second line of defense.
type StockRepository interface {
	Get(ctx context.Context, productID string) (*domain.StockRecord, error)
	List(ctx context.Context) ([]domain.StockRecord, error)

	// ApplyDelta adjusts quantity by delta and records a movement in the same
	// transaction. It fails with domain.ErrStockNotFound when no record exists
	// and domain.ErrStockConflict when the adjustment would drive the quantity
	// negative.
	ApplyDelta(ctx context.Context, productID string, delta int, reason, orderID string) error

	// SetQuantity overwrites the on-hand quantity and records a correction
	// movement for the difference.
	SetQuantity(ctx context.Context, productID string, quantity int) error
}
