package inventory

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/pkg/keylock"
	"github.com/shopline/backend/repository"
)

// Ledger is the single writer for per-product stock. Every mutation of a
// product's quantity goes through the ledger, which serializes writers per
// product with a keyed mutex; operations on different products proceed
// concurrently. The repository's conditional updates back the locks up, so
// the quantity can never go negative even if a second process writes to the
// same store.
type Ledger struct {
	stocks repository.StockRepository
	locks  *keylock.KeyLock
	logger *zap.Logger
}

func NewLedger(stocks repository.StockRepository, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		stocks: stocks,
		locks:  keylock.New(),
		logger: logger,
	}
}

// GetQuantity returns the current on-hand quantity.
func (l *Ledger) GetQuantity(ctx context.Context, productID string) (int, error) {
	record, err := l.stocks.Get(ctx, productID)
	if err != nil {
		return 0, err
	}
	return record.Quantity, nil
}

// Get returns the full stock record.
func (l *Ledger) Get(ctx context.Context, productID string) (*domain.StockRecord, error) {
	return l.stocks.Get(ctx, productID)
}

// CanReserve reports whether qty units are on hand. A non-positive qty or a
// missing stock record yields false, not an error.
func (l *Ledger) CanReserve(ctx context.Context, productID string, qty int) (bool, error) {
	if qty <= 0 {
		return false, nil
	}
	record, err := l.stocks.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrStockNotFound) {
			return false, nil
		}
		return false, err
	}
	return record.Quantity >= qty, nil
}

// Reserve atomically takes qty units off hand for one product.
func (l *Ledger) Reserve(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	unlock := l.locks.Lock(productID)
	defer unlock()

	record, err := l.stocks.Get(ctx, productID)
	if err != nil {
		return err
	}
	if record.Quantity < qty {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: record.Quantity,
		}
	}
	return l.stocks.ApplyDelta(ctx, productID, -qty, domain.MovementReasonManual, "")
}

// Release puts qty units back on hand. There is no upper bound: restocking
// beyond the original quantity is legitimate (damaged-item corrections,
// returns).
func (l *Ledger) Release(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	unlock := l.locks.Lock(productID)
	defer unlock()
	return l.stocks.ApplyDelta(ctx, productID, qty, domain.MovementReasonManual, "")
}

// Adjust applies a signed manual correction. Negative deltas are bounded by
// the on-hand quantity.
func (l *Ledger) Adjust(ctx context.Context, productID string, delta int) (*domain.StockRecord, error) {
	if delta == 0 {
		return nil, domain.ErrInvalidQuantity
	}
	unlock := l.locks.Lock(productID)
	defer unlock()

	record, err := l.stocks.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if delta < 0 && record.Quantity+delta < 0 {
		return nil, &domain.InsufficientStockError{
			ProductID: productID,
			Requested: -delta,
			Available: record.Quantity,
		}
	}
	if err := l.stocks.ApplyDelta(ctx, productID, delta, domain.MovementReasonManual, ""); err != nil {
		return nil, err
	}
	return l.stocks.Get(ctx, productID)
}

// SetQuantity overwrites the on-hand quantity, for manual corrections and
// bulk imports.
func (l *Ledger) SetQuantity(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return domain.ErrNegativeQuantity
	}
	unlock := l.locks.Lock(productID)
	defer unlock()
	return l.stocks.SetQuantity(ctx, productID, qty)
}

// IsLowStock reports whether the product dropped below its threshold.
func (l *Ledger) IsLowStock(ctx context.Context, productID string) (bool, error) {
	record, err := l.stocks.Get(ctx, productID)
	if err != nil {
		return false, err
	}
	return record.IsLow(), nil
}

// IsOutOfStock reports whether the product is depleted.
func (l *Ledger) IsOutOfStock(ctx context.Context, productID string) (bool, error) {
	record, err := l.stocks.Get(ctx, productID)
	if err != nil {
		return false, err
	}
	return record.IsOut(), nil
}

// ListRecords exposes all stock records for read-side reporting.
func (l *Ledger) ListRecords(ctx context.Context) ([]domain.StockRecord, error) {
	return l.stocks.List(ctx)
}

// ReserveForOrder validates availability for a whole order and runs commit
// while holding the locks of every product involved. Locks are acquired in
// ascending product order so overlapping orders cannot deadlock. Quantities
// are aggregated per product first: an order with two lines for the same
// product needs the combined amount on hand.
//
// The availability pre-pass mutates nothing; the commit callback is expected
// to apply the decrements and the order insert as one storage transaction, so
// a failure at any point leaves stock and orders exactly as they were.
func (l *Ledger) ReserveForOrder(ctx context.Context, order *domain.Order, commit func() error) error {
	required := order.QuantityByProduct()

	unlock := l.locks.LockAll(order.ProductIDs())
	defer unlock()

	for _, productID := range sortedKeys(required) {
		qty := required[productID]
		record, err := l.stocks.Get(ctx, productID)
		if err != nil {
			return err
		}
		if record.Quantity < qty {
			l.logger.Info("order rejected on availability",
				zap.String("product_id", productID),
				zap.Int("requested", qty),
				zap.Int("available", record.Quantity))
			return &domain.InsufficientStockError{
				ProductID: productID,
				Requested: qty,
				Available: record.Quantity,
			}
		}
	}

	return commit()
}

// WithProductLocks runs fn while holding the locks for the given products,
// acquired in ascending order. The order lifecycle uses it to keep a
// cancellation's restock serialized against concurrent reservations.
func (l *Ledger) WithProductLocks(productIDs []string, fn func() error) error {
	unlock := l.locks.LockAll(productIDs)
	defer unlock()
	return fn()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
