package orders

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/pkg/keylock"
	"github.com/shopline/backend/repository"
	"github.com/shopline/backend/usecase/inventory"
)

// UseCase governs order status transitions after placement. A per-order lock
// serializes transitions on the same order; cancellation additionally takes
// the product locks through the ledger so its restock cannot interleave with
// a concurrent reservation.
type UseCase struct {
	orders repository.OrderRepository
	ledger *inventory.Ledger
	locks  *keylock.KeyLock
	logger *zap.Logger
}

func New(orders repository.OrderRepository, ledger *inventory.Ledger, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		orders: orders,
		ledger: ledger,
		locks:  keylock.New(),
		logger: logger,
	}
}

func (uc *UseCase) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return uc.orders.GetByID(ctx, id)
}

func (uc *UseCase) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	return uc.orders.List(ctx, filter)
}

// AdvanceStatus moves the order to next if the state machine allows it.
// Advancing to cancelled is routed through Cancel so the restock always
// happens.
func (uc *UseCase) AdvanceStatus(ctx context.Context, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	if !next.IsValid() {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "unknown order status", errors.New(string(next)))
	}
	if next == domain.OrderStatusCancelled {
		return uc.Cancel(ctx, orderID)
	}

	unlock := uc.locks.Lock(orderID)
	defer unlock()

	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, &domain.InvalidTransitionError{From: order.Status, To: next}
	}

	if err := uc.orders.UpdateStatus(ctx, orderID, next, order.Status); err != nil {
		return nil, err
	}

	uc.logger.Info("order status advanced",
		zap.String("order_id", orderID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(next)))
	order.Status = next
	return order, nil
}

// Cancel transitions a pending or processing order to cancelled and restocks
// every line. The status flip and the releases commit as one transaction;
// a partial restock would leave inventory permanently wrong.
func (uc *UseCase) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	unlock := uc.locks.Lock(orderID)
	defer unlock()

	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Cancellable() {
		return nil, &domain.InvalidTransitionError{From: order.Status, To: domain.OrderStatusCancelled}
	}

	expected := order.Status
	err = uc.ledger.WithProductLocks(order.ProductIDs(), func() error {
		return uc.orders.Cancel(ctx, order, expected)
	})
	if err != nil {
		return nil, classifyStorageErr(err)
	}

	uc.logger.Info("order cancelled and restocked",
		zap.String("order_id", orderID),
		zap.Int("lines", len(order.Lines)))
	order.Status = domain.OrderStatusCancelled
	return order, nil
}

// UpdateShippingAddress is allowed only while the order has not shipped.
func (uc *UseCase) UpdateShippingAddress(ctx context.Context, orderID, address string) (*domain.Order, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, domain.ErrInvalidPayload
	}

	unlock := uc.locks.Lock(orderID)
	defer unlock()

	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusProcessing {
		return nil, domain.ErrAddressLocked
	}

	if err := uc.orders.UpdateShippingAddress(ctx, orderID, address); err != nil {
		return nil, err
	}
	order.ShippingAddress = address
	return order, nil
}

func classifyStorageErr(err error) error {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return err
	}
	return domain.WrapError(domain.ErrCodeInternal, "order update failed", err)
}
