package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/repository"
	"github.com/shopline/backend/usecase/inventory"
)

// LineItem is one requested order line.
type LineItem struct {
	ProductID string
	Quantity  int
}

// PlaceOrderInput carries everything needed to place an order. RequestID is
// optional; when set and an idempotency store is configured, replays of the
// same ID are rejected.
type PlaceOrderInput struct {
	CustomerID      string
	Lines           []LineItem
	ShippingAddress string
	PaymentMethod   string
	RequestID       string
}

// UseCase turns a list of requested lines into a persisted, stock-consistent
// order, or fails with nothing changed.
type UseCase struct {
	catalog     repository.CatalogLookup
	customers   repository.CustomerDirectory
	orders      repository.OrderRepository
	ledger      *inventory.Ledger
	idempotency repository.IdempotencyStore
	logger      *zap.Logger
	now         func() time.Time
}

func New(
	catalog repository.CatalogLookup,
	customers repository.CustomerDirectory,
	orders repository.OrderRepository,
	ledger *inventory.Ledger,
	idempotency repository.IdempotencyStore,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		catalog:     catalog,
		customers:   customers,
		orders:      orders,
		ledger:      ledger,
		idempotency: idempotency,
		logger:      logger,
		now:         time.Now,
	}
}

// PlaceOrder validates the request, snapshots prices, and persists the order
// together with its stock decrements as one unit. Every failure path returns
// before any state changes: validation errors short-circuit, and the commit
// itself is a single storage transaction guarded by the ledger's product
// locks.
func (uc *UseCase) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error) {
	if len(input.Lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
	}

	claimed, err := uc.claimRequest(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}

	order, err := uc.buildOrder(ctx, input)
	if err != nil {
		uc.releaseRequest(ctx, claimed, input.RequestID)
		return nil, err
	}

	err = uc.ledger.ReserveForOrder(ctx, order, func() error {
		if err := uc.orders.Create(ctx, order); err != nil {
			return classifyStorageErr(err)
		}
		return nil
	})
	if err != nil {
		uc.releaseRequest(ctx, claimed, input.RequestID)
		return nil, err
	}

	uc.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.CustomerID),
		zap.Int("lines", len(order.Lines)),
		zap.String("total", order.TotalAmount.String()))
	return order, nil
}

// buildOrder validates the customer and every line against the external
// collaborators and assembles the aggregate with price snapshots. It mutates
// nothing.
func (uc *UseCase) buildOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error) {
	customer, err := uc.customers.GetCustomer(ctx, input.CustomerID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrInvalidCustomer
		}
		return nil, err
	}
	if !customer.Active {
		return nil, domain.ErrInvalidCustomer
	}

	now := uc.now()
	order := &domain.Order{
		ID:              uuid.NewString(),
		CustomerID:      input.CustomerID,
		Status:          domain.OrderStatusPending,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		OrderedAt:       now,
		Lines:           make([]domain.OrderLine, 0, len(input.Lines)),
	}

	for _, line := range input.Lines {
		product, err := uc.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				return nil, &domain.ProductUnavailableError{ProductID: line.ProductID}
			}
			return nil, err
		}
		if !product.Orderable() {
			return nil, &domain.ProductUnavailableError{ProductID: line.ProductID}
		}

		subtotal := product.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: product.UnitPrice,
			Subtotal:  subtotal,
		})
	}

	order.TotalAmount = order.ComputeTotal()
	return order, nil
}

func (uc *UseCase) claimRequest(ctx context.Context, requestID string) (bool, error) {
	if uc.idempotency == nil || requestID == "" {
		return false, nil
	}
	ok, err := uc.idempotency.Claim(ctx, requestID)
	if err != nil {
		return false, domain.WrapError(domain.ErrCodeInternal, "idempotency check failed", err)
	}
	if !ok {
		return false, domain.ErrDuplicateRequest
	}
	return true, nil
}

// releaseRequest frees the idempotency key after a failed placement so the
// client can retry with the same request ID.
func (uc *UseCase) releaseRequest(ctx context.Context, claimed bool, requestID string) {
	if !claimed {
		return
	}
	if err := uc.idempotency.Release(ctx, requestID); err != nil {
		uc.logger.Warn("failed to release idempotency key",
			zap.String("request_id", requestID), zap.Error(err))
	}
}

// classifyStorageErr keeps typed domain errors intact and folds everything
// else into a persistence failure.
func classifyStorageErr(err error) error {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return err
	}
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return err
	}
	return domain.WrapError(domain.ErrCodeInternal, "order persistence failed", err)
}
