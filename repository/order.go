package repository

import (
	"context"

	"github.com/shopline/backend/domain"
)

type OrderFilter struct {
	CustomerID string
	Status     string
	Limit      int
	Offset     int
}

// OrderRepository persists order aggregates. Create and Cancel are units of
// work: the order rows and the stock mutations they imply commit or roll back
// together.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)

	// Create inserts the order with its lines and decrements stock for every
	// line in a single transaction. Any failure leaves stock and orders
	// untouched.
	Create(ctx context.Context, order *domain.Order) error

	// Cancel flips the order to cancelled and restocks every line in a single
	// transaction. expected guards against concurrent status changes.
	Cancel(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error

	// UpdateStatus applies a non-cancelling transition, guarded by the
	// expected current status.
	UpdateStatus(ctx context.Context, id string, next, expected domain.OrderStatus) error

	UpdateShippingAddress(ctx context.Context, id, address string) error
}
