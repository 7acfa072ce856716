package repository

import (
	"context"

	"github.com/shopline/backend/domain"
)

// CustomerDirectory is the read-only customer view used to validate order
// headers.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
}
