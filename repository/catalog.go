package repository

import (
	"context"

	"github.com/shopline/backend/domain"
)

// CatalogLookup is the read-only view of the product catalog the ordering
// core validates lines against. Catalog management itself lives elsewhere.
type CatalogLookup interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}
