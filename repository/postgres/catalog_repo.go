package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/repository"
)

type catalogLookup struct {
	pool *pgxpool.Pool
}

// NewCatalogLookup returns a read-only view over the products table. The
// catalog rows themselves are managed outside this service.
func NewCatalogLookup(pool *pgxpool.Pool) repository.CatalogLookup {
	return &catalogLookup{pool: pool}
}

func (r *catalogLookup) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	const query = `
	SELECT id, name, active, unit_price::text, created_at, updated_at
	FROM products
	WHERE id = $1
	`
	var (
		product domain.Product
		price   string
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Active,
		&price,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}

	var err error
	if product.UnitPrice, err = parseNumeric(price); err != nil {
		return nil, err
	}
	return &product, nil
}
