package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/repository"
)

type customerDirectory struct {
	pool *pgxpool.Pool
}

// NewCustomerDirectory returns a read-only view over the customers table.
func NewCustomerDirectory(pool *pgxpool.Pool) repository.CustomerDirectory {
	return &customerDirectory{pool: pool}
}

func (r *customerDirectory) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	const query = `
	SELECT id, name, COALESCE(email, ''), active, created_at
	FROM customers
	WHERE id = $1
	`
	var customer domain.Customer
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Active,
		&customer.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}
