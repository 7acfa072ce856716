package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/repository"
)

type stockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository returns a Postgres-backed implementation of StockRepository.
func NewStockRepository(pool *pgxpool.Pool) repository.StockRepository {
	return &stockRepository{pool: pool}
}

func (r *stockRepository) Get(ctx context.Context, productID string) (*domain.StockRecord, error) {
	const query = `
	SELECT product_id, quantity, min_threshold, updated_at
	FROM stock_records
	WHERE product_id = $1
	`
	var record domain.StockRecord
	if err := r.pool.QueryRow(ctx, query, productID).Scan(
		&record.ProductID,
		&record.Quantity,
		&record.MinThreshold,
		&record.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStockNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *stockRepository) List(ctx context.Context) ([]domain.StockRecord, error) {
	const query = `
	SELECT product_id, quantity, min_threshold, updated_at
	FROM stock_records
	ORDER BY product_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.StockRecord
	for rows.Next() {
		var record domain.StockRecord
		if err := rows.Scan(&record.ProductID, &record.Quantity, &record.MinThreshold, &record.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *stockRepository) ApplyDelta(ctx context.Context, productID string, delta int, reason, orderID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := applyDeltaTx(ctx, tx, productID, delta, reason, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *stockRepository) SetQuantity(ctx context.Context, productID string, quantity int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var current int
	err = tx.QueryRow(ctx,
		`SELECT quantity FROM stock_records WHERE product_id = $1 FOR UPDATE`,
		productID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrStockNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE stock_records SET quantity = $2, updated_at = NOW() WHERE product_id = $1`,
		productID, quantity,
	); err != nil {
		return err
	}

	if delta := quantity - current; delta != 0 {
		if err := insertMovement(ctx, tx, productID, delta, domain.MovementReasonCorrection, ""); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// applyDeltaTx runs the guarded quantity update plus its audit row inside an
// existing transaction. The WHERE clause keeps the quantity non-negative even
// if another process bypasses the in-process locks.
func applyDeltaTx(ctx context.Context, tx pgx.Tx, productID string, delta int, reason, orderID string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE stock_records
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE product_id = $1 AND quantity + $2 >= 0`,
		productID, delta,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM stock_records WHERE product_id = $1)`,
			productID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrStockNotFound
		}
		return domain.ErrStockConflict
	}
	return insertMovement(ctx, tx, productID, delta, reason, orderID)
}

func insertMovement(ctx context.Context, tx pgx.Tx, productID string, delta int, reason, orderID string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (id, product_id, delta, reason, order_id)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), productID, delta, reason, nullable(orderID),
	)
	return err
}
