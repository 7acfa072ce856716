package postgres

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/repository"
)

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns a Postgres-backed implementation of OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) repository.OrderRepository {
	return &orderRepository{pool: pool}
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const query = `
	SELECT id, customer_id, status, shipping_address, payment_method,
	       total_amount::text, ordered_at, created_at, updated_at
	FROM orders
	WHERE id = $1
	`
	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	lines, err := r.loadLines(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	order.Lines = lines[id]
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	const query = `
	SELECT id, customer_id, status, shipping_address, payment_method,
	       total_amount::text, ordered_at, created_at, updated_at
	FROM orders
	WHERE ($1 = '' OR customer_id = $1)
	  AND ($2 = '' OR status = $2)
	ORDER BY ordered_at DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.CustomerID, filter.Status, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}

	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return orders, nil
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return domain.ErrInvalidPayload
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The header row goes in first: the movement rows written by the
	// decrements reference orders(id), and the FK is checked per statement.
	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (id, customer_id, status, shipping_address, payment_method, total_amount, ordered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		order.ID,
		order.CustomerID,
		string(order.Status),
		order.ShippingAddress,
		order.PaymentMethod,
		order.TotalAmount.String(),
		order.OrderedAt,
	).Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
		return err
	}

	// Decrement stock per product (aggregated across lines); the guarded
	// update turns a lost race into a clean rollback of the whole order.
	required := order.QuantityByProduct()
	for _, productID := range sortedProductIDs(required) {
		qty := required[productID]
		if err := applyDeltaTx(ctx, tx, productID, -qty, domain.MovementReasonOrder, order.ID); err != nil {
			if errors.Is(err, domain.ErrStockConflict) {
				available, readErr := readQuantity(ctx, tx, productID)
				if readErr == nil {
					return &domain.InsufficientStockError{
						ProductID: productID,
						Requested: qty,
						Available: available,
					}
				}
			}
			return err
		}
	}

	for i, line := range order.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_lines (order_id, line_no, product_id, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			order.ID, i+1, line.ProductID, line.Quantity,
			line.UnitPrice.String(), line.Subtotal.String(),
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) Cancel(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error {
	if order == nil || order.ID == "" {
		return domain.ErrInvalidPayload
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		order.ID, string(domain.OrderStatusCancelled), string(expected),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.ErrCodeConflict, "order status changed concurrently")
	}

	restock := order.QuantityByProduct()
	for _, productID := range sortedProductIDs(restock) {
		if err := applyDeltaTx(ctx, tx, productID, restock[productID], domain.MovementReasonCancel, order.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, next, expected domain.OrderStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		id, string(next), string(expected),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if exists, err := r.orderExists(ctx, id); err != nil {
			return err
		} else if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.NewError(domain.ErrCodeConflict, "order status changed concurrently")
	}
	return nil
}

func (r *orderRepository) UpdateShippingAddress(ctx context.Context, id, address string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET shipping_address = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)`,
		id, address, string(domain.OrderStatusPending), string(domain.OrderStatusProcessing),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if exists, err := r.orderExists(ctx, id); err != nil {
			return err
		} else if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrAddressLocked
	}
	return nil
}

func (r *orderRepository) orderExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}

func (r *orderRepository) loadLines(ctx context.Context, orderIDs []string) (map[string][]domain.OrderLine, error) {
	const query = `
	SELECT order_id, product_id, quantity, unit_price::text, subtotal::text
	FROM order_lines
	WHERE order_id = ANY($1)
	ORDER BY order_id, line_no
	`
	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make(map[string][]domain.OrderLine, len(orderIDs))
	for rows.Next() {
		var (
			orderID            string
			line               domain.OrderLine
			unitPrice, subTotal string
		)
		if err := rows.Scan(&orderID, &line.ProductID, &line.Quantity, &unitPrice, &subTotal); err != nil {
			return nil, err
		}
		if line.UnitPrice, err = parseNumeric(unitPrice); err != nil {
			return nil, err
		}
		if line.Subtotal, err = parseNumeric(subTotal); err != nil {
			return nil, err
		}
		lines[orderID] = append(lines[orderID], line)
	}
	return lines, rows.Err()
}

func scanOrder(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Order, error) {
	var (
		order  domain.Order
		status string
		total  string
	)
	if err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&status,
		&order.ShippingAddress,
		&order.PaymentMethod,
		&total,
		&order.OrderedAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	order.Status = domain.OrderStatus(status)
	var err error
	if order.TotalAmount, err = parseNumeric(total); err != nil {
		return nil, err
	}
	return &order, nil
}

func readQuantity(ctx context.Context, tx pgx.Tx, productID string) (int, error) {
	var qty int
	err := tx.QueryRow(ctx,
		`SELECT quantity FROM stock_records WHERE product_id = $1`, productID,
	).Scan(&qty)
	return qty, err
}

func sortedProductIDs(m map[string]int) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
