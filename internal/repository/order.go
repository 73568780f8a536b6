package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/order-management/internal/domain/order"
)

const orderColumns = `id, name, original_amount, final_amount, status, customer_id,
	coupon_code, created_at, updated_at`

const (
	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	upsertOrderSQL = `INSERT INTO orders
		(id, name, original_amount, final_amount, status, customer_id, coupon_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			original_amount = EXCLUDED.original_amount,
			final_amount = EXCLUDED.final_amount,
			status = EXCLUDED.status,
			customer_id = EXCLUDED.customer_id,
			coupon_code = EXCLUDED.coupon_code,
			updated_at = now()
		RETURNING ` + orderColumns

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at`

	listOrdersByCustomerSQL = `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at`

	listOrdersByStatusSQL = `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// GetByID looks up an order by its id.
// Returns order.ErrNotFound when no such order exists.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("finding order %q: %w", id, err)
	}
	return &o, nil
}

// Save upserts the order and returns the stored record.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, upsertOrderSQL,
		o.ID, o.Name, o.OriginalAmount, o.FinalAmount,
		string(o.Status), o.CustomerID, o.CouponCode,
	)
	if err != nil {
		return nil, fmt.Errorf("saving order %q: %w", o.ID, err)
	}

	saved, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("saving order %q: %w", o.ID, err)
	}
	return &saved, nil
}

// Delete removes the order with the given id.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// List returns all orders.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	return r.queryMany(ctx, listOrdersSQL)
}

// ListByCustomer returns all orders for the given customer.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	return r.queryMany(ctx, listOrdersByCustomerSQL, customerID)
}

// ListByStatus returns all orders in the given state.
func (r *OrderRepository) ListByStatus(ctx context.Context, status order.Status) ([]order.Order, error) {
	return r.queryMany(ctx, listOrdersByStatusSQL, string(status))
}

func (r *OrderRepository) queryMany(ctx context.Context, sql string, args ...any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.Name, &o.OriginalAmount, &o.FinalAmount,
		&status, &o.CustomerID, &o.CouponCode, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}
