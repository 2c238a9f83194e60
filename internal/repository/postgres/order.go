package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/commerce-insights/internal/domain"
)

// OrderRepo reads orders, order lines and channels, and stores ingested
// orders.
type OrderRepo struct {
	db *sql.DB
	ph Placeholder
}

// NewOrderRepo creates an order repository using ph for parameters.
func NewOrderRepo(db *sql.DB, ph Placeholder) *OrderRepo {
	return &OrderRepo{db: db, ph: ph}
}

// ListOrders returns orders placed in w, oldest first.
func (r *OrderRepo) ListOrders(ctx context.Context, w domain.TimeWindow) ([]domain.Order, error) {
	a := &args{ph: r.ph}
	query := fmt.Sprintf(`
		SELECT order_id, customer_id, COALESCE(channel_id,''), COALESCE(payment_method,''),
		       COALESCE(discount_amount,0), final_amount, ordered_at
		FROM orders
		WHERE ordered_at >= %s AND ordered_at < %s
		ORDER BY ordered_at`, a.add(w.Start), a.add(w.End))

	rows, err := r.db.QueryContext(ctx, query, a.vals...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.OrderID, &o.CustomerID, &o.ChannelID, &o.PaymentMethod,
			&o.DiscountAmount, &o.FinalAmount, &o.Timestamp); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListAllOrders returns every order, oldest first.
func (r *OrderRepo) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, customer_id, COALESCE(channel_id,''), COALESCE(payment_method,''),
		       COALESCE(discount_amount,0), final_amount, ordered_at
		FROM orders
		ORDER BY ordered_at`)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.OrderID, &o.CustomerID, &o.ChannelID, &o.PaymentMethod,
			&o.DiscountAmount, &o.FinalAmount, &o.Timestamp); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListOrderItems returns order lines of orders placed in w, joined with
// product and order amounts.
func (r *OrderRepo) ListOrderItems(ctx context.Context, w domain.TimeWindow) ([]domain.OrderItem, error) {
	a := &args{ph: r.ph}
	query := fmt.Sprintf(`
		SELECT oi.order_id, p.name, oi.quantity, p.price,
		       COALESCE(o.discount_amount,0), o.final_amount, o.ordered_at
		FROM order_items oi
		JOIN orders o ON o.order_id = oi.order_id
		JOIN products p ON p.product_id = oi.product_id
		WHERE o.ordered_at >= %s AND o.ordered_at < %s
		ORDER BY o.ordered_at, oi.order_id`, a.add(w.Start), a.add(w.End))

	rows, err := r.db.QueryContext(ctx, query, a.vals...)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var out []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductName, &it.Quantity, &it.Price,
			&it.DiscountAmount, &it.FinalAmount, &it.Timestamp); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListChannels returns all sales channels.
func (r *OrderRepo) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT channel_id, name FROM sales_channels ORDER BY channel_id`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []domain.Channel
	for rows.Next() {
		var c domain.Channel
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertOrder stores an order. Re-delivered orders are ignored; inserted
// reports whether a row was written.
func (r *OrderRepo) InsertOrder(ctx context.Context, o domain.Order) (inserted bool, err error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO orders
			(order_id, customer_id, channel_id, payment_method, discount_amount, final_amount, ordered_at)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), $5, $6, $7)
		ON CONFLICT (order_id) DO NOTHING
	`, o.OrderID, o.CustomerID, o.ChannelID, o.PaymentMethod, o.DiscountAmount, o.FinalAmount, o.Timestamp)
	if err != nil {
		return false, fmt.Errorf("insert order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert order: %w", err)
	}
	return n > 0, nil
}
