package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oribuyin/backend/internal/domain"
)

const orderColumns = `id, user_id, order_date, status, total_amount, shipping_address,
	payment_method, payment_status, created_at, updated_at`

// OrderWithItems is an order joined with its line items and, for each line,
// the referenced product (nil when the product row no longer exists).
type OrderWithItems struct {
	Order domain.Order
	Items []ItemWithProduct
}

// ItemWithProduct pairs a line item with a catalog snapshot for display.
type ItemWithProduct struct {
	Item    domain.OrderItem
	Product *domain.Product
}

// InsertOrder writes the order row inside the caller's transaction.
func (s *Store) InsertOrder(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
	const q = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := tx.ExecContext(ctx, q,
		o.ID, o.UserID, formatTime(o.OrderDate), string(o.Status),
		o.TotalAmount.String(), o.ShippingAddress,
		string(o.PaymentMethod), string(o.PaymentStatus),
		formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("%w: insert order: %v", domain.ErrPersistence, err)
	}
	return nil
}

// InsertOrderItems bulk-inserts the line items inside the caller's transaction.
func (s *Store) InsertOrderItems(ctx context.Context, tx *sql.Tx, items []domain.OrderItem) error {
	const q = `
		INSERT INTO order_items (id, order_id, product_id, quantity, price_at_order_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	for _, it := range items {
		_, err := tx.ExecContext(ctx, q,
			it.ID, it.OrderID, it.ProductID, it.Quantity,
			it.PriceAtOrderTime.String(),
			formatTime(it.CreatedAt), formatTime(it.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("%w: insert order item for product %q: %v", domain.ErrPersistence, it.ProductID, err)
		}
	}
	return nil
}

// OrderByID loads a single order outside any transaction.
func (s *Store) OrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return orderByID(ctx, s.db, id)
}

// OrderByIDTx is the in-transaction variant used by the state machine.
func (s *Store) OrderByIDTx(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error) {
	return orderByID(ctx, tx, id)
}

func orderByID(ctx context.Context, q querier, id string) (*domain.Order, error) {
	row := q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %q", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load order %q: %v", domain.ErrPersistence, id, err)
	}
	return o, nil
}

// ItemsByOrderID returns the line items of one order, inside the caller's
// transaction.
func (s *Store) ItemsByOrderID(ctx context.Context, tx *sql.Tx, orderID string) ([]domain.OrderItem, error) {
	const q = `
		SELECT id, order_id, product_id, quantity, price_at_order_time, created_at, updated_at
		FROM   order_items
		WHERE  order_id = ?`

	rows, err := tx.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: load items of order %q: %v", domain.ErrPersistence, orderID, err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan order item: %v", domain.ErrPersistence, err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load items of order %q: %v", domain.ErrPersistence, orderID, err)
	}
	return items, nil
}

// UpdateOrderStatus persists a status change inside the caller's transaction.
// paymentStatus is applied only when non-empty (the delivered transition sets
// it to paid; every other transition leaves it alone). now becomes the row's
// updated_at, so callers can return an order that matches what was written.
func (s *Store) UpdateOrderStatus(ctx context.Context, tx *sql.Tx, orderID string, status domain.OrderStatus, paymentStatus domain.PaymentStatus, now time.Time) error {
	var err error
	if paymentStatus != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = ?, payment_status = ?, updated_at = ? WHERE id = ?`,
			string(status), string(paymentStatus), formatTime(now), orderID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), formatTime(now), orderID)
	}
	if err != nil {
		return fmt.Errorf("%w: update status of order %q: %v", domain.ErrPersistence, orderID, err)
	}
	return nil
}

// AppendStatusChange appends one audit row. The table is append-only: each
// row is an immutable event in the order's lifecycle.
func (s *Store) AppendStatusChange(ctx context.Context, tx *sql.Tx, change *domain.StatusChange) error {
	const q = `
		INSERT INTO order_status_history (id, order_id, from_status, to_status, trace_id, changed_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := tx.ExecContext(ctx, q,
		change.ID, change.OrderID,
		string(change.FromStatus), string(change.ToStatus),
		change.TraceID, formatTime(change.ChangedAt),
	)
	if err != nil {
		return fmt.Errorf("%w: append status history for order %q: %v", domain.ErrPersistence, change.OrderID, err)
	}
	return nil
}

// StatusHistory returns the audit trail of one order, oldest first.
func (s *Store) StatusHistory(ctx context.Context, orderID string) ([]domain.StatusChange, error) {
	const q = `
		SELECT id, order_id, from_status, to_status, trace_id, changed_at
		FROM   order_status_history
		WHERE  order_id = ?
		ORDER  BY changed_at, id`

	rows, err := s.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: load status history of order %q: %v", domain.ErrPersistence, orderID, err)
	}
	defer rows.Close()

	var history []domain.StatusChange
	for rows.Next() {
		var (
			c         domain.StatusChange
			from, to  string
			changedAt string
		)
		if err := rows.Scan(&c.ID, &c.OrderID, &from, &to, &c.TraceID, &changedAt); err != nil {
			return nil, fmt.Errorf("%w: scan status history: %v", domain.ErrPersistence, err)
		}
		c.FromStatus = domain.OrderStatus(from)
		c.ToStatus = domain.OrderStatus(to)
		if c.ChangedAt, err = parseTime(changedAt); err != nil {
			return nil, err
		}
		history = append(history, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load status history of order %q: %v", domain.ErrPersistence, orderID, err)
	}
	return history, nil
}

// OrdersByUser returns a user's orders, newest first, each with its items and
// product snapshots.
func (s *Store) OrdersByUser(ctx context.Context, userID string) ([]OrderWithItems, error) {
	return s.queryOrdersWithItems(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// AllOrders returns every order, newest first, with items.
func (s *Store) AllOrders(ctx context.Context) ([]OrderWithItems, error) {
	return s.queryOrdersWithItems(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// RecentOrders returns the latest limit orders with items.
func (s *Store) RecentOrders(ctx context.Context, limit int) ([]OrderWithItems, error) {
	return s.queryOrdersWithItems(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT ?`, limit)
}

// OrdersByTimeRange returns orders created within [from, to], newest first.
func (s *Store) OrdersByTimeRange(ctx context.Context, from, to time.Time) ([]OrderWithItems, error) {
	return s.queryOrdersWithItems(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE created_at >= ? AND created_at <= ? ORDER BY created_at DESC`,
		formatTime(from), formatTime(to))
}

// RevenueBetween sums total_amount over orders created within [from, to).
// The sum runs over exact decimals in Go; SQLite would coerce the TEXT
// amounts to floats.
func (s *Store) RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	const q = `SELECT total_amount FROM orders WHERE created_at >= ? AND created_at < ?`

	rows, err := s.db.QueryContext(ctx, q, formatTime(from), formatTime(to))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: query revenue: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("%w: scan revenue: %v", domain.ErrPersistence, err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: parse amount %q: %v", domain.ErrPersistence, amount, err)
		}
		total = total.Add(d)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("%w: query revenue: %v", domain.ErrPersistence, err)
	}
	return total, nil
}

// queryOrdersWithItems assembles orders, their items, and product snapshots
// in three queries joined in memory, mirroring how the listing is consumed.
func (s *Store) queryOrdersWithItems(ctx context.Context, query string, args ...any) ([]OrderWithItems, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query orders: %v", domain.ErrPersistence, err)
	}

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan order: %v", domain.ErrPersistence, err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("%w: query orders: %v", domain.ErrPersistence, err)
	}
	rows.Close()

	if len(orders) == 0 {
		return nil, nil
	}

	orderIDs := make([]string, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
	}

	itemRows, err := s.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, price_at_order_time, created_at, updated_at
		 FROM order_items WHERE order_id IN (`+placeholders(len(orderIDs))+`)`,
		stringArgs(orderIDs)...)
	if err != nil {
		return nil, fmt.Errorf("%w: query order items: %v", domain.ErrPersistence, err)
	}
	defer itemRows.Close()

	itemsByOrder := make(map[string][]domain.OrderItem)
	productIDSet := make(map[string]struct{})
	for itemRows.Next() {
		it, err := scanOrderItem(itemRows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan order item: %v", domain.ErrPersistence, err)
		}
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], *it)
		productIDSet[it.ProductID] = struct{}{}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query order items: %v", domain.ErrPersistence, err)
	}

	productIDs := make([]string, 0, len(productIDSet))
	for id := range productIDSet {
		productIDs = append(productIDs, id)
	}

	products := make(map[string]domain.Product, len(productIDs))
	if len(productIDs) > 0 {
		productRows, err := s.db.QueryContext(ctx,
			`SELECT `+productColumns+` FROM products WHERE id IN (`+placeholders(len(productIDs))+`)`,
			stringArgs(productIDs)...)
		if err != nil {
			return nil, fmt.Errorf("%w: query products: %v", domain.ErrPersistence, err)
		}
		defer productRows.Close()

		for productRows.Next() {
			p, err := scanProduct(productRows)
			if err != nil {
				return nil, fmt.Errorf("%w: scan product: %v", domain.ErrPersistence, err)
			}
			products[p.ID] = *p
		}
		if err := productRows.Err(); err != nil {
			return nil, fmt.Errorf("%w: query products: %v", domain.ErrPersistence, err)
		}
	}

	result := make([]OrderWithItems, len(orders))
	for i, o := range orders {
		owi := OrderWithItems{Order: o}
		for _, it := range itemsByOrder[o.ID] {
			iwp := ItemWithProduct{Item: it}
			if p, ok := products[it.ProductID]; ok {
				cp := p
				iwp.Product = &cp
			}
			owi.Items = append(owi.Items, iwp)
		}
		result[i] = owi
	}
	return result, nil
}

func scanOrder(row scanner) (*domain.Order, error) {
	var (
		o                        domain.Order
		orderDate, status, total string
		method, payStatus        string
		createdAt, updatedAt     string
	)
	err := row.Scan(&o.ID, &o.UserID, &orderDate, &status, &total,
		&o.ShippingAddress, &method, &payStatus, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	o.Status = domain.OrderStatus(status)
	o.PaymentMethod = domain.PaymentMethod(method)
	o.PaymentStatus = domain.PaymentStatus(payStatus)
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total %q: %w", total, err)
	}
	if o.OrderDate, err = parseTime(orderDate); err != nil {
		return nil, err
	}
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOrderItem(row scanner) (*domain.OrderItem, error) {
	var (
		it                   domain.OrderItem
		price                string
		createdAt, updatedAt string
	)
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &price, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if it.PriceAtOrderTime, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	if it.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if it.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}
