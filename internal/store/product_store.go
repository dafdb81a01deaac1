package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oribuyin/backend/internal/domain"
)

const productColumns = `id, name, description, price, discount, stock_quantity, image, created_at, updated_at`

// InsertProduct adds a catalog row. Used by seeding and stock administration;
// the order engine itself never creates products.
func (s *Store) InsertProduct(ctx context.Context, p *domain.Product) error {
	const q = `
		INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		p.ID, p.Name, p.Description,
		p.Price.String(), p.Discount.String(), p.StockQuantity, p.Image,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("%w: insert product %q: %v", domain.ErrPersistence, p.ID, err)
	}
	return nil
}

// ProductByID loads a single product, outside any transaction.
func (s *Store) ProductByID(ctx context.Context, id string) (*domain.Product, error) {
	return productByID(ctx, s.db, id)
}

// ProductByIDTx is the in-transaction variant used by the status state
// machine when re-checking stock at confirmation time.
func (s *Store) ProductByIDTx(ctx context.Context, tx *sql.Tx, id string) (*domain.Product, error) {
	return productByID(ctx, tx, id)
}

func productByID(ctx context.Context, q querier, id string) (*domain.Product, error) {
	row := q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: product %q", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load product %q: %v", domain.ErrPersistence, id, err)
	}
	return p, nil
}

// ProductsByIDs loads every product whose ID is in ids, keyed by ID. Missing
// IDs are simply absent from the map; the aggregate builder compares counts
// to detect unknown products.
func (s *Store) ProductsByIDs(ctx context.Context, tx *sql.Tx, ids []string) (map[string]domain.Product, error) {
	if len(ids) == 0 {
		return map[string]domain.Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id IN (` + placeholders(len(ids)) + `)`
	rows, err := tx.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("%w: load products: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	products := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan product: %v", domain.ErrPersistence, err)
		}
		products[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load products: %v", domain.ErrPersistence, err)
	}
	return products, nil
}

// DecrementStock atomically subtracts quantity from a product's stock inside
// the caller's transaction. The decrement and its floor check are a single
// guarded UPDATE, so two concurrent confirmations can never both take the
// last unit past zero.
func (s *Store) DecrementStock(ctx context.Context, tx *sql.Tx, productID string, quantity int) error {
	const q = `
		UPDATE products
		SET    stock_quantity = stock_quantity - ?, updated_at = ?
		WHERE  id = ? AND stock_quantity >= ?`

	res, err := tx.ExecContext(ctx, q, quantity, formatTime(time.Now()), productID, quantity)
	if err != nil {
		return fmt.Errorf("%w: decrement stock of %q: %v", domain.ErrPersistence, productID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: decrement stock of %q: %v", domain.ErrPersistence, productID, err)
	}
	if affected == 1 {
		return nil
	}

	// The guard refused: either the product is gone or stock is short.
	p, err := productByID(ctx, tx, productID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w for product %s", domain.ErrInsufficientStock, p.Name)
}

// SetStock overwrites a product's stock level (stock administration).
func (s *Store) SetStock(ctx context.Context, productID string, quantity int) (*domain.Product, error) {
	const q = `UPDATE products SET stock_quantity = ?, updated_at = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, q, quantity, formatTime(time.Now()), productID)
	if err != nil {
		return nil, fmt.Errorf("%w: set stock of %q: %v", domain.ErrPersistence, productID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, fmt.Errorf("%w: product %q", domain.ErrNotFound, productID)
	}
	return productByID(ctx, s.db, productID)
}

// ListProducts returns the whole catalog, newest first.
func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
}

// SearchProductsByName returns products whose name contains the keyword,
// case-insensitively.
func (s *Store) SearchProductsByName(ctx context.Context, keyword string) ([]domain.Product, error) {
	pattern := "%" + strings.ToLower(keyword) + "%"
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE lower(name) LIKE ? ORDER BY name`, pattern)
}

// CountProducts returns the catalog size.
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count products: %v", domain.ErrPersistence, err)
	}
	return n, nil
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query products: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan product: %v", domain.ErrPersistence, err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query products: %v", domain.ErrPersistence, err)
	}
	return products, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*domain.Product, error) {
	var (
		p                    domain.Product
		price, discount      string
		createdAt, updatedAt string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &discount,
		&p.StockQuantity, &p.Image, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	if p.Discount, err = decimal.NewFromString(discount); err != nil {
		return nil, fmt.Errorf("parse discount %q: %w", discount, err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
