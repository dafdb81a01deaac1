package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oribuyin/backend/internal/domain"
)

// CartLine pairs a cart item with its product for display.
type CartLine struct {
	Item    domain.CartItem
	Product domain.Product
}

// CartByUser loads the user's cart. Absence is reported as a not-found error;
// callers that treat a missing cart as a no-op (the order writer) check for
// the kind explicitly.
func (s *Store) CartByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	return cartByUser(ctx, s.db, userID)
}

// CartByUserTx is the in-transaction variant used by the order writer.
func (s *Store) CartByUserTx(ctx context.Context, tx *sql.Tx, userID string) (*domain.Cart, error) {
	return cartByUser(ctx, tx, userID)
}

func cartByUser(ctx context.Context, q querier, userID string) (*domain.Cart, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?`, userID)

	var (
		c                    domain.Cart
		createdAt, updatedAt string
	)
	err := row.Scan(&c.ID, &c.UserID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: cart of user %q", domain.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load cart of user %q: %v", domain.ErrPersistence, userID, err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCart inserts an empty cart for the user. A user who already has a
// cart gets a conflict error; callers racing on lazy creation fall back to
// loading the existing cart.
func (s *Store) CreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	now := time.Now().UTC()
	c := &domain.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO carts (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		c.ID, c.UserID, formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("%w: create cart for user %q: %v", domain.ErrPersistence, userID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, fmt.Errorf("%w: user %q already has a cart", domain.ErrConflict, userID)
	}
	return c, nil
}

// CartLines returns the cart's items joined with their products.
func (s *Store) CartLines(ctx context.Context, cartID string) ([]CartLine, error) {
	const q = `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		       ` + prefixedProductColumns + `
		FROM   cart_items ci
		JOIN   products p ON p.id = ci.product_id
		WHERE  ci.cart_id = ?
		ORDER  BY ci.created_at`

	rows, err := s.db.QueryContext(ctx, q, cartID)
	if err != nil {
		return nil, fmt.Errorf("%w: load cart %q: %v", domain.ErrPersistence, cartID, err)
	}
	defer rows.Close()

	var lines []CartLine
	for rows.Next() {
		var (
			line                     CartLine
			itemCreated, itemUpdated string
			price, discount          string
			prodCreated, prodUpdated string
		)
		err := rows.Scan(
			&line.Item.ID, &line.Item.CartID, &line.Item.ProductID, &line.Item.Quantity,
			&itemCreated, &itemUpdated,
			&line.Product.ID, &line.Product.Name, &line.Product.Description,
			&price, &discount, &line.Product.StockQuantity, &line.Product.Image,
			&prodCreated, &prodUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scan cart line: %v", domain.ErrPersistence, err)
		}

		if line.Item.CreatedAt, err = parseTime(itemCreated); err != nil {
			return nil, err
		}
		if line.Item.UpdatedAt, err = parseTime(itemUpdated); err != nil {
			return nil, err
		}
		if line.Product.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("%w: parse price %q: %v", domain.ErrPersistence, price, err)
		}
		if line.Product.Discount, err = decimal.NewFromString(discount); err != nil {
			return nil, fmt.Errorf("%w: parse discount %q: %v", domain.ErrPersistence, discount, err)
		}
		if line.Product.CreatedAt, err = parseTime(prodCreated); err != nil {
			return nil, err
		}
		if line.Product.UpdatedAt, err = parseTime(prodUpdated); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load cart %q: %v", domain.ErrPersistence, cartID, err)
	}
	return lines, nil
}

const prefixedProductColumns = `p.id, p.name, p.description, p.price, p.discount, p.stock_quantity, p.image, p.created_at, p.updated_at`

// UpsertCartItem adds quantity of a product to the cart, merging with an
// existing line for the same product.
func (s *Store) UpsertCartItem(ctx context.Context, cartID, productID string, quantity int) (*domain.CartItem, error) {
	now := time.Now().UTC()

	const q = `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = quantity + excluded.quantity, updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, q,
		uuid.NewString(), cartID, productID, quantity, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("%w: add product %q to cart %q: %v", domain.ErrPersistence, productID, cartID, err)
	}
	return s.cartItem(ctx, cartID, productID)
}

// SetCartItemQuantity overwrites the quantity of an existing cart line.
func (s *Store) SetCartItemQuantity(ctx context.Context, itemID string, quantity int) (*domain.CartItem, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ?`,
		quantity, formatTime(time.Now()), itemID)
	if err != nil {
		return nil, fmt.Errorf("%w: update cart item %q: %v", domain.ErrPersistence, itemID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, fmt.Errorf("%w: cart item %q", domain.ErrNotFound, itemID)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, cart_id, product_id, quantity, created_at, updated_at FROM cart_items WHERE id = ?`, itemID)
	return scanCartItem(row)
}

// DeleteCartItem removes one line from a cart.
func (s *Store) DeleteCartItem(ctx context.Context, itemID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("%w: delete cart item %q: %v", domain.ErrPersistence, itemID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: cart item %q", domain.ErrNotFound, itemID)
	}
	return nil
}

// DeleteCartItemsByProducts removes the cart lines whose product is among
// productIDs, inside the caller's transaction. Lines for other products are
// untouched; a partially ordered basket keeps its remaining items.
func (s *Store) DeleteCartItemsByProducts(ctx context.Context, tx *sql.Tx, cartID string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}

	args := append([]any{cartID}, stringArgs(productIDs)...)
	_, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = ? AND product_id IN (`+placeholders(len(productIDs))+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("%w: clear ordered items from cart %q: %v", domain.ErrPersistence, cartID, err)
	}
	return nil
}

// CountCartItems returns the number of distinct product lines in the cart.
func (s *Store) CountCartItems(ctx context.Context, cartID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cart_items WHERE cart_id = ?`, cartID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count items of cart %q: %v", domain.ErrPersistence, cartID, err)
	}
	return n, nil
}

func (s *Store) cartItem(ctx context.Context, cartID, productID string) (*domain.CartItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, cart_id, product_id, quantity, created_at, updated_at
		 FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
	return scanCartItem(row)
}

func scanCartItem(row scanner) (*domain.CartItem, error) {
	var (
		it                   domain.CartItem
		createdAt, updatedAt string
	)
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: cart item", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan cart item: %v", domain.ErrPersistence, err)
	}
	if it.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if it.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}
