// Package cart manages the per-user shopping basket. The order writer mutates
// cart contents as a side effect of placement; this service owns everything
// else: reads, adds, quantity updates, removals.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oribuyin/backend/internal/domain"
	"github.com/oribuyin/backend/internal/store"
)

// Service exposes cart operations over the relational store.
type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Cart returns the user's cart and its lines. A user without a cart gets a
// not-found error; handlers render that as an empty result, not a failure.
func (s *Service) Cart(ctx context.Context, userID string) (*domain.Cart, []store.CartLine, error) {
	if userID == "" {
		return nil, nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	c, err := s.store.CartByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	lines, err := s.store.CartLines(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	return c, lines, nil
}

// Add puts quantity of a product into the user's cart, creating the cart on
// first use and merging with an existing line for the same product.
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error) {
	if userID == "" || productID == "" {
		return nil, fmt.Errorf("%w: user id and product id are required", domain.ErrValidation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", domain.ErrValidation)
	}

	if _, err := s.store.ProductByID(ctx, productID); err != nil {
		return nil, err
	}

	c, err := s.store.CartByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		c, err = s.store.CreateCart(ctx, userID)
		if errors.Is(err, domain.ErrConflict) {
			// lost the creation race, the cart exists now
			c, err = s.store.CartByUser(ctx, userID)
		}
	}
	if err != nil {
		return nil, err
	}

	item, err := s.store.UpsertCartItem(ctx, c.ID, productID, quantity)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "product added to cart",
		"user_id", userID, "product_id", productID, "quantity", item.Quantity)
	return item, nil
}

// SetQuantity overwrites a cart line's quantity.
func (s *Service) SetQuantity(ctx context.Context, itemID string, quantity int) (*domain.CartItem, error) {
	if itemID == "" {
		return nil, fmt.Errorf("%w: cart item id is required", domain.ErrValidation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", domain.ErrValidation)
	}
	return s.store.SetCartItemQuantity(ctx, itemID, quantity)
}

// Remove deletes one line from the cart.
func (s *Service) Remove(ctx context.Context, itemID string) error {
	if itemID == "" {
		return fmt.Errorf("%w: cart item id is required", domain.ErrValidation)
	}
	return s.store.DeleteCartItem(ctx, itemID)
}

// Count returns how many product lines the user's cart holds; a user without
// a cart has zero.
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	c, err := s.store.CartByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return s.store.CountCartItems(ctx, c.ID)
}
