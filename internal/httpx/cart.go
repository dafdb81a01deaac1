package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oribuyin/backend/internal/auth"
	"github.com/oribuyin/backend/internal/domain"
	"github.com/oribuyin/backend/internal/store"
)

// CartService is the basket capability as the HTTP layer consumes it.
type CartService interface {
	Cart(ctx context.Context, userID string) (*domain.Cart, []store.CartLine, error)
	Add(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error)
	SetQuantity(ctx context.Context, itemID string, quantity int) (*domain.CartItem, error)
	Remove(ctx context.Context, itemID string) error
	Count(ctx context.Context, userID string) (int, error)
}

// CartHandler serves the /cart routes.
type CartHandler struct {
	carts CartService
}

func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get returns the cart of the user named in the path. A user without a cart
// gets an empty (code 0) response, not an error.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	c, lines, err := h.carts.Cart(r.Context(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		respondEmpty(w, "user has no cart")
		return
	}
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "cart fetched successfully", mapCart(c.ID, lines))
}

// Add puts a product into the authenticated customer's cart.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(r.Context(), w,
			fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}

	item, err := h.carts.Add(r.Context(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, "product added to cart successfully", map[string]any{
		"cart_item_id": item.ID,
		"product_id":   item.ProductID,
		"quantity":     item.Quantity,
	})
}

// UpdateQuantity overwrites a cart line's quantity.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(r.Context(), w,
			fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}

	item, err := h.carts.SetQuantity(r.Context(), itemID, req.Quantity)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "cart item updated successfully", map[string]any{
		"cart_item_id": item.ID,
		"product_id":   item.ProductID,
		"quantity":     item.Quantity,
	})
}

// Remove deletes one line from the cart.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	if err := h.carts.Remove(r.Context(), itemID); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "cart item removed successfully", nil)
}

// Count returns the number of product lines in the authenticated customer's
// cart.
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	n, err := h.carts.Count(r.Context(), user.ID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "cart item count fetched successfully",
		map[string]int{"count": n})
}
