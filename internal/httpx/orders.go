// Package httpx exposes the REST surface: JSON in/out over chi, speaking the
// {code, message, data} envelope.
package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/oribuyin/backend/internal/auth"
	"github.com/oribuyin/backend/internal/domain"
	"github.com/oribuyin/backend/internal/order"
	"github.com/oribuyin/backend/internal/store"
)

// OrderService is the order workflow as the HTTP layer consumes it.
type OrderService interface {
	PlaceOrder(ctx context.Context, in order.PlaceOrderInput) (*order.PlacedOrder, error)
	Transition(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
	OrdersByUser(ctx context.Context, userID string) ([]store.OrderWithItems, error)
	AllOrders(ctx context.Context) ([]store.OrderWithItems, error)
	RecentOrders(ctx context.Context, limit int) ([]store.OrderWithItems, error)
	OrdersByTimeRange(ctx context.Context, from, to time.Time) ([]store.OrderWithItems, error)
	CurrentMonthRevenue(ctx context.Context, now time.Time) (decimal.Decimal, error)
	StatusHistory(ctx context.Context, orderID string) ([]domain.StatusChange, error)
}

// OrderHandler serves the /orders routes.
type OrderHandler struct {
	orders OrderService
}

func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create places a new order for the authenticated customer.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(r.Context(), w,
			fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}

	products := make([]order.ProductRequest, len(req.Products))
	for i, p := range req.Products {
		products[i] = order.ProductRequest{ProductID: p.ProductID, Quantity: p.Quantity}
	}

	slog.InfoContext(r.Context(), "creating order", "user_id", user.ID, "items", len(products))

	placed, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderInput{
		UserID:          user.ID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		Products:        products,
		VoucherDiscount: req.VoucherDiscount,
		ShippingFee:     req.ShippingFee,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, "order created successfully", mapPlacedOrder(placed))
}

// UpdateStatus transitions an order through the status state machine.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(r.Context(), w,
			fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}

	updated, err := h.orders.Transition(r.Context(), orderID, domain.OrderStatus(req.Status))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "order status updated successfully", mapOrder(*updated))
}

// ListByUser returns a user's orders with nested items.
func (h *OrderHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	orders, err := h.orders.OrdersByUser(r.Context(), userID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if len(orders) == 0 {
		respondEmpty(w, "no orders found")
		return
	}

	respondSuccess(w, http.StatusOK, "orders fetched successfully", mapOrdersWithItems(orders))
}

// ListAll returns every order (admin/staff view).
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.AllOrders(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if len(orders) == 0 {
		respondEmpty(w, "no orders found")
		return
	}

	respondSuccess(w, http.StatusOK, "orders fetched successfully", mapOrdersWithItems(orders))
}

// ListRecent returns the latest orders; the limit query defaults to 10.
func (h *OrderHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(r.Context(), w,
				fmt.Errorf("%w: limit must be a positive integer", domain.ErrValidation))
			return
		}
		limit = n
	}

	orders, err := h.orders.RecentOrders(r.Context(), limit)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "recent orders fetched successfully", mapOrdersWithItems(orders))
}

// ListByTimeRange returns orders created within [from, to] (RFC3339 query
// params).
func (h *OrderHandler) ListByTimeRange(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		respondError(r.Context(), w,
			fmt.Errorf("%w: from must be an RFC3339 timestamp", domain.ErrValidation))
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		respondError(r.Context(), w,
			fmt.Errorf("%w: to must be an RFC3339 timestamp", domain.ErrValidation))
		return
	}

	orders, err := h.orders.OrdersByTimeRange(r.Context(), from, to)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "orders fetched successfully", mapOrdersWithItems(orders))
}

// CurrentMonthRevenue returns the revenue of the running calendar month.
func (h *OrderHandler) CurrentMonthRevenue(w http.ResponseWriter, r *http.Request) {
	revenue, err := h.orders.CurrentMonthRevenue(r.Context(), time.Now())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "current month revenue fetched successfully",
		map[string]decimal.Decimal{"revenue": revenue})
}

// History returns the status audit trail of one order.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	history, err := h.orders.StatusHistory(r.Context(), orderID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "order status history fetched successfully", mapStatusHistory(history))
}
