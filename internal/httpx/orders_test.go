package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/oribuyin/backend/internal/auth"
	"github.com/oribuyin/backend/internal/domain"
	"github.com/oribuyin/backend/internal/order"
	"github.com/oribuyin/backend/internal/store"
)

// fakeOrderService scripts the order workflow for handler tests.
type fakeOrderService struct {
	placeOrderFn  func(ctx context.Context, in order.PlaceOrderInput) (*order.PlacedOrder, error)
	transitionFn  func(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
	byUserFn      func(ctx context.Context, userID string) ([]store.OrderWithItems, error)
	recentFn      func(ctx context.Context, limit int) ([]store.OrderWithItems, error)
	lastPlaceIn   order.PlaceOrderInput
	lastRecentLim int
}

func (f *fakeOrderService) PlaceOrder(ctx context.Context, in order.PlaceOrderInput) (*order.PlacedOrder, error) {
	f.lastPlaceIn = in
	return f.placeOrderFn(ctx, in)
}

func (f *fakeOrderService) Transition(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	return f.transitionFn(ctx, orderID, status)
}

func (f *fakeOrderService) OrdersByUser(ctx context.Context, userID string) ([]store.OrderWithItems, error) {
	return f.byUserFn(ctx, userID)
}

func (f *fakeOrderService) AllOrders(context.Context) ([]store.OrderWithItems, error) {
	return nil, nil
}

func (f *fakeOrderService) RecentOrders(ctx context.Context, limit int) ([]store.OrderWithItems, error) {
	f.lastRecentLim = limit
	return f.recentFn(ctx, limit)
}

func (f *fakeOrderService) OrdersByTimeRange(context.Context, time.Time, time.Time) ([]store.OrderWithItems, error) {
	return nil, nil
}

func (f *fakeOrderService) CurrentMonthRevenue(context.Context, time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeOrderService) StatusHistory(context.Context, string) ([]domain.StatusChange, error) {
	return nil, nil
}

func sampleOrder() domain.Order {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	return domain.Order{
		ID:              "o1",
		UserID:          "u1",
		OrderDate:       now,
		Status:          domain.OrderStatusPending,
		TotalAmount:     decimal.NewFromInt(30270),
		ShippingAddress: "12 Tran Hung Dao",
		PaymentMethod:   domain.PaymentMethodCOD,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func asCustomer(req *http.Request) *http.Request {
	return req.WithContext(auth.ContextWithUser(req.Context(), auth.User{ID: "u1", Role: "customer"}))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body)
	}
	return body
}

func TestOrderCreate(t *testing.T) {
	svc := &fakeOrderService{
		placeOrderFn: func(_ context.Context, in order.PlaceOrderInput) (*order.PlacedOrder, error) {
			o := sampleOrder()
			return &order.PlacedOrder{
				Order: o,
				Items: []domain.OrderItem{{
					ID: "i1", OrderID: o.ID, ProductID: "p1",
					Quantity: 3, PriceAtOrderTime: decimal.NewFromInt(90),
				}},
			}, nil
		},
	}
	h := NewOrderHandler(svc)

	body := `{
		"shipping_address": "12 Tran Hung Dao",
		"payment_method": "cod",
		"products": [{"product_id": "p1", "quantity": 3}]
	}`
	req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(body)))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body)
	}
	if env := decodeEnvelope(t, rec); env.Code != 1 {
		t.Errorf("envelope code = %d, want 1", env.Code)
	}
	// The identity comes from the token, never from the body.
	if svc.lastPlaceIn.UserID != "u1" {
		t.Errorf("placed for user %q, want u1", svc.lastPlaceIn.UserID)
	}
}

func TestOrderCreateInvalidBody(t *testing.T) {
	h := NewOrderHandler(&fakeOrderService{})

	req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString("{not json")))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestOrderCreateInsufficientStock(t *testing.T) {
	svc := &fakeOrderService{
		placeOrderFn: func(context.Context, order.PlaceOrderInput) (*order.PlacedOrder, error) {
			return nil, fmt.Errorf("%w for product Widget", domain.ErrInsufficientStock)
		},
	}
	h := NewOrderHandler(svc)

	body := `{"shipping_address": "a", "payment_method": "cod", "products": [{"product_id": "p1", "quantity": 99}]}`
	req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(body)))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body)
	}
	if env := decodeEnvelope(t, rec); env.Code != -1 {
		t.Errorf("envelope code = %d, want -1", env.Code)
	}
}

func TestOrderUpdateStatus(t *testing.T) {
	svc := &fakeOrderService{
		transitionFn: func(_ context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
			if orderID != "o1" || status != domain.OrderStatusConfirmed {
				t.Errorf("Transition(%q, %q), want (o1, confirmed)", orderID, status)
			}
			o := sampleOrder()
			o.Status = domain.OrderStatusConfirmed
			return &o, nil
		},
	}
	h := NewOrderHandler(svc)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderID", "o1")
	req := httptest.NewRequest(http.MethodPut, "/api/v1/orders/o1/status",
		bytes.NewBufferString(`{"status": "confirmed"}`))
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
}

func TestOrderListByUserEmpty(t *testing.T) {
	svc := &fakeOrderService{
		byUserFn: func(context.Context, string) ([]store.OrderWithItems, error) {
			return nil, nil
		},
	}
	h := NewOrderHandler(svc)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("userId", "u1")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/u1", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.ListByUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Code != 0 {
		t.Errorf("envelope code = %d, want 0 for empty result", env.Code)
	}
}

func TestOrderListRecentLimit(t *testing.T) {
	svc := &fakeOrderService{
		recentFn: func(context.Context, int) ([]store.OrderWithItems, error) {
			return []store.OrderWithItems{{Order: sampleOrder()}}, nil
		},
	}
	h := NewOrderHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/recent?limit=5", nil)
	rec := httptest.NewRecorder()
	h.ListRecent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.lastRecentLim != 5 {
		t.Errorf("limit passed = %d, want 5", svc.lastRecentLim)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/recent?limit=zero", nil)
	rec = httptest.NewRecorder()
	h.ListRecent(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status for bad limit = %d, want 400", rec.Code)
	}
}
