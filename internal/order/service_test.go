package order

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oribuyin/backend/internal/domain"
	"github.com/oribuyin/backend/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedProduct(t *testing.T, st *store.Store, name, price, discount string, stock int) string {
	t.Helper()
	now := time.Now().UTC()
	p := &domain.Product{
		ID:            uuid.NewString(),
		Name:          name,
		Price:         dec(t, price),
		Discount:      dec(t, discount),
		StockQuantity: stock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := st.InsertProduct(context.Background(), p); err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return p.ID
}

func stockOf(t *testing.T, st *store.Store, productID string) int {
	t.Helper()
	p, err := st.ProductByID(context.Background(), productID)
	if err != nil {
		t.Fatalf("load product: %v", err)
	}
	return p.StockQuantity
}

func basket(productID string, quantity int) []ProductRequest {
	return []ProductRequest{{ProductID: productID, Quantity: quantity}}
}

func placeInput(userID, productID string, quantity int) PlaceOrderInput {
	return PlaceOrderInput{
		UserID:          userID,
		ShippingAddress: "12 Tran Hung Dao",
		PaymentMethod:   domain.PaymentMethodCOD,
		Products:        basket(productID, quantity),
	}
}

func TestPlaceOrderCommitsAggregateAndClearsOrderedCartLines(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, dec(t, "30000"))

	productA := seedProduct(t, st, "Product A", "100", "10", 5)
	productB := seedProduct(t, st, "Product B", "50", "0", 9)

	cart, err := st.CreateCart(ctx, "u1")
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if _, err := st.UpsertCartItem(ctx, cart.ID, productA, 2); err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
	if _, err := st.UpsertCartItem(ctx, cart.ID, productB, 1); err != nil {
		t.Fatalf("seed cart item: %v", err)
	}

	placed, err := svc.PlaceOrder(ctx, placeInput("u1", productA, 3))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if want := dec(t, "30270"); !placed.Order.TotalAmount.Equal(want) {
		t.Errorf("total = %s, want %s", placed.Order.TotalAmount, want)
	}
	if placed.Order.Status != domain.OrderStatusPending {
		t.Errorf("status = %s, want pending", placed.Order.Status)
	}

	// Stock is only pre-checked at placement, never decremented.
	if got := stockOf(t, st, productA); got != 5 {
		t.Errorf("stock after placement = %d, want 5", got)
	}

	orders, err := st.OrdersByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("OrdersByUser: %v", err)
	}
	if len(orders) != 1 || len(orders[0].Items) != 1 {
		t.Fatalf("persisted orders = %+v, want 1 order with 1 item", orders)
	}
	if want := dec(t, "90"); !orders[0].Items[0].Item.PriceAtOrderTime.Equal(want) {
		t.Errorf("persisted price snapshot = %s, want %s", orders[0].Items[0].Item.PriceAtOrderTime, want)
	}

	// The ordered product's cart line is gone; the other line survives.
	lines, err := st.CartLines(ctx, cart.ID)
	if err != nil {
		t.Fatalf("CartLines: %v", err)
	}
	if len(lines) != 1 || lines[0].Item.ProductID != productB {
		t.Fatalf("cart lines after order = %+v, want only product B", lines)
	}
}

func TestPlaceOrderAppliesDefaultShippingFee(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, dec(t, "30000"))

	productID := seedProduct(t, st, "A", "10", "0", 5)

	placed, err := svc.PlaceOrder(ctx, placeInput("u1", productID, 1))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if want := dec(t, "30010"); !placed.Order.TotalAmount.Equal(want) {
		t.Errorf("total = %s, want %s (default fee applied)", placed.Order.TotalAmount, want)
	}

	explicit := placeInput("u1", productID, 1)
	fee := dec(t, "0")
	explicit.ShippingFee = &fee

	placed, err = svc.PlaceOrder(ctx, explicit)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if want := dec(t, "10"); !placed.Order.TotalAmount.Equal(want) {
		t.Errorf("total = %s, want %s (explicit zero fee)", placed.Order.TotalAmount, want)
	}
}

func TestPlaceOrderUnknownProductLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, decimal.Zero)

	productID := seedProduct(t, st, "A", "10", "0", 5)

	in := placeInput("u1", productID, 1)
	in.Products = append(in.Products, ProductRequest{ProductID: uuid.NewString(), Quantity: 1})

	_, err := svc.PlaceOrder(ctx, in)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}

	orders, err := st.OrdersByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("OrdersByUser: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("orders after failed placement = %d, want 0", len(orders))
	}
}

func TestPlaceOrderInsufficientStockLeavesStockUntouched(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, decimal.Zero)

	scarce := seedProduct(t, st, "Scarce", "10", "0", 2)
	plenty := seedProduct(t, st, "Plenty", "10", "0", 100)

	in := placeInput("u1", plenty, 1)
	in.Products = append(in.Products, ProductRequest{ProductID: scarce, Quantity: 3})

	_, err := svc.PlaceOrder(ctx, in)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	if got := stockOf(t, st, scarce); got != 2 {
		t.Errorf("scarce stock = %d, want 2", got)
	}
	if got := stockOf(t, st, plenty); got != 100 {
		t.Errorf("plenty stock = %d, want 100", got)
	}

	orders, err := st.OrdersByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("OrdersByUser: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("orders after failed placement = %d, want 0", len(orders))
	}
}

func TestPlaceOrderWithoutCartIsNoError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, decimal.Zero)

	productID := seedProduct(t, st, "A", "10", "0", 5)

	if _, err := svc.PlaceOrder(ctx, placeInput("no-cart-user", productID, 1)); err != nil {
		t.Fatalf("PlaceOrder without cart: %v", err)
	}
}

func TestConfirmDecrementsStockExactlyOnce(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, decimal.Zero)

	productID := seedProduct(t, st, "A", "100", "10", 5)

	placed, err := svc.PlaceOrder(ctx, placeInput("u1", productID, 3))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	updated, err := svc.Transition(ctx, placed.Order.ID, domain.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if updated.Status != domain.OrderStatusConfirmed {
		t.Errorf("status = %s, want confirmed", updated.Status)
	}
	if got := stockOf(t, st, productID); got != 2 {
		t.Errorf("stock after confirm = %d, want 2", got)
	}

	// Re-confirming must not deduct again.
	if _, err := svc.Transition(ctx, placed.Order.ID, domain.OrderStatusConfirmed); err != nil {
		t.Fatalf("re-confirm: %v", err)
	}
	if got := stockOf(t, st, productID); got != 2 {
		t.Errorf("stock after re-confirm = %d, want 2", got)
	}
}

func TestConfirmAbortsWhenStockRanOut(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, decimal.Zero)

	productID := seedProduct(t, st, "A", "10", "0", 5)

	placed, err := svc.PlaceOrder(ctx, placeInput("u1", productID, 3))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	// Stock shrank between placement and confirmation.
	if _, err := st.SetStock(ctx, productID, 1); err != nil {
		t.Fatalf("SetStock: %v", err)
	}

	_, err = svc.Transition(ctx, placed.Order.ID, domain.OrderStatusConfirmed)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	if got := stockOf(t, st, productID); got != 1 {
		t.Errorf("stock after aborted confirm = %d, want 1", got)
	}
	o, err := st.OrderByID(ctx, placed.Order.ID)
	if err != nil {
		t.Fatalf("OrderByID: %v", err)
	}
	if o.Status != domain.OrderStatusPending {
		t.Errorf("status after aborted confirm = %s, want pending", o.Status)
	}
}

func TestDeliveredMarksCODOrderPaid(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, decimal.Zero)

	productID := seedProduct(t, st, "A", "10", "0", 5)

	placed, err := svc.PlaceOrder(ctx, placeInput("u1", productID, 1))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if placed.Order.PaymentStatus != domain.PaymentStatusUnpaid {
		t.Fatalf("cod order starts %s, want unpaid", placed.Order.PaymentStatus)
	}

	updated, err := svc.Transition(ctx, placed.Order.ID, domain.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if updated.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("payment_status after delivery = %s, want paid", updated.PaymentStatus)
	}

	o, err := st.OrderByID(ctx, placed.Order.ID)
	if err != nil {
		t.Fatalf("OrderByID: %v", err)
	}
	if o.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("persisted payment_status = %s, want paid", o.PaymentStatus)
	}
}

func TestTransitionReturnsPersistedTimestamps(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, decimal.Zero)

	productID := seedProduct(t, st, "A", "10", "0", 5)

	placed, err := svc.PlaceOrder(ctx, placeInput("u1", productID, 1))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	updated, err := svc.Transition(ctx, placed.Order.ID, domain.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	persisted, err := st.OrderByID(ctx, placed.Order.ID)
	if err != nil {
		t.Fatalf("OrderByID: %v", err)
	}
	if !updated.UpdatedAt.Equal(persisted.UpdatedAt) {
		t.Errorf("returned updated_at = %s, persisted = %s", updated.UpdatedAt, persisted.UpdatedAt)
	}
	if updated.UpdatedAt.Before(placed.Order.UpdatedAt) {
		t.Errorf("updated_at %s precedes placement's %s", updated.UpdatedAt, placed.Order.UpdatedAt)
	}
}

func TestTransitionUnknownOrder(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, decimal.Zero)

	_, err := svc.Transition(context.Background(), uuid.NewString(), domain.OrderStatusConfirmed)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, decimal.Zero)

	_, err := svc.Transition(context.Background(), "any", domain.OrderStatus("archived"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConcurrentConfirmationsConserveStock(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, decimal.Zero)

	// Stock 2q-1 with q=3: both placements pass the pre-check, but only one
	// confirmation may win.
	productID := seedProduct(t, st, "A", "10", "0", 5)

	first, err := svc.PlaceOrder(ctx, placeInput("u1", productID, 3))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	second, err := svc.PlaceOrder(ctx, placeInput("u2", productID, 3))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, orderID := range []string{first.Order.ID, second.Order.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = svc.Transition(ctx, orderID, domain.OrderStatusConfirmed)
		}()
	}
	wg.Wait()

	var succeeded, short int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected confirmation error: %v", err)
		}
	}
	if succeeded != 1 || short != 1 {
		t.Fatalf("confirmations: %d succeeded, %d short; want exactly 1 and 1", succeeded, short)
	}
	if got := stockOf(t, st, productID); got != 2 {
		t.Errorf("final stock = %d, want 2", got)
	}
}

func TestStatusHistoryRecordsTransitions(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, decimal.Zero)

	productID := seedProduct(t, st, "A", "10", "0", 5)

	placed, err := svc.PlaceOrder(ctx, placeInput("u1", productID, 1))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if _, err := svc.Transition(ctx, placed.Order.ID, domain.OrderStatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := svc.Transition(ctx, placed.Order.ID, domain.OrderStatusShipped); err != nil {
		t.Fatalf("ship: %v", err)
	}

	history, err := svc.StatusHistory(ctx, placed.Order.ID)
	if err != nil {
		t.Fatalf("StatusHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history rows = %d, want 3", len(history))
	}

	wantEdges := []struct{ from, to domain.OrderStatus }{
		{"", domain.OrderStatusPending},
		{domain.OrderStatusPending, domain.OrderStatusConfirmed},
		{domain.OrderStatusConfirmed, domain.OrderStatusShipped},
	}
	for i, want := range wantEdges {
		if history[i].FromStatus != want.from || history[i].ToStatus != want.to {
			t.Errorf("history[%d] = %s→%s, want %s→%s",
				i, history[i].FromStatus, history[i].ToStatus, want.from, want.to)
		}
	}
}

func TestCurrentMonthRevenue(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, decimal.Zero)

	productID := seedProduct(t, st, "A", "100", "0", 50)

	if _, err := svc.PlaceOrder(ctx, placeInput("u1", productID, 2)); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if _, err := svc.PlaceOrder(ctx, placeInput("u2", productID, 3)); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	revenue, err := svc.CurrentMonthRevenue(ctx, time.Now())
	if err != nil {
		t.Fatalf("CurrentMonthRevenue: %v", err)
	}
	if want := dec(t, "500"); !revenue.Equal(want) {
		t.Errorf("revenue = %s, want %s", revenue, want)
	}
}
