package cart

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oribuyin/backend/internal/domain"
	"github.com/oribuyin/backend/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st), st
}

func seedProduct(t *testing.T, st *store.Store, name string) string {
	t.Helper()
	now := time.Now().UTC()
	p := domain.Product{
		ID:            uuid.NewString(),
		Name:          name,
		Price:         decimal.NewFromInt(10),
		Discount:      decimal.Zero,
		StockQuantity: 5,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := st.InsertProduct(context.Background(), &p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p.ID
}

func TestAddCreatesCartOnFirstUse(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	productID := seedProduct(t, st, "Widget")

	item, err := svc.Add(ctx, "u1", productID, 2)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if item.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", item.Quantity)
	}

	c, lines, err := svc.Cart(ctx, "u1")
	if err != nil {
		t.Fatalf("Cart: %v", err)
	}
	if c.UserID != "u1" {
		t.Errorf("cart user = %s, want u1", c.UserID)
	}
	if len(lines) != 1 || lines[0].Product.Name != "Widget" {
		t.Fatalf("lines = %+v, want one Widget line", lines)
	}
}

func TestAddMergesExistingLine(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	productID := seedProduct(t, st, "Widget")

	if _, err := svc.Add(ctx, "u1", productID, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	item, err := svc.Add(ctx, "u1", productID, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if item.Quantity != 5 {
		t.Errorf("merged quantity = %d, want 5", item.Quantity)
	}

	n, err := svc.Count(ctx, "u1")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("line count = %d, want 1", n)
	}
}

func TestAddUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Add(context.Background(), "u1", uuid.NewString(), 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	svc, st := newTestService(t)
	productID := seedProduct(t, st, "Widget")

	for _, qty := range []int{0, -1} {
		_, err := svc.Add(context.Background(), "u1", productID, qty)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("qty %d: expected validation error, got %v", qty, err)
		}
	}
}

func TestSetQuantityAndRemove(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	productID := seedProduct(t, st, "Widget")

	item, err := svc.Add(ctx, "u1", productID, 2)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	updated, err := svc.SetQuantity(ctx, item.ID, 7)
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if updated.Quantity != 7 {
		t.Errorf("quantity = %d, want 7", updated.Quantity)
	}

	if err := svc.Remove(ctx, item.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := svc.Remove(ctx, item.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second remove: expected not-found error, got %v", err)
	}

	n, err := svc.Count(ctx, "u1")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("count after removal = %d, want 0", n)
	}
}

func TestSetQuantityUnknownItem(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SetQuantity(context.Background(), uuid.NewString(), 3)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestCountWithoutCartIsZero(t *testing.T) {
	svc, _ := newTestService(t)

	n, err := svc.Count(context.Background(), "fresh-user")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestCartForUserWithoutCart(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Cart(context.Background(), "fresh-user")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
