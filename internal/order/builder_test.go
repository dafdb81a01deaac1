package order

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oribuyin/backend/internal/domain"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func testProduct(t *testing.T, id, name, price, discount string, stock int) domain.Product {
	t.Helper()
	return domain.Product{
		ID:            id,
		Name:          name,
		Price:         dec(t, price),
		Discount:      dec(t, discount),
		StockQuantity: stock,
	}
}

func TestPlaceOrderInputValidate(t *testing.T) {
	valid := PlaceOrderInput{
		UserID:          "u1",
		ShippingAddress: "12 Tran Hung Dao",
		PaymentMethod:   domain.PaymentMethodCOD,
		Products:        []ProductRequest{{ProductID: "p1", Quantity: 1}},
	}

	tests := []struct {
		name    string
		mutate  func(in *PlaceOrderInput)
		wantErr bool
	}{
		{"valid", func(*PlaceOrderInput) {}, false},
		{"missing user", func(in *PlaceOrderInput) { in.UserID = "" }, true},
		{"missing address", func(in *PlaceOrderInput) { in.ShippingAddress = "" }, true},
		{"bad payment method", func(in *PlaceOrderInput) { in.PaymentMethod = "cheque" }, true},
		{"empty basket", func(in *PlaceOrderInput) { in.Products = nil }, true},
		{"zero quantity", func(in *PlaceOrderInput) { in.Products[0].Quantity = 0 }, true},
		{"negative quantity", func(in *PlaceOrderInput) { in.Products[0].Quantity = -2 }, true},
		{"missing product id", func(in *PlaceOrderInput) { in.Products[0].ProductID = "" }, true},
		{"negative voucher", func(in *PlaceOrderInput) { in.VoucherDiscount = dec(t, "-1") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			in.Products = append([]ProductRequest(nil), valid.Products...)
			tt.mutate(&in)

			err := in.validate()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestBuildAggregatePricing(t *testing.T) {
	// price 100, discount 10% -> unit price 90; qty 3 -> 270; +30000 fee.
	products := map[string]domain.Product{
		"pA": testProduct(t, "pA", "Product A", "100", "10", 5),
	}
	in := PlaceOrderInput{
		UserID:          "u1",
		ShippingAddress: "addr",
		PaymentMethod:   domain.PaymentMethodCOD,
		Products:        []ProductRequest{{ProductID: "pA", Quantity: 3}},
	}

	agg, err := buildAggregate(in, dec(t, "30000"), products, time.Now().UTC())
	if err != nil {
		t.Fatalf("buildAggregate: %v", err)
	}

	if want := dec(t, "30270"); !agg.Order.TotalAmount.Equal(want) {
		t.Errorf("total = %s, want %s", agg.Order.TotalAmount, want)
	}
	if len(agg.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(agg.Items))
	}
	if want := dec(t, "90"); !agg.Items[0].PriceAtOrderTime.Equal(want) {
		t.Errorf("price_at_order_time = %s, want %s", agg.Items[0].PriceAtOrderTime, want)
	}
	if agg.Order.Status != domain.OrderStatusPending {
		t.Errorf("status = %s, want pending", agg.Order.Status)
	}
	if agg.Order.PaymentStatus != domain.PaymentStatusUnpaid {
		t.Errorf("payment_status = %s, want unpaid (cod)", agg.Order.PaymentStatus)
	}
	if agg.Items[0].OrderID != agg.Order.ID {
		t.Errorf("item order id %q does not match order %q", agg.Items[0].OrderID, agg.Order.ID)
	}
}

func TestBuildAggregateTotalInvariant(t *testing.T) {
	products := map[string]domain.Product{
		"pA": testProduct(t, "pA", "A", "19.99", "0", 10),
		"pB": testProduct(t, "pB", "B", "5.50", "25", 10),
	}
	in := PlaceOrderInput{
		UserID:          "u1",
		ShippingAddress: "addr",
		PaymentMethod:   domain.PaymentMethodOnline,
		Products: []ProductRequest{
			{ProductID: "pA", Quantity: 2},
			{ProductID: "pB", Quantity: 4},
		},
		VoucherDiscount: dec(t, "3"),
	}

	agg, err := buildAggregate(in, dec(t, "10"), products, time.Now().UTC())
	if err != nil {
		t.Fatalf("buildAggregate: %v", err)
	}

	// Σ quantity×price_at_order_time + fee - voucher must equal the total.
	sum := decimal.Zero
	for _, it := range agg.Items {
		sum = sum.Add(it.PriceAtOrderTime.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	sum = sum.Add(dec(t, "10")).Sub(in.VoucherDiscount)
	if !agg.Order.TotalAmount.Equal(sum) {
		t.Errorf("total = %s, want %s", agg.Order.TotalAmount, sum)
	}

	if agg.Order.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("payment_status = %s, want paid (online)", agg.Order.PaymentStatus)
	}
}

func TestBuildAggregateUnknownProduct(t *testing.T) {
	products := map[string]domain.Product{
		"pA": testProduct(t, "pA", "A", "10", "0", 5),
	}
	in := PlaceOrderInput{
		UserID:          "u1",
		ShippingAddress: "addr",
		PaymentMethod:   domain.PaymentMethodCOD,
		Products: []ProductRequest{
			{ProductID: "pA", Quantity: 1},
			{ProductID: "ghost", Quantity: 1},
		},
	}

	_, err := buildAggregate(in, decimal.Zero, products, time.Now().UTC())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestBuildAggregateInsufficientStock(t *testing.T) {
	products := map[string]domain.Product{
		"pA": testProduct(t, "pA", "Scarce", "10", "0", 2),
	}
	in := PlaceOrderInput{
		UserID:          "u1",
		ShippingAddress: "addr",
		PaymentMethod:   domain.PaymentMethodCOD,
		Products:        []ProductRequest{{ProductID: "pA", Quantity: 3}},
	}

	_, err := buildAggregate(in, decimal.Zero, products, time.Now().UTC())
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
}
