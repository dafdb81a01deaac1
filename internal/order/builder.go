package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oribuyin/backend/internal/domain"
)

// ProductRequest is one basket entry of a placement request.
type ProductRequest struct {
	ProductID string
	Quantity  int
}

// PlaceOrderInput is the validated request the aggregate builder consumes.
// ShippingFee is nil when the caller omitted it; the service substitutes the
// configured default before building.
type PlaceOrderInput struct {
	UserID          string
	ShippingAddress string
	PaymentMethod   domain.PaymentMethod
	Products        []ProductRequest
	VoucherDiscount decimal.Decimal
	ShippingFee     *decimal.Decimal
}

func (in PlaceOrderInput) validate() error {
	if in.UserID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if in.ShippingAddress == "" {
		return fmt.Errorf("%w: shipping address is required", domain.ErrValidation)
	}
	if !in.PaymentMethod.Valid() {
		return fmt.Errorf("%w: payment method must be %q or %q",
			domain.ErrValidation, domain.PaymentMethodCOD, domain.PaymentMethodOnline)
	}
	if len(in.Products) == 0 {
		return fmt.Errorf("%w: at least one product is required", domain.ErrValidation)
	}
	for _, p := range in.Products {
		if p.ProductID == "" || p.Quantity <= 0 {
			return fmt.Errorf("%w: each product must have a valid id and a quantity greater than 0",
				domain.ErrValidation)
		}
	}
	if in.VoucherDiscount.IsNegative() {
		return fmt.Errorf("%w: voucher discount cannot be negative", domain.ErrValidation)
	}
	if in.ShippingFee != nil && in.ShippingFee.IsNegative() {
		return fmt.Errorf("%w: shipping fee cannot be negative", domain.ErrValidation)
	}
	return nil
}

// productIDs returns the distinct product IDs of the basket, in request order.
func (in PlaceOrderInput) productIDs() []string {
	seen := make(map[string]struct{}, len(in.Products))
	ids := make([]string, 0, len(in.Products))
	for _, p := range in.Products {
		if _, ok := seen[p.ProductID]; ok {
			continue
		}
		seen[p.ProductID] = struct{}{}
		ids = append(ids, p.ProductID)
	}
	return ids
}

// aggregate is the in-memory order plus its line items, built and priced but
// not yet persisted.
type aggregate struct {
	Order domain.Order
	Items []domain.OrderItem
}

// buildAggregate validates the basket against the resolved products and
// prices each line.
//
// Pricing: unit_price = price * (1 - discount/100), snapshotted onto the line
// as price_at_order_time; total = Σ(unit_price * quantity) + shipping_fee -
// voucher_discount. All arithmetic is exact decimal.
//
// Stock is only pre-checked here; the decrement happens at confirmation.
// Two concurrent placements may therefore both pass this check; the hard
// conservation guarantee lives in the confirmation path.
func buildAggregate(in PlaceOrderInput, shippingFee decimal.Decimal, products map[string]domain.Product, now time.Time) (*aggregate, error) {
	if len(products) < len(in.productIDs()) {
		return nil, fmt.Errorf("%w: one or more products do not exist", domain.ErrNotFound)
	}

	orderID := uuid.NewString()
	total := decimal.Zero
	items := make([]domain.OrderItem, 0, len(in.Products))

	for _, req := range in.Products {
		product, ok := products[req.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %q does not exist", domain.ErrNotFound, req.ProductID)
		}
		if product.StockQuantity < req.Quantity {
			return nil, fmt.Errorf("%w for product %s", domain.ErrInsufficientStock, product.Name)
		}

		unitPrice := product.DiscountedPrice()
		total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))))

		items = append(items, domain.OrderItem{
			ID:               uuid.NewString(),
			OrderID:          orderID,
			ProductID:        req.ProductID,
			Quantity:         req.Quantity,
			PriceAtOrderTime: unitPrice,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}

	total = total.Add(shippingFee).Sub(in.VoucherDiscount)

	// "online" is treated as captured up front; COD stays unpaid until the
	// delivered transition marks it paid.
	paymentStatus := domain.PaymentStatusUnpaid
	if in.PaymentMethod == domain.PaymentMethodOnline {
		paymentStatus = domain.PaymentStatusPaid
	}

	return &aggregate{
		Order: domain.Order{
			ID:              orderID,
			UserID:          in.UserID,
			OrderDate:       now,
			Status:          domain.OrderStatusPending,
			TotalAmount:     total,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			PaymentStatus:   paymentStatus,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		Items: items,
	}, nil
}
