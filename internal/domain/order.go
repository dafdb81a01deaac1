package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the five known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is expected from s.
// Note: the state machine intentionally does not reject transitions out of
// terminal states; admins use free transitions for manual correction.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodOnline
}

// PaymentStatus tracks whether the order has been paid for.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusFailed PaymentStatus = "failed"
)

// Order is a customer purchase. Orders are created in pending status and are
// never hard-deleted; cancellation is a status, not a removal.
type Order struct {
	ID              string
	UserID          string
	OrderDate       time.Time
	Status          OrderStatus
	TotalAmount     decimal.Decimal
	ShippingAddress string
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is one product+quantity line within an order.
// PriceAtOrderTime is the discounted unit price snapshotted when the order
// was built; it is immutable even if the product's price or discount change
// later.
type OrderItem struct {
	ID               string
	OrderID          string
	ProductID        string
	Quantity         int
	PriceAtOrderTime decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StatusChange is one row of the append-only order status audit trail.
// TraceID carries the W3C trace that was active when the transition was
// applied, so a history row can be joined with the distributed trace.
type StatusChange struct {
	ID         string
	OrderID    string
	FromStatus OrderStatus
	ToStatus   OrderStatus
	TraceID    string
	ChangedAt  time.Time
}
