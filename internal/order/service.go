// Package order implements the order placement and fulfilment workflow: the
// aggregate builder that validates and prices a basket, the transactional
// writer that persists it atomically, and the status state machine that
// performs the one-time stock deduction at confirmation.
package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oribuyin/backend/internal/domain"
	"github.com/oribuyin/backend/internal/pkg/telemetry"
	"github.com/oribuyin/backend/internal/store"
)

// Service exposes the order workflow over the relational store.
type Service struct {
	store              *store.Store
	defaultShippingFee decimal.Decimal
}

// NewService constructs the order service. defaultShippingFee is applied when
// a placement request omits the fee.
func NewService(st *store.Store, defaultShippingFee decimal.Decimal) *Service {
	return &Service{store: st, defaultShippingFee: defaultShippingFee}
}

// PlacedOrder is the result of a successful placement: the persisted order
// and its line items.
type PlacedOrder struct {
	Order domain.Order
	Items []domain.OrderItem
}

// PlaceOrder validates the basket against live stock, prices it, and commits
// order + items + cart cleanup as one atomic unit.
//
// Inside the single transaction:
//  1. resolve every requested product (unknown id aborts),
//  2. pre-check stock per line (shortfall aborts; nothing is decremented),
//  3. insert the order and bulk-insert its items,
//  4. delete the user's cart lines for exactly the ordered product IDs
//     (no cart is a no-op; other cart lines survive).
//
// On any failure the transaction rolls back: no order, no items, no cart
// mutation.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlacedOrder, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	shippingFee := s.defaultShippingFee
	if in.ShippingFee != nil {
		shippingFee = *in.ShippingFee
	}

	var placed *PlacedOrder
	err := s.store.WithinTx(ctx, func(tx *sql.Tx) error {
		products, err := s.store.ProductsByIDs(ctx, tx, in.productIDs())
		if err != nil {
			return err
		}

		agg, err := buildAggregate(in, shippingFee, products, time.Now().UTC())
		if err != nil {
			return err
		}

		if err := s.store.InsertOrder(ctx, tx, &agg.Order); err != nil {
			return err
		}
		if err := s.store.InsertOrderItems(ctx, tx, agg.Items); err != nil {
			return err
		}

		cart, err := s.store.CartByUserTx(ctx, tx, in.UserID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// no cart, nothing to clear
		case err != nil:
			return err
		default:
			if err := s.store.DeleteCartItemsByProducts(ctx, tx, cart.ID, in.productIDs()); err != nil {
				return err
			}
		}

		initial := &domain.StatusChange{
			ID:        uuid.NewString(),
			OrderID:   agg.Order.ID,
			ToStatus:  domain.OrderStatusPending,
			TraceID:   telemetry.TraceID(ctx),
			ChangedAt: agg.Order.CreatedAt,
		}
		if err := s.store.AppendStatusChange(ctx, tx, initial); err != nil {
			return err
		}

		placed = &PlacedOrder{Order: agg.Order, Items: agg.Items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order placed",
		"order_id", placed.Order.ID,
		"user_id", placed.Order.UserID,
		"total_amount", placed.Order.TotalAmount.String(),
		"items", len(placed.Items),
	)
	return placed, nil
}

// Transition moves an order to newStatus inside one atomic unit.
//
// Stock is physically deducted exactly once, at the pending→confirmed edge:
// each line is re-checked against live stock (time has passed since
// placement) and decremented through the guarded ledger update. Any shortfall
// aborts the whole transition: order status and every stock level stay
// unchanged, and the order remains in its prior status for manual resolution.
// Re-confirming an already confirmed order is a no-op for stock.
//
// The delivered transition additionally marks the order paid (COD is
// collected on delivery).
//
// Forward-only ordering is deliberately not enforced: which regressions (if
// any) should be rejected is an open product question, so the state machine
// keeps the permissive behaviour and only validates the status value itself.
func (s *Service) Transition(ctx context.Context, orderID string, newStatus domain.OrderStatus) (*domain.Order, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, newStatus)
	}

	var updated *domain.Order
	err := s.store.WithinTx(ctx, func(tx *sql.Tx) error {
		o, err := s.store.OrderByIDTx(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if newStatus == domain.OrderStatusConfirmed && o.Status != domain.OrderStatusConfirmed {
			items, err := s.store.ItemsByOrderID(ctx, tx, orderID)
			if err != nil {
				return err
			}
			for _, item := range items {
				if err := s.store.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		paymentStatus := domain.PaymentStatus("")
		if newStatus == domain.OrderStatusDelivered {
			paymentStatus = domain.PaymentStatusPaid
		}

		now := time.Now().UTC()
		if err := s.store.UpdateOrderStatus(ctx, tx, orderID, newStatus, paymentStatus, now); err != nil {
			return err
		}

		change := &domain.StatusChange{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			FromStatus: o.Status,
			ToStatus:   newStatus,
			TraceID:    telemetry.TraceID(ctx),
			ChangedAt:  now,
		}
		if err := s.store.AppendStatusChange(ctx, tx, change); err != nil {
			return err
		}

		after := *o
		after.Status = newStatus
		after.UpdatedAt = now
		if paymentStatus != "" {
			after.PaymentStatus = paymentStatus
		}
		updated = &after
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order status updated",
		"order_id", orderID,
		"status", string(newStatus),
	)
	return updated, nil
}

// OrdersByUser lists a user's orders, newest first, with nested items.
func (s *Service) OrdersByUser(ctx context.Context, userID string) ([]store.OrderWithItems, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return s.store.OrdersByUser(ctx, userID)
}

// AllOrders lists every order with nested items (admin/staff view).
func (s *Service) AllOrders(ctx context.Context) ([]store.OrderWithItems, error) {
	return s.store.AllOrders(ctx)
}

// RecentOrders lists the latest limit orders (default 10).
func (s *Service) RecentOrders(ctx context.Context, limit int) ([]store.OrderWithItems, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.RecentOrders(ctx, limit)
}

// OrdersByTimeRange lists orders created within [from, to].
func (s *Service) OrdersByTimeRange(ctx context.Context, from, to time.Time) ([]store.OrderWithItems, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: time range end precedes start", domain.ErrValidation)
	}
	return s.store.OrdersByTimeRange(ctx, from, to)
}

// CurrentMonthRevenue sums total_amount over orders created in the calendar
// month containing now.
func (s *Service) CurrentMonthRevenue(ctx context.Context, now time.Time) (decimal.Decimal, error) {
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	return s.store.RevenueBetween(ctx, from, to)
}

// StatusHistory returns the audit trail of one order, oldest first.
func (s *Service) StatusHistory(ctx context.Context, orderID string) ([]domain.StatusChange, error) {
	if _, err := s.store.OrderByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.store.StatusHistory(ctx, orderID)
}
