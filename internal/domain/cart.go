package domain

import "time"

// Cart is the per-user shopping basket. One cart per user, created lazily on
// the first add.
type Cart struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is one product line inside a cart. Quantity accumulates when the
// same product is added again.
type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
