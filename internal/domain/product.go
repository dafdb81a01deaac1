package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog row the order engine reads stock from. The order
// engine never owns products; it only looks them up and, at confirmation,
// decrements StockQuantity through the inventory ledger.
type Product struct {
	ID            string
	Name          string
	Description   string
	Price         decimal.Decimal
	Discount      decimal.Decimal // percentage, 0-100
	StockQuantity int
	Image         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var oneHundred = decimal.NewFromInt(100)

// DiscountedPrice returns the effective unit price after applying the
// product's discount percentage: price * (1 - discount/100).
func (p Product) DiscountedPrice() decimal.Decimal {
	factor := oneHundred.Sub(p.Discount).Div(oneHundred)
	return p.Price.Mul(factor)
}
