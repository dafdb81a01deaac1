// Package catalog serves product reads and stock administration. Full
// product/category CRUD lives outside this server; the order engine only
// consumes the lookup capability, and staff adjust stock levels here.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oribuyin/backend/internal/domain"
	"github.com/oribuyin/backend/internal/store"
)

// SearchRecorder receives the keyword of every product search so trends can
// be tracked. Recording must never fail the search itself.
type SearchRecorder interface {
	Record(ctx context.Context, userID, keyword string)
}

// Service exposes catalog reads over the relational store.
type Service struct {
	store  *store.Store
	trends SearchRecorder
}

// NewService builds the catalog service. trends may be nil when trend
// tracking is disabled.
func NewService(st *store.Store, trends SearchRecorder) *Service {
	return &Service{store: st, trends: trends}
}

// Products lists the whole catalog.
func (s *Service) Products(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListProducts(ctx)
}

// Product returns one product by id.
func (s *Service) Product(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrValidation)
	}
	return s.store.ProductByID(ctx, id)
}

// Count returns the catalog size.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.CountProducts(ctx)
}

// Search finds products by name and records the keyword as a search trend
// for the requesting user.
func (s *Service) Search(ctx context.Context, userID, keyword string) ([]domain.Product, error) {
	if keyword == "" {
		return nil, fmt.Errorf("%w: search keyword is required", domain.ErrValidation)
	}

	products, err := s.store.SearchProductsByName(ctx, keyword)
	if err != nil {
		return nil, err
	}

	if s.trends != nil {
		s.trends.Record(ctx, userID, keyword)
	}
	return products, nil
}

// SetStock overwrites one product's stock level (staff operation).
func (s *Service) SetStock(ctx context.Context, productID string, quantity int) (*domain.Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrValidation)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: stock quantity cannot be negative", domain.ErrValidation)
	}

	p, err := s.store.SetStock(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "product stock updated",
		"product_id", productID, "stock_quantity", quantity)
	return p, nil
}

// StockUpdate is one entry of a bulk stock adjustment.
type StockUpdate struct {
	ProductID string
	Quantity  int
}

// StockUpdateResult reports the outcome per product; unknown products are
// reported, not fatal, so one bad id does not abort the batch.
type StockUpdateResult struct {
	ProductID string
	Updated   bool
	Product   *domain.Product
}

// BulkSetStock applies a batch of stock overwrites, one result per entry.
func (s *Service) BulkSetStock(ctx context.Context, updates []StockUpdate) ([]StockUpdateResult, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: at least one stock update is required", domain.ErrValidation)
	}

	results := make([]StockUpdateResult, 0, len(updates))
	for _, u := range updates {
		if u.ProductID == "" || u.Quantity < 0 {
			return nil, fmt.Errorf("%w: each update needs a product id and a non-negative quantity", domain.ErrValidation)
		}

		p, err := s.store.SetStock(ctx, u.ProductID, u.Quantity)
		if errors.Is(err, domain.ErrNotFound) {
			results = append(results, StockUpdateResult{ProductID: u.ProductID})
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, StockUpdateResult{ProductID: u.ProductID, Updated: true, Product: p})
	}
	return results, nil
}
