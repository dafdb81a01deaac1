// Package review lets customers rate products and gives staff an aggregated
// per-product rating view.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oribuyin/backend/internal/domain"
	"github.com/oribuyin/backend/internal/store"
)

// Service exposes review operations over the relational store.
type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Create records a customer's review of a product. The rating must be 1-5
// and the product must exist; the comment may be empty.
func (s *Service) Create(ctx context.Context, userID, productID string, rating int, comment string) (*domain.Review, error) {
	if userID == "" || productID == "" {
		return nil, fmt.Errorf("%w: user id and product id are required", domain.ErrValidation)
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrValidation)
	}

	if _, err := s.store.ProductByID(ctx, productID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &domain.Review{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertReview(ctx, r); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "review created",
		"user_id", userID, "product_id", productID, "rating", rating)
	return r, nil
}

// ByProduct returns a product's reviews, newest first.
func (s *Service) ByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrValidation)
	}
	return s.store.ReviewsByProduct(ctx, productID)
}

// SummaryInput selects and pages the per-product rating aggregates.
type SummaryInput struct {
	ProductID string
	MinRating float64
	SortDesc  bool
	Page      int
	PageSize  int
}

// Summaries returns per-product average ratings and review counts, paged.
// Page and PageSize default to 1 and 10.
func (s *Service) Summaries(ctx context.Context, in SummaryInput) ([]store.RatingSummary, error) {
	if in.MinRating < 0 || in.MinRating > 5 {
		return nil, fmt.Errorf("%w: rating filter must be between 0 and 5", domain.ErrValidation)
	}
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.PageSize <= 0 {
		in.PageSize = 10
	}

	return s.store.RatingSummaries(ctx, store.RatingSummaryQuery{
		ProductID:    in.ProductID,
		MinAvgRating: in.MinRating,
		SortDesc:     in.SortDesc,
		Limit:        in.PageSize,
		Offset:       (in.Page - 1) * in.PageSize,
	})
}
