package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/oribuyin/backend/internal/domain"
)

// RatingSummary is one product with its review aggregate.
type RatingSummary struct {
	ProductID   string
	ProductName string
	AvgRating   float64
	ReviewCount int
}

// RatingSummaryQuery filters and orders the per-product review aggregates.
// ProductID narrows to one product; MinAvgRating drops products below the
// threshold (0 keeps all); SortDesc orders by average rating descending.
type RatingSummaryQuery struct {
	ProductID    string
	MinAvgRating float64
	SortDesc     bool
	Limit        int
	Offset       int
}

// InsertReview adds a review row.
func (s *Store) InsertReview(ctx context.Context, r *domain.Review) error {
	const q = `
		INSERT INTO reviews (id, user_id, product_id, rating, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		r.ID, r.UserID, r.ProductID, r.Rating, r.Comment,
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
	if err != nil {
		return fmt.Errorf("%w: insert review for product %q: %v", domain.ErrPersistence, r.ProductID, err)
	}
	return nil
}

// ReviewsByProduct returns a product's reviews, newest first.
func (s *Store) ReviewsByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	const q = `
		SELECT id, user_id, product_id, rating, comment, created_at, updated_at
		FROM   reviews
		WHERE  product_id = ?
		ORDER  BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, q, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: load reviews of product %q: %v", domain.ErrPersistence, productID, err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var (
			r                    domain.Review
			createdAt, updatedAt string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.ProductID, &r.Rating, &r.Comment, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan review: %v", domain.ErrPersistence, err)
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load reviews of product %q: %v", domain.ErrPersistence, productID, err)
	}
	return reviews, nil
}

// RatingSummaries aggregates reviews per product: average rating and review
// count, ordered by average rating.
func (s *Store) RatingSummaries(ctx context.Context, query RatingSummaryQuery) ([]RatingSummary, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT p.id, p.name, AVG(r.rating), COUNT(r.id)
		FROM   reviews r
		JOIN   products p ON p.id = r.product_id`)

	var args []any
	if query.ProductID != "" {
		sb.WriteString(` WHERE r.product_id = ?`)
		args = append(args, query.ProductID)
	}

	sb.WriteString(` GROUP BY p.id, p.name`)
	if query.MinAvgRating > 0 {
		sb.WriteString(` HAVING AVG(r.rating) >= ?`)
		args = append(args, query.MinAvgRating)
	}

	if query.SortDesc {
		sb.WriteString(` ORDER BY AVG(r.rating) DESC, p.name`)
	} else {
		sb.WriteString(` ORDER BY AVG(r.rating) ASC, p.name`)
	}

	if query.Limit > 0 {
		sb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, query.Limit, query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query rating summaries: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var summaries []RatingSummary
	for rows.Next() {
		var sum RatingSummary
		if err := rows.Scan(&sum.ProductID, &sum.ProductName, &sum.AvgRating, &sum.ReviewCount); err != nil {
			return nil, fmt.Errorf("%w: scan rating summary: %v", domain.ErrPersistence, err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query rating summaries: %v", domain.ErrPersistence, err)
	}
	return summaries, nil
}
