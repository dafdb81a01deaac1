package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/oribuyin/backend/internal/auth"
	"github.com/oribuyin/backend/internal/domain"
	"github.com/oribuyin/backend/internal/review"
	"github.com/oribuyin/backend/internal/store"
)

// ReviewService is the review capability as the HTTP layer consumes it.
type ReviewService interface {
	Create(ctx context.Context, userID, productID string, rating int, comment string) (*domain.Review, error)
	Summaries(ctx context.Context, in review.SummaryInput) ([]store.RatingSummary, error)
}

// ReviewHandler serves the /reviews routes.
type ReviewHandler struct {
	reviews ReviewService
}

func NewReviewHandler(reviews ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Create records the authenticated customer's review of a product.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(r.Context(), w,
			fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}

	created, err := h.reviews.Create(r.Context(), user.ID, req.ProductID, req.Rating, req.Comment)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, "review created successfully", mapReview(*created))
}

// ByAverageRating returns per-product rating aggregates (staff view), paged
// and sorted by average rating.
func (h *ReviewHandler) ByAverageRating(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	in := review.SummaryInput{
		ProductID: q.Get("productId"),
		SortDesc:  q.Get("sort") != "asc",
	}

	var err error
	if in.Page, err = intQuery(q.Get("page"), 1); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if in.PageSize, err = intQuery(q.Get("pageSize"), 10); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if raw := q.Get("rating"); raw != "" {
		min, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(r.Context(), w,
				fmt.Errorf("%w: rating must be a number", domain.ErrValidation))
			return
		}
		in.MinRating = min
	}

	summaries, err := h.reviews.Summaries(r.Context(), in)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "reviews fetched successfully", mapRatingSummaries(summaries))
}

func intQuery(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: page and pageSize must be positive integers", domain.ErrValidation)
	}
	return n, nil
}
