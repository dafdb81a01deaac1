package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/oribuyin/backend/internal/auth"
	"github.com/oribuyin/backend/internal/domain"
	"github.com/oribuyin/backend/internal/search"
)

// SearchService is the trend tracker as the HTTP layer consumes it.
type SearchService interface {
	Top(ctx context.Context, limit int) ([]search.TrendEntry, error)
	History(ctx context.Context, userID string, limit int) ([]string, error)
	ClearHistory(ctx context.Context, userID string) error
}

// SearchHandler serves the /search routes.
type SearchHandler struct {
	trends SearchService
}

func NewSearchHandler(trends SearchService) *SearchHandler {
	return &SearchHandler{trends: trends}
}

// Top returns the most searched keywords, most popular first.
func (h *SearchHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit, err := limitQuery(r, 10)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	entries, err := h.trends.Top(r.Context(), limit)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "top searches fetched successfully", mapTrends(entries))
}

// History returns the authenticated user's recent searches, newest first.
func (h *SearchHandler) History(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	limit, err := limitQuery(r, 0)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	history, err := h.trends.History(r.Context(), user.ID, limit)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if history == nil {
		history = []string{}
	}
	respondSuccess(w, http.StatusOK, "search history fetched successfully", history)
}

// ClearHistory drops the authenticated user's search history.
func (h *SearchHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := h.trends.ClearHistory(r.Context(), user.ID); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "search history cleared successfully", nil)
}

func limitQuery(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", domain.ErrValidation)
	}
	return n, nil
}
