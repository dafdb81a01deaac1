package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oribuyin/backend/internal/auth"
	"github.com/oribuyin/backend/internal/catalog"
	"github.com/oribuyin/backend/internal/domain"
)

// CatalogService is the product-lookup capability as the HTTP layer consumes
// it.
type CatalogService interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Product(ctx context.Context, id string) (*domain.Product, error)
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, userID, keyword string) ([]domain.Product, error)
	SetStock(ctx context.Context, productID string, quantity int) (*domain.Product, error)
	BulkSetStock(ctx context.Context, updates []catalog.StockUpdate) ([]catalog.StockUpdateResult, error)
}

// CatalogHandler serves the /products routes.
type CatalogHandler struct {
	products CatalogService
}

func NewCatalogHandler(products CatalogService) *CatalogHandler {
	return &CatalogHandler{products: products}
}

// List returns the catalog; a keyword query switches to a name search and
// records the keyword as a search trend for the requesting user.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")

	if keyword != "" {
		user, _ := auth.UserFromContext(r.Context())
		products, err := h.products.Search(r.Context(), user.ID, keyword)
		if err != nil {
			respondError(r.Context(), w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "search products successful", mapProducts(products))
		return
	}

	products, err := h.products.Products(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "products fetched successfully", mapProducts(products))
}

// Get returns a single product.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "product fetched successfully", mapProduct(*p))
}

// Count returns the catalog size.
func (h *CatalogHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.products.Count(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "product count fetched successfully",
		map[string]int{"count": n})
}

// UpdateStock overwrites one product's stock level (staff operation).
func (h *CatalogHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	var req updateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(r.Context(), w,
			fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}

	p, err := h.products.SetStock(r.Context(), productID, req.StockQuantity)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "product stock updated successfully", mapProduct(*p))
}

// BulkUpdateStock applies a batch of stock overwrites; unknown products are
// reported per entry instead of failing the batch.
func (h *CatalogHandler) BulkUpdateStock(w http.ResponseWriter, r *http.Request) {
	var req bulkStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(r.Context(), w,
			fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}

	updates := make([]catalog.StockUpdate, len(req.Products))
	for i, e := range req.Products {
		updates[i] = catalog.StockUpdate{ProductID: e.ProductID, Quantity: e.StockQuantity}
	}

	results, err := h.products.BulkSetStock(r.Context(), updates)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	out := make([]map[string]any, len(results))
	for i, res := range results {
		entry := map[string]any{
			"product_id": res.ProductID,
		}
		if res.Updated {
			entry["subcode"] = 1
			entry["stock_quantity"] = res.Product.StockQuantity
			entry["message"] = "update product stock quantity successful"
		} else {
			entry["subcode"] = 0
			entry["message"] = "no products are found"
		}
		out[i] = entry
	}
	respondSuccess(w, http.StatusOK, "bulk stock update processed", out)
}
