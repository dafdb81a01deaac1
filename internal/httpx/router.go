package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oribuyin/backend/internal/auth"
)

// Handlers bundles the per-area HTTP handlers the router mounts.
type Handlers struct {
	Orders  *OrderHandler
	Cart    *CartHandler
	Catalog *CatalogHandler
	Search  *SearchHandler
	Reviews *ReviewHandler
}

// NewRouter mounts the API under /api/v1 with authentication and role checks
// mirroring the route table of the original service.
func NewRouter(h Handlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("welcome to OriBuyin server!"))
	})

	authenticate := auth.Authenticate(jwtSecret)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Use(authenticate)

			r.With(auth.Authorize("admin", "staff")).Get("/", h.Orders.ListAll)
			r.With(auth.Authorize("admin", "staff")).Get("/recent", h.Orders.ListRecent)
			r.With(auth.Authorize("admin")).Get("/current-month-revenue", h.Orders.CurrentMonthRevenue)
			r.With(auth.Authorize("admin", "staff")).Get("/by-time-range", h.Orders.ListByTimeRange)
			r.With(auth.Authorize("admin", "staff")).Get("/{orderID}/history", h.Orders.History)
			r.With(auth.Authorize("admin", "staff", "customer")).Get("/{userId}", h.Orders.ListByUser)
			r.With(auth.Authorize("customer")).Post("/", h.Orders.Create)
			r.With(auth.Authorize("admin", "staff", "customer")).Put("/{orderID}/status", h.Orders.UpdateStatus)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(authenticate, auth.Authorize("customer"))

			r.Get("/count", h.Cart.Count)
			r.Get("/{userID}", h.Cart.Get)
			r.Post("/", h.Cart.Add)
			r.Put("/items/{itemID}", h.Cart.UpdateQuantity)
			r.Delete("/items/{itemID}", h.Cart.Remove)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Catalog.List)
			r.Get("/count", h.Catalog.Count)
			r.Get("/{id}", h.Catalog.Get)

			r.With(authenticate, auth.Authorize("admin", "staff")).Put("/{id}/stock", h.Catalog.UpdateStock)
			r.With(authenticate, auth.Authorize("admin", "staff")).Put("/stock/bulk", h.Catalog.BulkUpdateStock)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Use(authenticate)

			r.With(auth.Authorize("admin", "staff")).Get("/by-average-rating", h.Reviews.ByAverageRating)
			r.With(auth.Authorize("customer")).Post("/", h.Reviews.Create)
		})

		r.Route("/search", func(r chi.Router) {
			r.Get("/top", h.Search.Top)

			r.With(authenticate).Get("/history", h.Search.History)
			r.With(authenticate).Delete("/history", h.Search.ClearHistory)
		})
	})

	return r
}
