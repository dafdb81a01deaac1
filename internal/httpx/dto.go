package httpx

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/oribuyin/backend/internal/domain"
	"github.com/oribuyin/backend/internal/order"
	"github.com/oribuyin/backend/internal/search"
	"github.com/oribuyin/backend/internal/store"
)

type createOrderRequest struct {
	ShippingAddress string                `json:"shipping_address"`
	PaymentMethod   string                `json:"payment_method"`
	Products        []orderProductRequest `json:"products"`
	VoucherDiscount decimal.Decimal       `json:"voucher_discount"`
	ShippingFee     *decimal.Decimal      `json:"shipping_fee"`
}

type orderProductRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type updateStockRequest struct {
	StockQuantity int `json:"stock_quantity"`
}

type bulkStockRequest struct {
	Products []bulkStockEntry `json:"products"`
}

type bulkStockEntry struct {
	ProductID     string `json:"product_id"`
	StockQuantity int    `json:"stock_quantity"`
}

type orderResponse struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	OrderDate       time.Time       `json:"order_date"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   string          `json:"payment_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type orderItemResponse struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"order_id"`
	ProductID        string          `json:"product_id"`
	Quantity         int             `json:"quantity"`
	PriceAtOrderTime decimal.Decimal `json:"price_at_order_time"`
	Product          *productSummary `json:"product,omitempty"`
}

type productSummary struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Discount decimal.Decimal `json:"discount"`
	Image    string          `json:"image"`
}

type orderWithItemsResponse struct {
	orderResponse
	OrderItems []orderItemResponse `json:"order_items"`
}

type placedOrderResponse struct {
	Order      orderResponse       `json:"order"`
	OrderItems []orderItemResponse `json:"order_items"`
}

type statusChangeResponse struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	TraceID    string    `json:"trace_id,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

type productResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Discount      decimal.Decimal `json:"discount"`
	StockQuantity int             `json:"stock_quantity"`
	Image         string          `json:"image"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type cartResponse struct {
	CartID string             `json:"cart_id"`
	Items  []cartItemResponse `json:"items"`
}

type cartItemResponse struct {
	CartItemID string          `json:"cart_item_id"`
	Quantity   int             `json:"quantity"`
	Product    productResponse `json:"product"`
}

type trendResponse struct {
	Keyword string `json:"keyword"`
	Count   int64  `json:"count"`
}

type createReviewRequest struct {
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type reviewResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ratingSummaryResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	AvgRating   float64 `json:"avg_rating"`
	ReviewCount int     `json:"review_count"`
}

func mapOrder(o domain.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderDate:       o.OrderDate,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func mapOrderItem(it domain.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:               it.ID,
		OrderID:          it.OrderID,
		ProductID:        it.ProductID,
		Quantity:         it.Quantity,
		PriceAtOrderTime: it.PriceAtOrderTime,
	}
}

func mapPlacedOrder(p *order.PlacedOrder) placedOrderResponse {
	items := make([]orderItemResponse, len(p.Items))
	for i, it := range p.Items {
		items[i] = mapOrderItem(it)
	}
	return placedOrderResponse{Order: mapOrder(p.Order), OrderItems: items}
}

func mapOrdersWithItems(orders []store.OrderWithItems) []orderWithItemsResponse {
	out := make([]orderWithItemsResponse, len(orders))
	for i, owi := range orders {
		resp := orderWithItemsResponse{orderResponse: mapOrder(owi.Order)}
		for _, line := range owi.Items {
			item := mapOrderItem(line.Item)
			if line.Product != nil {
				item.Product = &productSummary{
					ID:       line.Product.ID,
					Name:     line.Product.Name,
					Price:    line.Product.Price,
					Discount: line.Product.Discount,
					Image:    line.Product.Image,
				}
			}
			resp.OrderItems = append(resp.OrderItems, item)
		}
		out[i] = resp
	}
	return out
}

func mapStatusHistory(history []domain.StatusChange) []statusChangeResponse {
	out := make([]statusChangeResponse, len(history))
	for i, c := range history {
		out[i] = statusChangeResponse{
			ID:         c.ID,
			OrderID:    c.OrderID,
			FromStatus: string(c.FromStatus),
			ToStatus:   string(c.ToStatus),
			TraceID:    c.TraceID,
			ChangedAt:  c.ChangedAt,
		}
	}
	return out
}

func mapProduct(p domain.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Discount:      p.Discount,
		StockQuantity: p.StockQuantity,
		Image:         p.Image,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func mapProducts(products []domain.Product) []productResponse {
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = mapProduct(p)
	}
	return out
}

func mapCart(cartID string, lines []store.CartLine) cartResponse {
	resp := cartResponse{CartID: cartID, Items: []cartItemResponse{}}
	for _, line := range lines {
		resp.Items = append(resp.Items, cartItemResponse{
			CartItemID: line.Item.ID,
			Quantity:   line.Item.Quantity,
			Product:    mapProduct(line.Product),
		})
	}
	return resp
}

func mapReview(r domain.Review) reviewResponse {
	return reviewResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func mapRatingSummaries(summaries []store.RatingSummary) []ratingSummaryResponse {
	out := make([]ratingSummaryResponse, len(summaries))
	for i, s := range summaries {
		out[i] = ratingSummaryResponse{
			ProductID:   s.ProductID,
			ProductName: s.ProductName,
			AvgRating:   s.AvgRating,
			ReviewCount: s.ReviewCount,
		}
	}
	return out
}

func mapTrends(entries []search.TrendEntry) []trendResponse {
	out := make([]trendResponse, len(entries))
	for i, e := range entries {
		out[i] = trendResponse{Keyword: e.Keyword, Count: e.Count}
	}
	return out
}
