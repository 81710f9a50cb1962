// Package httpapi exposes the commerce backend over REST. Authentication is
// handled upstream; the fronting session layer identifies the caller through
// the X-Customer-ID header.
package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/emazahmed/tech/internal/catalog"
	"github.com/emazahmed/tech/internal/domain"
	"github.com/emazahmed/tech/internal/order"
	"github.com/emazahmed/tech/pkg/metrics"
)

const customerHeader = "X-Customer-ID"

type OrderService interface {
	Create(ctx context.Context, in order.CreateInput) (*domain.Order, bool, error)
}

type OrderLifecycle interface {
	Transition(ctx context.Context, id uuid.UUID, in order.TransitionInput) (*domain.Order, error)
	Cancel(ctx context.Context, id uuid.UUID, actor, note string) (*domain.Order, error)
	AttachTracking(ctx context.Context, id uuid.UUID, tr domain.Tracking) (*domain.Order, error)
	BulkTransition(ctx context.Context, ids []uuid.UUID, target domain.OrderStatus, actor, note string) []order.BulkResult
}

type OrderQueries interface {
	List(ctx context.Context, f order.Filter) ([]domain.Order, order.Pagination, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ForCustomer(ctx context.Context, id, customerID uuid.UUID) (*domain.Order, error)
	ByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]domain.Order, order.Pagination, error)
	Recent(ctx context.Context, limit int) ([]domain.Order, error)
	Stats(ctx context.Context) (*order.Stats, error)
}

type CatalogService interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, f catalog.Filter) ([]domain.Product, int, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CartService interface {
	Get(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error)
	Put(ctx context.Context, customerID uuid.UUID, items []domain.CartItem) (*domain.Cart, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type Server struct {
	Service   string
	Orders    OrderService
	Lifecycle OrderLifecycle
	Queries   OrderQueries
	Catalog   CatalogService
	Carts     CartService
	Metrics   *metrics.ServerMetrics
	Health    func(ctx context.Context) error
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /orders", s.instrument("list_orders", s.handleListOrders))
	mux.HandleFunc("POST /orders", s.instrument("create_order", s.handleCreateOrder))
	mux.HandleFunc("GET /orders/stats", s.instrument("order_stats", s.handleOrderStats))
	mux.HandleFunc("GET /orders/recent", s.instrument("recent_orders", s.handleRecentOrders))
	mux.HandleFunc("GET /orders/customer/{customerID}", s.instrument("customer_orders", s.handleCustomerOrders))
	mux.HandleFunc("GET /orders/{id}", s.instrument("get_order", s.handleGetOrder))
	mux.HandleFunc("PUT /orders/bulk-status", s.instrument("bulk_status", s.handleBulkStatus))
	mux.HandleFunc("PUT /orders/{id}/status", s.instrument("update_status", s.handleUpdateStatus))
	mux.HandleFunc("DELETE /orders/{id}", s.instrument("cancel_order", s.handleCancelOrder))

	mux.HandleFunc("GET /products", s.instrument("list_products", s.handleListProducts))
	mux.HandleFunc("POST /products", s.instrument("create_product", s.handleCreateProduct))
	mux.HandleFunc("GET /products/{id}", s.instrument("get_product", s.handleGetProduct))
	mux.HandleFunc("PUT /products/{id}", s.instrument("update_product", s.handleUpdateProduct))
	mux.HandleFunc("DELETE /products/{id}", s.instrument("delete_product", s.handleDeleteProduct))

	mux.HandleFunc("GET /cart", s.instrument("get_cart", s.handleGetCart))
	mux.HandleFunc("PUT /cart", s.instrument("put_cart", s.handlePutCart))
	mux.HandleFunc("DELETE /cart", s.instrument("clear_cart", s.handleClearCart))

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Health != nil {
		if err := s.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "db_error"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// customerID reads the session-supplied caller identity. The zero UUID and
// false mean the header is absent or malformed.
func customerID(r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(customerHeader)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
