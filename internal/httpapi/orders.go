package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emazahmed/tech/internal/domain"
	"github.com/emazahmed/tech/internal/inventory"
	"github.com/emazahmed/tech/internal/order"
	"github.com/emazahmed/tech/pkg/idempotency"
)

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := order.Filter{
		Status:    domain.OrderStatus(q.Get("status")),
		Search:    strings.TrimSpace(q.Get("search")),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	if f.Status != "" && !f.Status.Valid() {
		writeFieldErrors(w, []fieldError{{Field: "status", Message: "unknown status"}})
		return
	}
	if raw := q.Get("customerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeFieldErrors(w, []fieldError{{Field: "customerId", Message: "must be a UUID"}})
			return
		}
		f.CustomerID = id
	}
	if t, ok := parseDate(q.Get("startDate")); ok {
		f.From = t
	}
	if t, ok := parseDateEnd(q.Get("endDate")); ok {
		f.To = t
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	orders, pagination, err := s.Queries.List(r.Context(), f)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	stats, err := s.Queries.Stats(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders":     orders,
		"pagination": pagination,
		"stats":      stats,
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	cust, ok := customerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}
	o, err := s.Queries.ForCustomer(r.Context(), id, cust)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type createOrderItem struct {
	ProductID string            `json:"productId"`
	Quantity  int               `json:"quantity"`
	Variant   map[string]string `json:"variant"`
}

type pricingPayload struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

type paymentPayload struct {
	Method        string `json:"method"`
	TransactionID string `json:"transactionId"`
	LastFour      string `json:"lastFour"`
}

type createOrderRequest struct {
	Items           []createOrderItem `json:"items"`
	ShippingAddress domain.Address    `json:"shippingAddress"`
	PaymentInfo     paymentPayload    `json:"paymentInfo"`
	Notes           string            `json:"notes"`
	PromoCode       string            `json:"promoCode"`
	Pricing         *pricingPayload   `json:"pricing"`
}

func (req *createOrderRequest) validate() []fieldError {
	var fields []fieldError
	if req.ShippingAddress.Line1 == "" {
		fields = append(fields, fieldError{Field: "shippingAddress.line1", Message: "required"})
	}
	if req.ShippingAddress.City == "" {
		fields = append(fields, fieldError{Field: "shippingAddress.city", Message: "required"})
	}
	if req.ShippingAddress.PostalCode == "" {
		fields = append(fields, fieldError{Field: "shippingAddress.postalCode", Message: "required"})
	}
	if req.ShippingAddress.Country == "" {
		fields = append(fields, fieldError{Field: "shippingAddress.country", Message: "required"})
	}
	if req.PaymentInfo.Method == "" {
		fields = append(fields, fieldError{Field: "paymentInfo.method", Message: "required"})
	}
	for i, it := range req.Items {
		if _, err := uuid.Parse(it.ProductID); err != nil {
			fields = append(fields, fieldError{Field: itemField(i, "productId"), Message: "must be a UUID"})
		}
		if it.Quantity <= 0 {
			fields = append(fields, fieldError{Field: itemField(i, "quantity"), Message: "must be positive"})
		}
	}
	return fields
}

func itemField(i int, name string) string {
	return "items[" + strconv.Itoa(i) + "]." + name
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	cust, ok := customerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	in := order.CreateInput{
		CustomerID:      cust,
		ShippingAddress: req.ShippingAddress,
		Payment: order.PaymentInput{
			Method:        req.PaymentInfo.Method,
			TransactionID: req.PaymentInfo.TransactionID,
			LastFour:      req.PaymentInfo.LastFour,
		},
		Notes:          req.Notes,
		PromoCode:      req.PromoCode,
		IdempotencyKey: idempotency.Key(r),
	}
	for _, it := range req.Items {
		pid, _ := uuid.Parse(it.ProductID)
		in.Items = append(in.Items, inventory.Request{ProductID: pid, Quantity: it.Quantity, Variant: it.Variant})
	}
	if req.Pricing != nil {
		in.SuppliedPricing = &domain.Pricing{
			Subtotal: req.Pricing.Subtotal,
			Tax:      req.Pricing.Tax,
			Shipping: req.Pricing.Shipping,
			Discount: req.Pricing.Discount,
			Total:    req.Pricing.Total,
		}
	}

	o, replayed, err := s.Orders.Create(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if replayed {
		writeJSON(w, http.StatusOK, o)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

type updateStatusRequest struct {
	Status            string `json:"status"`
	Notes             string `json:"notes"`
	TrackingNumber    string `json:"trackingNumber"`
	Carrier           string `json:"carrier"`
	EstimatedDelivery string `json:"estimatedDelivery"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	var tr *domain.Tracking
	if req.TrackingNumber != "" || req.Carrier != "" {
		tr = &domain.Tracking{Carrier: req.Carrier, TrackingNumber: req.TrackingNumber}
		if t, ok := parseDate(req.EstimatedDelivery); ok {
			tr.EstimatedDelivery = t
		}
	}

	// Tracking can be attached or corrected without moving through the
	// lifecycle: an absent status, or one equal to the current status, is a
	// tracking-only update.
	target := domain.OrderStatus(req.Status)
	trackingOnly := req.Status == ""
	if !trackingOnly && tr != nil {
		if cur, err := s.Queries.Get(r.Context(), id); err == nil && cur.Status == target {
			trackingOnly = true
		}
	}
	if trackingOnly {
		if tr == nil {
			writeFieldErrors(w, []fieldError{{Field: "status", Message: "required"}})
			return
		}
		o, err := s.Lifecycle.AttachTracking(r.Context(), id, *tr)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
		return
	}

	o, err := s.Lifecycle.Transition(r.Context(), id, order.TransitionInput{
		Target:   target,
		Actor:    actor(r),
		Note:     req.Notes,
		Tracking: tr,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type bulkStatusRequest struct {
	OrderIDs []string `json:"orderIds"`
	Status   string   `json:"status"`
	Notes    string   `json:"notes"`
}

func (s *Server) handleBulkStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.OrderIDs) == 0 {
		writeFieldErrors(w, []fieldError{{Field: "orderIds", Message: "required"}})
		return
	}
	target := domain.OrderStatus(req.Status)
	if !target.Valid() {
		writeFieldErrors(w, []fieldError{{Field: "status", Message: "unknown status"}})
		return
	}
	ids := make([]uuid.UUID, 0, len(req.OrderIDs))
	for i, raw := range req.OrderIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeFieldErrors(w, []fieldError{{Field: "orderIds[" + strconv.Itoa(i) + "]", Message: "must be a UUID"}})
			return
		}
		ids = append(ids, id)
	}

	results := s.Lifecycle.BulkTransition(r.Context(), ids, target, actor(r), req.Notes)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	// A caller identified as a customer may only cancel their own orders.
	if cust, ok := customerID(r); ok {
		if _, err := s.Queries.ForCustomer(r.Context(), id, cust); err != nil {
			s.writeDomainError(w, err)
			return
		}
	}
	o, err := s.Lifecycle.Cancel(r.Context(), id, actor(r), "order cancelled")
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleCustomerOrders(w http.ResponseWriter, r *http.Request) {
	custID, err := uuid.Parse(r.PathValue("customerID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	orders, pagination, err := s.Queries.ByCustomer(r.Context(), custID, page, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "pagination": pagination})
}

func (s *Server) handleOrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Queries.Stats(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRecentOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 5
	}
	orders, err := s.Queries.Recent(r.Context(), limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// actor is the identity recorded in status history. Back-office callers pass
// X-Actor; customers fall back to their id.
func actor(r *http.Request) string {
	if a := strings.TrimSpace(r.Header.Get("X-Actor")); a != "" {
		return a
	}
	if id, ok := customerID(r); ok {
		return id.String()
	}
	return "system"
}
