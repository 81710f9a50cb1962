package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/emazahmed/tech/internal/domain"
)

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	cust, ok := customerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}
	c, err := s.Carts.Get(r.Context(), cust)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type putCartRequest struct {
	Items []struct {
		ProductID string            `json:"productId"`
		Quantity  int               `json:"quantity"`
		Variant   map[string]string `json:"variant"`
	} `json:"items"`
}

func (s *Server) handlePutCart(w http.ResponseWriter, r *http.Request) {
	cust, ok := customerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}
	var req putCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	items := make([]domain.CartItem, 0, len(req.Items))
	for i, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			writeFieldErrors(w, []fieldError{{Field: itemField(i, "productId"), Message: "must be a UUID"}})
			return
		}
		if it.Quantity <= 0 {
			writeFieldErrors(w, []fieldError{{Field: itemField(i, "quantity"), Message: "must be positive"}})
			return
		}
		items = append(items, domain.CartItem{ProductID: pid, Quantity: it.Quantity, Variant: it.Variant})
	}

	c, err := s.Carts.Put(r.Context(), cust, items)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	cust, ok := customerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}
	if err := s.Carts.Clear(r.Context(), cust); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}
