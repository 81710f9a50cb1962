package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emazahmed/tech/internal/catalog"
	"github.com/emazahmed/tech/internal/domain"
	"github.com/emazahmed/tech/internal/order"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	if raw := q.Get("featured"); raw != "" {
		v := raw == "true"
		f.Featured = &v
	}
	if raw := q.Get("active"); raw != "" {
		v := raw == "true"
		f.Active = &v
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	products, total, err := s.Catalog.List(r.Context(), f)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	norm := f.Normalized()
	writeJSON(w, http.StatusOK, map[string]any{
		"products":   products,
		"pagination": order.NewPagination(norm.Page, norm.Limit, total),
	})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	p, err := s.Catalog.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type productRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	Category       *string          `json:"category"`
	Brand          *string          `json:"brand"`
	SKU            *string          `json:"sku"`
	InventoryCount *int             `json:"inventoryCount"`
	Active         *bool            `json:"active"`
	InStock        *bool            `json:"inStock"`
	Featured       *bool            `json:"featured"`
	Rating         *float64         `json:"rating"`
}

func (req *productRequest) apply(p *domain.Product) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Brand != nil {
		p.Brand = *req.Brand
	}
	if req.SKU != nil {
		p.SKU = *req.SKU
	}
	if req.InventoryCount != nil {
		p.InventoryCount = *req.InventoryCount
		// The in-stock flag tracks the count unless explicitly overridden.
		p.InStock = p.InventoryCount > 0
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if req.InStock != nil {
		p.InStock = *req.InStock
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
	if req.Rating != nil {
		p.Rating = *req.Rating
	}
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	var fields []fieldError
	if req.Name == nil || *req.Name == "" {
		fields = append(fields, fieldError{Field: "name", Message: "required"})
	}
	if req.SKU == nil || *req.SKU == "" {
		fields = append(fields, fieldError{Field: "sku", Message: "required"})
	}
	if req.Price == nil || req.Price.IsNegative() {
		fields = append(fields, fieldError{Field: "price", Message: "must be a non-negative amount"})
	}
	if req.InventoryCount != nil && *req.InventoryCount < 0 {
		fields = append(fields, fieldError{Field: "inventoryCount", Message: "must be non-negative"})
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	var p domain.Product
	req.apply(&p)
	if err := s.Catalog.Create(r.Context(), &p); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Price != nil && req.Price.IsNegative() {
		writeFieldErrors(w, []fieldError{{Field: "price", Message: "must be a non-negative amount"}})
		return
	}
	if req.InventoryCount != nil && *req.InventoryCount < 0 {
		writeFieldErrors(w, []fieldError{{Field: "inventoryCount", Message: "must be non-negative"}})
		return
	}

	p, err := s.Catalog.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	req.apply(p)
	if err := s.Catalog.Update(r.Context(), p); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err := s.Catalog.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deactivated"})
}
