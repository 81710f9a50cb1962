package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/emazahmed/tech/internal/domain"
	"github.com/emazahmed/tech/internal/order"
	"github.com/emazahmed/tech/pkg/logging"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func writeFieldErrors(w http.ResponseWriter, fields []fieldError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": fields})
}

// writeDomainError maps business errors onto status codes; anything
// unrecognized is a 500 with the detail logged, not surfaced.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrProductUnavailable),
		errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrInsufficientInventory),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrPricingMismatch),
		errors.Is(err, domain.ErrCartEmpty),
		errors.Is(err, domain.ErrCustomerNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNumberCollision):
		writeError(w, http.StatusConflict, "order number collision, retry the request")
	default:
		logging.Log(logging.Fields{Service: s.Service, Status: "error", Message: err.Error()})
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// parseDate accepts RFC 3339 or a bare yyyy-mm-dd.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// parseDateEnd reads an upper-bound date; a bare yyyy-mm-dd extends to the
// last instant of that day so the bound includes the day's orders.
func parseDateEnd(s string) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.AddDate(0, 0, 1).Add(-time.Nanosecond), true
	}
	return parseDate(s)
}
