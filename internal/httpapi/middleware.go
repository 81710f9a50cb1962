package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/emazahmed/tech/pkg/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with the request counter, latency histogram and
// a structured log line per request.
func (s *Server) instrument(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		elapsed := time.Since(start)
		if s.Metrics != nil {
			s.Metrics.Requests.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
			s.Metrics.LatencyMS.WithLabelValues(name).Observe(float64(elapsed.Milliseconds()))
		}
		logging.Log(logging.Fields{
			Service:    s.Service,
			Step:       name,
			Status:     strconv.Itoa(rec.status),
			DurationMS: elapsed.Milliseconds(),
		})
	}
}
