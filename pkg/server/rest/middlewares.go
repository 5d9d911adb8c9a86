package rest

import (
	"net/http"
	"strconv"
	"time"

	"lintang/greenwave/pkg/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func NewResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// routePattern pakai pattern chi biar label path tidak meledak (misal /swagger/*).
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func PromeHttpMiddleware(m *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := NewResponseWriter(w)
			now := time.Now()

			next.ServeHTTP(rw, r)

			path := routePattern(r)
			statusCode := strconv.Itoa(rw.statusCode)
			elapsed := time.Since(now).Seconds()
			m.HTTPDuration.With(prometheus.Labels{"method": r.Method, "path": path}).Observe(elapsed)
			m.ResponseStatusCode.With(prometheus.Labels{"status": statusCode, "method": r.Method, "path": path}).Inc()
			m.TotalRequests.With(prometheus.Labels{"path": path, "method": r.Method, "status": statusCode}).Inc()
			m.DurationSummary.Observe(elapsed)
		})
	}
}
