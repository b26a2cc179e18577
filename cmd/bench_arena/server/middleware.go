package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bench-arena/bench-arena/internal/metrics"
)

// Middleware wraps an http.Handler to collect Prometheus metrics
func Middleware(next http.Handler, m *metrics.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Track in-flight requests
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		// Create a response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		// Call the next handler
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		method := r.Method
		path := r.URL.Path
		code := strconv.Itoa(rw.statusCode)

		m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
		m.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	})
}

// CorsMiddleware allows cross-origin requests; used in local mode only.
func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Global-Transaction-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
