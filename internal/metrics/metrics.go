// Package metrics provides Prometheus instrumentation for the holdings service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QuoteCacheLookups counts price cache lookups by result (hit, miss).
	QuoteCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brokerage_quote_cache_lookups_total",
		Help: "Price cache lookups by result",
	}, []string{"result"})

	// QuoteSourceRequests counts oracle source calls by source and outcome.
	QuoteSourceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brokerage_quote_source_requests_total",
		Help: "Price source calls by source and outcome",
	}, []string{"source", "outcome"})

	// QuoteFallbacks counts codes that ended up valued at their last transaction price.
	QuoteFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brokerage_quote_fallbacks_total",
		Help: "Codes with no quote from any source",
	})

	// QuoteFetchDuration tracks one batched oracle call.
	QuoteFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "brokerage_quote_fetch_duration_seconds",
		Help:    "Duration of a batched price fetch",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
	})

	// HoldingsComputed counts valuation passes by view.
	HoldingsComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brokerage_holdings_computed_total",
		Help: "Holdings valuation passes by view",
	}, []string{"view"})

	// HoldingsPositions observes how many positions a valuation returned.
	HoldingsPositions = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "brokerage_holdings_positions",
		Help:    "Positions returned per holdings request",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
	})

	// WarmupRuns counts cache warm-up job runs by outcome.
	WarmupRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brokerage_quote_warmup_runs_total",
		Help: "Quote cache warm-up runs by outcome",
	}, []string{"outcome"})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brokerage_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "brokerage_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5, 10},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
// The chi route pattern is used as the path label so URL parameters do
// not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
