package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/triage-ai/palisade/services/tool_catalog/internal/catalog"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestObserver records per-route request durations.
type RequestObserver interface {
	ObserveRequest(route string, code int, duration time.Duration)
}

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Catalog        *catalog.Catalog
	Logger         *zap.Logger
	Events         EventReader         // nil if ClickHouse unavailable
	Metrics        RequestObserver     // nil disables request metrics
	Gatherer       prometheus.Gatherer // nil serves the default registry
	SuggestLimiter *rate.Limiter       // nil disables suggest rate limiting
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	// Catalog reads
	deps.handle(mux, "GET /catalog/tools", deps.handleListTools)
	deps.handle(mux, "GET /catalog/tools/{name}", deps.handleGetTool)
	deps.handle(mux, "GET /catalog/categories", deps.handleCategories)

	// Backend round trips
	deps.handle(mux, "POST /catalog/suggest", deps.handleSuggest)
	deps.handle(mux, "POST /catalog/reload", deps.handleReload)
	deps.handle(mux, "POST /catalog/tools/{name}/validate", deps.handleValidate)

	// Location helpers
	deps.handle(mux, "GET /catalog/location", deps.handleLocation)
	deps.handle(mux, "GET /catalog/location/parameters", deps.handleLocationParameters)

	// Events & Analytics
	deps.handle(mux, "GET /catalog/events", deps.handleListEvents)
	deps.handle(mux, "GET /catalog/analytics", deps.handleGetAnalytics)

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(requestLogging(mux, deps.Logger))
}

// handle registers h under pattern and records its duration labelled by the pattern.
func (d *Dependencies) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	if d.Metrics == nil {
		mux.HandleFunc(pattern, h)
		return
	}
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)
		d.Metrics.ObserveRequest(pattern, sw.status, time.Since(start))
	})
}
