// Package metrics exposes catalog and HTTP outcome counts to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/triage-ai/palisade/services/tool_catalog/internal/catalog"
)

const (
	statusSuccess = "success"
	statusError   = "error"
	statusCached  = "cached"
)

type PrometheusMetrics struct {
	fetchTotal      *prometheus.CounterVec
	tools           prometheus.Gauge
	suggestTotal    *prometheus.CounterVec
	suggestDuration prometheus.Histogram
	requestDuration *prometheus.HistogramVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		fetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_catalog_fetch_total",
				Help: "Total number of tool list fetches by outcome",
			},
			[]string{"status"},
		),
		tools: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tool_catalog_tools",
				Help: "Number of tools held by the catalog after the last successful fetch",
			},
		),
		suggestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_catalog_suggest_total",
				Help: "Total number of tool suggestions by outcome",
			},
			[]string{"status"},
		),
		suggestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tool_catalog_suggest_duration_seconds",
				Help:    "Duration of tool suggestions in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_catalog_http_request_duration_seconds",
				Help:    "Duration of catalog API requests in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"route", "code"},
		),
	}
}

func (p *PrometheusMetrics) ObserveFetch(success bool, toolCount int) {
	if !success {
		p.fetchTotal.WithLabelValues(statusError).Inc()
		return
	}
	p.fetchTotal.WithLabelValues(statusSuccess).Inc()
	p.tools.Set(float64(toolCount))
}

func (p *PrometheusMetrics) ObserveSuggest(success, cached bool, duration time.Duration) {
	status := statusSuccess
	switch {
	case !success:
		status = statusError
	case cached:
		status = statusCached
	}
	p.suggestTotal.WithLabelValues(status).Inc()
	p.suggestDuration.Observe(duration.Seconds())
}

// ObserveRequest records one API request. route is the registered pattern,
// not the raw path, to keep label cardinality bounded.
func (p *PrometheusMetrics) ObserveRequest(route string, code int, duration time.Duration) {
	p.requestDuration.WithLabelValues(route, strconv.Itoa(code)).Observe(duration.Seconds())
}

var _ catalog.Observer = (*PrometheusMetrics)(nil)
