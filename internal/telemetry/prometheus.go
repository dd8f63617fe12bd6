package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusExporter records in-process counters and a latency histogram
// for scraping at /metrics — the domain-stack addition beyond the source
// system's exporter set (§4.7, SPEC_FULL domain stack).
type PrometheusExporter struct {
	requests *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewPrometheusExporter(registerer prometheus.Registerer) *PrometheusExporter {
	e := &PrometheusExporter{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_gateway_requests_total",
			Help: "Total proxied requests by provider and status code.",
		}, []string{"provider", "status_code"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_gateway_tokens_total",
			Help: "Total tokens observed by provider and kind (input/output).",
		}, []string{"provider", "kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ai_gateway_request_duration_seconds",
			Help:    "End-to-end request latency by provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
	}
	registerer.MustRegister(e.requests, e.tokens, e.latency)
	return e
}

func (e *PrometheusExporter) Name() string { return "prometheus" }

func (e *PrometheusExporter) Export(_ context.Context, metrics RequestMetrics) error {
	e.requests.WithLabelValues(metrics.Provider, fmt.Sprintf("%d", metrics.StatusCode)).Inc()
	e.latency.WithLabelValues(metrics.Provider).Observe(metrics.TotalLatency.Seconds())
	if metrics.InputTokens != nil {
		e.tokens.WithLabelValues(metrics.Provider, "input").Add(float64(*metrics.InputTokens))
	}
	if metrics.OutputTokens != nil {
		e.tokens.WithLabelValues(metrics.Provider, "output").Add(float64(*metrics.OutputTokens))
	}
	return nil
}
