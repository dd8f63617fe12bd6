package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/compresr/ai-gateway/internal/config"
	"github.com/compresr/ai-gateway/internal/telemetry"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

// Gateway is the HTTP surface described in §6: GET /health, ANY /v1/*
// proxied through the pipeline, GET /metrics when Prometheus is enabled.
type Gateway struct {
	cfg      *config.Config
	server   *http.Server
	registry *telemetry.Registry
	pipeline *Pipeline
}

// New wires the shared HTTP client, the AWS signer, the provider pipeline,
// and every configured telemetry exporter into a Gateway ready to Start.
func New(cfg *config.Config) *Gateway {
	client := NewHTTPClient(cfg.Server.MaxConnections, time.Duration(cfg.Server.TCPKeepAliveInterval)*time.Second, cfg.Server.TCPNoDelay)
	signer := NewSigner(cfg.AWS.Region, cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey)
	pipeline := NewPipeline(client, signer)

	registry := telemetry.NewRegistry()
	if cfg.Telemetry.ConsoleEnabled {
		registry.Register(telemetry.NewConsoleExporter(Version, cfg.Environment))
	}
	if cfg.Elasticsearch.URL != "" {
		registry.Register(telemetry.NewElasticsearchExporter(
			cfg.Elasticsearch.URL, cfg.Elasticsearch.Username, cfg.Elasticsearch.Password,
			cfg.Elasticsearch.Index, Version, cfg.Environment,
		))
	}
	var promExporter *telemetry.PrometheusExporter
	if cfg.Telemetry.PrometheusEnabled {
		promExporter = telemetry.NewPrometheusExporter(prometheus.DefaultRegisterer)
		registry.Register(promExporter)
	}

	g := &Gateway{cfg: cfg, registry: registry, pipeline: pipeline}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", g.handleHealth)
	if cfg.Telemetry.PrometheusEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/v1/", newTelemetryHandler(pipeline, registry))

	handler := panicRecovery(cors(mux))

	g.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streaming responses can run indefinitely
		IdleTimeout:  90 * time.Second,
	}
	return g
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

// Start blocks serving HTTP until the listener is closed.
func (g *Gateway) Start() error {
	log.Info().Str("addr", g.server.Addr).Msg("listening")
	err := g.server.ListenAndServe()
	if err != nil && strings.Contains(err.Error(), "Server closed") {
		return nil
	}
	return err
}

// Shutdown stops accepting new connections, waits for in-flight requests to
// finish (bounded by ctx), and drains the telemetry registry.
func (g *Gateway) Shutdown(ctx context.Context) error {
	err := g.server.Shutdown(ctx)
	g.registry.Close()
	return err
}
