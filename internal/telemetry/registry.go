package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Exporter is a telemetry sink (§4.7).
type Exporter interface {
	Name() string
	Export(ctx context.Context, metrics RequestMetrics) error
}

const (
	registryQueueSize = 1024
	registryWorkers   = 8
	exportTimeout     = 10 * time.Second
)

// Registry fans a RequestMetrics record out to every registered exporter
// without ever blocking the request path: Record enqueues a job per
// exporter on a bounded worker pool and returns immediately. A queue at
// capacity drops its oldest pending job rather than blocking the caller —
// a slow or unreachable sink can never stall a live request (§4.7, §9).
type Registry struct {
	mu        sync.RWMutex
	exporters []Exporter

	queue chan job
	wg    sync.WaitGroup
}

type job struct {
	exporter Exporter
	metrics  RequestMetrics
}

func NewRegistry() *Registry {
	r := &Registry{queue: make(chan job, registryQueueSize)}
	for i := 0; i < registryWorkers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

func (r *Registry) worker() {
	defer r.wg.Done()
	for j := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		if err := j.exporter.Export(ctx, j.metrics); err != nil {
			log.Error().Err(err).Str("exporter", j.exporter.Name()).Str("request_id", j.metrics.ID).
				Msg("telemetry export failed")
		}
		cancel()
	}
}

// Register adds an exporter. Call before traffic starts; Register itself
// is safe to call concurrently with Record but new exporters only see
// subsequently recorded metrics.
func (r *Registry) Register(e Exporter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exporters = append(r.exporters, e)
}

// Record fans metrics out to every registered exporter.
func (r *Registry) Record(metrics RequestMetrics) {
	r.mu.RLock()
	exporters := make([]Exporter, len(r.exporters))
	copy(exporters, r.exporters)
	r.mu.RUnlock()

	for _, e := range exporters {
		r.enqueue(job{exporter: e, metrics: metrics})
	}
}

func (r *Registry) enqueue(j job) {
	select {
	case r.queue <- j:
		return
	default:
	}

	select {
	case <-r.queue:
	default:
	}

	select {
	case r.queue <- j:
	default:
		log.Warn().Str("exporter", j.exporter.Name()).Msg("telemetry queue full, dropping record")
	}
}

// Close stops accepting new work and drains in-flight exports.
func (r *Registry) Close() {
	close(r.queue)
	r.wg.Wait()
}
