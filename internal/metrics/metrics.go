// Package metrics exposes the bridge's Prometheus metrics (component 12)
// over a go-chi mux, per SPEC_FULL.md's ambient observability section.
package metrics

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge the bridge reports.
type Metrics struct {
	ActiveRequests     prometheus.Gauge
	RequestsTotal      prometheus.Counter
	ConsistencyRetries prometheus.Counter
	registry           *prometheus.Registry
}

// New registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ActiveRequests: factory.NewGauge(prometheus.GaugeOpts{
			Name: "firehose_active_requests",
			Help: "Number of Stream.Blocks calls currently being served.",
		}),
		RequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "firehose_requests_total",
			Help: "Total number of Stream.Blocks calls accepted.",
		}),
		// ConsistencyRetries counts the datasource.ErrConsistency retries the
		// RPC source's fork navigator makes, per SPEC_FULL.md's
		// supplemented-features section.
		ConsistencyRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "firehose_consistency_retries_total",
			Help: "Total number of upstream consistency-error retries.",
		}),
	}
}

// Server returns an HTTP server exposing /metrics on addr.
func (m *Metrics) Server(addr string) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return &http.Server{Addr: addr, Handler: r}
}

// Shutdown gracefully stops srv.
func Shutdown(ctx context.Context, srv *http.Server) error {
	return srv.Shutdown(ctx)
}
