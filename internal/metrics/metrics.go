// Package metrics exposes monitor snapshots as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"connwatch/internal/analysis"
	"connwatch/internal/monitor"
)

const namespace = "connwatch"

// Exporter holds the collectors updated from each published snapshot.
type Exporter struct {
	registry *prometheus.Registry

	connections prometheus.Gauge
	suspicious  prometheus.Gauge
	external    prometheus.Gauge
	processes   prometheus.Gauge
	averageRisk prometheus.Gauge
	byTier      *prometheus.GaugeVec
	passes      *prometheus.CounterVec
	degraded    prometheus.Counter
	lastPass    prometheus.Gauge
}

// NewExporter creates an exporter with its own registry.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Established connections seen in the last pass.",
		}),
		suspicious: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suspicious_connections",
			Help:      "Connections with risk above zero in the last pass.",
		}),
		external: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "external_connections",
			Help:      "Connections to non-private remote addresses in the last pass.",
		}),
		processes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unique_processes",
			Help:      "Distinct process names in the last pass.",
		}),
		averageRisk: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "average_risk",
			Help:      "Mean risk over suspicious connections in the last pass.",
		}),
		byTier: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_by_tier",
			Help:      "Suspicious connections per risk tier in the last pass.",
		}, []string{"tier"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Published sampling passes by listing source.",
		}, []string{"source"}),
		degraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_passes_total",
			Help:      "Published passes that fell back to placeholder data.",
		}),
		lastPass: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_pass_timestamp_seconds",
			Help:      "Capture time of the last published pass.",
		}),
	}

	e.registry.MustRegister(
		e.connections,
		e.suspicious,
		e.external,
		e.processes,
		e.averageRisk,
		e.byTier,
		e.passes,
		e.degraded,
		e.lastPass,
		prometheus.NewGoCollector(),
		prometheus.NewBuildInfoCollector(),
	)
	return e
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

// Observe updates the collectors from a snapshot. It has the monitor.Sink
// signature.
func (e *Exporter) Observe(snap monitor.Snapshot) {
	st := snap.Stats
	e.connections.Set(float64(st.TotalConnections))
	e.suspicious.Set(float64(st.TotalSuspicious))
	e.external.Set(float64(st.ExternalConnections))
	e.processes.Set(float64(st.UniqueProcesses))
	e.averageRisk.Set(st.AverageRisk)

	tiers := map[analysis.Tier]int{
		analysis.TierLow:    0,
		analysis.TierMedium: 0,
		analysis.TierHigh:   0,
	}
	for _, s := range snap.Batch.Suspicious {
		tiers[analysis.TierOf(s.Risk.RiskLevel)]++
	}
	for tier, n := range tiers {
		e.byTier.WithLabelValues(string(tier)).Set(float64(n))
	}

	e.passes.WithLabelValues(snap.Batch.Source).Inc()
	if snap.Batch.Degraded {
		e.degraded.Inc()
	}
	if !snap.Batch.CapturedAt.IsZero() {
		e.lastPass.Set(float64(snap.Batch.CapturedAt.Unix()))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve runs the metrics endpoint until ctx is cancelled.
func (e *Exporter) Serve(ctx context.Context, listen, path string, logger zerolog.Logger) error {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, e.Handler())

	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("listen", listen).Str("path", path).Msg("Serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		return nil
	}
}
