// Package metrics collects per-run preprocessing metrics and writes them in
// the Prometheus text format, for pickup by a node_exporter textfile
// collector after the batch run exits.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/YuminosukeSato/mleprep/pkg/errors"
)

const namespace = "mleprep"

// Run holds the collectors of one process.
type Run struct {
	registry *prometheus.Registry

	Rows         *prometheus.GaugeVec
	Features     prometheus.Gauge
	Duration     prometheus.Gauge
	ArtifactSize prometheus.Gauge
	LastSuccess  prometheus.Gauge
	Failures     *prometheus.CounterVec
}

// NewRun creates the collectors on a private registry.
func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		Rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows",
			Help:      "Rows transformed in the last run, by split.",
		}, []string{"split"}),
		Features: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "features",
			Help:      "Output feature columns of the fitted preprocessor, target excluded.",
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		ArtifactSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of the persisted preprocessor.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failed runs, by failing step.",
		}, []string{"step"}),
	}
	r.registry.MustRegister(r.Rows, r.Features, r.Duration, r.ArtifactSize, r.LastSuccess, r.Failures)
	return r
}

// Registry exposes the underlying registry, for tests and custom exporters.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes every collected metric to path atomically, creating
// the parent directory.
func (r *Run) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create metrics directory for %s", path)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrap(err, "failed to write metrics textfile")
	}
	return nil
}
