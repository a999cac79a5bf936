// Package metrics exposes the outcome of sync passes as Prometheus metrics.
//
// logkeep does not serve HTTP. The registry is written in the text exposition
// format to a file that the node exporter's textfile collector picks up.
//
// Metrics:
//   - logkeep_sync_files{result}: files per result in the last pass
//   - logkeep_sync_stored_files: archive size after the last pass
//   - logkeep_sync_purged_paths: paths redacted by the last pass
//   - logkeep_sync_duration_seconds: duration of the last pass
//   - logkeep_sync_last_run_timestamp_seconds: start time of the last pass
//   - logkeep_sync_last_success: 1 when the last pass had no failure
//   - logkeep_sync_runs_total: passes observed by this process
package metrics

import (
	"fmt"

	"github.com/bimmerbailey/logkeep/internal/syncer"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "logkeep"
	subsystem = "sync"
)

// Recorder holds the sync metrics and their registry.
type Recorder struct {
	registry *prometheus.Registry

	files       *prometheus.GaugeVec
	stored      prometheus.Gauge
	purged      prometheus.Gauge
	duration    prometheus.Gauge
	lastRun     prometheus.Gauge
	lastSuccess prometheus.Gauge
	runs        prometheus.Counter
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "files",
				Help:      "Files handled by the last sync pass, by result",
			},
			[]string{"result"},
		),
		stored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stored_files",
			Help:      "Archived log files after the last sync pass",
		}),
		purged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "purged_paths",
			Help:      "Sensitive paths removed from lines archived by the last sync pass",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duration_seconds",
			Help:      "Duration of the last sync pass in seconds",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last sync pass started",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_success",
			Help:      "1 if the last sync pass completed without failures, 0 otherwise",
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Sync passes observed by this process",
		}),
	}

	r.registry.MustRegister(r.files, r.stored, r.purged, r.duration, r.lastRun, r.lastSuccess, r.runs)
	return r
}

// Observe records the outcome of a pass. Dry runs are ignored.
func (r *Recorder) Observe(rep *syncer.Report) {
	if rep == nil || rep.DryRun {
		return
	}

	r.files.WithLabelValues("archived").Set(float64(len(rep.Archived)))
	r.files.WithLabelValues("skipped").Set(float64(rep.Skipped))
	r.files.WithLabelValues("failed").Set(float64(len(rep.Failed)))
	r.files.WithLabelValues("evicted").Set(float64(len(rep.Evicted)))
	r.files.WithLabelValues("invalid").Set(float64(len(rep.Invalid)))

	r.stored.Set(float64(rep.Stored))
	r.purged.Set(float64(rep.Purged))
	r.duration.Set(rep.Duration.Seconds())
	r.lastRun.Set(float64(rep.StartedAt.Unix()))
	if rep.OK() {
		r.lastSuccess.Set(1)
	} else {
		r.lastSuccess.Set(0)
	}
	r.runs.Inc()
}

// WriteTextfile writes the current metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
