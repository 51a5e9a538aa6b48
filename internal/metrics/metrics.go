// Package metrics counts per-image outcomes of a batch run and exports them
// in the Prometheus textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "roofprep"

// Recorder holds the counters for one command run.
type Recorder struct {
	registry *prometheus.Registry

	processed *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	moved     *prometheus.CounterVec
	duration  prometheus.Gauge
	lastRun   prometheus.Gauge
}

// New creates a recorder whose series carry the command label.
func New(command string) *Recorder {
	labels := prometheus.Labels{"command": command}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "images_processed_total",
			Help:        "Images written to a manifest, by material class.",
			ConstLabels: labels,
		}, []string{"material"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "images_skipped_total",
			Help:        "Images skipped, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		moved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "images_moved_total",
			Help:        "Images moved to or from reassess, by material class.",
			ConstLabels: labels,
		}, []string{"material"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "run_duration_seconds",
			Help:        "Wall time of the last run.",
			ConstLabels: labels,
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix time the last run finished.",
			ConstLabels: labels,
		}),
	}
	r.registry.MustRegister(r.processed, r.skipped, r.moved, r.duration, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Processed counts one written image.
func (r *Recorder) Processed(material string) {
	r.processed.WithLabelValues(material).Inc()
}

// Skipped counts one skipped image.
func (r *Recorder) Skipped(reason string) {
	r.skipped.WithLabelValues(reason).Inc()
}

// Moved counts one moved image.
func (r *Recorder) Moved(material string) {
	r.moved.WithLabelValues(material).Inc()
}

// Finish records the run duration and completion time.
func (r *Recorder) Finish(elapsed time.Duration) {
	r.duration.Set(elapsed.Seconds())
	r.lastRun.SetToCurrentTime()
}

// WriteTextfile writes all series to path for a node_exporter textfile
// collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
