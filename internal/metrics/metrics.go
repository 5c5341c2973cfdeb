// Package metrics exports sync run counters in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobsync/internal/jobsync"
)

const namespace = "jobsync"

// Recorder implements jobsync.Metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry
	changes  *prometheus.CounterVec
	invalid  prometheus.Counter
	duration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder. When withRuntime is set the registry also
// carries the Go runtime and process collectors.
func NewRecorder(withRuntime bool) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_changes_total",
			Help:      "Jobs written, deleted or rejected per target store.",
		}, []string{"store", "change"}),
		invalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_feeds_total",
			Help:      "Feed documents that failed schema validation.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall time of sync operations.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"operation"}),
	}

	r.registry.MustRegister(r.changes, r.invalid, r.duration)
	if withRuntime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

func (r *Recorder) Synced(store string, added, deleted, failed int) {
	r.changes.WithLabelValues(store, "added").Add(float64(added))
	r.changes.WithLabelValues(store, "deleted").Add(float64(deleted))
	r.changes.WithLabelValues(store, "failed").Add(float64(failed))
}

func (r *Recorder) InvalidFeed() { r.invalid.Inc() }

func (r *Recorder) Observe(operation string, d time.Duration) {
	r.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// Registry returns the registry the counters live on.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the text exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

var _ jobsync.Metrics = (*Recorder)(nil)
