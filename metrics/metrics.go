// Package metrics counts validation outcomes in a Prometheus registry and
// writes them out in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/atera/activity/validation"
)

const namespace = "atera"

// Normalizer change kinds used as the kind label.
const (
	KindLineBreaks = "line_breaks"
	KindAccents    = "accents"
	KindCasing     = "casing"
	KindSpaces     = "spaces"
)

// Recorder records validation outcomes.
type Recorder struct {
	registry *prometheus.Registry

	validations *prometheus.CounterVec
	problems    prometheus.Counter
	warnings    prometheus.Counter
	changes     *prometheus.CounterVec
	duration    prometheus.Histogram

	mu sync.Mutex
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Activity documents validated, by outcome.",
		}, []string{"outcome"}),
		problems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "problems_total",
			Help:      "Problems found in validated documents.",
		}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Warnings found in validated documents.",
		}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalizer_changes_total",
			Help:      "Text artifacts found by the normalizer, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Time spent validating one document.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	r.registry.MustRegister(r.validations, r.problems, r.warnings, r.changes, r.duration)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one validation.
func (r *Recorder) Observe(result *validation.Result, elapsed time.Duration) {
	if r == nil || result == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	outcome := "valid"
	switch {
	case !result.Valid():
		outcome = "invalid"
	case len(result.Warnings) > 0:
		outcome = "warnings"
	}
	r.validations.WithLabelValues(outcome).Inc()
	r.problems.Add(float64(len(result.Problems)))
	r.warnings.Add(float64(len(result.Warnings)))
	r.changes.WithLabelValues(KindLineBreaks).Add(float64(result.Log.LineBreaks))
	r.changes.WithLabelValues(KindAccents).Add(float64(result.Log.Accents))
	r.changes.WithLabelValues(KindCasing).Add(float64(result.Log.Casing))
	r.changes.WithLabelValues(KindSpaces).Add(float64(result.Log.Spaces))
	r.duration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the registry to path for the node-exporter textfile
// collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
