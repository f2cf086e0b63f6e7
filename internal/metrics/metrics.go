// SPDX-License-Identifier: MPL-2.0

// Package metrics records probe runs as Prometheus metrics and writes them in
// the node_exporter textfile format.
package metrics

import (
	"fmt"
	"sync"

	"conu-cli/pkg/probe"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "conu"

// Recorder implements probe.Observer on a private registry, so several
// recorders (one per test, for example) never collide.
type Recorder struct {
	registry *prometheus.Registry

	attempts *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lastRun  *prometheus.GaugeVec

	mu sync.Mutex
}

var _ probe.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "probe",
				Name:      "attempts_total",
				Help:      "Total number of execution units started",
			},
			[]string{"check"},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "probe",
				Name:      "runs_total",
				Help:      "Total number of finished probe runs by outcome",
			},
			[]string{"check", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "probe",
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of probe runs in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"check"},
		),
		lastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "probe",
				Name:      "last_run_attempts",
				Help:      "Number of attempts made by the most recent run",
			},
			[]string{"check"},
		),
	}
}

// AttemptStarted implements probe.Observer.
func (r *Recorder) AttemptStarted(check string, _ int) {
	r.attempts.WithLabelValues(check).Inc()
}

// RunFinished implements probe.Observer.
func (r *Recorder) RunFinished(check string, res probe.Result) {
	r.runs.WithLabelValues(check, res.Outcome.String()).Inc()
	r.duration.WithLabelValues(check).Observe(res.Elapsed.Seconds())
	r.lastRun.WithLabelValues(check).Set(float64(res.Attempts))
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile atomically writes all metrics to path in the text exposition
// format read by the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
