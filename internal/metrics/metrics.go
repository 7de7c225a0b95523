// Package metrics describes re-scoring runs as Prometheus metrics. The CLI is
// short-lived, so metrics are written to a node-exporter textfile instead of
// being served.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "promptstudio"

// Run summarizes one re-scoring pass.
type Run struct {
	Started time.Time
	// Scored counts the prompts whose score was stored, by prompt type.
	Scored map[string]int
	// LowContinuity counts prompts that scored below the continuity threshold.
	LowContinuity int
	Err           error
}

// Recorder owns a private registry with the re-scoring metrics.
type Recorder struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	scored        *prometheus.CounterVec
	lowContinuity prometheus.Gauge
	duration      prometheus.Histogram
	lastRun       prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Recorder{
		registry: registry,
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rescore_runs_total",
				Help:      "Re-scoring runs, partitioned by result.",
			},
			[]string{"result"},
		),
		scored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prompts_scored_total",
				Help:      "Prompts re-scored, partitioned by prompt type.",
			},
			[]string{"type"},
		),
		lowContinuity: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "low_continuity_prompts",
				Help:      "Prompts below the continuity threshold in the last run.",
			},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rescore_duration_seconds",
				Help:      "Duration of re-scoring runs.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rescore_last_run_timestamp_seconds",
				Help:      "Unix time the last re-scoring run finished.",
			},
		),
	}
}

// ObserveRun records a finished run.
func (r *Recorder) ObserveRun(run Run) {
	finished := time.Now()
	if !run.Started.IsZero() {
		r.duration.Observe(finished.Sub(run.Started).Seconds())
	}
	r.lastRun.Set(float64(finished.Unix()))

	if run.Err != nil {
		r.runs.WithLabelValues("error").Inc()
		return
	}
	r.runs.WithLabelValues("ok").Inc()
	for promptType, n := range run.Scored {
		r.scored.WithLabelValues(promptType).Add(float64(n))
	}
	r.lowContinuity.Set(float64(run.LowContinuity))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current metrics to path in the text exposition
// format, replacing the file atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
