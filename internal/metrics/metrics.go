// Package metrics records per-run counters for audits, script policy actions
// and migration steps in a Prometheus registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns a private registry so one process run never mixes with another.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	// repositories counts audited repositories by tier ("failed" for failed rows)
	repositories *prometheus.CounterVec

	// scriptActions counts audit log entries by action
	scriptActions *prometheus.CounterVec

	// steps counts migration step outcomes
	steps *prometheus.CounterVec

	// stepDuration tracks migration step latency
	stepDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		repositories: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pkgguard_repositories_total",
			Help: "Audited repositories by risk tier",
		}, []string{"tier"}),
		scriptActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pkgguard_script_actions_total",
			Help: "Script policy audit entries by action",
		}, []string{"action"}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pkgguard_migration_steps_total",
			Help: "Migration step outcomes by step",
		}, []string{"step", "outcome"}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pkgguard_migration_step_duration_seconds",
			Help:    "Migration step duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8), // 10ms to ~3m
		}, []string{"step"}),
	}
}

// ObserveTier counts one audited repository.
func (r *Recorder) ObserveTier(tier string) {
	if r == nil {
		return
	}
	r.repositories.WithLabelValues(tier).Inc()
}

// ObserveScriptAction counts one audit log entry.
func (r *Recorder) ObserveScriptAction(action string) {
	if r == nil {
		return
	}
	r.scriptActions.WithLabelValues(action).Inc()
}

// ObserveStep counts one migration step outcome and its duration.
func (r *Recorder) ObserveStep(step, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.steps.WithLabelValues(step, outcome).Inc()
	r.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes the registry in the text exposition format, atomically,
// for node_exporter's textfile collector. Empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
