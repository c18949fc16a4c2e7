// Package metrics exposes Prometheus collectors for the workflow core.
// Not present in the teacher repo; wired in because the rest of the
// pack's services commonly reach for prometheus/client_golang for
// exactly this shape of counter/histogram pair.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors bundles every metric the orchestrator and its collaborators
// update. Register it once against a prometheus.Registerer at startup.
type Collectors struct {
	TasksStarted   *prometheus.CounterVec
	TasksFinished  *prometheus.CounterVec
	StepDuration   *prometheus.HistogramVec
	StepFailures   *prometheus.CounterVec
	RetryAttempts  *prometheus.CounterVec
	PersistErrors  prometheus.Counter
	ArchiveErrors  prometheus.Counter
}

// NewCollectors constructs the collector set, unregistered.
func NewCollectors() *Collectors {
	return &Collectors{
		TasksStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versify",
			Subsystem: "workflow",
			Name:      "tasks_started_total",
			Help:      "Translation workflow tasks started, by mode.",
		}, []string{"mode"}),
		TasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versify",
			Subsystem: "workflow",
			Name:      "tasks_finished_total",
			Help:      "Translation workflow tasks finished, by mode and terminal status.",
		}, []string{"mode", "status"}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "versify",
			Subsystem: "workflow",
			Name:      "step_duration_seconds",
			Help:      "Duration of one executed workflow step.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step", "provider"}),
		StepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versify",
			Subsystem: "workflow",
			Name:      "step_failures_total",
			Help:      "Workflow step failures, by step name.",
		}, []string{"step"}),
		RetryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versify",
			Subsystem: "workflow",
			Name:      "retry_attempts_total",
			Help:      "Retry attempts issued by RetryPolicy, by step.",
		}, []string{"step"}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "versify",
			Subsystem: "workflow",
			Name:      "persistence_errors_total",
			Help:      "PersistenceSink failures.",
		}),
		ArchiveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "versify",
			Subsystem: "workflow",
			Name:      "archive_errors_total",
			Help:      "FileArchiver failures.",
		}),
	}
}

// MustRegister registers every collector against reg, panicking on
// duplicate registration the way main() is expected to fail fast on a
// startup-time programming error.
func (c *Collectors) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		c.TasksStarted,
		c.TasksFinished,
		c.StepDuration,
		c.StepFailures,
		c.RetryAttempts,
		c.PersistErrors,
		c.ArchiveErrors,
	)
}
