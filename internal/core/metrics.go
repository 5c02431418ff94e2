package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// engine run outcomes, used as metric label values
const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

type metrics struct {
	tasksCreated prometheus.Counter
	tasksDeleted prometheus.Counter
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
}

// newMetrics builds the engine collectors and registers them, plus a gauge
// reading the armed timer count, on reg. A nil reg leaves everything
// unregistered but still usable.
func newMetrics(reg prometheus.Registerer, armed func() float64) *metrics {
	m := &metrics{
		tasksCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gantry",
				Subsystem: "engine",
				Name:      "tasks_created_total",
				Help:      "Total number of tasks created.",
			},
		),
		tasksDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gantry",
				Subsystem: "engine",
				Name:      "tasks_deleted_total",
				Help:      "Total number of tasks deleted.",
			},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gantry",
				Subsystem: "engine",
				Name:      "task_runs_total",
				Help:      "Total number of task runs by outcome.",
			},
			[]string{"outcome"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "gantry",
				Subsystem: "engine",
				Name:      "task_run_duration_seconds",
				Help:      "Duration of task runs.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.tasksCreated,
			m.tasksDeleted,
			m.runs,
			m.runDuration,
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Namespace: "gantry",
					Subsystem: "engine",
					Name:      "armed_timers",
					Help:      "Number of armed task timers.",
				},
				armed,
			),
		)
	}
	return m
}

// recordRun records one finished (or skipped) run.
func (m *metrics) recordRun(outcome string, d time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(d.Seconds())
}
