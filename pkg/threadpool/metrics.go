package threadpool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments exported by a pool. Attach
// with SetMetrics before Start; a pool without metrics skips all
// instrument updates.
type Metrics struct {
	TasksSubmitted prometheus.Counter
	TasksRejected  prometheus.Counter
	TasksCompleted prometheus.Counter
	TasksFailed    prometheus.Counter

	Workers     prometheus.Gauge
	IdleWorkers prometheus.Gauge
	QueueDepth  prometheus.Gauge

	TaskDuration prometheus.Histogram
}

// NewMetrics creates and registers pool instruments with registerer.
// A nil registerer falls back to the Prometheus default. Registering
// two pools on one registerer needs distinct namespace/subsystem pairs.
func NewMetrics(registerer prometheus.Registerer, namespace, subsystem string) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		TasksSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks accepted into the queue",
		}),
		TasksRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_rejected_total",
			Help:      "Total number of submissions refused",
		}),
		TasksCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_completed_total",
			Help:      "Total number of tasks completed successfully",
		}),
		TasksFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_failed_total",
			Help:      "Total number of tasks that returned an error or panicked",
		}),
		Workers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workers",
			Help:      "Current number of live workers",
		}),
		IdleWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "idle_workers",
			Help:      "Current number of workers waiting for a task",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_depth",
			Help:      "Current number of queued tasks",
		}),
		TaskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "task_duration_seconds",
			Help:      "Histogram of task execution time",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
