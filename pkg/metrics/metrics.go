// Package metrics provides Prometheus instrumentation for treescope components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for treescope components.
type Registry struct {
	// Task tree metrics
	TasksLaunched     *prometheus.CounterVec
	TasksCompleted    *prometheus.CounterVec
	TasksFailed       *prometheus.CounterVec
	TasksCancelled    *prometheus.CounterVec
	TasksActive       *prometheus.GaugeVec
	TaskDuration      *prometheus.HistogramVec
	UnhandledFailures *prometheus.CounterVec

	// Channel metrics
	ChannelDepth    *prometheus.GaugeVec
	ChannelSends    *prometheus.CounterVec
	ChannelReceives *prometheus.CounterVec
	ChannelDropped  *prometheus.CounterVec
	ChannelBlocked  *prometheus.CounterVec

	// Synchronization metrics
	SyncWaiting  *prometheus.GaugeVec
	SyncHeld     *prometheus.GaugeVec
	SyncWaitTime *prometheus.HistogramVec

	// Executor metrics
	ExecutorWorkers *prometheus.GaugeVec
	ExecutorQueued  *prometheus.GaugeVec
	ExecutorRan     *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by treescope components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		TasksLaunched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treescope",
				Subsystem: "task",
				Name:      "launched_total",
				Help:      "Total number of tasks launched",
			},
			[]string{"scope", "kind"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treescope",
				Subsystem: "task",
				Name:      "completed_total",
				Help:      "Total number of tasks that completed normally",
			},
			[]string{"scope"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treescope",
				Subsystem: "task",
				Name:      "failed_total",
				Help:      "Total number of tasks that terminated with a failure",
			},
			[]string{"scope"},
		),

		TasksCancelled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treescope",
				Subsystem: "task",
				Name:      "cancelled_total",
				Help:      "Total number of tasks that terminated by cancellation",
			},
			[]string{"scope"},
		),

		TasksActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "treescope",
				Subsystem: "task",
				Name:      "active",
				Help:      "Number of tasks currently not terminal",
			},
			[]string{"scope"},
		),

		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "treescope",
				Subsystem: "task",
				Name:      "duration_seconds",
				Help:      "Time from task launch to terminal state",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"scope"},
		),

		UnhandledFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treescope",
				Subsystem: "task",
				Name:      "unhandled_failures_total",
				Help:      "Total number of failures delivered to the unhandled-failure handler",
			},
			[]string{"scope"},
		),

		ChannelDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "treescope",
				Subsystem: "channel",
				Name:      "depth",
				Help:      "Number of buffered elements in the channel",
			},
			[]string{"channel_name"},
		),

		ChannelSends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treescope",
				Subsystem: "channel",
				Name:      "sends_total",
				Help:      "Total number of successful send operations",
			},
			[]string{"channel_name"},
		),

		ChannelReceives: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treescope",
				Subsystem: "channel",
				Name:      "receives_total",
				Help:      "Total number of successful receive operations",
			},
			[]string{"channel_name"},
		),

		ChannelDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treescope",
				Subsystem: "channel",
				Name:      "dropped_total",
				Help:      "Total number of values dropped by overflow strategies",
			},
			[]string{"channel_name"},
		),

		ChannelBlocked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treescope",
				Subsystem: "channel",
				Name:      "blocked_sends_total",
				Help:      "Total number of sends that had to suspend",
			},
			[]string{"channel_name"},
		),

		SyncWaiting: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "treescope",
				Subsystem: "sync",
				Name:      "waiting",
				Help:      "Number of tasks suspended waiting for the primitive",
			},
			[]string{"primitive", "name"},
		),

		SyncHeld: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "treescope",
				Subsystem: "sync",
				Name:      "held",
				Help:      "Number of permits currently held",
			},
			[]string{"primitive", "name"},
		),

		SyncWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "treescope",
				Subsystem: "sync",
				Name:      "wait_duration_seconds",
				Help:      "Time spent suspended waiting for the primitive",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"primitive", "name"},
		),

		ExecutorWorkers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "treescope",
				Subsystem: "executor",
				Name:      "workers",
				Help:      "Number of workers in the pool",
			},
			[]string{"pool_name"},
		),

		ExecutorQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "treescope",
				Subsystem: "executor",
				Name:      "queued",
				Help:      "Number of queued work items waiting for a worker",
			},
			[]string{"pool_name"},
		),

		ExecutorRan: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "treescope",
				Subsystem: "executor",
				Name:      "ran_total",
				Help:      "Total number of work items executed by the pool",
			},
			[]string{"pool_name"},
		),
	}
}
