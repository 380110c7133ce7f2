package telemetry

import "github.com/prometheus/client_golang/prometheus"

var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "meshdrift",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds, by method, route, and status.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

var SnapshotsBuiltTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "meshdrift",
		Subsystem: "snapshots",
		Name:      "built_total",
		Help:      "Total number of graph snapshots built, by outcome.",
	},
	[]string{"outcome"},
)

var SnapshotBuildDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "meshdrift",
		Subsystem: "snapshots",
		Name:      "build_duration_seconds",
		Help:      "Duration of snapshot build from raw edge records.",
		Buckets:   prometheus.DefBuckets,
	},
)

var DriftEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "meshdrift",
		Subsystem: "drift",
		Name:      "events_total",
		Help:      "Total number of drift events detected, by event type and severity.",
	},
	[]string{"event_type", "severity"},
)

var AnomalyClassificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "meshdrift",
		Subsystem: "anomaly",
		Name:      "classifications_total",
		Help:      "Total number of edge anomaly classifications, by band.",
	},
	[]string{"band"},
)

var NotificationAttemptsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "meshdrift",
		Subsystem: "notify",
		Name:      "attempts_total",
		Help:      "Total number of notification attempts, by sink and outcome.",
	},
	[]string{"sink", "outcome"},
)

var TaskRetriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "meshdrift",
		Subsystem: "task",
		Name:      "retries_total",
		Help:      "Total number of task retry attempts, by task kind.",
	},
	[]string{"kind"},
)

var TaskExhaustedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "meshdrift",
		Subsystem: "task",
		Name:      "exhausted_total",
		Help:      "Total number of tasks that exhausted all retry attempts, by task kind.",
	},
	[]string{"kind"},
)

var TaskQueueDepth = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "meshdrift",
		Subsystem: "task",
		Name:      "queue_depth",
		Help:      "Number of pending entries in the task stream, by stream name.",
	},
	[]string{"stream"},
)

// All returns all meshdrift-specific metrics for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestDuration,
		SnapshotsBuiltTotal,
		SnapshotBuildDuration,
		DriftEventsTotal,
		AnomalyClassificationsTotal,
		NotificationAttemptsTotal,
		TaskRetriesTotal,
		TaskExhaustedTotal,
		TaskQueueDepth,
	}
}
