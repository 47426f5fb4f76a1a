// Package metrics holds the prometheus collectors of the attendance engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LocationAttempts counts device attempts per tier and outcome.
	LocationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_location_attempts_total",
		Help: "Device position attempts by tier and result",
	}, []string{"tier", "result"})

	// LocationAttemptDuration tracks how long each tier took.
	LocationAttemptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendance_location_attempt_duration_seconds",
		Help:    "Duration of a single device position attempt",
		Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 20, 30},
	}, []string{"tier"})

	// LocationFailures counts failed acquisitions by error kind.
	LocationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_location_failures_total",
		Help: "Failed location acquisitions by error kind",
	}, []string{"kind"})

	// MonitorTicks counts monitor ticks by outcome.
	MonitorTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_monitor_ticks_total",
		Help: "Monitor ticks by outcome (applied, skipped, discarded, location_error, failed)",
	}, []string{"result"})

	// ActiveMonitors is the number of running monitoring sessions.
	ActiveMonitors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attendance_active_monitors",
		Help: "Number of employees with automatic monitoring enabled",
	})

	// Transitions counts state machine transitions.
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_transitions_total",
		Help: "Attendance transitions by punch, trigger and punch type",
	}, []string{"punch", "trigger", "type"})

	// SSEDropped counts events not delivered to a full subscriber buffer.
	SSEDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_sse_dropped_events_total",
		Help: "Server-sent events dropped because a subscriber was too slow",
	})

	// NotificationFailures counts punch notifications that could not be stored.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_notification_failures_total",
		Help: "Punch notifications that failed to persist",
	})

	// ActivityPruned counts activity records removed by the retention job.
	ActivityPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_activity_pruned_total",
		Help: "Activity log records deleted by retention",
	})

	CronRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_cron_runs_total",
		Help: "Background job runs by outcome",
	}, []string{"job", "result"})
)
