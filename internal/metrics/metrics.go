// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "groupmebot"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// RelayCalls counts outbound messaging platform calls by operation and outcome.
	RelayCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relay_calls_total",
		Help:      "Outbound messaging platform calls.",
	}, []string{"operation", "outcome"})

	// WebhookEvents counts inbound chat events by how they were classified.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Inbound chat events received on the webhook.",
	}, []string{"kind"})

	// CommandsDispatched counts dispatched commands; unknown names share one label.
	CommandsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_dispatched_total",
		Help:      "Chat commands dispatched to handlers.",
	}, []string{"command"})

	// TaskRuns counts scheduled task executions by task and outcome.
	TaskRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_runs_total",
		Help:      "Scheduled task executions.",
	}, []string{"task", "outcome"})

	// TaskDuration observes scheduled task durations in seconds.
	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Scheduled task durations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"task"})
)
