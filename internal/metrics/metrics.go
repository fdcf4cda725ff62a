// Package metrics defines the Prometheus instrumentation for the client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API Gateway Metrics
var (
	// APIRequestsTotal tracks outbound API requests by endpoint and result kind
	// ("ok" or the error taxonomy kind).
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total outbound API requests by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	// APIRequestDuration tracks outbound API request latency in seconds
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Outbound API request duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// CircuitBreakerStateChanges tracks breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by new state",
		},
		[]string{"state"},
	)

	// CircuitBreakerState tracks current breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// Session Metrics
var (
	// SessionTransitions tracks session state transitions by target status and trigger
	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_transitions_total",
			Help: "Session state transitions by target status and trigger (login/register/restore/logout/forced)",
		},
		[]string{"status", "trigger"},
	)
)

// Analysis Workflow Metrics
var (
	// AnalysisSubmissionsTotal tracks analysis submissions by result
	// (accepted/rejected_validation/rejected_in_flight/failed).
	AnalysisSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_submissions_total",
			Help: "Analysis submissions by result (accepted/rejected_validation/rejected_in_flight/failed)",
		},
		[]string{"result"},
	)

	// SnapshotRefreshesTotal tracks history/stats refreshes by target and result
	SnapshotRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_refreshes_total",
			Help: "History/stats snapshot refreshes by target and result",
		},
		[]string{"target", "result"},
	)
)
