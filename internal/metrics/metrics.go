// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled HTTP requests by method, path and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uiproof_http_requests_total",
		Help: "Total HTTP requests handled.",
	}, []string{"method", "path", "status"})

	// HTTPDuration observes request latency by method and path.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "uiproof_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// ExecutionsRunning tracks how many execution jobs are currently live.
	ExecutionsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "uiproof_executions_running",
		Help: "Number of executions with a live background job.",
	})

	// ExecutionsFinished counts finished executions by terminal status.
	ExecutionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uiproof_executions_finished_total",
		Help: "Total executions that reached a terminal status.",
	}, []string{"status"})

	// CasesRun counts executed cases by outcome status.
	CasesRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uiproof_cases_run_total",
		Help: "Total test cases run, by outcome.",
	}, []string{"status"})

	// StepsRun counts executed steps by action type and result.
	StepsRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uiproof_steps_run_total",
		Help: "Total steps executed, by action type and result.",
	}, []string{"action", "result"})

	// SessionsStarted counts browser sessions launched by engine.
	SessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uiproof_browser_sessions_total",
		Help: "Total browser sessions launched, by engine.",
	}, []string{"engine"})
)
