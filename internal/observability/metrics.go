package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for the computer tool.
//
// Usage:
//
//	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
//	dispatcher := computer.NewDispatcher(backend, pipeline, computer.WithRecorder(metrics))
type Metrics struct {
	// ActionCounter counts executed actions.
	// Labels: action, status (success|error)
	ActionCounter *prometheus.CounterVec

	// ActionDuration measures action latency in seconds, settle delay included.
	// Labels: action
	ActionDuration *prometheus.HistogramVec

	// ScreenshotBytes observes the size of the compressed PNG payload.
	ScreenshotBytes prometheus.Histogram

	// ScreenshotCounter counts captures by whether they were downscaled.
	// Labels: resized (true|false)
	ScreenshotCounter *prometheus.CounterVec

	// RPCCounter counts JSON-RPC requests.
	// Labels: method, status (success|error)
	RPCCounter *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "computer_actions_total",
				Help: "Total number of computer actions by action and status",
			},
			[]string{"action", "status"},
		),

		ActionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "computer_action_duration_seconds",
				Help:    "Duration of computer actions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 1.5, 2, 5, 10},
			},
			[]string{"action"},
		),

		ScreenshotBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "computer_screenshot_payload_bytes",
				Help:    "Size of compressed screenshot payloads in bytes",
				Buckets: prometheus.ExponentialBuckets(16*1024, 2, 8),
			},
		),

		ScreenshotCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "computer_screenshots_total",
				Help: "Total number of screenshots by whether they were downscaled",
			},
			[]string{"resized"},
		),

		RPCCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "computer_rpc_requests_total",
				Help: "Total number of JSON-RPC requests by method and status",
			},
			[]string{"method", "status"},
		),
	}
}

// RecordAction records one dispatched action.
func (m *Metrics) RecordAction(action, status string, durationSeconds float64) {
	m.ActionCounter.WithLabelValues(action, status).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(durationSeconds)
}

// RecordScreenshot records one packaged screenshot.
func (m *Metrics) RecordScreenshot(payloadBytes int, resized bool) {
	m.ScreenshotBytes.Observe(float64(payloadBytes))
	m.ScreenshotCounter.WithLabelValues(strconv.FormatBool(resized)).Inc()
}

// RecordRPC records one JSON-RPC request.
func (m *Metrics) RecordRPC(method, status string) {
	m.RPCCounter.WithLabelValues(method, status).Inc()
}
