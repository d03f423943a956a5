// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"method", "path"},
	)

	RemindersGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dunning_reminders_generated_total",
			Help: "Total number of reminder documents generated",
		},
		[]string{"stage"},
	)

	ReminderGenerationFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dunning_reminder_failures_total",
			Help: "Total number of failed reminder generations",
		},
		[]string{"reason"},
	)

	DunningRunCharges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dunning_run_charges_total",
			Help: "Charges processed by bulk dunning runs",
		},
		[]string{"outcome"},
	)

	TemplateRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "template_render_duration_seconds",
			Help: "Duration of template rendering in seconds",
		},
	)

	PDFRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "pdf_render_duration_seconds",
			Help: "Duration of external PDF rasterization calls in seconds",
		},
	)
)
