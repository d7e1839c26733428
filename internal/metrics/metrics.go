// Package metrics provides Prometheus metrics for the pomoteam server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the server.
type Metrics struct {
	SessionsStarted  prometheus.Counter
	SessionsFinished *prometheus.CounterVec
	PomosCredited    prometheus.Counter
	ReportDuration   *prometheus.HistogramVec
	AuthFailures     prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		SessionsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pomoteam_sessions_started_total",
				Help: "Total number of focus sessions started.",
			},
		),
		SessionsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pomoteam_sessions_finished_total",
				Help: "Total number of focus sessions finished, by completion flag.",
			},
			[]string{"completed"},
		),
		PomosCredited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pomoteam_pomos_credited_total",
				Help: "Total pomodoro credits applied to tasks by the completion heuristic.",
			},
		),
		ReportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pomoteam_report_duration_seconds",
				Help:    "Report computation duration by scope.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"scope"},
		),
		AuthFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pomoteam_auth_failures_total",
				Help: "Total rejected authentication attempts.",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pomoteam_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.SessionsStarted)
	reg.MustRegister(m.SessionsFinished)
	reg.MustRegister(m.PomosCredited)
	reg.MustRegister(m.ReportDuration)
	reg.MustRegister(m.AuthFailures)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSessionFinished increments the finished-session counter.
func (m *Metrics) RecordSessionFinished(completed bool) {
	label := "false"
	if completed {
		label = "true"
	}
	m.SessionsFinished.WithLabelValues(label).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}

// ObserveReportDuration records report computation duration.
func (m *Metrics) ObserveReportDuration(scope string, seconds float64) {
	m.ReportDuration.WithLabelValues(scope).Observe(seconds)
}
