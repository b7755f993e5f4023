package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the prometheus collectors of the service. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	polls        *prometheus.CounterVec
	pollTiming   *prometheus.SummaryVec
	commands     *prometheus.CounterVec
	staleStatus  *prometheus.CounterVec
	errorCounter *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "remo",
				Name:      "polls_total",
				Help:      "Cloud API polls by coordinator and result",
			},
			[]string{"coordinator", "result"},
		),
		pollTiming: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Namespace: "remo",
				Name:      "poll_duration_seconds",
				Help:      "Cloud API poll timing",
			},
			[]string{"coordinator"},
		),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "remo",
				Name:      "commands_total",
				Help:      "Commands sent by appliance kind and result",
			},
			[]string{"kind", "result"},
		),
		staleStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "remo",
				Name:      "stale_statuses_total",
				Help:      "Polled AC statuses ignored because they were not newer than the local state",
			},
			[]string{"appliance"},
		),
		errorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "remo",
				Name:      "errors_total",
				Help:      "Errors by kind",
			},
			[]string{"kind"},
		),
	}

	m.registry.MustRegister(m.polls, m.pollTiming, m.commands, m.staleStatus, m.errorCounter)
	m.registry.MustRegister(collectors.NewGoCollector())
	return m
}

// Poll records one poll of coordinator started at start.
func (m *Metrics) Poll(coordinator string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(coordinator, result(err)).Inc()
	m.pollTiming.WithLabelValues(coordinator).Observe(time.Since(start).Seconds())
}

// Command records one command sent to an appliance of kind.
func (m *Metrics) Command(kind string, err error) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(kind, result(err)).Inc()
}

// StaleStatus records an ignored status.
func (m *Metrics) StaleStatus(applianceID string) {
	if m == nil {
		return
	}
	m.staleStatus.WithLabelValues(applianceID).Inc()
}

// ErrorCounter counts an error of the given kind.
func (m *Metrics) ErrorCounter(kind string) {
	if m == nil {
		return
	}
	m.errorCounter.WithLabelValues(kind).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
