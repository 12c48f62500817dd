// Package metrics exposes Prometheus instruments for the conversation engine.
package metrics

import (
	"context"
	"strconv"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds counters and histograms for turns, steps and actions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	turnsTotal     *prometheus.CounterVec
	stepVisits     *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	actionFailures *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
}

// New registers the instruments on reg (the default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "engine",
			Name:      "turns_total",
			Help:      "Inbound messages processed, by outcome",
		}, []string{"status"}),
		stepVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "engine",
			Name:      "step_visits_total",
			Help:      "Step entries during turn processing",
		}, []string{"step_id", "kind"}),
		actionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadflow",
			Subsystem: "actions",
			Name:      "duration_seconds",
			Help:      "Latency of capability calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		actionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "actions",
			Name:      "failures_total",
			Help:      "Capability calls that failed or timed out",
		}, []string{"action"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route and status code",
		}, []string{"route", "code"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.stepVisits, m.actionDuration, m.actionFailures, m.httpRequests)
	return m
}

// ObserveTurn counts a processed message.
func (m *Metrics) ObserveTurn(status string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(status).Inc()
}

// ObserveStep counts a step entry.
func (m *Metrics) ObserveStep(stepID string, kind domain.StepKind) {
	if m == nil {
		return
	}
	m.stepVisits.WithLabelValues(stepID, kind.String()).Inc()
}

// ObserveAction records the latency of a capability call and whether it failed.
func (m *Metrics) ObserveAction(action string, seconds float64, failed bool) {
	if m == nil {
		return
	}
	m.actionDuration.WithLabelValues(action).Observe(seconds)
	if failed {
		m.actionFailures.WithLabelValues(action).Inc()
	}
}

// ObserveHTTP counts a served request.
func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Hooks returns lifecycle hooks that feed these metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.ObserveStep(e.StepID, e.Kind)
		},
		OnActionReturn: func(_ context.Context, e *domain.ActionEvent) {
			m.ObserveAction(e.Action, e.Duration.Seconds(), e.IsError)
		},
	}
}
