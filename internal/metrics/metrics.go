// Package metrics exposes Prometheus counters for conversation and
// safety activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is safe to use;
// every method no-ops, so tests can skip registration entirely.
type Metrics struct {
	turns          *prometheus.CounterVec
	toolExecutions *prometheus.CounterVec
	escalations    prometheus.Counter
	approvals      *prometheus.CounterVec
	alertFailures  prometheus.Counter
}

// New registers all collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "haven",
			Name:      "turns_total",
			Help:      "Conversation turns processed, by outcome.",
		}, []string{"outcome"}),
		toolExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "haven",
			Name:      "tool_executions_total",
			Help:      "Tool executions, by group and outcome.",
		}, []string{"group", "outcome"}),
		escalations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "haven",
			Name:      "escalations_total",
			Help:      "Safety escalations proposed by the assistant.",
		}),
		approvals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "haven",
			Name:      "approvals_total",
			Help:      "Approval decisions applied, by decision.",
		}, []string{"decision"}),
		alertFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "haven",
			Name:      "alert_delivery_failures_total",
			Help:      "Therapist alert deliveries that failed.",
		}),
	}
}

// TurnCompleted counts a processed turn: "completed", "suspended", or
// "failed".
func (m *Metrics) TurnCompleted(outcome string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome).Inc()
}

// ToolExecuted counts a tool run: outcome is "ok" or "error".
func (m *Metrics) ToolExecuted(group, outcome string) {
	if m == nil {
		return
	}
	m.toolExecutions.WithLabelValues(group, outcome).Inc()
}

// EscalationProposed counts a safety action reaching the approval gate.
func (m *Metrics) EscalationProposed() {
	if m == nil {
		return
	}
	m.escalations.Inc()
}

// ApprovalResolved counts an applied decision: "approved" or "denied".
func (m *Metrics) ApprovalResolved(decision string) {
	if m == nil {
		return
	}
	m.approvals.WithLabelValues(decision).Inc()
}

// AlertDeliveryFailed counts a failed therapist alert delivery.
func (m *Metrics) AlertDeliveryFailed() {
	if m == nil {
		return
	}
	m.alertFailures.Inc()
}
