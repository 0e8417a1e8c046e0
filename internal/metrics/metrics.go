// Package metrics holds the Prometheus collectors exported on /metrics.
// Labels never carry identities, service names or keys.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ephemvault"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	commands        *prometheus.CounterVec
	erasures        *prometheus.CounterVec
	pendingErasures prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Chat commands handled, by command and outcome.",
		}, []string{"command", "outcome"}),
		erasures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "erasures_total",
			Help:      "Scheduled message deletions executed, by result.",
		}, []string{"result"}),
		pendingErasures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_erasures",
			Help:      "Message deletions waiting for their timer.",
		}),
	}
	reg.MustRegister(m.commands, m.erasures, m.pendingErasures)
	return m
}

// ObserveCommand counts one handled command.
func (m *Metrics) ObserveCommand(command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

// ObserveErasure counts one executed deletion.
func (m *Metrics) ObserveErasure(ok bool) {
	if m == nil {
		return
	}
	result := "deleted"
	if !ok {
		result = "failed"
	}
	m.erasures.WithLabelValues(result).Inc()
}

// SetPendingErasures records the number of deletions still scheduled.
func (m *Metrics) SetPendingErasures(n int) {
	if m == nil {
		return
	}
	m.pendingErasures.Set(float64(n))
}
