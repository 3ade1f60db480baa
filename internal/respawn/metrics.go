package respawn

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts pipeline outcomes. A nil *Metrics records nothing.
type Metrics struct {
	outcomes    *prometheus.CounterVec
	reconciled  prometheus.Counter
	evalFailure prometheus.Counter
}

// NewMetrics registers the respawn counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "persona_respawn_outcomes_total",
			Help: "Respawn requests by outcome.",
		}, []string{"outcome"}),
		reconciled: f.NewCounter(prometheus.CounterOpts{
			Name: "persona_respawn_reconciled_total",
			Help: "Persona set writes re-applied after a partial commit.",
		}),
		evalFailure: f.NewCounter(prometheus.CounterOpts{
			Name: "persona_respawn_eval_failures_total",
			Help: "Committed respawns whose persona set failed lineage checks.",
		}),
	}
}

func (m *Metrics) outcome(label string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(label).Inc()
}

func (m *Metrics) reconcile() {
	if m == nil {
		return
	}
	m.reconciled.Inc()
}

func (m *Metrics) evalFailed() {
	if m == nil {
		return
	}
	m.evalFailure.Inc()
}

// outcomeLabel is the provenance decision for success and the lowercased
// error code otherwise.
func outcomeLabel(decision string, o Outcome) string {
	if o.OK() {
		return decision
	}
	return strings.ToLower(o.Code())
}
