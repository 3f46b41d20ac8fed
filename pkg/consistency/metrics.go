package consistency

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the prometheus collectors of the consistency service. A nil
// *Metrics records nothing.
type Metrics struct {
	Findings *prometheus.GaugeVec
	Checks   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Findings: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "choices_consistency_findings",
			Help: "Findings of the last check by relationship and kind",
		}, []string{"relationship", "kind"}),
		Checks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "choices_consistency_checks_total",
			Help: "Relationship checks by outcome",
		}, []string{"relationship", "outcome"}),
	}
}

func (m *Metrics) observe(res Result) {
	if m == nil {
		return
	}
	id := res.RelationshipID
	m.Findings.WithLabelValues(id, "broken").Set(float64(len(res.BrokenRelationships)))
	m.Findings.WithLabelValues(id, "duplicate").Set(float64(len(res.DuplicateKeys)))
	if res.OrphansChecked {
		m.Findings.WithLabelValues(id, "orphaned").Set(float64(len(res.OrphanedRecords)))
	}
	outcome := "valid"
	switch {
	case len(res.Warnings) > 0:
		outcome = "error"
	case !res.IsValid:
		outcome = "invalid"
	}
	m.Checks.WithLabelValues(id, outcome).Inc()
}
