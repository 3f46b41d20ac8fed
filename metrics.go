package choices

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the prometheus collectors of the option service. A nil
// *Metrics records nothing.
type Metrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter
	Generations    *prometheus.CounterVec
	Validations    *prometheus.CounterVec
}

// NewMetrics registers the option service collectors on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "choices_option_cache_hits_total",
			Help: "Option set lookups served from the cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "choices_option_cache_misses_total",
			Help: "Option set lookups that required generation",
		}),
		CacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "choices_option_cache_evictions_total",
			Help: "Option sets evicted by the entry limit",
		}),
		Generations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "choices_option_generations_total",
			Help: "Option generations by source and outcome",
		}, []string{"source", "outcome"}),
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "choices_selection_validations_total",
			Help: "Selection validations by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) cacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) cacheEvicted() {
	if m != nil {
		m.CacheEvictions.Inc()
	}
}

func (m *Metrics) generated(source string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.Generations.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) validated(valid bool) {
	if m == nil {
		return
	}
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	m.Validations.WithLabelValues(outcome).Inc()
}
