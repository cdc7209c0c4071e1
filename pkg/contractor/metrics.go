package contractor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ContractionMetrics struct {
	nodesContracted prometheus.Counter
	shortcutsAdded  prometheus.Counter
	witnessSearches prometheus.Counter
}

func NewContractionMetrics(reg prometheus.Registerer) *ContractionMetrics {
	factory := promauto.With(reg)
	return &ContractionMetrics{
		nodesContracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "roadrouter_contraction_nodes_total",
			Help: "Number of nodes contracted.",
		}),
		shortcutsAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "roadrouter_contraction_shortcuts_total",
			Help: "Number of shortcut edges inserted.",
		}),
		witnessSearches: factory.NewCounter(prometheus.CounterOpts{
			Name: "roadrouter_contraction_witness_searches_total",
			Help: "Number of witness searches run during contraction.",
		}),
	}
}

func (m *ContractionMetrics) observe(s nodeStats) {
	if m == nil {
		return
	}
	m.nodesContracted.Inc()
	m.shortcutsAdded.Add(float64(s.added))
	m.witnessSearches.Add(float64(s.searches))
}
