package routingalgorithm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// QueryMetrics metrics per query, didaftarkan ke registerer milik pemanggil. nil = tidak dicatat.
type QueryMetrics struct {
	visitedNodes *prometheus.HistogramVec
	queries      *prometheus.CounterVec
}

func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	factory := promauto.With(reg)
	return &QueryMetrics{
		visitedNodes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roadrouter_query_visited_nodes",
			Help:    "Nodes settled per shortest path query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}, []string{"algorithm"}),
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roadrouter_query_total",
			Help: "Shortest path queries by algorithm and result",
		}, []string{"algorithm", "result"}),
	}
}

func (m *QueryMetrics) observe(algorithm string, p Path) {
	if m == nil {
		return
	}
	m.visitedNodes.WithLabelValues(algorithm).Observe(float64(p.VisitedNodes))
	result := "not_found"
	if p.Found {
		result = "found"
	}
	m.queries.WithLabelValues(algorithm, result).Inc()
}
