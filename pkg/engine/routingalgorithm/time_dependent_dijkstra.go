package routingalgorithm

import (
	"time"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
)

// TimeDependentDijkstra dijkstra dengan jam di setiap SPTEntry (epoch ms). bobot edge & conditional access
// dihitung pada jam tiba di base node edge tersebut.
type TimeDependentDijkstra struct {
	g           datastructure.RoutingGraph
	opts        *routeOptions
	weighting   TimeDependentWeighting
	conditional ConditionalLookup
	loc         *time.Location
	visited     int
}

// NewTimeDependentDijkstra conditional boleh nil. loc timezone lokal jalan untuk evaluasi conditional access.
func NewTimeDependentDijkstra(g datastructure.RoutingGraph, w TimeDependentWeighting, conditional ConditionalLookup,
	loc *time.Location, opts ...Option) *TimeDependentDijkstra {
	if loc == nil {
		loc = time.UTC
	}
	o := newRouteOptions(opts)
	o.weighting = w
	return &TimeDependentDijkstra{
		g:           g,
		opts:        o,
		weighting:   w,
		conditional: conditional,
		loc:         loc,
	}
}

func (td *TimeDependentDijkstra) VisitedNodes() int {
	return td.visited
}

func (td *TimeDependentDijkstra) cost(state datastructure.EdgeState, parent *SPTEntry) (float64, int64, bool) {
	at := parent.Time
	if td.conditional != nil {
		if ca, ok := td.conditional.ConditionalAccess(state.Edge); ok && !ca.Accept(time.UnixMilli(at).In(td.loc)) {
			return 0, 0, false
		}
	}
	return td.weighting.CalcWeightAt(state, false, parent.Edge, at),
		td.weighting.CalcMillisAt(state, false, parent.Edge, at), true
}

// CalcPath Path.Time = durasi perjalanan (ms) dari departMillis.
func (td *TimeDependentDijkstra) CalcPath(from, to datastructure.Index, departMillis int64) (Path, error) {
	td.visited = 0
	if err := checkNodeRange(td.g, from, to); err != nil {
		return Path{}, err
	}
	if from == to {
		p := singleNodePath(td.g, from)
		td.opts.metrics.observe("time_dependent", p)
		return p, nil
	}

	s := newSearch(td.g, td.opts.forwardAccept(), td.cost, false, td.opts.edgeBased())
	s.maxVisited = td.opts.maxVisited
	start := newStartEntry(from, 0)
	start.Time = departMillis
	s.init(start)

	var found *SPTEntry
	for {
		e, ok := s.next()
		if !ok {
			break
		}
		if e.Node == to {
			found = e
			break
		}
		if s.limitReached() {
			break
		}
		s.expand(e)
	}

	td.visited = s.visited
	if found == nil {
		p := notFound(td.visited)
		td.opts.metrics.observe("time_dependent", p)
		return p, nil
	}
	p := pathFromEntry(td.g, found, 0, 0, td.visited)
	p.Time = found.Time - departMillis
	td.opts.metrics.observe("time_dependent", p)
	return p, nil
}
