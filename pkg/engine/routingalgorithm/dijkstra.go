package routingalgorithm

import (
	"errors"

	"github.com/lintang-b-s/roadrouter/pkg"
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/lintang-b-s/roadrouter/pkg/spatialindex"
	"github.com/lintang-b-s/roadrouter/pkg/util"
)

var (
	ErrInaccessibleEndpoint = errors.New("either from-edge or to-edge is inaccessible")
)

// goal endpoint yang boleh mengakhiri search. offset = sisa bobot dari node ke titik tujuan di edge.
type goal struct {
	node       datastructure.Index
	offset     float64
	offsetDist float64
}

// Dijkstra unidirectional shortest path. tidak aman dipakai paralel, satu instance per goroutine.
type Dijkstra struct {
	g       datastructure.RoutingGraph
	opts    *routeOptions
	name    string
	visited int

	// nil = key weight-so-far (dijkstra biasa)
	heuristic func(goals []goal) keyFunc
}

func NewDijkstra(g datastructure.RoutingGraph, opts ...Option) *Dijkstra {
	return &Dijkstra{
		g:    g,
		opts: newRouteOptions(opts),
		name: "dijkstra",
	}
}

func (d *Dijkstra) VisitedNodes() int {
	return d.visited
}

func checkNodeRange(g datastructure.RoutingGraph, nodes ...datastructure.Index) error {
	for _, n := range nodes {
		if n < 0 || int(n) >= g.NodeCount() {
			return util.WrapErrorf(datastructure.ErrNodeOutOfRange, util.ErrBadParamInput,
				"node %d out of range [0,%d)", n, g.NodeCount())
		}
	}
	return nil
}

func (d *Dijkstra) CalcPath(from, to datastructure.Index) (Path, error) {
	d.visited = 0
	if err := checkNodeRange(d.g, from, to); err != nil {
		return Path{}, err
	}
	if from == to {
		p := singleNodePath(d.g, from)
		d.opts.metrics.observe(d.name, p)
		return p, nil
	}

	p := d.run([]*SPTEntry{newStartEntry(from, 0)}, []goal{{node: to}})
	d.opts.metrics.observe(d.name, p)
	return p, nil
}

/*
CalcPathBetweenEdges route antara dua titik hasil snap ke edge. endpoint di tengah edge punya dua kandidat
(lewat Base atau lewat Adj), tergantung arah edge:

	seed: Adj dengan bobot (1-f)W kalau Base->Adj bisa dilewati, Base dengan fW kalau Adj->Base bisa dilewati
	goal: Base + fW kalau Base->Adj bisa dilewati, Adj + (1-f)W kalau Adj->Base bisa dilewati

ErrInaccessibleEndpoint kalau salah satu edge tidak punya arah yang bisa dilewati sama sekali.
*/
func (d *Dijkstra) CalcPathBetweenEdges(fromQ, toQ spatialindex.QueryEdge) (Path, error) {
	d.visited = 0
	if err := checkNodeRange(d.g, fromQ.Base, fromQ.Adj, toQ.Base, toQ.Adj); err != nil {
		return Path{}, err
	}

	starts := d.edgeSeeds(fromQ)
	goals := d.edgeGoals(toQ)
	if len(starts) == 0 || len(goals) == 0 {
		return Path{}, util.WrapErrorf(ErrInaccessibleEndpoint, util.ErrBadParamInput,
			"route from edge %d to edge %d", fromQ.Edge, toQ.Edge)
	}

	if fromQ.Edge == toQ.Edge {
		if p, ok := d.sameEdgePath(fromQ, toQ); ok {
			d.opts.metrics.observe(d.name, p)
			return p, nil
		}
	}

	p := d.run(starts, goals)
	if p.Found {
		p.Edges = appendEdgeOnce(prependEdgeOnce(p.Edges, fromQ.Edge), toQ.Edge)
		coords := append([]geo.Coordinate{fromQ.Projected}, p.Coordinates...)
		p.Coordinates = append(coords, toQ.Projected)
	}
	d.opts.metrics.observe(d.name, p)
	return p, nil
}

func (d *Dijkstra) accessible(edge datastructure.EdgeID, base datastructure.Index) (datastructure.EdgeState, bool) {
	st := datastructure.EdgeStateOf(d.g, edge, base)
	return st, d.opts.encoder.IsForward(st.Flags) && d.opts.filter(st, datastructure.NO_EDGE)
}

func (d *Dijkstra) edgeSeeds(q spatialindex.QueryEdge) []*SPTEntry {
	starts := make([]*SPTEntry, 0, 2)
	if st, ok := d.accessible(q.Edge, q.Base); ok {
		e := newStartEntry(q.Adj, (1-q.Fraction)*d.opts.weighting.CalcWeight(st, false, datastructure.NO_EDGE))
		e.Edge = q.Edge
		e.Distance = (1 - q.Fraction) * st.Weight
		starts = append(starts, e)
	}
	if st, ok := d.accessible(q.Edge, q.Adj); ok {
		e := newStartEntry(q.Base, q.Fraction*d.opts.weighting.CalcWeight(st, false, datastructure.NO_EDGE))
		e.Edge = q.Edge
		e.Distance = q.Fraction * st.Weight
		starts = append(starts, e)
	}
	return starts
}

func (d *Dijkstra) edgeGoals(q spatialindex.QueryEdge) []goal {
	goals := make([]goal, 0, 2)
	if st, ok := d.accessible(q.Edge, q.Base); ok {
		goals = append(goals, goal{
			node:       q.Base,
			offset:     q.Fraction * d.opts.weighting.CalcWeight(st, false, datastructure.NO_EDGE),
			offsetDist: q.Fraction * st.Weight,
		})
	}
	if st, ok := d.accessible(q.Edge, q.Adj); ok {
		goals = append(goals, goal{
			node:       q.Adj,
			offset:     (1 - q.Fraction) * d.opts.weighting.CalcWeight(st, false, datastructure.NO_EDGE),
			offsetDist: (1 - q.Fraction) * st.Weight,
		})
	}
	return goals
}

// sameEdgePath dua titik di edge yang sama dan arahnya bisa dilewati langsung.
func (d *Dijkstra) sameEdgePath(fromQ, toQ spatialindex.QueryEdge) (Path, bool) {
	toF := toQ.Fraction
	if toQ.Base != fromQ.Base {
		toF = 1 - toF
	}

	base := fromQ.Base
	span := toF - fromQ.Fraction
	if span < 0 {
		base = fromQ.Adj
		span = -span
	}
	st, ok := d.accessible(fromQ.Edge, base)
	if !ok {
		return Path{}, false
	}

	p := Path{
		Found:       true,
		Nodes:       []datastructure.Index{},
		Edges:       []datastructure.EdgeID{fromQ.Edge},
		Weight:      span * d.opts.weighting.CalcWeight(st, false, datastructure.NO_EDGE),
		Distance:    span * st.Weight,
		Coordinates: []geo.Coordinate{fromQ.Projected, toQ.Projected},
	}
	return p, true
}

func (d *Dijkstra) run(starts []*SPTEntry, goals []goal) Path {
	s := newSearch(d.g, d.opts.forwardAccept(), weightingCost(d.opts.weighting, false), false,
		d.opts.edgeBased())
	s.maxVisited = d.opts.maxVisited
	if d.heuristic != nil {
		s.key = d.heuristic(goals)
	}
	s.init(starts...)

	goalOf := make(map[datastructure.Index]goal, len(goals))
	for _, gl := range goals {
		if old, ok := goalOf[gl.node]; ok && old.offset <= gl.offset {
			continue
		}
		goalOf[gl.node] = gl
	}

	best := pkg.INF_WEIGHT
	var bestEntry *SPTEntry
	var bestGoal goal
	for {
		if s.minKey() >= best {
			break
		}
		e, ok := s.next()
		if !ok {
			break
		}
		if gl, isGoal := goalOf[e.Node]; isGoal && e.Weight+gl.offset < best {
			best = e.Weight + gl.offset
			bestEntry = e
			bestGoal = gl
			if gl.offset == 0 {
				// goal tanpa offset, tidak ada yang lebih murah lagi di heap
				break
			}
		}
		if s.limitReached() {
			// bestEntry (kalau ada) belum terbukti optimal, dibuang
			d.visited = s.visited
			return notFound(d.visited)
		}
		s.expand(e)
	}

	d.visited = s.visited
	if bestEntry == nil {
		return notFound(d.visited)
	}
	return pathFromEntry(d.g, bestEntry, bestGoal.offset, bestGoal.offsetDist, d.visited)
}

func prependEdgeOnce(edges []datastructure.EdgeID, edge datastructure.EdgeID) []datastructure.EdgeID {
	if len(edges) > 0 && edges[0] == edge {
		return edges
	}
	return append([]datastructure.EdgeID{edge}, edges...)
}

func appendEdgeOnce(edges []datastructure.EdgeID, edge datastructure.EdgeID) []datastructure.EdgeID {
	if len(edges) > 0 && edges[len(edges)-1] == edge {
		return edges
	}
	return append(edges, edge)
}
