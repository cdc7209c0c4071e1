package routingalgorithm

import (
	"github.com/lintang-b-s/roadrouter/pkg"
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
)

// FinishCondition true = bidirectional search berhenti. fromMin/toMin key terkecil di masing-masing heap.
type FinishCondition func(fromMin, toMin, best float64) bool

// DefaultFinishCondition stopping rule standar: tidak ada jalur lewat node yang belum di settle yang
// bisa lebih murah dari best.
func DefaultFinishCondition(fromMin, toMin, best float64) bool {
	return fromMin+toMin >= best
}

type BidirectionalOption func(*BidirectionalDijkstra)

// WithSkipNode node yang tidak boleh dilewati (dipakai witness search contraction).
func WithSkipNode(node datastructure.Index) BidirectionalOption {
	return func(bd *BidirectionalDijkstra) {
		bd.skipNode = node
	}
}

// WithIgnoreSet node di bitset tidak di iterasi sama sekali.
func WithIgnoreSet(ignore *datastructure.Bitset) BidirectionalOption {
	return func(bd *BidirectionalDijkstra) {
		bd.ignore = ignore
	}
}

func WithFinishCondition(f FinishCondition) BidirectionalOption {
	return func(bd *BidirectionalDijkstra) {
		bd.finish = f
	}
}

// WithWeightLimit search berhenti begitu jalur terbaik yang mungkin >= limit, jalur lebih mahal dari limit
// dianggap tidak ketemu.
func WithWeightLimit(limit float64) BidirectionalOption {
	return func(bd *BidirectionalDijkstra) {
		bd.weightLimit = limit
		bd.finish = func(fromMin, toMin, best float64) bool {
			return fromMin+toMin >= minWeight(best, limit)
		}
	}
}

func WithRouteOptions(opts ...Option) BidirectionalOption {
	return func(bd *BidirectionalDijkstra) {
		for _, opt := range opts {
			opt(bd.opts)
		}
	}
}

/*
BidirectionalDijkstra dua frontier, forward dari source lewat Outgoing dan backward dari target lewat Incoming.
setiap kali edge di relax ke node yang sudah punya entry di frontier lain, best path di update.
yang di expand selalu frontier yang key minimum nya lebih kecil.
*/
type BidirectionalDijkstra struct {
	g        datastructure.RoutingGraph
	opts     *routeOptions
	name     string
	skipNode datastructure.Index
	ignore   *datastructure.Bitset
	finish   FinishCondition
	visited  int

	weightLimit float64

	// override accept forward/backward, dipakai CH query
	forwardAccept  EdgeFilter
	backwardAccept EdgeFilter
	// expand hanya frontier yang min < best (CH query tidak boleh pakai fromMin+toMin)
	expandBelowBest bool

	fwd  *search
	bwd  *search
	best float64
	// pasangan entry forward & backward di meeting node jalur terbaik
	meetFwd *SPTEntry
	meetBwd *SPTEntry
}

func NewBidirectionalDijkstra(g datastructure.RoutingGraph, opts ...BidirectionalOption) *BidirectionalDijkstra {
	bd := &BidirectionalDijkstra{
		g:        g,
		opts:     defaultRouteOptions(),
		name:     "bidirectional",
		skipNode: datastructure.NO_NODE,
		finish:   DefaultFinishCondition,

		weightLimit: pkg.INF_WEIGHT,
	}
	for _, opt := range opts {
		opt(bd)
	}
	return bd
}

func (bd *BidirectionalDijkstra) SetSkipNode(node datastructure.Index) {
	bd.skipNode = node
}

func (bd *BidirectionalDijkstra) SetFinishCondition(f FinishCondition) {
	bd.finish = f
}

func (bd *BidirectionalDijkstra) VisitedNodes() int {
	return bd.visited
}

func (bd *BidirectionalDijkstra) newSearches() {
	fAccept, bAccept := bd.forwardAccept, bd.backwardAccept
	if fAccept == nil {
		fAccept = bd.opts.forwardAccept()
	}
	if bAccept == nil {
		bAccept = bd.opts.backwardAccept()
	}

	edgeBased := bd.opts.edgeBased()
	bd.fwd = newSearch(bd.g, fAccept, weightingCost(bd.opts.weighting, false), false, edgeBased)
	bd.bwd = newSearch(bd.g, bAccept, weightingCost(bd.opts.weighting, true), true, edgeBased)
	for _, s := range []*search{bd.fwd, bd.bwd} {
		s.ignore = bd.ignore
		s.skipNode = bd.skipNode
	}

	bd.best = pkg.INF_WEIGHT
	bd.meetFwd, bd.meetBwd = nil, nil
	bd.fwd.onRelax = func(e *SPTEntry) { bd.updateBest(e, bd.bwd) }
	bd.bwd.onRelax = func(e *SPTEntry) { bd.updateBest(e, bd.fwd) }
}

// updateBest cek semua entry frontier lain di node yang sama. edge-based search bisa punya beberapa entry
// per node (satu per edge masuk), pasangan yang transisinya dilarang dilewati.
func (bd *BidirectionalDijkstra) updateBest(e *SPTEntry, other *search) {
	for _, o := range other.front.entriesAt(e.Node) {
		fe, be := e, o
		if other == bd.fwd {
			fe, be = o, e
		}
		if bd.restrictedAt(fe, be) {
			continue
		}
		if w := fe.Weight + be.Weight; w < bd.best {
			bd.best = w
			bd.meetFwd, bd.meetBwd = fe, be
		}
	}
}

// restrictedAt transisi edge forward -> edge backward di meeting node dilarang turn restriction.
func (bd *BidirectionalDijkstra) restrictedAt(fe, be *SPTEntry) bool {
	if bd.opts.turnCosts == nil || fe.Edge == datastructure.NO_EDGE || be.Edge == datastructure.NO_EDGE {
		return false
	}
	return bd.opts.turnCosts.IsRestricted(fe.Edge, fe.Node, be.Edge)
}

func (bd *BidirectionalDijkstra) CalcPath(from, to datastructure.Index) (Path, error) {
	bd.visited = 0
	if err := checkNodeRange(bd.g, from, to); err != nil {
		return Path{}, err
	}
	if from == to {
		p := singleNodePath(bd.g, from)
		bd.opts.metrics.observe(bd.name, p)
		return p, nil
	}

	bd.newSearches()
	bd.fwd.init(newStartEntry(from, 0))
	bd.bwd.init(newStartEntry(to, 0))

	limit := bd.opts.maxVisited
	for {
		fromMin, toMin := bd.fwd.minKey(), bd.bwd.minKey()
		if bd.fwd.front.empty() && bd.bwd.front.empty() {
			break
		}
		if bd.finish(fromMin, toMin, bd.best) {
			break
		}
		if limit > 0 && bd.fwd.visited+bd.bwd.visited >= limit {
			bd.visited = bd.fwd.visited + bd.bwd.visited
			p := notFound(bd.visited)
			bd.opts.metrics.observe(bd.name, p)
			return p, nil
		}

		s, other := bd.fwd, bd.bwd
		if toMin < fromMin {
			s, other = bd.bwd, bd.fwd
		}
		if bd.expandBelowBest && s.minKey() >= bd.best {
			s, other = other, s
		}

		e, ok := s.next()
		if !ok {
			continue
		}
		bd.updateBest(e, other)
		s.expand(e)
	}

	bd.visited = bd.fwd.visited + bd.bwd.visited
	p := bd.extractPath()
	bd.opts.metrics.observe(bd.name, p)
	return p, nil
}

// Weight bobot jalur terbaik search terakhir, INF_WEIGHT kalau tidak ketemu. dipakai witness search yang
// tidak butuh path lengkap.
func (bd *BidirectionalDijkstra) Weight() float64 {
	return bd.best
}

func (bd *BidirectionalDijkstra) extractPath() Path {
	if bd.meetFwd == nil || bd.best > bd.weightLimit {
		return notFound(bd.visited)
	}
	fe, be := bd.meetFwd, bd.meetBwd

	nodes, edges := extractForward(fe)
	bNodes, bEdges := extractBackward(be)
	p := Path{
		Found:        true,
		Nodes:        append(nodes, bNodes...),
		Edges:        append(edges, bEdges...),
		Weight:       fe.Weight + be.Weight,
		Distance:     fe.Distance + be.Distance,
		Time:         fe.Time + be.Time,
		VisitedNodes: bd.visited,
	}
	p.fillCoordinates(bd.g)
	return p
}

func minWeight(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
