package routingalgorithm

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/util"
)

const (
	DEFAULT_UNPACK_CACHE_SIZE = 4096
)

var ErrTurnCostsUnsupported = errors.New("turn restrictions are not supported on a contracted graph")

/*
BidirectionalCH query di graph hasil contraction. forward search cuma lewat edge ke node dengan rank lebih tinggi,
backward search juga (lewat Incoming). karena search hanya naik, stopping rule nya bukan fromMin+toMin >= best,
tapi dua-duanya fromMin >= best dan toMin >= best. shortcut di path di unpack rekursif jadi edge asli,
hasil unpack di cache per shortcut.
*/
type BidirectionalCH struct {
	g     CHGraph
	bd    *BidirectionalDijkstra
	cache *lru.Cache[datastructure.EdgeID, []datastructure.EdgeID]
}

type CHOption func(*BidirectionalCH) error

// WithUnpackCacheSize size 0 mematikan cache.
func WithUnpackCacheSize(size int) CHOption {
	return func(ch *BidirectionalCH) error {
		if size <= 0 {
			ch.cache = nil
			return nil
		}
		cache, err := lru.New[datastructure.EdgeID, []datastructure.EdgeID](size)
		if err != nil {
			return util.WrapErrorf(err, util.ErrBadParamInput, "unpack cache")
		}
		ch.cache = cache
		return nil
	}
}

func WithCHRouteOptions(opts ...Option) CHOption {
	return func(ch *BidirectionalCH) error {
		for _, opt := range opts {
			opt(ch.bd.opts)
		}
		return nil
	}
}

func NewBidirectionalCH(g CHGraph, opts ...CHOption) (*BidirectionalCH, error) {
	bd := NewBidirectionalDijkstra(g, WithFinishCondition(func(fromMin, toMin, best float64) bool {
		return fromMin >= best && toMin >= best
	}))
	bd.name = "ch"
	bd.expandBelowBest = true

	ch := &BidirectionalCH{g: g, bd: bd}
	cache, err := lru.New[datastructure.EdgeID, []datastructure.EdgeID](DEFAULT_UNPACK_CACHE_SIZE)
	if err != nil {
		return nil, err
	}
	ch.cache = cache

	for _, opt := range opts {
		if err := opt(ch); err != nil {
			return nil, err
		}
	}
	if bd.opts.turnCosts != nil {
		// shortcut menyembunyikan edge asli di via node, turn restriction tidak bisa dicek
		return nil, util.WrapErrorf(ErrTurnCostsUnsupported, util.ErrBadParamInput, "contraction hierarchy query")
	}

	upward := func(state datastructure.EdgeState, prevEdge datastructure.EdgeID) bool {
		return g.Rank(state.Adj) > g.Rank(state.Base)
	}
	bd.forwardAccept = And(upward, bd.opts.forwardAccept())
	bd.backwardAccept = And(upward, bd.opts.backwardAccept())
	return ch, nil
}

func (ch *BidirectionalCH) VisitedNodes() int {
	return ch.bd.VisitedNodes()
}

func (ch *BidirectionalCH) CalcPath(from, to datastructure.Index) (Path, error) {
	p, err := ch.bd.CalcPath(from, to)
	if err != nil || !p.Found || len(p.Edges) == 0 {
		return p, err
	}

	edges := make([]datastructure.EdgeID, 0, len(p.Edges))
	for _, e := range p.Edges {
		edges = append(edges, ch.unpack(e)...)
	}

	nodes := make([]datastructure.Index, 0, len(edges)+1)
	cur := from
	nodes = append(nodes, cur)
	for _, e := range edges {
		a, b := ch.g.EdgeNodes(e)
		if a == cur {
			cur = b
		} else {
			cur = a
		}
		nodes = append(nodes, cur)
	}
	p.Nodes = nodes
	p.Edges = edges
	p.fillCoordinates(ch.g)
	return p, nil
}

// unpack edge asli yang digantikan shortcut, urut dari nodeA ke nodeB shortcut.
func (ch *BidirectionalCH) unpack(edge datastructure.EdgeID) []datastructure.EdgeID {
	if !ch.g.IsShortcut(edge) {
		return []datastructure.EdgeID{edge}
	}
	if ch.cache != nil {
		if cached, ok := ch.cache.Get(edge); ok {
			return cached
		}
	}

	s1, s2 := ch.g.SkippedEdges(edge)
	first, second := ch.unpack(s1), ch.unpack(s2)
	unpacked := make([]datastructure.EdgeID, 0, len(first)+len(second))
	unpacked = append(unpacked, first...)
	unpacked = append(unpacked, second...)
	if ch.cache != nil {
		ch.cache.Add(edge, unpacked)
	}
	return unpacked
}
