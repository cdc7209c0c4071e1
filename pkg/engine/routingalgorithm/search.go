package routingalgorithm

import (
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
)

// costFunc bobot & waktu tempuh relax edge state dari parent. ok=false berarti edge tidak bisa dilewati
// (mis. conditional access tertutup di jam itu).
type costFunc func(state datastructure.EdgeState, parent *SPTEntry) (weight float64, millis int64, ok bool)

// keyFunc priority key di heap dari weight-so-far.
type keyFunc func(node datastructure.Index, weight float64) float64

func plainKey(node datastructure.Index, weight float64) float64 {
	return weight
}

func weightingCost(w Weighting, reverse bool) costFunc {
	tw, hasTime := w.(TimeWeighting)
	return func(state datastructure.EdgeState, parent *SPTEntry) (float64, int64, bool) {
		var ms int64
		if hasTime {
			ms = tw.CalcMillis(state, reverse, parent.Edge)
		}
		return w.CalcWeight(state, reverse, parent.Edge), ms, true
	}
}

/*
search satu arah shortest path tree. Dijkstra, A*, dua arah bidirectional, CH query dan time-dependent
semuanya cuma konfigurasi berbeda dari struct ini:

  - key: priority key (weight atau weight + heuristic)
  - accept: edge filter (arah, turn restriction, rank CH)
  - cost: bobot edge (static / time-dependent)
  - reverse: expand lewat Incoming (backward search)
  - edgeBased: frontier per (node, edge masuk), wajib kalau ada turn restriction

terminasi diputuskan pemanggil di antara next() dan expand().
*/
type search struct {
	g        datastructure.RoutingGraph
	front    *frontier
	key      keyFunc
	accept   EdgeFilter
	cost     costFunc
	reverse  bool
	ignore   *datastructure.Bitset
	skipNode datastructure.Index

	// dipanggil setiap edge berhasil direlax, dipakai bidirectional untuk update best path
	onRelax func(e *SPTEntry)

	visited    int
	maxVisited int
}

func newSearch(g datastructure.RoutingGraph, accept EdgeFilter, cost costFunc, reverse, edgeBased bool) *search {
	return &search{
		g:        g,
		front:    newFrontier(edgeBased),
		key:      plainKey,
		accept:   accept,
		cost:     cost,
		reverse:  reverse,
		skipNode: datastructure.NO_NODE,
	}
}

func (s *search) init(starts ...*SPTEntry) {
	for _, e := range starts {
		if old, ok := s.front.entry(e.Node, e.Edge); ok && old.Weight <= e.Weight {
			continue
		}
		e.WeightToCompare = s.key(e.Node, e.Weight)
		s.front.push(e)
	}
}

// next pop entry dengan key terkecil dan tandai settled.
func (s *search) next() (*SPTEntry, bool) {
	e, ok := s.front.pop()
	if ok {
		s.visited++
	}
	return e, ok
}

func (s *search) limitReached() bool {
	return s.maxVisited > 0 && s.visited >= s.maxVisited
}

func (s *search) minKey() float64 {
	return s.front.minKey()
}

func (s *search) expand(e *SPTEntry) {
	var it *datastructure.EdgeIterator
	if s.reverse {
		it = s.g.Incoming(e.Node, s.ignore)
	} else {
		it = s.g.Outgoing(e.Node, s.ignore)
	}

	for it.Next() {
		adj := it.AdjNode()
		if adj == s.skipNode || s.front.isSettled(adj, it.Edge()) {
			continue
		}
		state := it.State()
		if !s.accept(state, e.Edge) {
			continue
		}
		w, ms, ok := s.cost(state, e)
		if !ok {
			continue
		}
		newWeight := e.Weight + w

		old, exists := s.front.entry(adj, state.Edge)
		if exists && newWeight >= old.Weight {
			continue
		}
		if !exists {
			old = &SPTEntry{Node: adj}
		}
		old.Edge = state.Edge
		old.Weight = newWeight
		old.WeightToCompare = s.key(adj, newWeight)
		old.Time = e.Time + ms
		old.Distance = e.Distance + state.Weight
		old.Parent = e
		if exists {
			s.front.update(old)
		} else {
			s.front.push(old)
		}

		if s.onRelax != nil {
			s.onRelax(old)
		}
	}
}
