package routingalgorithm

import (
	"github.com/lintang-b-s/roadrouter/pkg"
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/util"
)

// SPTEntry node di shortest path tree satu search run. Parent menunjuk ke entry asal (ke arah source untuk
// search maju, ke arah target untuk backward search).
type SPTEntry struct {
	Node datastructure.Index
	// edge yang dipakai untuk sampai ke Node, NO_EDGE untuk entry awal
	Edge   datastructure.EdgeID
	Weight float64
	// key heap, Weight + heuristic untuk A*
	WeightToCompare float64
	Time            int64
	Distance        float64
	Parent          *SPTEntry

	pqNode *datastructure.PriorityQueueNode[*SPTEntry]
	key    uint64
}

func newStartEntry(node datastructure.Index, weight float64) *SPTEntry {
	return &SPTEntry{
		Node:            node,
		Edge:            datastructure.NO_EDGE,
		Weight:          weight,
		WeightToCompare: weight,
	}
}

/*
frontier priority queue + best-known entry per state. dibuang setelah satu search run.

node-based (default): state = node, setiap node di settle sekali.
edge-based (ada turn restriction): state = (node, edge masuk). node yang sama bisa di settle lagi lewat
edge masuk lain, jadi transisi terlarang dari satu edge masuk tidak menutup node itu untuk edge masuk lainnya.
*/
type frontier struct {
	pq        *datastructure.MinHeap[*SPTEntry]
	edgeBased bool
	entries   map[uint64]*SPTEntry
	settled   map[uint64]struct{}
	// semua entry per node, dipakai cek meeting point bidirectional
	byNode map[datastructure.Index][]*SPTEntry
}

func newFrontier(edgeBased bool) *frontier {
	return &frontier{
		pq:        datastructure.NewFourAryHeap[*SPTEntry](),
		edgeBased: edgeBased,
		entries:   make(map[uint64]*SPTEntry),
		settled:   make(map[uint64]struct{}),
		byNode:    make(map[datastructure.Index][]*SPTEntry),
	}
}

func (f *frontier) keyOf(node datastructure.Index, edge datastructure.EdgeID) uint64 {
	if !f.edgeBased {
		return uint64(uint32(node))
	}
	return util.PackInt32Pair(int32(node), int32(edge))
}

func (f *frontier) push(e *SPTEntry) {
	e.key = f.keyOf(e.Node, e.Edge)
	e.pqNode = datastructure.NewPriorityQueueNode(e.WeightToCompare, e)
	if _, ok := f.entries[e.key]; !ok {
		f.byNode[e.Node] = append(f.byNode[e.Node], e)
	}
	f.entries[e.key] = e
	f.pq.Insert(e.pqNode)
}

// update entry yang belum settled dengan jalur lebih murah.
func (f *frontier) update(e *SPTEntry) {
	if e.pqNode != nil && f.pq.Contains(e.pqNode) {
		if err := f.pq.DecreaseKey(e.pqNode, e.WeightToCompare); err == nil {
			return
		}
	}
	f.push(e)
}

func (f *frontier) pop() (*SPTEntry, bool) {
	for !f.pq.IsEmpty() {
		item, err := f.pq.ExtractMin()
		if err != nil {
			return nil, false
		}
		e := item.GetItem()
		if _, ok := f.settled[e.key]; ok {
			continue
		}
		f.settled[e.key] = struct{}{}
		return e, true
	}
	return nil, false
}

func (f *frontier) minKey() float64 {
	if f.pq.IsEmpty() {
		return 2 * pkg.INF_WEIGHT
	}
	return f.pq.GetMinRank()
}

func (f *frontier) isSettled(node datastructure.Index, edge datastructure.EdgeID) bool {
	_, ok := f.settled[f.keyOf(node, edge)]
	return ok
}

func (f *frontier) entry(node datastructure.Index, edge datastructure.EdgeID) (*SPTEntry, bool) {
	e, ok := f.entries[f.keyOf(node, edge)]
	return e, ok
}

func (f *frontier) entriesAt(node datastructure.Index) []*SPTEntry {
	return f.byNode[node]
}

func (f *frontier) empty() bool {
	return f.pq.IsEmpty()
}
