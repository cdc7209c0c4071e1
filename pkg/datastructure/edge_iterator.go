package datastructure

type iterMode uint8

const (
	iterOutgoing iterMode = iota
	iterIncoming
	iterAll
)

// EdgeIterator iterasi lazy satu kali jalan atas chain edge satu node. Semua state ada di iterator,
// graph tidak menyimpan state iterasi sehingga banyak search read-only bisa jalan paralel.
//
//	it := g.Outgoing(u, nil)
//	for it.Next() {
//		v := it.AdjNode()
//	}
type EdgeIterator struct {
	g      *Graph
	node   Index
	mode   iterMode
	ignore *Bitset
	next   EdgeID

	edge   EdgeID
	adj    Index
	weight float64
	flags  Direction
}

func newEdgeIterator(g *Graph, node Index, mode iterMode, ignore *Bitset) *EdgeIterator {
	it := &EdgeIterator{
		g:      g,
		node:   node,
		mode:   mode,
		ignore: ignore,
		next:   NO_EDGE,
		edge:   NO_EDGE,
		adj:    NO_NODE,
	}
	if node >= 0 && int(node) < g.NodeCount() && !g.IsRemoved(node) {
		it.next = g.firstEdge(node)
	}
	return it
}

func (it *EdgeIterator) Next() bool {
	for it.next != NO_EDGE {
		edge := it.next
		it.next = it.g.nextOf(edge, it.node)

		a, b := it.g.EdgeNodes(edge)
		dir := it.g.EdgeDirection(edge)
		adj := b
		if a == b {
			// self-loop keluar dan masuk ke node yang sama
			dir |= dir.Reverse()
		} else if a != it.node {
			adj = a
			dir = dir.Reverse()
		}

		switch it.mode {
		case iterOutgoing:
			if !dir.IsForward() {
				continue
			}
		case iterIncoming:
			if !dir.IsBackward() {
				continue
			}
		}

		if it.g.IsRemoved(adj) || it.ignore.Contains(adj) {
			continue
		}

		it.edge = edge
		it.adj = adj
		it.flags = dir
		it.weight = it.g.EdgeWeight(edge)
		return true
	}
	return false
}

func (it *EdgeIterator) Edge() EdgeID {
	return it.edge
}

func (it *EdgeIterator) BaseNode() Index {
	return it.node
}

func (it *EdgeIterator) AdjNode() Index {
	return it.adj
}

func (it *EdgeIterator) Weight() float64 {
	return it.weight
}

// Flags arah edge dilihat dari BaseNode.
func (it *EdgeIterator) Flags() Direction {
	return it.flags
}

func (it *EdgeIterator) WayID() int64 {
	return it.g.WayID(it.edge)
}

func (it *EdgeIterator) IsShortcut() bool {
	return it.g.IsShortcut(it.edge)
}

// State snapshot edge saat ini, aman disimpan setelah Next dipanggil lagi.
func (it *EdgeIterator) State() EdgeState {
	return EdgeState{
		Edge:     it.edge,
		Base:     it.node,
		Adj:      it.adj,
		Weight:   it.weight,
		Flags:    it.flags,
		WayID:    it.g.WayID(it.edge),
		Shortcut: it.g.IsShortcut(it.edge),
	}
}

type EdgeState struct {
	Edge     EdgeID
	Base     Index
	Adj      Index
	Weight   float64
	Flags    Direction
	WayID    int64
	Shortcut bool
}

// EdgeStateOf state edge dilihat dari base.
func EdgeStateOf(g RoutingGraph, edge EdgeID, base Index) EdgeState {
	a, b := g.EdgeNodes(edge)
	dir := g.EdgeDirection(edge)
	adj := b
	if a == b {
		dir |= dir.Reverse()
	} else if a != base {
		adj = a
		dir = dir.Reverse()
	}
	return EdgeState{
		Edge:     edge,
		Base:     base,
		Adj:      adj,
		Weight:   g.EdgeWeight(edge),
		Flags:    dir,
		WayID:    g.WayID(edge),
		Shortcut: g.IsShortcut(edge),
	}
}
