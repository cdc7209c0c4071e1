package contractor

import (
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/util"
)

type SCCResult struct {
	// Components node per komponen, urutan sesuai urutan ketemu di pass kedua kosaraju.
	Components [][]datastructure.Index
	// ComponentOf id komponen setiap node, -1 untuk node yang sudah dihapus.
	ComponentOf []int32
	// Condensation adjacency DAG antar komponen, tanpa duplikat.
	Condensation [][]int32
}

func (r SCCResult) SameComponent(a, b datastructure.Index) bool {
	return r.ComponentOf[a] >= 0 && r.ComponentOf[a] == r.ComponentOf[b]
}

// Largest id komponen dengan node terbanyak.
func (r SCCResult) Largest() int {
	best := -1
	for i, c := range r.Components {
		if best < 0 || len(c) > len(r.Components[best]) {
			best = i
		}
	}
	return best
}

/*
StronglyConnectedComponents kosaraju: dfs pertama lewat Outgoing untuk urutan finish time,
dfs kedua lewat Incoming dengan urutan finish time terbalik. dfs iteratif (stack berisi edge iterator)
supaya graph jalan se-kota tidak stack overflow.
*/
func StronglyConnectedComponents(g datastructure.RoutingGraph) SCCResult {
	n := g.NodeCount()
	visited := datastructure.NewBitset(n)

	order := make([]datastructure.Index, 0, n)
	for v := datastructure.Index(0); int(v) < n; v++ {
		if g.IsRemoved(v) || visited.Contains(v) {
			continue
		}
		order = dfs(g, v, visited, false, order)
	}
	order = util.ReverseG(order)

	visited.Clear()
	componentOf := make([]int32, n)
	for i := range componentOf {
		componentOf[i] = -1
	}
	components := make([][]datastructure.Index, 0)
	for _, v := range order {
		if visited.Contains(v) {
			continue
		}
		component := dfs(g, v, visited, true, make([]datastructure.Index, 0))
		for _, node := range component {
			componentOf[node] = int32(len(components))
		}
		components = append(components, component)
	}

	condensation := make([][]int32, len(components))
	seen := make(map[uint64]struct{})
	for v := datastructure.Index(0); int(v) < n; v++ {
		if componentOf[v] < 0 {
			continue
		}
		it := g.Outgoing(v, nil)
		for it.Next() {
			from, to := componentOf[v], componentOf[it.AdjNode()]
			if from == to {
				continue
			}
			key := util.PackInt32Pair(from, to)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			condensation[from] = append(condensation[from], to)
		}
	}

	return SCCResult{
		Components:   components,
		ComponentOf:  componentOf,
		Condensation: condensation,
	}
}

// dfs append node ke output dalam urutan finish time.
func dfs(g datastructure.RoutingGraph, root datastructure.Index, visited *datastructure.Bitset, reversed bool,
	output []datastructure.Index) []datastructure.Index {
	iterOf := func(v datastructure.Index) *datastructure.EdgeIterator {
		if reversed {
			return g.Incoming(v, nil)
		}
		return g.Outgoing(v, nil)
	}

	visited.Add(root)
	stack := []*datastructure.EdgeIterator{iterOf(root)}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.Next() {
			adj := top.AdjNode()
			if !visited.Contains(adj) {
				visited.Add(adj)
				stack = append(stack, iterOf(adj))
			}
			continue
		}
		stack = stack[:len(stack)-1]
		output = append(output, top.BaseNode())
	}
	return output
}
