package contractor

import (
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/engine/routingalgorithm"
)

// witnessSearch bidirectional dijkstra dari v ke w yang tidak boleh lewat node yang sedang dikontraksi
// dan node yang sudah dikontraksi sebelumnya.
type witnessSearch struct {
	g          *ContractedGraph
	maxVisited int
}

func newWitnessSearch(g *ContractedGraph, maxVisited int) *witnessSearch {
	return &witnessSearch{g: g, maxVisited: maxVisited}
}

/*
find cost jalur terpendek from->to tanpa lewat skip. search berhenti begitu fromMin+toMin >= min(best, limit),
jadi jalur yang cost nya > limit dianggap tidak ada. kalau maxVisited tercapai juga dianggap tidak ada witness
(shortcut tetap ditambahkan, hasil query tetap benar cuma shortcut nya lebih banyak).
*/
func (ws *witnessSearch) find(from, to, skip datastructure.Index, limit float64) (float64, bool, error) {
	bd := routingalgorithm.NewBidirectionalDijkstra(ws.g,
		routingalgorithm.WithSkipNode(skip),
		routingalgorithm.WithIgnoreSet(ws.g.contracted),
		routingalgorithm.WithWeightLimit(limit),
		routingalgorithm.WithRouteOptions(routingalgorithm.WithMaxVisitedNodes(ws.maxVisited)),
	)
	p, err := bd.CalcPath(from, to)
	if err != nil {
		return 0, false, err
	}
	if !p.Found {
		return 0, false, nil
	}
	return p.Weight, true, nil
}
