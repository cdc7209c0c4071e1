package contractor

import (
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/roadrouter/pkg/util"
)

// ContractedGraph graph yang sama + bitset node yang sudah dikontraksi + urutan kontraksi (rank).
// node yang belum dikontraksi punya rank -1.
type ContractedGraph struct {
	*datastructure.Graph
	contracted *datastructure.Bitset
	rank       []int32
}

var _ routingalgorithm.CHGraph = (*ContractedGraph)(nil)

func NewContractedGraph(g *datastructure.Graph) *ContractedGraph {
	rank := make([]int32, g.NodeCount())
	for i := range rank {
		rank[i] = -1
	}
	return &ContractedGraph{
		Graph:      g,
		contracted: datastructure.NewBitset(g.NodeCount()),
		rank:       rank,
	}
}

// NewContractedGraphWithRanks graph yang sudah dikontraksi sebelumnya (shortcut sudah ada di g),
// rank dibaca dari storage.
func NewContractedGraphWithRanks(g *datastructure.Graph, ranks []int32) (*ContractedGraph, error) {
	cg := NewContractedGraph(g)
	if err := cg.SetRanks(ranks); err != nil {
		return nil, err
	}
	return cg, nil
}

func (cg *ContractedGraph) SetRanks(ranks []int32) error {
	if len(ranks) != cg.NodeCount() {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "rank count %d != node count %d", len(ranks), cg.NodeCount())
	}
	cg.growRank()
	cg.contracted.Clear()
	for i, r := range ranks {
		cg.rank[i] = r
		if r >= 0 {
			cg.contracted.Add(datastructure.Index(i))
		}
	}
	return nil
}

func (cg *ContractedGraph) Rank(node datastructure.Index) int32 {
	if node < 0 || int(node) >= len(cg.rank) {
		return -1
	}
	return cg.rank[node]
}

func (cg *ContractedGraph) IsContracted(node datastructure.Index) bool {
	return cg.contracted.Contains(node)
}

func (cg *ContractedGraph) ContractedCount() int {
	return cg.contracted.Count()
}

// Ranks copy rank semua node, untuk disimpan ke storage.
func (cg *ContractedGraph) Ranks() []int32 {
	out := make([]int32, len(cg.rank))
	copy(out, cg.rank)
	return out
}

// growRank node yang ditambah ke graph setelah NewContractedGraph dapat rank -1.
func (cg *ContractedGraph) growRank() {
	for len(cg.rank) < cg.NodeCount() {
		cg.rank = append(cg.rank, -1)
	}
}

func (cg *ContractedGraph) markContracted(node datastructure.Index, order int32) {
	if int(node) >= len(cg.rank) {
		cg.growRank()
	}
	cg.contracted.Add(node)
	cg.rank[node] = order
}
