package routingalgorithm

import (
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
)

// PathFinder kontrak umum query titik ke titik. Satu instance tidak aman dipakai paralel,
// buat instance baru per goroutine (lihat BatchRouter).
type PathFinder interface {
	CalcPath(from, to datastructure.Index) (Path, error)
	VisitedNodes() int
}

// CHGraph graph yang sudah dikontraksi: rank setiap node + shortcut.
type CHGraph interface {
	datastructure.RoutingGraph
	Rank(node datastructure.Index) int32
}
