package routingalgorithm

import (
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
)

// Path hasil query. Found=false dengan error nil berarti tidak ada jalur (bukan error).
type Path struct {
	Found bool
	Nodes []datastructure.Index
	Edges []datastructure.EdgeID
	// total bobot sesuai Weighting
	Weight float64
	// total panjang edge (km)
	Distance     float64
	Time         int64
	VisitedNodes int
	Coordinates  []geo.Coordinate
}

func notFound(visited int) Path {
	return Path{Found: false, VisitedNodes: visited}
}

// Polyline encoded polyline (precision 5) dari koordinat path.
func (p Path) Polyline() string {
	return datastructure.CreatePolyline(p.Coordinates)
}

// SimplifiedPolyline sama seperti Polyline tapi titik yang hampir segaris dibuang dulu.
func (p Path) SimplifiedPolyline(thresholdMeter float64) string {
	return datastructure.CreatePolyline(geo.RamerDouglasPeucker(p.Coordinates, thresholdMeter))
}

func (p *Path) fillCoordinates(g datastructure.RoutingGraph) {
	p.Coordinates = make([]geo.Coordinate, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		p.Coordinates = append(p.Coordinates, geo.NewCoordinate(g.Lat(n), g.Lon(n)))
	}
}

// extractForward jalan dari entry balik ke source lewat Parent lalu dibalik.
func extractForward(e *SPTEntry) ([]datastructure.Index, []datastructure.EdgeID) {
	nodes := []datastructure.Index{}
	edges := []datastructure.EdgeID{}
	for cur := e; cur != nil; cur = cur.Parent {
		nodes = append(nodes, cur.Node)
		if cur.Edge != datastructure.NO_EDGE && cur.Parent != nil {
			edges = append(edges, cur.Edge)
		}
	}
	reverseSlice(nodes)
	reverseSlice(edges)
	return nodes, edges
}

// extractBackward entry backward search: Parent menunjuk ke arah target, urutannya sudah benar.
// node e sendiri tidak ikut (sudah ada di potongan forward).
func extractBackward(e *SPTEntry) ([]datastructure.Index, []datastructure.EdgeID) {
	nodes := []datastructure.Index{}
	edges := []datastructure.EdgeID{}
	for cur := e; cur != nil && cur.Parent != nil; cur = cur.Parent {
		edges = append(edges, cur.Edge)
		nodes = append(nodes, cur.Parent.Node)
	}
	return nodes, edges
}

func reverseSlice[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func pathFromEntry(g datastructure.RoutingGraph, e *SPTEntry, extraWeight, extraDist float64, visited int) Path {
	nodes, edges := extractForward(e)
	p := Path{
		Found:        true,
		Nodes:        nodes,
		Edges:        edges,
		Weight:       e.Weight + extraWeight,
		Distance:     e.Distance + extraDist,
		Time:         e.Time,
		VisitedNodes: visited,
	}
	p.fillCoordinates(g)
	return p
}

func singleNodePath(g datastructure.RoutingGraph, node datastructure.Index) Path {
	p := Path{
		Found: true,
		Nodes: []datastructure.Index{node},
		Edges: []datastructure.EdgeID{},
	}
	p.fillCoordinates(g)
	return p
}
