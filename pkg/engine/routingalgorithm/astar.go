package routingalgorithm

import (
	"math"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
)

// AStar dijkstra dengan key weight + heuristic. heuristic = MinWeight(jarak ke goal terdekat) + offset goal,
// tidak pernah overestimate selama Weighting.MinWeight tidak lebih besar dari bobot edge sebenarnya.
type AStar struct {
	*Dijkstra
}

func NewAStar(g datastructure.RoutingGraph, opts ...Option) *AStar {
	d := NewDijkstra(g, opts...)
	d.name = "astar"
	a := &AStar{Dijkstra: d}
	d.heuristic = a.goalHeuristic
	return a
}

func (a *AStar) goalHeuristic(goals []goal) keyFunc {
	w := a.opts.weighting
	calc := a.opts.calc
	g := a.g

	type target struct {
		lat, lon float64
		offset   float64
	}
	targets := make([]target, 0, len(goals))
	for _, gl := range goals {
		targets = append(targets, target{lat: g.Lat(gl.node), lon: g.Lon(gl.node), offset: gl.offset})
	}

	return func(node datastructure.Index, weight float64) float64 {
		lat, lon := g.Lat(node), g.Lon(node)
		h := math.Inf(1)
		for _, t := range targets {
			h = math.Min(h, w.MinWeight(calc.CalcDist(lat, lon, t.lat, t.lon))+t.offset)
		}
		return weight + h
	}
}
