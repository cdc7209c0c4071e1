package spatialindex

import (
	"math"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/lintang-b-s/roadrouter/pkg/util"
)

// QueryEdge titik query yang sudah di snap ke edge Base-Adj. Fraction posisi proyeksi dari Base (0) ke Adj (1).
type QueryEdge struct {
	Edge      datastructure.EdgeID
	Base      datastructure.Index
	Adj       datastructure.Index
	Projected geo.Coordinate
	Fraction  float64
	// jarak titik query ke proyeksi, km
	SnapDistance float64
}

type Snapper struct {
	g      datastructure.RoutingGraph
	finder NearestNodeFinder
	calc   geo.DistanceCalc
}

func NewSnapper(g datastructure.RoutingGraph, finder NearestNodeFinder, calc geo.DistanceCalc) *Snapper {
	if calc == nil {
		calc = geo.Haversine
	}
	return &Snapper{g: g, finder: finder, calc: calc}
}

// SnapToEdge cari node terdekat lalu pilih edge asli (bukan shortcut) yang menempel di node itu dengan proyeksi
// paling dekat.
func (s *Snapper) SnapToEdge(lat, lon float64) (QueryEdge, error) {
	node, err := s.finder.FindNearestNode(lat, lon)
	if err != nil {
		return QueryEdge{}, err
	}

	query := geo.NewCoordinate(lat, lon)
	best := QueryEdge{Edge: datastructure.NO_EDGE, SnapDistance: math.MaxFloat64}

	it := s.g.Edges(node, nil)
	for it.Next() {
		if it.IsShortcut() {
			continue
		}
		a := geo.NewCoordinate(s.g.Lat(it.BaseNode()), s.g.Lon(it.BaseNode()))
		b := geo.NewCoordinate(s.g.Lat(it.AdjNode()), s.g.Lon(it.AdjNode()))
		projected, fraction := geo.ProjectPointToSegment(a, b, query)
		d := s.calc.CalcDist(lat, lon, projected.Lat, projected.Lon)
		if d < best.SnapDistance {
			best = QueryEdge{
				Edge:         it.Edge(),
				Base:         it.BaseNode(),
				Adj:          it.AdjNode(),
				Projected:    projected,
				Fraction:     fraction,
				SnapDistance: d,
			}
		}
	}

	if best.Edge == datastructure.NO_EDGE {
		return QueryEdge{}, util.WrapErrorf(ErrNoCandidate, util.ErrNotFound,
			"nearest node %d of (%f,%f) has no edge", node, lat, lon)
	}
	return best, nil
}
