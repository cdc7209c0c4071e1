package spatialindex

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/lintang-b-s/roadrouter/pkg/util"
)

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50

	// kandidat dari rtree diurutkan ulang pakai jarak bola, karena rtree pakai jarak euclid di ruang derajat.
	rtreeCandidates = 8

	pointTolerance = 1e-9
)

type nodePoint struct {
	node datastructure.Index
	loc  rtreego.Point
}

func (p *nodePoint) Bounds() rtreego.Rect {
	return p.loc.ToRect(pointTolerance)
}

// RtreeIndex index nearest node yang exact (tidak tergantung resolusi grid).
type RtreeIndex struct {
	g    datastructure.RoutingGraph
	calc geo.DistanceCalc
	tree *rtreego.Rtree
}

func NewRtreeIndex(g datastructure.RoutingGraph, calc geo.DistanceCalc) (*RtreeIndex, error) {
	if calc == nil {
		calc = geo.Haversine
	}
	objs := make([]rtreego.Spatial, 0, g.NodeCount())
	for n := 0; n < g.NodeCount(); n++ {
		node := datastructure.Index(n)
		if g.IsRemoved(node) {
			continue
		}
		objs = append(objs, &nodePoint{node: node, loc: rtreego.Point{g.Lat(node), g.Lon(node)}})
	}
	if len(objs) == 0 {
		return nil, util.WrapErrorf(ErrEmptyGraph, util.ErrBadParamInput, "cannot build rtree index")
	}
	return &RtreeIndex{
		g:    g,
		calc: calc,
		tree: rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren, objs...),
	}, nil
}

func (r *RtreeIndex) Size() int {
	return r.tree.Size()
}

// NearestNodes k node terdekat, terurut dari yang paling dekat.
func (r *RtreeIndex) NearestNodes(lat, lon float64, k int) []datastructure.Index {
	found := r.tree.NearestNeighbors(k, rtreego.Point{lat, lon})
	nodes := make([]datastructure.Index, 0, len(found))
	for _, obj := range found {
		if obj == nil {
			continue
		}
		nodes = append(nodes, obj.(*nodePoint).node)
	}
	return nodes
}

func (r *RtreeIndex) FindNearestNode(lat, lon float64) (datastructure.Index, error) {
	best := datastructure.NO_NODE
	bestDist := math.MaxFloat64
	for _, node := range r.NearestNodes(lat, lon, rtreeCandidates) {
		d := r.calc.CalcDist(lat, lon, r.g.Lat(node), r.g.Lon(node))
		if d < bestDist || (d == bestDist && node < best) {
			best, bestDist = node, d
		}
	}
	if best == datastructure.NO_NODE {
		return best, util.WrapErrorf(ErrEmptyGraph, util.ErrNotFound, "rtree returned no candidate")
	}
	return best, nil
}
