package spatialindex

import (
	"errors"
	"math"
	"sort"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/lintang-b-s/roadrouter/pkg/util"
	"go.uber.org/zap"
)

var (
	ErrNoCandidate = errors.New("no candidate node found for empty bucket")
	ErrEmptyGraph  = errors.New("graph has no active node")
)

const (
	maxBackfillCandidates = 10
	rasterWidthFactor     = 1.5
)

// NearestNodeFinder dipakai Snapper, bisa quadtree atau rtree.
type NearestNodeFinder interface {
	FindNearestNode(lat, lon float64) (datastructure.Index, error)
}

// Location2IDQuadtree grid Z-order di atas bounding box node, satu node representatif per bucket.
// Hasil query dikoreksi dengan jalan di graph karena resolusi grid tidak selalu menangkap node terdekat.
type Location2IDQuadtree struct {
	g      datastructure.RoutingGraph
	calc   geo.DistanceCalc
	logger *zap.Logger

	algo             *SpatialKeyAlgo
	buckets          []int32
	size             int
	maxRasterWidthKm float64
}

type QuadtreeOption func(*Location2IDQuadtree)

func WithDistanceCalc(calc geo.DistanceCalc) QuadtreeOption {
	return func(q *Location2IDQuadtree) {
		q.calc = calc
	}
}

func WithLogger(logger *zap.Logger) QuadtreeOption {
	return func(q *Location2IDQuadtree) {
		q.logger = logger
	}
}

func NewLocation2IDQuadtree(g datastructure.RoutingGraph, opts ...QuadtreeOption) *Location2IDQuadtree {
	q := &Location2IDQuadtree{
		g:      g,
		calc:   geo.Haversine,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Size jumlah bucket setelah Prepare.
func (q *Location2IDQuadtree) Size() int {
	return q.size
}

func (q *Location2IDQuadtree) MaxRasterWidthKm() float64 {
	return q.maxRasterWidthKm
}

/*
Prepare. bangun index dengan resolusi dari capacity:

	bits = floor(log2(capacity)) + 1
	size = 2^bits, dibulatkan ke atas ke kuadrat x*x

lalu isi bucket (node terdekat ke tengah cell menang) dan back-fill bucket kosong.
*/
func (q *Location2IDQuadtree) Prepare(capacity int) error {
	if capacity < 1 {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "index capacity must be positive, got %d", capacity)
	}
	bits := int(math.Log2(float64(capacity))) + 1
	size := 1 << bits
	x := int(math.Sqrt(float64(size)))
	if x*x < size {
		x++
		size = x * x
	}

	if err := q.initAlgo(bits); err != nil {
		return err
	}
	q.size = size
	q.buckets = make([]int32, size)
	for i := range q.buckets {
		q.buckets[i] = int32(datastructure.NO_NODE)
	}

	filled := q.fill()
	if err := q.fillEmpty(filled); err != nil {
		return err
	}

	q.logger.Info("location index prepared",
		zap.Int("bits", bits),
		zap.Int("buckets", size),
		zap.Int("filledDirectly", filled.Count()),
		zap.Float64("maxRasterWidthKm", q.maxRasterWidthKm))
	return nil
}

func (q *Location2IDQuadtree) initAlgo(bits int) error {
	minLat, minLon := math.MaxFloat64, math.MaxFloat64
	maxLat, maxLon := -math.MaxFloat64, -math.MaxFloat64
	active := 0
	for n := 0; n < q.g.NodeCount(); n++ {
		node := datastructure.Index(n)
		if q.g.IsRemoved(node) {
			continue
		}
		active++
		lat, lon := q.g.Lat(node), q.g.Lon(node)
		minLat = math.Min(minLat, lat)
		maxLat = math.Max(maxLat, lat)
		minLon = math.Min(minLon, lon)
		maxLon = math.Max(maxLon, lon)
	}
	if active == 0 {
		return util.WrapErrorf(ErrEmptyGraph, util.ErrBadParamInput, "cannot prepare location index")
	}

	q.algo = NewSpatialKeyAlgo(bits).SetBounds(minLat, maxLat, minLon, maxLon)

	// lebar raster per cell, bukan lebar bounding box keseluruhan
	cellLat, cellLon := q.algo.CellSize()
	q.maxRasterWidthKm = math.Max(
		q.calc.CalcDist(minLat, minLon, minLat+cellLat, minLon),
		q.calc.CalcDist(minLat, minLon, minLat, minLon+cellLon),
	)
	return nil
}

func (q *Location2IDQuadtree) fill() *datastructure.Bitset {
	filled := datastructure.NewBitset(q.size)
	for n := 0; n < q.g.NodeCount(); n++ {
		node := datastructure.Index(n)
		if q.g.IsRemoved(node) {
			continue
		}
		lat, lon := q.g.Lat(node), q.g.Lon(node)
		key := q.algo.Encode(lat, lon)
		bucket := datastructure.Index(key)

		if !filled.Contains(bucket) {
			q.buckets[key] = int32(node)
			filled.Add(bucket)
			continue
		}

		centerLat, centerLon := q.algo.Decode(key)
		old := datastructure.Index(q.buckets[key])
		distNew := q.calc.CalcDist(centerLat, centerLon, lat, lon)
		distOld := q.calc.CalcDist(centerLat, centerLon, q.g.Lat(old), q.g.Lon(old))
		// hanya yang benar-benar lebih dekat yang mengganti, seri tetap node lama
		if distNew < distOld {
			q.buckets[key] = int32(node)
		}
	}
	return filled
}

type distEntry struct {
	node datastructure.Index
	dist float64
}

func (q *Location2IDQuadtree) fillEmpty(filled *datastructure.Bitset) error {
	candidates := make([]distEntry, 0, maxBackfillCandidates+2)
	for key := 0; key < q.size; key++ {
		if filled.Contains(datastructure.Index(key)) {
			continue
		}
		centerLat, centerLon := q.algo.Decode(uint64(key))

		candidates = candidates[:0]
		for i := 1; len(candidates) < maxBackfillCandidates; i++ {
			backward, forward := key-i, key+i
			if backward < 0 && forward >= q.size {
				break
			}
			for _, idx := range [2]int{backward, forward} {
				if idx < 0 || idx >= q.size || !filled.Contains(datastructure.Index(idx)) {
					continue
				}
				node := datastructure.Index(q.buckets[idx])
				candidates = append(candidates, distEntry{
					node: node,
					dist: q.calc.CalcDist(centerLat, centerLon, q.g.Lat(node), q.g.Lon(node)),
				})
			}
		}

		if len(candidates) == 0 {
			return util.WrapErrorf(ErrNoCandidate, util.ErrInternalServerError,
				"bucket %d of %d (%f,%f)", key, q.size, centerLat, centerLon)
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].dist < candidates[j].dist
		})

		best := candidates[0]
		for _, c := range candidates {
			best = q.greedyDescent(c.node, centerLat, centerLon, best)
		}
		q.buckets[key] = int32(best.node)
	}
	return nil
}

// greedyDescent jalan dari start ke tetangga yang lebih dekat, cuma turun satu hop lagi kalau jarak membaik.
func (q *Location2IDQuadtree) greedyDescent(start datastructure.Index, lat, lon float64, best distEntry) distEntry {
	current := start
	for {
		improved := false
		it := q.g.Edges(current, nil)
		for it.Next() {
			adj := it.AdjNode()
			d := q.calc.CalcDist(q.g.Lat(adj), q.g.Lon(adj), lat, lon)
			if d < best.dist {
				best = distEntry{node: adj, dist: d}
				improved = true
			}
		}
		if !improved || best.node == current {
			return best
		}
		current = best.node
	}
}

// FindNearestNode node terdekat ke (lat, lon). Tidak pernah "not found" untuk graph yang tidak kosong.
func (q *Location2IDQuadtree) FindNearestNode(lat, lon float64) (datastructure.Index, error) {
	if q.buckets == nil {
		return datastructure.NO_NODE, util.WrapErrorf(ErrEmptyGraph, util.ErrBadParamInput, "location index not prepared")
	}

	key := q.algo.Encode(lat, lon)
	start := datastructure.Index(q.buckets[key])
	best := distEntry{node: start, dist: q.calc.CalcDist(lat, lon, q.g.Lat(start), q.g.Lon(start))}

	// bfs terbatas: lanjut selama tetangga lebih dekat atau masih di dalam 1.5x lebar raster
	visited := map[datastructure.Index]struct{}{start: {}}
	queue := []datastructure.Index{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		it := q.g.Edges(node, nil)
		for it.Next() {
			adj := it.AdjNode()
			if _, ok := visited[adj]; ok {
				continue
			}
			visited[adj] = struct{}{}

			d := q.calc.CalcDist(q.g.Lat(adj), q.g.Lon(adj), lat, lon)
			if d < best.dist {
				best = distEntry{node: adj, dist: d}
				queue = append(queue, adj)
			} else if d < rasterWidthFactor*q.maxRasterWidthKm {
				queue = append(queue, adj)
			}
		}
	}
	return best.node, nil
}
