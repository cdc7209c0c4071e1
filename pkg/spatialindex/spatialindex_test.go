package spatialindex

import (
	"errors"
	"testing"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// persegi 1 derajat: 0 (0,0), 1 (0,1), 2 (1,0), 3 (1,1), edge keliling.
func squareGraph(t *testing.T) *datastructure.Graph {
	t.Helper()
	g := datastructure.NewGraph()
	for _, c := range [][2]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
		_, err := g.AddLocation(c[0], c[1])
		require.NoError(t, err)
	}
	for _, e := range [][2]datastructure.Index{{0, 1}, {1, 3}, {3, 2}, {2, 0}} {
		_, err := g.Edge(e[0], e[1], 111, true)
		require.NoError(t, err)
	}
	return g
}

func TestSpatialKeyAlgo(t *testing.T) {
	algo := NewSpatialKeyAlgo(5).SetBounds(0, 1, 0, 1)
	assert.Equal(t, 3, algo.LatBits())
	assert.Equal(t, 2, algo.LonBits())

	assert.Equal(t, uint64(0), algo.Encode(0, 0))
	assert.Equal(t, uint64(0b11111), algo.Encode(1, 1))
	assert.Equal(t, uint64(0b01010), algo.Encode(0, 1))
	assert.Equal(t, uint64(0b10101), algo.Encode(1, 0))

	// di luar bounds di clamp
	assert.Equal(t, algo.Encode(1, 1), algo.Encode(5, 5))

	cellLat, cellLon := algo.CellSize()
	assert.InDelta(t, 0.125, cellLat, 1e-12)
	assert.InDelta(t, 0.25, cellLon, 1e-12)

	for _, p := range [][2]float64{{0.3, 0.7}, {0.9, 0.1}, {0.51, 0.49}} {
		lat, lon := algo.Decode(algo.Encode(p[0], p[1]))
		assert.InDelta(t, p[0], lat, cellLat/2)
		assert.InDelta(t, p[1], lon, cellLon/2)
	}
}

func TestQuadtreePrepareSize(t *testing.T) {
	q := NewLocation2IDQuadtree(squareGraph(t))
	require.NoError(t, q.Prepare(16))
	// bits = 5, 2^5 = 32, dibulatkan ke 6*6
	assert.Equal(t, 36, q.Size())
	assert.Greater(t, q.MaxRasterWidthKm(), 0.0)
}

func TestQuadtreeFindsExactNodes(t *testing.T) {
	g := squareGraph(t)
	q := NewLocation2IDQuadtree(g)
	require.NoError(t, q.Prepare(16))

	for n := 0; n < g.NodeCount(); n++ {
		node := datastructure.Index(n)
		got, err := q.FindNearestNode(g.Lat(node), g.Lon(node))
		require.NoError(t, err)
		assert.Equal(t, node, got)
	}
}

func TestQuadtreeEquidistantIsDeterministic(t *testing.T) {
	q := NewLocation2IDQuadtree(squareGraph(t))
	require.NoError(t, q.Prepare(16))

	first, err := q.FindNearestNode(0, 0.5)
	require.NoError(t, err)
	assert.Contains(t, []datastructure.Index{0, 1}, first)

	for i := 0; i < 20; i++ {
		got, err := q.FindNearestNode(0, 0.5)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}

	// index yang dibangun ulang memberikan jawaban yang sama
	again := NewLocation2IDQuadtree(squareGraph(t))
	require.NoError(t, again.Prepare(16))
	got, err := again.FindNearestNode(0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestQuadtreeEveryBucketFilled(t *testing.T) {
	q := NewLocation2IDQuadtree(squareGraph(t), WithDistanceCalc(geo.PlaneProjection))
	require.NoError(t, q.Prepare(64))
	for key, node := range q.buckets {
		assert.NotEqual(t, int32(datastructure.NO_NODE), node, "bucket %d", key)
	}
}

func TestQuadtreeEmptyGraph(t *testing.T) {
	q := NewLocation2IDQuadtree(datastructure.NewGraph())
	err := q.Prepare(16)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyGraph))

	_, err = q.FindNearestNode(0, 0)
	assert.True(t, errors.Is(err, ErrEmptyGraph))
}

func TestQuadtreeSingleNode(t *testing.T) {
	g := datastructure.NewGraph()
	_, err := g.AddLocation(-6.2, 106.8)
	require.NoError(t, err)

	q := NewLocation2IDQuadtree(g)
	require.NoError(t, q.Prepare(8))
	got, err := q.FindNearestNode(-7, 107)
	require.NoError(t, err)
	assert.Equal(t, datastructure.Index(0), got)
}

func TestRtreeIndex(t *testing.T) {
	g := squareGraph(t)
	idx, err := NewRtreeIndex(g, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Size())

	got, err := idx.FindNearestNode(0.9, 0.8)
	require.NoError(t, err)
	assert.Equal(t, datastructure.Index(3), got)

	nearest := idx.NearestNodes(0.1, 0.1, 2)
	require.Len(t, nearest, 2)
	assert.Equal(t, datastructure.Index(0), nearest[0])

	require.NoError(t, g.RemoveLocation(3))
	idx, err = NewRtreeIndex(g, nil)
	require.NoError(t, err)
	got, err = idx.FindNearestNode(0.9, 0.8)
	require.NoError(t, err)
	assert.NotEqual(t, datastructure.Index(3), got)
}

func TestRtreeAgreesWithQuadtreeOnNodes(t *testing.T) {
	g := squareGraph(t)
	q := NewLocation2IDQuadtree(g)
	require.NoError(t, q.Prepare(16))
	r, err := NewRtreeIndex(g, geo.Haversine)
	require.NoError(t, err)

	for n := 0; n < g.NodeCount(); n++ {
		node := datastructure.Index(n)
		fromQuad, err := q.FindNearestNode(g.Lat(node), g.Lon(node))
		require.NoError(t, err)
		fromRtree, err := r.FindNearestNode(g.Lat(node), g.Lon(node))
		require.NoError(t, err)
		assert.Equal(t, fromRtree, fromQuad)
	}
}

func TestSnapToEdge(t *testing.T) {
	g := datastructure.NewGraph()
	_, err := g.AddLocation(0, 0)
	require.NoError(t, err)
	_, err = g.AddLocation(0, 1)
	require.NoError(t, err)
	_, err = g.AddLocation(1, 0)
	require.NoError(t, err)
	_, err = g.Edge(0, 1, 111, true)
	require.NoError(t, err)
	_, err = g.Edge(0, 2, 111, true)
	require.NoError(t, err)

	r, err := NewRtreeIndex(g, nil)
	require.NoError(t, err)
	snapper := NewSnapper(g, r, nil)

	qe, err := snapper.SnapToEdge(0.001, 0.3)
	require.NoError(t, err)
	assert.Equal(t, datastructure.EdgeID(0), qe.Edge)
	assert.Equal(t, datastructure.Index(0), qe.Base)
	assert.Equal(t, datastructure.Index(1), qe.Adj)
	assert.InDelta(t, 0.3, qe.Fraction, 1e-3)
	assert.InDelta(t, 0.0, qe.Projected.Lat, 1e-3)
	assert.Less(t, qe.SnapDistance, 0.2)
}

func TestSnapToEdgeIsolatedNode(t *testing.T) {
	g := datastructure.NewGraph()
	_, err := g.AddLocation(0, 0)
	require.NoError(t, err)
	r, err := NewRtreeIndex(g, nil)
	require.NoError(t, err)

	_, err = NewSnapper(g, r, nil).SnapToEdge(0, 0)
	assert.True(t, errors.Is(err, ErrNoCandidate))
}

func TestSnapToEdgeSkipsShortcut(t *testing.T) {
	g := datastructure.NewGraph()
	for _, c := range [][2]float64{{0, 0}, {0, 0.5}, {0, 1}} {
		_, err := g.AddLocation(c[0], c[1])
		require.NoError(t, err)
	}
	e01, err := g.Edge(0, 1, 55, true)
	require.NoError(t, err)
	e12, err := g.Edge(1, 2, 55, true)
	require.NoError(t, err)
	// shortcut 0->2 persis di atas titik query, tetap tidak boleh dipilih
	_, err = g.AddShortcut(0, 2, 110, e01, e12)
	require.NoError(t, err)

	r, err := NewRtreeIndex(g, nil)
	require.NoError(t, err)
	qe, err := NewSnapper(g, r, nil).SnapToEdge(0, 0.1)
	require.NoError(t, err)
	assert.Equal(t, e01, qe.Edge)
}
