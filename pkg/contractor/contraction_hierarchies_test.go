package contractor

import (
	"context"
	"errors"
	"testing"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/lintang-b-s/roadrouter/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

/*
dari https://jlazarsfeld.github.io/ch.150.project/sections/8-contraction/
p=0, v=1, q=2, w=3, r=4, f=5

	p
	 \
	  10
	   \
	    v -----3----- r
	   /            /
	  6            5
	 /            /
	q ---5----- w ----15---- f
*/
func newFixtureGraph(t *testing.T) *datastructure.Graph {
	t.Helper()
	g := datastructure.NewGraph()
	coords := [][2]float64{
		{47.58677, -122.18003},
		{47.5788, -122.2332},
		{47.64029, -122.17226},
		{47.62734, -122.14634},
		{47.60350, -122.18170},
		{47.57074, -122.16883},
	}
	for _, c := range coords {
		_, err := g.AddLocation(c[0], c[1])
		require.NoError(t, err)
	}
	edges := []struct {
		a, b datastructure.Index
		w    float64
	}{
		{0, 1, 10}, {1, 4, 3}, {1, 2, 6}, {2, 3, 5}, {3, 4, 5}, {3, 5, 15},
	}
	for _, e := range edges {
		_, err := g.Edge(e.a, e.b, e.w, true)
		require.NoError(t, err)
	}
	return g
}

func randomGraph(t *testing.T, rng *rand.Rand, n, degree int) *datastructure.Graph {
	t.Helper()
	g := datastructure.NewGraph()
	for i := 0; i < n; i++ {
		_, err := g.AddLocation(-7.0+rng.Float64()*0.1, 110.3+rng.Float64()*0.1)
		require.NoError(t, err)
	}
	for i := 0; i < n; i++ {
		a := datastructure.Index(i)
		for k := 0; k < degree; k++ {
			b := datastructure.Index(rng.Intn(n))
			if a == b {
				continue
			}
			d := geo.CalculateHaversineDistance(g.Lat(a), g.Lon(a), g.Lat(b), g.Lon(b))
			_, err := g.Edge(a, b, d*(1.05+rng.Float64()), rng.Float64() < 0.7)
			require.NoError(t, err)
		}
	}
	return g
}

func shortcutWeight(g *ContractedGraph, a, b datastructure.Index) (float64, bool) {
	it := g.Outgoing(a, nil)
	for it.Next() {
		if it.IsShortcut() && it.AdjNode() == b {
			return it.Weight(), true
		}
	}
	return 0, false
}

func TestContractNodeAddsShortcuts(t *testing.T) {
	cg := NewContractedGraph(newFixtureGraph(t))
	c := NewContractor(cg, zap.NewNop())

	added, err := c.ContractNode(1)
	require.NoError(t, err)
	assert.Equal(t, 6, added)

	expected := []struct {
		from, to datastructure.Index
		weight   float64
	}{
		{0, 2, 16}, {0, 4, 13}, {2, 4, 9},
		{2, 0, 16}, {4, 0, 13}, {4, 2, 9},
	}
	for _, e := range expected {
		w, ok := shortcutWeight(cg, e.from, e.to)
		require.True(t, ok, "shortcut %d->%d", e.from, e.to)
		assert.Equal(t, e.weight, w)
	}

	assert.True(t, cg.IsContracted(1))
	assert.Equal(t, int32(0), cg.Rank(1))
	assert.Equal(t, int32(-1), cg.Rank(0))

	// sudah dikontraksi, tidak ada perubahan
	added, err = c.ContractNode(1)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	_, err = c.ContractNode(99)
	assert.True(t, errors.Is(err, util.ErrBadParamInput))
}

func TestContractNodeWitnessPreventsShortcut(t *testing.T) {
	// a -1- u -1- b, dan a -1.5- b langsung. witness 1.5 <= 2, tidak perlu shortcut.
	g := datastructure.NewGraph()
	for i := 0; i < 3; i++ {
		_, err := g.AddLocation(-7.0, 110.0+float64(i)*0.01)
		require.NoError(t, err)
	}
	_, err := g.Edge(0, 1, 1, true)
	require.NoError(t, err)
	_, err = g.Edge(1, 2, 1, true)
	require.NoError(t, err)
	_, err = g.Edge(0, 2, 1.5, true)
	require.NoError(t, err)

	cg := NewContractedGraph(g)
	added, err := NewContractor(cg, nil).ContractNode(1)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 3, cg.EdgeCount())
}

func TestContractOneWayChain(t *testing.T) {
	// 0 -> 1 -> 2 one-way, shortcut hanya arah maju
	g := datastructure.NewGraph()
	for i := 0; i < 3; i++ {
		_, err := g.AddLocation(-7.0, 110.0+float64(i)*0.01)
		require.NoError(t, err)
	}
	_, err := g.Edge(0, 1, 2, false)
	require.NoError(t, err)
	_, err = g.Edge(1, 2, 3, false)
	require.NoError(t, err)

	cg := NewContractedGraph(g)
	added, err := NewContractor(cg, nil).ContractNode(1)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	w, ok := shortcutWeight(cg, 0, 2)
	require.True(t, ok)
	assert.Equal(t, 5.0, w)
	_, ok = shortcutWeight(cg, 2, 0)
	assert.False(t, ok)
}

func TestContractAllAndIdempotent(t *testing.T) {
	cg := NewContractedGraph(newFixtureGraph(t))

	events := make([]ProgressEvent, 0)
	c := NewContractor(cg, zap.NewNop(),
		WithProgressEvery(2),
		WithProgress(func(ev ProgressEvent) {
			events = append(events, ev)
		}))

	res, err := c.Contract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, res.Contracted)
	assert.Equal(t, 6, cg.ContractedCount())
	assert.Positive(t, res.WitnessSearches)

	require.Len(t, events, 3)
	assert.Equal(t, ProgressEvent{Processed: 6, Remaining: 0, Shortcuts: res.Shortcuts}, events[2])

	// rank adalah permutasi 0..n-1
	seen := make(map[int32]bool)
	for _, r := range cg.Ranks() {
		assert.True(t, r >= 0 && r < 6)
		seen[r] = true
	}
	assert.Len(t, seen, 6)

	edgesBefore := cg.EdgeCount()
	ranksBefore := cg.Ranks()

	res, err = NewContractor(cg, zap.NewNop()).Contract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, edgesBefore, cg.EdgeCount())
	assert.Equal(t, ranksBefore, cg.Ranks())
}

func TestContractCancelled(t *testing.T) {
	cg := NewContractedGraph(newFixtureGraph(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewContractor(cg, nil).Contract(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, res.Contracted)
}

func TestContractionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewContractionMetrics(reg)

	cg := NewContractedGraph(newFixtureGraph(t))
	res, err := NewContractor(cg, nil, WithMetrics(m)).Contract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float64(res.Contracted), testutil.ToFloat64(m.nodesContracted))
	assert.Equal(t, float64(res.Shortcuts), testutil.ToFloat64(m.shortcutsAdded))
	assert.Equal(t, float64(res.WitnessSearches), testutil.ToFloat64(m.witnessSearches))
}

func TestCHQueryMatchesDijkstra(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 3; round++ {
		g := randomGraph(t, rng, 60, 3)
		cg := NewContractedGraph(g)
		_, err := NewContractor(cg, nil).Contract(context.Background())
		require.NoError(t, err)

		ch, err := routingalgorithm.NewBidirectionalCH(cg)
		require.NoError(t, err)
		plain := routingalgorithm.NewDijkstra(cg, routingalgorithm.WithEdgeFilter(routingalgorithm.NoShortcutFilter))

		for from := datastructure.Index(0); from < 60; from += 3 {
			for to := datastructure.Index(0); to < 60; to++ {
				if from == to {
					continue
				}
				want, err := plain.CalcPath(from, to)
				require.NoError(t, err)
				got, err := ch.CalcPath(from, to)
				require.NoError(t, err)

				require.Equal(t, want.Found, got.Found, "%d->%d", from, to)
				if !want.Found {
					continue
				}
				assert.InDelta(t, want.Weight, got.Weight, 1e-9, "%d->%d", from, to)

				// path hasil unpack harus kontinu dan tanpa shortcut
				require.Equal(t, len(got.Nodes), len(got.Edges)+1)
				assert.Equal(t, from, got.Nodes[0])
				assert.Equal(t, to, got.Nodes[len(got.Nodes)-1])
				for _, e := range got.Edges {
					assert.False(t, cg.IsShortcut(e))
				}
			}
		}
	}
}

func TestCHQueryWithWitnessLimit(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g := randomGraph(t, rng, 40, 3)
	reference := g.Clone()

	cg := NewContractedGraph(g)
	_, err := NewContractor(cg, nil, WithWitnessMaxVisited(3)).Contract(context.Background())
	require.NoError(t, err)

	ch, err := routingalgorithm.NewBidirectionalCH(cg)
	require.NoError(t, err)
	plain := routingalgorithm.NewDijkstra(reference)

	for from := datastructure.Index(0); from < 40; from += 4 {
		for to := datastructure.Index(0); to < 40; to += 3 {
			if from == to {
				continue
			}
			want, err := plain.CalcPath(from, to)
			require.NoError(t, err)
			got, err := ch.CalcPath(from, to)
			require.NoError(t, err)
			require.Equal(t, want.Found, got.Found)
			if want.Found {
				assert.InDelta(t, want.Weight, got.Weight, 1e-9)
			}
		}
	}
}

func TestContractedGraphWithRanks(t *testing.T) {
	g := newFixtureGraph(t)
	_, err := NewContractedGraphWithRanks(g, []int32{0, 1})
	assert.True(t, errors.Is(err, util.ErrBadParamInput))

	cg, err := NewContractedGraphWithRanks(g, []int32{5, 0, 1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 6, cg.ContractedCount())
	assert.Equal(t, int32(5), cg.Rank(0))
	assert.Equal(t, int32(-1), cg.Rank(42))
}

func TestContractNodeAddedAfterWrap(t *testing.T) {
	g := datastructure.NewGraph()
	for i := 0; i < 2; i++ {
		_, err := g.AddLocation(-7.0, 110.0+float64(i)*0.01)
		require.NoError(t, err)
	}
	_, err := g.Edge(0, 1, 10, true)
	require.NoError(t, err)
	cg := NewContractedGraph(g)

	n, err := g.AddLocation(-7.0, 110.02)
	require.NoError(t, err)
	_, err = g.Edge(1, n, 5, true)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), cg.Rank(n))

	_, err = NewContractor(cg, zap.NewNop()).ContractNode(n)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cg.Rank(n), int32(0))

	res, err := NewContractor(cg, zap.NewNop()).Contract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Contracted)
	assert.Equal(t, 3, cg.ContractedCount())
	assert.Len(t, cg.Ranks(), 3)
}
