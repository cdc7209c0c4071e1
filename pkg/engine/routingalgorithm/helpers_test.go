package routingalgorithm

import (
	"testing"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/lintang-b-s/roadrouter/pkg/turncost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

/*
dari https://jlazarsfeld.github.io/ch.150.project/sections/8-contraction/
p=0, v=1, q=2, w=3, r=4, f=5

	 p
	  \
	   \
	    10
	     \
		  v -----3----- r
		 /            /
		6            5
	   /    		/
	  q ---5----- w ----15---- f

semua edge bidirectional. edge id sesuai urutan insert:
p-v 0, v-r 1, v-q 2, q-w 3, w-r 4, w-f 5
*/
func newFixtureGraph(t *testing.T) *datastructure.Graph {
	t.Helper()
	g := datastructure.NewGraph()

	coords := [][2]float64{
		{47.58677, -122.18003}, // p
		{47.5788, -122.2332},   // v
		{47.64029, -122.17226}, // q
		{47.62734, -122.14634}, // w
		{47.60350, -122.18170}, // r
		{47.57074, -122.16883}, // f
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

/*
newTurnDetourGraph semua edge one-way, bobot 1, koordinat sama (heuristic A* nol):

	S(0) --e0--> V(1) --e3--> T(3)
	  \          ^
	  e1        e2
	    \      /
	     A(2)

belok e0 -> V -> e3 dilarang, V masih bisa dilewati lewat e2.
*/
func newTurnDetourGraph(t *testing.T) (*datastructure.Graph, *turncost.Table) {
	t.Helper()
	g := datastructure.NewGraph()
	for i := 0; i < 4; i++ {
		_, err := g.AddLocation(-7.0, 110.0)
		require.NoError(t, err)
	}
	edges := [][2]datastructure.Index{{0, 1}, {0, 2}, {2, 1}, {1, 3}}
	for _, e := range edges {
		_, err := g.Edge(e[0], e[1], 1, false)
		require.NoError(t, err)
	}

	table := turncost.NewTable()
	table.Add(turncost.TurnCostEntry{Via: 1, EdgeFrom: 0, EdgeTo: 3, Flags: turncost.FlagRestricted})
	return g, table
}

func assertTurnDetour(t *testing.T, g datastructure.RoutingGraph, p Path) {
	t.Helper()
	require.True(t, p.Found)
	assert.Equal(t, []datastructure.Index{0, 2, 1, 3}, p.Nodes)
	assert.Equal(t, []datastructure.EdgeID{1, 2, 3}, p.Edges)
	assert.Equal(t, 3.0, p.Weight)
	assertValidPath(t, g, p, 0, 3)
}

// randomGraph bobot edge selalu >= 1.05 x jarak haversine supaya heuristic A* admissible.
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

// assertValidPath setiap edge di path menghubungkan dua node berurutan dan total bobotnya sama dengan Weight.
func assertValidPath(t *testing.T, g datastructure.RoutingGraph, p Path, from, to datastructure.Index) {
	t.Helper()
	require.True(t, p.Found)
	require.NotEmpty(t, p.Nodes)
	assert.Equal(t, from, p.Nodes[0])
	assert.Equal(t, to, p.Nodes[len(p.Nodes)-1])
	require.Len(t, p.Edges, len(p.Nodes)-1)

	sum := 0.0
	for i, e := range p.Edges {
		a, b := g.EdgeNodes(e)
		u, v := p.Nodes[i], p.Nodes[i+1]
		assert.True(t, (a == u && b == v) || (a == v && b == u), "edge %d does not connect %d-%d", e, u, v)
		sum += g.EdgeWeight(e)
	}
	assert.InDelta(t, p.Weight, sum, 1e-6)
	assert.Len(t, p.Coordinates, len(p.Nodes))
}
