package osmparser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lintang-b-s/roadrouter/pkg"
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/lintang-b-s/roadrouter/pkg/util"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func wayOf(id int64, tags osm.Tags, nodes ...int64) *osm.Way {
	wn := make(osm.WayNodes, 0, len(nodes))
	for _, n := range nodes {
		wn = append(wn, osm.WayNode{ID: osm.NodeID(n)})
	}
	return &osm.Way{ID: osm.WayID(id), Nodes: wn, Tags: tags}
}

func TestGraphBuilderAddEdge(t *testing.T) {
	b := NewGraphBuilder(datastructure.NewGraph(), geo.Haversine, zap.NewNop())

	a, err := b.AddNode(10, -7.55, 110.80)
	require.NoError(t, err)
	again, err := b.AddNode(10, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, a, again)

	_, err = b.AddNode(11, -7.56, 110.80)
	require.NoError(t, err)
	_, err = b.AddNode(12, -7.56, 110.80)
	require.NoError(t, err)

	e, err := b.AddEdge(10, 11, 500, true)
	require.NoError(t, err)
	want := geo.CalculateHaversineDistance(-7.55, 110.80, -7.56, 110.80)
	assert.InDelta(t, want, b.Graph().EdgeWeight(e), 1e-9)
	assert.Equal(t, int64(500), b.Graph().WayID(e))

	// koordinat sama -> epsilon
	e, err = b.AddEdge(11, 12, 501, false)
	require.NoError(t, err)
	assert.Equal(t, pkg.EPSILON_DISTANCE, b.Graph().EdgeWeight(e))

	e, err = b.AddEdge(10, 99, 502, true)
	require.NoError(t, err)
	assert.Equal(t, datastructure.NO_EDGE, e)

	// jarak negatif tidak menghentikan import, diganti epsilon
	e, err = b.AddEdgeWithDistance(10, 11, 503, -1, true)
	require.NoError(t, err)
	require.NotEqual(t, datastructure.NO_EDGE, e)
	assert.Equal(t, pkg.EPSILON_DISTANCE, b.Graph().EdgeWeight(e))
	assert.Equal(t, int64(503), b.Graph().WayID(e))

	stats := b.Stats()
	assert.Equal(t, 3, stats.Nodes)
	assert.Equal(t, 3, stats.Edges)
	assert.Equal(t, 1, stats.ZeroDistance)
	assert.Equal(t, 1, stats.Unresolved)
	assert.Equal(t, 1, stats.NegativeDistance)

	n, ok := b.InternalNodeID(11)
	assert.True(t, ok)
	assert.Equal(t, datastructure.Index(1), n)
	_, ok = b.InternalNodeID(99)
	assert.False(t, ok)
}

/*
node osm:

	1 ---- 2 ---- 3       way 100 (residential, dua arah)
	       |
	       4              way 200 (primary, oneway 2->4->5, conditional)
	       |
	       5 ---- 3       way 300 (footway, dibuang)

relation no_left_turn: from way 100 via node 2 to way 200.
*/
func newParsedFixture(t *testing.T) (*OsmParser, *ParseResult) {
	t.Helper()
	p := NewOsmParser(NewGraphBuilder(datastructure.NewGraph(), geo.Haversine, zap.NewNop()), zap.NewNop())

	ways := []*osm.Way{
		wayOf(100, osm.Tags{{Key: "highway", Value: "residential"}}, 1, 2, 3),
		wayOf(200, osm.Tags{
			{Key: "highway", Value: "primary"},
			{Key: "oneway", Value: "yes"},
			{Key: "motor_vehicle:conditional", Value: "no @ (Mo-Fr 07:00-09:00)"},
		}, 2, 4, 5),
		wayOf(300, osm.Tags{{Key: "highway", Value: "footway"}}, 5, 3),
	}
	rel := &osm.Relation{
		ID:   900,
		Tags: osm.Tags{{Key: "type", Value: "restriction"}, {Key: "restriction", Value: "no_left_turn"}},
		Members: osm.Members{
			{Type: osm.TypeWay, Ref: 100, Role: "from"},
			{Type: osm.TypeNode, Ref: 2, Role: "via"},
			{Type: osm.TypeWay, Ref: 200, Role: "to"},
		},
	}

	for _, w := range ways {
		p.collectWay(w)
	}
	p.collectRelation(rel)

	coords := map[int64][2]float64{
		1: {-7.550, 110.800},
		2: {-7.550, 110.810},
		3: {-7.550, 110.820},
		4: {-7.560, 110.810},
		5: {-7.570, 110.810},
		6: {-7.600, 110.900},
	}
	for id, c := range coords {
		p.processNode(&osm.Node{ID: osm.NodeID(id), Lat: c[0], Lon: c[1]})
	}
	for _, w := range ways {
		require.NoError(t, p.processWay(w))
	}
	return p, p.Finish()
}

func TestParseWaysIntoGraph(t *testing.T) {
	p, res := newParsedFixture(t)

	assert.Equal(t, 2, res.Ways)
	assert.Equal(t, 1, res.Restrictions)
	// node 4 cuma node antara, node 6 tidak dipakai way
	assert.Equal(t, 4, res.Graph.NodeCount())
	assert.Equal(t, 3, res.Graph.EdgeCount())
	_, ok := p.builder.InternalNodeID(4)
	assert.False(t, ok)
	_, ok = p.builder.InternalNodeID(6)
	assert.False(t, ok)

	n2, _ := p.builder.InternalNodeID(2)
	n5, _ := p.builder.InternalNodeID(5)

	var oneway datastructure.EdgeID = datastructure.NO_EDGE
	it := res.Graph.Outgoing(n2, nil)
	for it.Next() {
		if it.WayID() == 200 {
			oneway = it.Edge()
			assert.Equal(t, n5, it.AdjNode())
		}
	}
	require.NotEqual(t, datastructure.NO_EDGE, oneway)

	// panjang lewat node 4
	want := geo.CalculateHaversineDistance(-7.550, 110.810, -7.560, 110.810) +
		geo.CalculateHaversineDistance(-7.560, 110.810, -7.570, 110.810)
	assert.InDelta(t, want, res.Graph.EdgeWeight(oneway), 1e-9)

	// tidak ada jalan balik 5->2
	back := res.Graph.Outgoing(n5, nil)
	assert.False(t, back.Next())

	ca, ok := res.Conditional.ConditionalAccess(oneway)
	require.True(t, ok)
	rush := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	noon := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, ca.Accept(rush))
	assert.True(t, ca.Accept(noon))

	require.Equal(t, 1, res.TurnCosts.Len())
	entry := res.TurnCosts.Entries()[0]
	assert.Equal(t, n2, entry.Via)
	assert.Equal(t, oneway, entry.EdgeTo)
	assert.True(t, res.TurnCosts.IsRestricted(entry.EdgeFrom, n2, oneway))
}

func TestClosedWayIsSplit(t *testing.T) {
	p := NewOsmParser(NewGraphBuilder(datastructure.NewGraph(), nil, nil), nil)
	ring := wayOf(1, osm.Tags{{Key: "highway", Value: "service"}}, 1, 2, 3, 4, 1)

	p.collectWay(ring)
	coords := [][2]float64{{0, 0}, {0, 0.01}, {0.01, 0.01}, {0.01, 0}}
	for i, c := range coords {
		p.processNode(&osm.Node{ID: osm.NodeID(i + 1), Lat: c[0], Lon: c[1]})
	}
	require.NoError(t, p.processWay(ring))

	res := p.Finish()
	assert.Equal(t, 2, res.Graph.NodeCount())
	assert.Equal(t, 2, res.Graph.EdgeCount())
}

func TestWayDirection(t *testing.T) {
	cases := []struct {
		name     string
		tags     osm.Tags
		fwd, bwd bool
	}{
		{"two way", osm.Tags{{Key: "highway", Value: "residential"}}, true, true},
		{"oneway yes", osm.Tags{{Key: "oneway", Value: "yes"}}, true, false},
		{"oneway reverse", osm.Tags{{Key: "oneway", Value: "-1"}}, false, true},
		{"roundabout", osm.Tags{{Key: "junction", Value: "roundabout"}}, true, false},
		{"roundabout oneway no", osm.Tags{{Key: "junction", Value: "roundabout"}, {Key: "oneway", Value: "no"}}, true, true},
		{"vehicle forward no", osm.Tags{{Key: "vehicle:forward", Value: "no"}}, false, true},
		{"motor vehicle backward private", osm.Tags{{Key: "motor_vehicle:backward", Value: "private"}}, true, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fwd, bwd := wayDirection(wayOf(1, c.tags, 1, 2))
			assert.Equal(t, c.fwd, fwd)
			assert.Equal(t, c.bwd, bwd)
		})
	}
}

func TestAcceptOsmWay(t *testing.T) {
	assert.True(t, acceptOsmWay(wayOf(1, osm.Tags{{Key: "highway", Value: "primary"}}, 1, 2)))
	assert.False(t, acceptOsmWay(wayOf(1, osm.Tags{{Key: "highway", Value: "footway"}}, 1, 2)))
	assert.True(t, acceptOsmWay(wayOf(1, osm.Tags{{Key: "route", Value: "road"}}, 1, 2)))
	assert.False(t, acceptOsmWay(wayOf(1, osm.Tags{{Key: "building", Value: "yes"}}, 1, 2)))
}

func TestParseMissingFile(t *testing.T) {
	p := NewOsmParser(NewGraphBuilder(datastructure.NewGraph(), nil, nil), nil)
	_, err := p.Parse(context.Background(), "/nonexistent/map.osm.pbf")
	assert.True(t, errors.Is(err, util.ErrNotFound))
}
