package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/roadrouter/pkg/turncost"
	"github.com/lintang-b-s/roadrouter/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jakartaGraph(t *testing.T) *datastructure.Graph {
	t.Helper()
	g := datastructure.NewGraph()
	for _, c := range [][2]float64{
		{-6.175392, 106.827153}, // monas
		{-6.176, 106.8275},
		{-6.2088, 106.8456},
		{-6.9175, 107.6191}, // bandung
	} {
		_, err := g.AddLocation(c[0], c[1])
		require.NoError(t, err)
	}
	_, err := g.Edge(0, 1, 0.08, true)
	require.NoError(t, err)
	_, err = g.Edge(1, 2, 4.1, true)
	require.NoError(t, err)
	return g
}

func TestNodeIndexDB(t *testing.T) {
	db, err := OpenNodeIndexDB("", nil)
	require.NoError(t, err)
	defer db.Close()

	g := jakartaGraph(t)
	require.NoError(t, db.BuildH3IndexedNodes(context.Background(), g))

	nodes, err := db.GetNearestNodes(-6.175392, 106.827153)
	require.NoError(t, err)
	assert.Contains(t, nodes, datastructure.Index(0))

	nearest, err := db.FindNearestNode(-6.17545, 106.8272)
	require.NoError(t, err)
	assert.Equal(t, datastructure.Index(0), nearest)

	nearest, err = db.FindNearestNode(-6.9176, 107.6190)
	require.NoError(t, err)
	assert.Equal(t, datastructure.Index(3), nearest)
}

func TestNodeIndexDBNotFound(t *testing.T) {
	db, err := OpenNodeIndexDB("", nil)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.BuildH3IndexedNodes(context.Background(), jakartaGraph(t)))

	// tengah samudra, jauh dari semua ring
	_, err = db.FindNearestNode(-40, 80)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNodesNotFound))
	assert.True(t, errors.Is(err, util.ErrNotFound))
}

func TestNodeIndexDBCancelled(t *testing.T) {
	db, err := OpenNodeIndexDB("", nil)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, db.BuildH3IndexedNodes(ctx, jakartaGraph(t)))
}

func TestTurnCostDBRoundTrip(t *testing.T) {
	db, err := OpenTurnCostDB("")
	require.NoError(t, err)
	defer db.Close()

	table := turncost.NewTable()
	table.Add(turncost.TurnCostEntry{Via: 4, EdgeFrom: 2, EdgeTo: 7, Flags: turncost.FlagRestricted})
	table.Add(turncost.TurnCostEntry{Via: 4, EdgeFrom: 2, EdgeTo: 3, Flags: turncost.FlagRestricted})
	table.Add(turncost.TurnCostEntry{Via: 9, EdgeFrom: 11, EdgeTo: 1, Flags: turncost.FlagRestricted})
	require.NoError(t, db.SaveTable(table))

	entry, err := db.Get(2, 7)
	require.NoError(t, err)
	assert.Equal(t, datastructure.Index(4), entry.Via)
	assert.True(t, entry.IsRestricted())

	_, err = db.Get(7, 2)
	assert.True(t, errors.Is(err, util.ErrNotFound))

	loaded, err := db.LoadTable()
	require.NoError(t, err)
	assert.Equal(t, table.Entries(), loaded.Entries())
	assert.True(t, loaded.IsRestricted(11, 9, 1))
}

func TestConditionalAccessRoundTrip(t *testing.T) {
	db, err := OpenTurnCostDB("")
	require.NoError(t, err)
	defer db.Close()

	rush, err := routingalgorithm.ParseConditionalAccess("no @ (Mo-Fr 07:00-09:00)")
	require.NoError(t, err)
	broken, err := routingalgorithm.ParseConditionalAccess("no @ (sometimes)")
	require.Error(t, err)

	m := routingalgorithm.ConditionalAccessMap{5: rush, 70000: broken}
	require.NoError(t, db.SaveConditional(m))

	// turn cost dan conditional di prefix berbeda
	table, err := db.LoadTable()
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())

	loaded, err := db.LoadConditional()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "no @ (Mo-Fr 07:00-09:00)", loaded[5].String())

	monday8 := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	assert.False(t, loaded[5].Accept(monday8))
	assert.True(t, loaded[70000].Accept(monday8))
}

func TestNodeCompression(t *testing.T) {
	nodes := []kvNode{{ID: 1, Lat: -6.1, Lon: 106.8}, {ID: 2, Lat: -6.2, Lon: 106.9}}
	bb, err := encodeNodes(nodes)
	require.NoError(t, err)
	got, err := loadNodes(bb)
	require.NoError(t, err)
	assert.Equal(t, nodes, got)

	_, err = loadNodes([]byte("garbage"))
	assert.Error(t, err)
}
