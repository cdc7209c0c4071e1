package turncost

import (
	"testing"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapResolver map[int64]datastructure.Index

func (m mapResolver) InternalNodeID(osmID int64) (datastructure.Index, bool) {
	n, ok := m[osmID]
	return n, ok
}

const (
	wayA = 100 // barat -> V
	wayB = 200 // V -> utara
	wayC = 300 // V -> timur
	wayD = 400 // V -> selatan

	viaOSM = 7
)

/*
persimpangan empat arah dengan via V (node 0):

	        N(2)
	         | e1 (B)
	W(1) -e0 (A)- V -e2 (C)- E(3)
	         | e3 (D)
	        S(4)
*/
func intersection(t *testing.T) (*datastructure.Graph, mapResolver) {
	t.Helper()
	g := datastructure.NewGraph()
	for _, c := range [][2]float64{{0, 0}, {0, -0.01}, {0.01, 0}, {0, 0.01}, {-0.01, 0}} {
		_, err := g.AddLocation(c[0], c[1])
		require.NoError(t, err)
	}
	edges := []struct {
		a, b datastructure.Index
		way  int64
	}{
		{1, 0, wayA},
		{0, 2, wayB},
		{0, 3, wayC},
		{0, 4, wayD},
	}
	for _, e := range edges {
		id, err := g.Edge(e.a, e.b, 1.1, true)
		require.NoError(t, err)
		g.SetWayID(id, e.way)
	}
	return g, mapResolver{viaOSM: 0}
}

func TestTypeFromTag(t *testing.T) {
	assert.Equal(t, TypeNot, TypeFromTag("no_left_turn"))
	assert.Equal(t, TypeNot, TypeFromTag("no_u_turn"))
	assert.Equal(t, TypeOnly, TypeFromTag("only_straight_on"))
	assert.Equal(t, TypeOnly, TypeFromTag("only_right_turn"))
	assert.Equal(t, TypeUnsupported, TypeFromTag("no_entry"))
	assert.Equal(t, TypeUnsupported, TypeFromTag(""))
}

func TestProhibitedTurnSuppressesOnlyThatTransition(t *testing.T) {
	g, resolver := intersection(t)
	rel := TurnRelation{FromWayID: wayA, ViaOSMNodeID: viaOSM, ToWayID: wayB, Type: TypeNot}

	entries := rel.GetRestrictionAsEntries(g, resolver)
	require.Len(t, entries, 1)
	assert.Equal(t, TurnCostEntry{Via: 0, EdgeFrom: 0, EdgeTo: 1, Flags: FlagRestricted}, entries[0])

	table := NewTable()
	table.AddAll(entries)
	accept := Filter(table)

	assert.False(t, accept(datastructure.EdgeStateOf(g, 1, 0), 0))
	assert.True(t, accept(datastructure.EdgeStateOf(g, 2, 0), 0))
	assert.True(t, accept(datastructure.EdgeStateOf(g, 3, 0), 0))
	assert.True(t, accept(datastructure.EdgeStateOf(g, 1, 0), 2))
	assert.True(t, accept(datastructure.EdgeStateOf(g, 1, 0), datastructure.NO_EDGE))
}

func TestMandatoryTurnForbidsEveryAlternative(t *testing.T) {
	g, resolver := intersection(t)
	rel := TurnRelation{FromWayID: wayA, ViaOSMNodeID: viaOSM, ToWayID: wayC, Type: TypeOnly}

	entries := rel.GetRestrictionAsEntries(g, resolver)
	require.Len(t, entries, 2)
	assert.Equal(t, datastructure.EdgeID(1), entries[0].EdgeTo)
	assert.Equal(t, datastructure.EdgeID(3), entries[1].EdgeTo)

	table := NewTable()
	table.AddAll(entries)
	accept := Filter(table)

	assert.True(t, accept(datastructure.EdgeStateOf(g, 2, 0), 0))
	assert.False(t, accept(datastructure.EdgeStateOf(g, 1, 0), 0))
	assert.False(t, accept(datastructure.EdgeStateOf(g, 3, 0), 0))
	// dari arah lain tidak terpengaruh
	assert.True(t, accept(datastructure.EdgeStateOf(g, 3, 0), 1))
}

func TestRestrictionWithoutAnchor(t *testing.T) {
	g, resolver := intersection(t)

	unresolved := TurnRelation{FromWayID: wayA, ViaOSMNodeID: 99, ToWayID: wayB, Type: TypeNot}
	assert.Empty(t, unresolved.GetRestrictionAsEntries(g, resolver))

	noFromWay := TurnRelation{FromWayID: 999, ViaOSMNodeID: viaOSM, ToWayID: wayB, Type: TypeOnly}
	assert.Empty(t, noFromWay.GetRestrictionAsEntries(g, resolver))

	unsupported := TurnRelation{FromWayID: wayA, ViaOSMNodeID: viaOSM, ToWayID: wayB, Type: TypeUnsupported}
	assert.Empty(t, unsupported.GetRestrictionAsEntries(g, resolver))
}

func TestNegativeWayIDSkipped(t *testing.T) {
	g, resolver := intersection(t)
	g.SetWayID(3, -1)

	rel := TurnRelation{FromWayID: wayA, ViaOSMNodeID: viaOSM, ToWayID: wayC, Type: TypeOnly}
	entries := rel.GetRestrictionAsEntries(g, resolver)
	require.Len(t, entries, 1)
	assert.Equal(t, datastructure.EdgeID(1), entries[0].EdgeTo)
}

func TestTableSetSemantics(t *testing.T) {
	g, resolver := intersection(t)
	rel := TurnRelation{FromWayID: wayA, ViaOSMNodeID: viaOSM, ToWayID: wayC, Type: TypeOnly}

	table := NewTable()
	// dua profile encoder menghasilkan pasangan yang sama
	assert.Equal(t, 2, table.AddAll(rel.GetRestrictionAsEntries(g, resolver)))
	assert.Equal(t, 0, table.AddAll(rel.GetRestrictionAsEntries(g, resolver)))
	assert.Equal(t, 2, table.Len())

	entries := table.Entries()
	require.Len(t, entries, 2)
	assert.Less(t, entries[0].Key(), entries[1].Key())
	assert.Equal(t, uint64(1), entries[0].Key())
	assert.Equal(t, uint64(3), entries[1].Key())

	assert.True(t, table.IsRestricted(0, 0, 1))
	assert.False(t, table.IsRestricted(0, 4, 1))
	assert.False(t, table.IsRestricted(0, 0, 2))
}

func TestFromOSMRelation(t *testing.T) {
	rel := &osm.Relation{
		ID: 5710500,
		Tags: osm.Tags{
			{Key: "type", Value: "restriction"},
			{Key: "restriction", Value: "no_left_turn"},
		},
		Members: osm.Members{
			{Type: osm.TypeWay, Ref: wayA, Role: "from"},
			{Type: osm.TypeNode, Ref: viaOSM, Role: "via"},
			{Type: osm.TypeWay, Ref: wayB, Role: "to"},
		},
	}
	tr, ok := FromOSMRelation(rel)
	require.True(t, ok)
	assert.Equal(t, TurnRelation{FromWayID: wayA, ViaOSMNodeID: viaOSM, ToWayID: wayB, Type: TypeNot}, tr)

	viaWay := &osm.Relation{
		Tags: osm.Tags{{Key: "restriction", Value: "no_u_turn"}},
		Members: osm.Members{
			{Type: osm.TypeWay, Ref: wayA, Role: "from"},
			{Type: osm.TypeWay, Ref: 555, Role: "via"},
			{Type: osm.TypeWay, Ref: wayB, Role: "to"},
		},
	}
	_, ok = FromOSMRelation(viaWay)
	assert.False(t, ok)

	_, ok = FromOSMRelation(&osm.Relation{Tags: osm.Tags{{Key: "type", Value: "route"}}})
	assert.False(t, ok)
}
