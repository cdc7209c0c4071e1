package turncost

import (
	"fmt"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/paulmach/osm"
)

type Type uint8

const (
	TypeUnsupported Type = iota
	// TypeNot transisi from->to dilarang.
	TypeNot
	// TypeOnly dari from hanya boleh ke to, semua alternatif lain dilarang.
	TypeOnly
)

var restrictionTags = map[string]Type{
	"no_left_turn":     TypeNot,
	"no_right_turn":    TypeNot,
	"no_straight_on":   TypeNot,
	"no_u_turn":        TypeNot,
	"only_left_turn":   TypeOnly,
	"only_right_turn":  TypeOnly,
	"only_straight_on": TypeOnly,
}

func TypeFromTag(tag string) Type {
	if t, ok := restrictionTags[tag]; ok {
		return t
	}
	return TypeUnsupported
}

func (t Type) String() string {
	switch t {
	case TypeNot:
		return "not"
	case TypeOnly:
		return "only"
	default:
		return "unsupported"
	}
}

// TurnRelation satu relation restriction osm: from way -> via node -> to way.
type TurnRelation struct {
	FromWayID    int64
	ViaOSMNodeID int64
	ToWayID      int64
	Type         Type
}

func (r TurnRelation) String() string {
	return fmt.Sprintf("*-(%d)->%d-(%d)->* [%s]", r.FromWayID, r.ViaOSMNodeID, r.ToWayID, r.Type)
}

// OSMIDResolver mapping osm node id ke node internal. false kalau node tidak masuk graph (kena filter import).
type OSMIDResolver interface {
	InternalNodeID(osmID int64) (datastructure.Index, bool)
}

/*
GetRestrictionAsEntries. ubah relation jadi entry turn cost dengan edge id internal:

 1. via node tidak ter-resolve -> tidak ada entry.
 2. cari edge incoming di via yang way id nya = from way. tidak ketemu -> tidak ada entry.
 3. scan edge outgoing di via (way id negatif di skip, edge from sendiri di skip):
    - NOT: satu entry untuk edge dengan way id = to way, lalu berhenti.
    - ONLY: satu entry untuk setiap edge yang way id nya != to way.
*/
func (r TurnRelation) GetRestrictionAsEntries(g datastructure.RoutingGraph, resolver OSMIDResolver) []TurnCostEntry {
	if r.Type == TypeUnsupported {
		return nil
	}
	via, ok := resolver.InternalNodeID(r.ViaOSMNodeID)
	if !ok {
		return nil
	}

	edgeFrom := datastructure.NO_EDGE
	in := g.Incoming(via, nil)
	for in.Next() {
		if in.WayID() == r.FromWayID {
			edgeFrom = in.Edge()
			break
		}
	}
	if edgeFrom == datastructure.NO_EDGE {
		return nil
	}

	entries := make([]TurnCostEntry, 0, 1)
	seen := make(map[uint64]struct{})
	out := g.Outgoing(via, nil)
	for out.Next() {
		edge := out.Edge()
		wayID := out.WayID()
		if wayID < 0 || edge == edgeFrom {
			continue
		}

		matches := wayID == r.ToWayID
		if (r.Type == TypeOnly && !matches) || (r.Type == TypeNot && matches) {
			entry := TurnCostEntry{Via: via, EdgeFrom: edgeFrom, EdgeTo: edge, Flags: FlagRestricted}
			if _, dup := seen[entry.Key()]; !dup {
				seen[entry.Key()] = struct{}{}
				entries = append(entries, entry)
			}
			if r.Type == TypeNot {
				break
			}
		}
	}
	return entries
}

// FromOSMRelation ambil turn relation dari relation osm type=restriction. false kalau bukan restriction
// node-via yang lengkap.
func FromOSMRelation(rel *osm.Relation) (TurnRelation, bool) {
	tag := rel.Tags.Find("restriction")
	if tag == "" {
		return TurnRelation{}, false
	}

	var (
		from, via, to          int64
		hasFrom, hasVia, hasTo bool
	)
	for _, member := range rel.Members {
		switch member.Role {
		case "from":
			if member.Type != osm.TypeWay {
				return TurnRelation{}, false
			}
			from, hasFrom = member.Ref, true
		case "to":
			if member.Type != osm.TypeWay {
				return TurnRelation{}, false
			}
			to, hasTo = member.Ref, true
		case "via":
			// via way belum didukung
			if member.Type != osm.TypeNode {
				return TurnRelation{}, false
			}
			via, hasVia = member.Ref, true
		}
	}
	if !hasFrom || !hasVia || !hasTo {
		return TurnRelation{}, false
	}

	return TurnRelation{
		FromWayID:    from,
		ViaOSMNodeID: via,
		ToWayID:      to,
		Type:         TypeFromTag(tag),
	}, true
}
