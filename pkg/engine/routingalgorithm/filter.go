package routingalgorithm

import (
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/turncost"
)

// EdgeFilter accept predicate. prevEdge = edge yang dipakai untuk sampai ke state.Base (NO_EDGE di node awal).
type EdgeFilter func(state datastructure.EdgeState, prevEdge datastructure.EdgeID) bool

func AllEdges(state datastructure.EdgeState, prevEdge datastructure.EdgeID) bool {
	return true
}

func And(filters ...EdgeFilter) EdgeFilter {
	return func(state datastructure.EdgeState, prevEdge datastructure.EdgeID) bool {
		for _, f := range filters {
			if !f(state, prevEdge) {
				return false
			}
		}
		return true
	}
}

// ForwardFilter edge yang bisa dilewati dari Base ke Adj.
func ForwardFilter(enc datastructure.FlagEncoder) EdgeFilter {
	return func(state datastructure.EdgeState, prevEdge datastructure.EdgeID) bool {
		return enc.IsForward(state.Flags)
	}
}

// BackwardFilter edge yang bisa dilewati dari Adj ke Base.
func BackwardFilter(enc datastructure.FlagEncoder) EdgeFilter {
	return func(state datastructure.EdgeState, prevEdge datastructure.EdgeID) bool {
		return enc.IsBackward(state.Flags)
	}
}

// NoShortcutFilter buang shortcut, dipakai search di graph hasil kontraksi yang ingin jalan di edge asli saja.
func NoShortcutFilter(state datastructure.EdgeState, prevEdge datastructure.EdgeID) bool {
	return !state.Shortcut
}

// TurnRestrictionFilter transisi prevEdge -> Base -> state.Edge untuk search maju.
func TurnRestrictionFilter(table *turncost.Table) EdgeFilter {
	return EdgeFilter(turncost.Filter(table))
}

// ReverseTurnRestrictionFilter untuk backward search: state.Edge masuk ke Base lalu lanjut ke prevEdge.
func ReverseTurnRestrictionFilter(table *turncost.Table) EdgeFilter {
	return func(state datastructure.EdgeState, prevEdge datastructure.EdgeID) bool {
		if prevEdge == datastructure.NO_EDGE {
			return true
		}
		return !table.IsRestricted(state.Edge, state.Base, prevEdge)
	}
}
