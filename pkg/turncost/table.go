package turncost

import (
	"sort"
	"sync"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/util"
)

type Flags uint8

const (
	FlagRestricted Flags = 1 << iota
)

// TurnCostEntry transisi edgeFrom -> via -> edgeTo.
type TurnCostEntry struct {
	Via      datastructure.Index
	EdgeFrom datastructure.EdgeID
	EdgeTo   datastructure.EdgeID
	Flags    Flags
}

// Key (edgeFrom, edgeTo) dipack jadi satu uint64, kunci unik entry.
func (e TurnCostEntry) Key() uint64 {
	return util.PackInt32Pair(int32(e.EdgeFrom), int32(e.EdgeTo))
}

func (e TurnCostEntry) IsRestricted() bool {
	return e.Flags&FlagRestricted != 0
}

// Table kumpulan entry dengan semantik set: key yang sama digabung, flag nya di OR.
// Aman dibaca dari banyak goroutine search.
type Table struct {
	mu      sync.RWMutex
	entries map[uint64]TurnCostEntry
}

func NewTable() *Table {
	return &Table{entries: make(map[uint64]TurnCostEntry)}
}

// Add return true kalau key belum ada.
func (t *Table) Add(entry TurnCostEntry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := entry.Key()
	if old, ok := t.entries[key]; ok {
		old.Flags |= entry.Flags
		t.entries[key] = old
		return false
	}
	t.entries[key] = entry
	return true
}

func (t *Table) AddAll(entries []TurnCostEntry) int {
	added := 0
	for _, e := range entries {
		if t.Add(e) {
			added++
		}
	}
	return added
}

func (t *Table) Get(from, to datastructure.EdgeID) (TurnCostEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[util.PackInt32Pair(int32(from), int32(to))]
	return e, ok
}

// IsRestricted apakah transisi from -> via -> to dilarang.
func (t *Table) IsRestricted(from datastructure.EdgeID, via datastructure.Index, to datastructure.EdgeID) bool {
	e, ok := t.Get(from, to)
	return ok && e.Via == via && e.IsRestricted()
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Entries semua entry terurut berdasarkan key.
func (t *Table) Entries() []TurnCostEntry {
	t.mu.RLock()
	entries := make([]TurnCostEntry, 0, len(t.entries))
	for _, e := range t.entries {
		entries = append(entries, e)
	}
	t.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key() < entries[j].Key()
	})
	return entries
}

// Filter accept predicate untuk search: transisi dari prevEdge ke edge state dilarang kalau ada di table.
// Edge pertama (prevEdge NO_EDGE) selalu diterima.
func Filter(table *Table) func(state datastructure.EdgeState, prevEdge datastructure.EdgeID) bool {
	return func(state datastructure.EdgeState, prevEdge datastructure.EdgeID) bool {
		if prevEdge == datastructure.NO_EDGE {
			return true
		}
		return !table.IsRestricted(prevEdge, state.Base, state.Edge)
	}
}
