package kv

import (
	"encoding/binary"
	"errors"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/roadrouter/pkg/turncost"
	"github.com/lintang-b-s/roadrouter/pkg/util"
)

var (
	turnCostPrefix    = []byte("tc/")
	conditionalPrefix = []byte("ca/")
)

// TurnCostDB tabel turn cost persisten di pebble, key = prefix + composite key (edgeFrom, edgeTo) big-endian
// supaya iterasi urut sama dengan turncost.Table.Entries.
type TurnCostDB struct {
	db *pebble.DB
}

// OpenTurnCostDB buka pebble di dir. dir kosong = filesystem in-memory.
func OpenTurnCostDB(dir string) (*TurnCostDB, error) {
	opts := &pebble.Options{}
	if dir == "" {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "open pebble turn cost db at %q", dir)
	}
	return &TurnCostDB{db: db}, nil
}

func turnCostKey(key uint64) []byte {
	k := make([]byte, len(turnCostPrefix)+8)
	copy(k, turnCostPrefix)
	binary.BigEndian.PutUint64(k[len(turnCostPrefix):], key)
	return k
}

func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	end[len(end)-1]++
	return end
}

// SaveTable tulis semua entry table dalam satu batch.
func (t *TurnCostDB) SaveTable(table *turncost.Table) error {
	batch := t.db.NewBatch()
	defer batch.Close()

	for _, e := range table.Entries() {
		val, err := encodeTurnCost(kvTurnCost{Via: int32(e.Via), Flags: uint8(e.Flags)})
		if err != nil {
			return util.WrapErrorf(err, util.ErrInternalServerError, "encode turn cost entry")
		}
		if err := batch.Set(turnCostKey(e.Key()), val, nil); err != nil {
			return util.WrapErrorf(err, util.ErrInternalServerError, "set turn cost entry")
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "commit turn cost batch")
	}
	return nil
}

func (t *TurnCostDB) Get(from, to datastructure.EdgeID) (turncost.TurnCostEntry, error) {
	key := util.PackInt32Pair(int32(from), int32(to))
	val, closer, err := t.db.Get(turnCostKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return turncost.TurnCostEntry{}, util.WrapErrorf(err, util.ErrNotFound, "turn cost %d->%d", from, to)
	}
	if err != nil {
		return turncost.TurnCostEntry{}, util.WrapErrorf(err, util.ErrInternalServerError, "get turn cost")
	}
	defer closer.Close()

	tc, err := decodeTurnCost(val)
	if err != nil {
		return turncost.TurnCostEntry{}, util.WrapErrorf(err, util.ErrInternalServerError, "decode turn cost")
	}
	return turncost.TurnCostEntry{
		Via:      datastructure.Index(tc.Via),
		EdgeFrom: from,
		EdgeTo:   to,
		Flags:    turncost.Flags(tc.Flags),
	}, nil
}

// LoadTable baca semua entry ke turncost.Table.
func (t *TurnCostDB) LoadTable() (*turncost.Table, error) {
	iter, err := t.db.NewIter(&pebble.IterOptions{
		LowerBound: turnCostPrefix,
		UpperBound: prefixUpperBound(turnCostPrefix),
	})
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "open turn cost iterator")
	}
	defer iter.Close()

	table := turncost.NewTable()
	for iter.First(); iter.Valid(); iter.Next() {
		key := binary.BigEndian.Uint64(iter.Key()[len(turnCostPrefix):])
		tc, err := decodeTurnCost(iter.Value())
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrInternalServerError, "decode turn cost %d", key)
		}
		from, to := util.UnpackInt32Pair(key)
		table.Add(turncost.TurnCostEntry{
			Via:      datastructure.Index(tc.Via),
			EdgeFrom: datastructure.EdgeID(from),
			EdgeTo:   datastructure.EdgeID(to),
			Flags:    turncost.Flags(tc.Flags),
		})
	}
	if err := iter.Error(); err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "iterate turn cost")
	}
	return table, nil
}

func conditionalKey(edge datastructure.EdgeID) []byte {
	k := make([]byte, len(conditionalPrefix)+4)
	copy(k, conditionalPrefix)
	binary.BigEndian.PutUint32(k[len(conditionalPrefix):], uint32(edge))
	return k
}

// SaveConditional simpan value mentah tag conditional per edge, di parse ulang waktu load.
func (t *TurnCostDB) SaveConditional(m routingalgorithm.ConditionalAccessMap) error {
	batch := t.db.NewBatch()
	defer batch.Close()

	for edge, ca := range m {
		if err := batch.Set(conditionalKey(edge), []byte(ca.String()), nil); err != nil {
			return util.WrapErrorf(err, util.ErrInternalServerError, "set conditional access edge %d", edge)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "commit conditional access batch")
	}
	return nil
}

// LoadConditional value yang gagal di parse tetap masuk map (selalu accept), sama seperti waktu import.
func (t *TurnCostDB) LoadConditional() (routingalgorithm.ConditionalAccessMap, error) {
	iter, err := t.db.NewIter(&pebble.IterOptions{
		LowerBound: conditionalPrefix,
		UpperBound: prefixUpperBound(conditionalPrefix),
	})
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "open conditional access iterator")
	}
	defer iter.Close()

	m := make(routingalgorithm.ConditionalAccessMap)
	for iter.First(); iter.Valid(); iter.Next() {
		edge := datastructure.EdgeID(binary.BigEndian.Uint32(iter.Key()[len(conditionalPrefix):]))
		ca, _ := routingalgorithm.ParseConditionalAccess(string(iter.Value()))
		m[edge] = ca
	}
	if err := iter.Error(); err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "iterate conditional access")
	}
	return m, nil
}

func (t *TurnCostDB) Close() error {
	return t.db.Close()
}
