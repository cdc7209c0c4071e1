package kv

import (
	"context"
	"errors"
	"math"

	"github.com/dgraph-io/badger/v4"
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/lintang-b-s/roadrouter/pkg/util"
	"github.com/uber/h3-go/v4"
	"go.uber.org/zap"
)

var (
	ErrNodesNotFound = errors.New("nodes not found")
)

const (
	H3_RESOLUTION  = 9
	maxRingLevel   = 10
	writeBatchSize = 1000
	nodeKeyPrefix  = "h3/"
)

// NodeIndexDB index node graph per cell h3 di badger. Dipakai untuk cari kandidat node terdekat tanpa
// harus memuat graph ke memori.
type NodeIndexDB struct {
	db     *badger.DB
	calc   geo.DistanceCalc
	logger *zap.Logger
}

func NewNodeIndexDB(db *badger.DB, logger *zap.Logger) *NodeIndexDB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NodeIndexDB{db: db, calc: geo.Haversine, logger: logger}
}

// OpenNodeIndexDB buka badger di dir. dir kosong = in-memory.
func OpenNodeIndexDB(dir string, logger *zap.Logger) (*NodeIndexDB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "open badger node index at %q", dir)
	}
	return NewNodeIndexDB(db, logger), nil
}

func cellKey(cell h3.Cell) []byte {
	return []byte(nodeKeyPrefix + cell.String())
}

// BuildH3IndexedNodes simpan semua node aktif ke cell h3 nya.
func (k *NodeIndexDB) BuildH3IndexedNodes(ctx context.Context, g datastructure.RoutingGraph) error {
	k.logger.Info("creating & saving h3 indexed nodes to key-value db...", zap.Int("nodes", g.NodeCount()))

	cells := make(map[h3.Cell][]kvNode)
	for n := 0; n < g.NodeCount(); n++ {
		if util.StopConcurrentOperation(ctx) {
			return util.WrapErrorf(ctx.Err(), util.ErrInternalServerError, "build h3 node index cancelled")
		}
		node := datastructure.Index(n)
		if g.IsRemoved(node) {
			continue
		}
		lat, lon := g.Lat(node), g.Lon(node)
		cell := h3.LatLngToCell(h3.NewLatLng(lat, lon), H3_RESOLUTION)
		cells[cell] = append(cells[cell], kvNode{ID: int32(node), Lat: lat, Lon: lon})
	}

	batch := make([]batchData, 0, writeBatchSize)
	for cell, nodes := range cells {
		batch = append(batch, batchData{key: cellKey(cell), value: nodes})
		if len(batch) == writeBatchSize {
			if err := k.saveBatchNodes(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := k.saveBatchNodes(ctx, batch); err != nil {
			return err
		}
	}

	k.logger.Info("creating & saving h3 indexed nodes to key-value db done", zap.Int("cells", len(cells)))
	return nil
}

type batchData struct {
	key   []byte
	value []kvNode
}

func (k *NodeIndexDB) saveBatchNodes(ctx context.Context, data []batchData) error {
	wb := k.db.NewWriteBatch()
	defer wb.Cancel()

	for _, d := range data {
		if util.StopConcurrentOperation(ctx) {
			return util.WrapErrorf(ctx.Err(), util.ErrInternalServerError, "save h3 node batch cancelled")
		}
		val, err := encodeNodes(d.value)
		if err != nil {
			return util.WrapErrorf(err, util.ErrInternalServerError, "encode nodes")
		}
		if err := wb.Set(d.key, val); err != nil {
			return util.WrapErrorf(err, util.ErrInternalServerError, "set batch")
		}
	}

	if err := wb.Flush(); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "flush batch")
	}
	k.logger.Debug("saved h3 cell batch", zap.Int("cells", len(data)))
	return nil
}

func (k *NodeIndexDB) getCell(cell h3.Cell) ([]kvNode, error) {
	var val []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cellKey(cell))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return loadNodes(val)
}

// GetNearestNodes kandidat node dari cell query, lalu ring h3 yang makin lebar sampai ketemu.
func (k *NodeIndexDB) GetNearestNodes(lat, lon float64) ([]datastructure.Index, error) {
	nodes, err := k.nearestKVNodes(lat, lon)
	if err != nil {
		return nil, err
	}
	ids := make([]datastructure.Index, len(nodes))
	for i, n := range nodes {
		ids[i] = datastructure.Index(n.ID)
	}
	return ids, nil
}

func (k *NodeIndexDB) nearestKVNodes(lat, lon float64) ([]kvNode, error) {
	origin := h3.LatLngToCell(h3.NewLatLng(lat, lon), H3_RESOLUTION)

	nodes, err := k.getCell(origin)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "get cell %s", origin.String())
	}

	for lev := 1; lev <= maxRingLevel && len(nodes) == 0; lev++ {
		for _, cell := range h3.GridDisk(origin, lev) {
			if cell == origin {
				continue
			}
			found, err := k.getCell(cell)
			if err != nil {
				return nil, util.WrapErrorf(err, util.ErrInternalServerError, "get cell %s", cell.String())
			}
			nodes = append(nodes, found...)
		}
	}

	if len(nodes) == 0 {
		return nil, util.WrapErrorf(ErrNodesNotFound, util.ErrNotFound, "no node within %d h3 rings of (%f,%f)",
			maxRingLevel, lat, lon)
	}
	return nodes, nil
}

// FindNearestNode node terdekat di antara kandidat h3.
func (k *NodeIndexDB) FindNearestNode(lat, lon float64) (datastructure.Index, error) {
	nodes, err := k.nearestKVNodes(lat, lon)
	if err != nil {
		return datastructure.NO_NODE, err
	}
	best := datastructure.NO_NODE
	bestDist := math.MaxFloat64
	for _, n := range nodes {
		d := k.calc.CalcDist(lat, lon, n.Lat, n.Lon)
		if d < bestDist || (d == bestDist && datastructure.Index(n.ID) < best) {
			best, bestDist = datastructure.Index(n.ID), d
		}
	}
	return best, nil
}

func (k *NodeIndexDB) Close() error {
	return k.db.Close()
}
