package contractor

import (
	"context"
	"time"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/util"
	"go.uber.org/zap"
)

const DEFAULT_PROGRESS_EVERY = 10000

// ProgressEvent dikirim setiap progressEvery node yang sudah dikontraksi, dan sekali di akhir.
type ProgressEvent struct {
	Processed int
	Remaining int
	Shortcuts int
}

type Result struct {
	Contracted       int
	Shortcuts        int
	UpdatedShortcuts int
	WitnessSearches  int
	Duration         time.Duration
}

type nodeStats struct {
	added    int
	updated  int
	searches int
}

type Option func(*Contractor)

func WithProgress(fn func(ProgressEvent)) Option {
	return func(c *Contractor) {
		c.progress = fn
	}
}

func WithProgressEvery(n int) Option {
	return func(c *Contractor) {
		if n > 0 {
			c.progressEvery = n
		}
	}
}

func WithMetrics(m *ContractionMetrics) Option {
	return func(c *Contractor) {
		c.metrics = m
	}
}

// WithWitnessMaxVisited batas node yang di settle per witness search, 0 = tanpa batas.
func WithWitnessMaxVisited(n int) Option {
	return func(c *Contractor) {
		c.witnessMaxVisited = n
	}
}

type Contractor struct {
	cg     *ContractedGraph
	logger *zap.Logger

	progress          func(ProgressEvent)
	progressEvery     int
	metrics           *ContractionMetrics
	witnessMaxVisited int

	witness *witnessSearch
	order   int32
}

func NewContractor(cg *ContractedGraph, logger *zap.Logger, opts ...Option) *Contractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Contractor{
		cg:            cg,
		logger:        logger,
		progressEvery: DEFAULT_PROGRESS_EVERY,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.witness = newWitnessSearch(cg, c.witnessMaxVisited)
	c.order = c.nextOrder()
	return c
}

func (c *Contractor) nextOrder() int32 {
	next := int32(0)
	for n := datastructure.Index(0); int(n) < c.cg.NodeCount(); n++ {
		if r := c.cg.Rank(n); r >= next {
			next = r + 1
		}
	}
	return next
}

/*
Contract contraction satu kali jalan. priority queue di seed dengan out-degree semua node yang belum dikontraksi,
node dengan degree paling kecil dikontraksi duluan. priority tidak pernah di update setelah tetangga berubah
(tidak ada lazy update / reinsertion).

kalau ctx di cancel, graph tetap valid: node yang sudah dikontraksi punya rank & shortcut nya, sisanya rank -1.
*/
func (c *Contractor) Contract(ctx context.Context) (Result, error) {
	var res Result
	start := time.Now()
	c.cg.growRank()

	pq := datastructure.NewFibonacciHeap[datastructure.Index]()
	for n := datastructure.Index(0); int(n) < c.cg.NodeCount(); n++ {
		if c.cg.IsRemoved(n) || c.cg.IsContracted(n) {
			continue
		}
		pq.Insert(n, float64(c.cg.OutDegree(n, c.cg.contracted)))
	}

	total := pq.Size()
	if total == 0 {
		c.logger.Debug("nothing to contract, all nodes already contracted")
		return res, nil
	}
	c.logger.Info("starting contraction", zap.Int("nodes", total), zap.Int("edges", c.cg.EdgeCount()))

	for pq.Size() > 0 {
		if util.StopConcurrentOperation(ctx) {
			res.Duration = time.Since(start)
			return res, util.WrapErrorf(ctx.Err(), util.ErrInternalServerError,
				"contraction cancelled after %d of %d nodes", res.Contracted, total)
		}

		item, err := pq.ExtractMin()
		if err != nil {
			return res, util.WrapErrorf(err, util.ErrInternalServerError, "contraction queue")
		}

		stats, err := c.contract(item.GetElem())
		if err != nil {
			return res, err
		}
		res.Contracted++
		res.Shortcuts += stats.added
		res.UpdatedShortcuts += stats.updated
		res.WitnessSearches += stats.searches

		if res.Contracted%c.progressEvery == 0 {
			c.report(res, total)
		}
	}

	res.Duration = time.Since(start)
	if res.Contracted%c.progressEvery != 0 {
		c.report(res, total)
	}
	c.logger.Info("contraction done",
		zap.Int("contracted", res.Contracted),
		zap.Int("shortcuts", res.Shortcuts),
		zap.Int("updated_shortcuts", res.UpdatedShortcuts),
		zap.Int("witness_searches", res.WitnessSearches),
		zap.Duration("took", res.Duration))
	return res, nil
}

func (c *Contractor) report(res Result, total int) {
	ev := ProgressEvent{
		Processed: res.Contracted,
		Remaining: total - res.Contracted,
		Shortcuts: res.Shortcuts,
	}
	c.logger.Info("contraction progress",
		zap.Int("processed", ev.Processed),
		zap.Int("remaining", ev.Remaining),
		zap.Int("shortcuts", ev.Shortcuts))
	if c.progress != nil {
		c.progress(ev)
	}
}

// ContractNode kontraksi satu node di luar urutan priority queue. node yang sudah dikontraksi di skip.
func (c *Contractor) ContractNode(u datastructure.Index) (int, error) {
	if u < 0 || int(u) >= c.cg.NodeCount() {
		return 0, util.WrapErrorf(datastructure.ErrNodeOutOfRange, util.ErrBadParamInput, "node %d", u)
	}
	if c.cg.IsContracted(u) {
		return 0, nil
	}
	c.cg.growRank()
	stats, err := c.contract(u)
	return stats.added, err
}

type neighbor struct {
	node   datastructure.Index
	edge   datastructure.EdgeID
	weight float64
}

func (c *Contractor) neighbors(it *datastructure.EdgeIterator, u datastructure.Index) []neighbor {
	out := make([]neighbor, 0, 4)
	for it.Next() {
		if it.AdjNode() == u {
			continue
		}
		out = append(out, neighbor{node: it.AdjNode(), edge: it.Edge(), weight: it.Weight()})
	}
	return out
}

/*
contract node u:
untuk setiap incoming v dan outgoing w (v != w) yang belum dikontraksi, cari witness v->w tanpa lewat u
dengan batas dist(v,u) + max dist(u, w'). kalau tidak ada witness dengan cost <= dist(v,u)+dist(u,w),
tambah shortcut v->w. setelah itu u ditandai contracted dengan rank = urutan kontraksi.
*/
func (c *Contractor) contract(u datastructure.Index) (nodeStats, error) {
	var stats nodeStats
	cg := c.cg

	inNodes := c.neighbors(cg.Incoming(u, cg.contracted), u)
	outNodes := c.neighbors(cg.Outgoing(u, cg.contracted), u)

	for _, v := range inNodes {
		maxOut := 0.0
		for _, w := range outNodes {
			if w.node != v.node && w.weight > maxOut {
				maxOut = w.weight
			}
		}

		for _, w := range outNodes {
			if w.node == v.node {
				continue
			}
			direct := v.weight + w.weight

			stats.searches++
			witness, found, err := c.witness.find(v.node, w.node, u, v.weight+maxOut)
			if err != nil {
				return stats, util.WrapErrorf(err, util.ErrInternalServerError,
					"witness search %d->%d skipping %d", v.node, w.node, u)
			}
			if found && witness <= direct {
				continue
			}

			added, updated, err := c.addOrUpdateShortcut(v, w, direct)
			if err != nil {
				return stats, err
			}
			if added {
				stats.added++
			}
			if updated {
				stats.updated++
			}
		}
	}

	cg.markContracted(u, c.order)
	c.order++
	c.metrics.observe(stats)
	return stats, nil
}

// addOrUpdateShortcut kalau shortcut v->w sudah ada, weight nya di update (kalau lebih murah), tidak tambah edge baru.
func (c *Contractor) addOrUpdateShortcut(v, w neighbor, weight float64) (added, updated bool, err error) {
	it := c.cg.Outgoing(v.node, nil)
	for it.Next() {
		if !it.IsShortcut() || it.AdjNode() != w.node {
			continue
		}
		if weight >= it.Weight() {
			return false, false, nil
		}
		c.cg.SetEdgeWeight(it.Edge(), weight)
		c.cg.SetSkippedEdges(it.Edge(), v.edge, w.edge)
		return false, true, nil
	}

	if _, err = c.cg.AddShortcut(v.node, w.node, weight, v.edge, w.edge); err != nil {
		return false, false, util.WrapErrorf(err, util.ErrInternalServerError, "add shortcut %d->%d", v.node, w.node)
	}
	return true, false, nil
}
