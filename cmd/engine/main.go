package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/lintang-b-s/roadrouter/pkg/contractor"
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/lintang-b-s/roadrouter/pkg/kv"
	"github.com/lintang-b-s/roadrouter/pkg/logger"
	"github.com/lintang-b-s/roadrouter/pkg/spatialindex"
	"github.com/lintang-b-s/roadrouter/pkg/storage"
	"github.com/lintang-b-s/roadrouter/pkg/turncost"
	"github.com/lintang-b-s/roadrouter/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "./data", "directory berisi config.yaml")
	algo       = flag.String("algo", "ch", "dijkstra | astar | bidirectional | ch | td (ch mengabaikan turn restriction)")
	indexKind  = flag.String("index", "quadtree", "nearest node index: quadtree | rtree | h3")
	fromFlag   = flag.String("from", "", "titik asal lat,lon")
	toFlag     = flag.String("to", "", "titik tujuan lat,lon")
	queries    = flag.String("queries", "", "csv from_lat,from_lon,to_lat,to_lon, satu query per baris")
	depart     = flag.String("depart", "", "waktu berangkat RFC3339 untuk algo td, default sekarang")
	snapshot   = flag.String("snapshot", "", "load graph dari snapshot zstd, bukan dari graph dir")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

type engine struct {
	cfg *util.Config
	lg  *zap.Logger

	g           *datastructure.Graph
	cg          *contractor.ContractedGraph
	calc        geo.DistanceCalc
	table       *turncost.Table
	conditional routingalgorithm.ConditionalAccessMap
	loc         *time.Location

	finder  spatialindex.NearestNodeFinder
	snapper *spatialindex.Snapper
	metrics *routingalgorithm.QueryMetrics
	closers []io.Closer
}

func main() {
	flag.Parse()
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			panic(err)
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	cfg, err := util.ReadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	lg, err := logger.NewWithLevel(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer lg.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	e, err := loadEngine(cfg, lg, routingalgorithm.NewQueryMetrics(reg))
	if err != nil {
		lg.Fatal("load engine", zap.Error(err))
	}
	defer e.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	switch {
	case *queries != "":
		err = e.runBatch(ctx, *queries, out)
	case *fromFlag != "" && *toFlag != "":
		err = e.runSingle(*fromFlag, *toFlag, out)
	default:
		flag.Usage()
		return
	}
	if err != nil {
		lg.Error("query failed", zap.Error(err))
	}
	logMetrics(lg, reg)
}

func loadEngine(cfg *util.Config, lg *zap.Logger, metrics *routingalgorithm.QueryMetrics) (*engine, error) {
	calc, err := geo.NewDistanceCalc(cfg.Distance.Mode)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "timezone %s", cfg.Timezone)
	}
	e := &engine{cfg: cfg, lg: lg, calc: calc, loc: loc, metrics: metrics}

	dir := storage.NewGraphDirectory(cfg.Graph.Dir, cfg.Graph.MMap)
	if *snapshot != "" {
		e.g, err = storage.ImportSnapshot(*snapshot)
	} else {
		e.g, err = dir.Load()
	}
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, e.g)

	ranks, err := dir.LoadRanks()
	if err != nil {
		return nil, err
	}
	if e.cg, err = contractor.NewContractedGraphWithRanks(e.g, ranks); err != nil {
		return nil, err
	}

	tcdb, err := kv.OpenTurnCostDB(cfg.Graph.TurnCostDir)
	if err != nil {
		return nil, err
	}
	defer tcdb.Close()
	if e.table, err = tcdb.LoadTable(); err != nil {
		return nil, err
	}
	if e.conditional, err = tcdb.LoadConditional(); err != nil {
		return nil, err
	}

	if err := e.buildIndex(*indexKind); err != nil {
		return nil, err
	}
	e.snapper = spatialindex.NewSnapper(e.g, e.finder, calc)

	lg.Info("engine ready",
		zap.Int("nodes", e.g.NodeCount()),
		zap.Int("edges", e.g.EdgeCount()),
		zap.Int("turn_restrictions", e.table.Len()),
		zap.String("index", *indexKind))
	return e, nil
}

func (e *engine) buildIndex(kind string) error {
	switch kind {
	case "quadtree":
		q := spatialindex.NewLocation2IDQuadtree(e.g,
			spatialindex.WithDistanceCalc(e.calc), spatialindex.WithLogger(e.lg))
		if err := q.Prepare(e.cfg.Index.Capacity); err != nil {
			return err
		}
		e.finder = q
	case "rtree":
		r, err := spatialindex.NewRtreeIndex(e.g, e.calc)
		if err != nil {
			return err
		}
		e.finder = r
	case "h3":
		db, err := kv.OpenNodeIndexDB(e.cfg.Graph.NodeIndex, e.lg)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, db)
		e.finder = db
	default:
		return util.WrapErrorf(nil, util.ErrBadParamInput, "unknown index %q", kind)
	}
	return nil
}

func (e *engine) Close() error {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			e.lg.Warn("close", zap.Error(err))
		}
	}
	return nil
}

// routeOptions graph hasil preprocessing berisi shortcut, selain CH query shortcut harus di skip.
func (e *engine) routeOptions() []routingalgorithm.Option {
	return []routingalgorithm.Option{
		routingalgorithm.WithEdgeFilter(routingalgorithm.NoShortcutFilter),
		routingalgorithm.WithTurnCosts(e.table),
		routingalgorithm.WithDistanceCalc(e.calc),
		routingalgorithm.WithMaxVisitedNodes(e.cfg.Query.MaxVisitedNodes),
		routingalgorithm.WithMetrics(e.metrics),
	}
}

func (e *engine) finderFactory(name string) (func() routingalgorithm.PathFinder, error) {
	switch name {
	case "dijkstra":
		return func() routingalgorithm.PathFinder {
			return routingalgorithm.NewDijkstra(e.g, e.routeOptions()...)
		}, nil
	case "astar":
		return func() routingalgorithm.PathFinder {
			return routingalgorithm.NewAStar(e.g, e.routeOptions()...)
		}, nil
	case "bidirectional":
		return func() routingalgorithm.PathFinder {
			return routingalgorithm.NewBidirectionalDijkstra(e.g, routingalgorithm.WithRouteOptions(e.routeOptions()...))
		}, nil
	case "ch":
		if e.table.Len() > 0 {
			e.lg.Warn("ch query ignores turn restrictions, use dijkstra/astar/bidirectional to honour them",
				zap.Int("turn_restrictions", e.table.Len()))
		}
		opts := []routingalgorithm.CHOption{
			routingalgorithm.WithUnpackCacheSize(e.cfg.Query.CacheSize),
			routingalgorithm.WithCHRouteOptions(
				routingalgorithm.WithMaxVisitedNodes(e.cfg.Query.MaxVisitedNodes),
				routingalgorithm.WithMetrics(e.metrics),
			),
		}
		if _, err := routingalgorithm.NewBidirectionalCH(e.cg, opts...); err != nil {
			return nil, err
		}
		return func() routingalgorithm.PathFinder {
			ch, _ := routingalgorithm.NewBidirectionalCH(e.cg, opts...)
			return ch
		}, nil
	}
	return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "unknown algorithm %q", name)
}

func (e *engine) runSingle(from, to string, out io.Writer) error {
	fromLat, fromLon, err := parseLatLon(from)
	if err != nil {
		return err
	}
	toLat, toLon, err := parseLatLon(to)
	if err != nil {
		return err
	}

	var p routingalgorithm.Path
	switch *algo {
	case "dijkstra":
		// titik query di snap ke edge, bukan cuma ke node terdekat
		fromQ, err := e.snapper.SnapToEdge(fromLat, fromLon)
		if err != nil {
			return err
		}
		toQ, err := e.snapper.SnapToEdge(toLat, toLon)
		if err != nil {
			return err
		}
		p, err = routingalgorithm.NewDijkstra(e.g, e.routeOptions()...).CalcPathBetweenEdges(fromQ, toQ)
		if err != nil {
			return err
		}
	case "td":
		departAt := time.Now().In(e.loc)
		if *depart != "" {
			if departAt, err = time.Parse(time.RFC3339, *depart); err != nil {
				return util.WrapErrorf(err, util.ErrBadParamInput, "depart %q", *depart)
			}
		}
		s, t, err := e.nearestPair(fromLat, fromLon, toLat, toLon)
		if err != nil {
			return err
		}
		td := routingalgorithm.NewTimeDependentDijkstra(e.g, routingalgorithm.NewSpeedWeighting(0), e.conditional, e.loc,
			e.routeOptions()...)
		if p, err = td.CalcPath(s, t, departAt.UnixMilli()); err != nil {
			return err
		}
	default:
		factory, err := e.finderFactory(*algo)
		if err != nil {
			return err
		}
		s, t, err := e.nearestPair(fromLat, fromLon, toLat, toLon)
		if err != nil {
			return err
		}
		if p, err = factory().CalcPath(s, t); err != nil {
			return err
		}
	}

	writePath(out, 0, p)
	return nil
}

func (e *engine) nearestPair(fromLat, fromLon, toLat, toLon float64) (datastructure.Index, datastructure.Index, error) {
	s, err := e.finder.FindNearestNode(fromLat, fromLon)
	if err != nil {
		return datastructure.NO_NODE, datastructure.NO_NODE, err
	}
	t, err := e.finder.FindNearestNode(toLat, toLon)
	if err != nil {
		return datastructure.NO_NODE, datastructure.NO_NODE, err
	}
	return s, t, nil
}

func (e *engine) runBatch(ctx context.Context, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return util.WrapErrorf(err, util.ErrNotFound, "open queries %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return util.WrapErrorf(err, util.ErrBadParamInput, "read queries %s", path)
	}

	qs := make([]routingalgorithm.Query, 0, len(records))
	for i, rec := range records {
		if len(rec) != 4 {
			return util.WrapErrorf(nil, util.ErrBadParamInput, "line %d: want 4 columns, got %d", i+1, len(rec))
		}
		coords := make([]float64, 4)
		for j, v := range rec {
			if coords[j], err = strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
				return util.WrapErrorf(err, util.ErrBadParamInput, "line %d column %d", i+1, j+1)
			}
		}
		s, t, err := e.nearestPair(coords[0], coords[1], coords[2], coords[3])
		if err != nil {
			return err
		}
		qs = append(qs, routingalgorithm.Query{From: s, To: t})
	}

	factory, err := e.finderFactory(*algo)
	if err != nil {
		return err
	}
	start := time.Now()
	paths, err := routingalgorithm.NewBatchRouter(factory, e.cfg.Query.Workers).Route(ctx, qs)
	if err != nil {
		return err
	}
	e.lg.Info("batch done", zap.Int("queries", len(qs)), zap.Duration("took", time.Since(start)))

	for i, p := range paths {
		writePath(out, i, p)
	}
	return nil
}

func writePath(out io.Writer, i int, p routingalgorithm.Path) {
	if !p.Found {
		fmt.Fprintf(out, "%d\tnot found\tvisited=%d\n", i, p.VisitedNodes)
		return
	}
	fmt.Fprintf(out, "%d\tweight=%v\tdistance_km=%v\ttime_ms=%d\tnodes=%d\tvisited=%d\t%s\n",
		i, util.RoundFloat(p.Weight, 4), util.RoundFloat(p.Distance, 3), p.Time, len(p.Nodes), p.VisitedNodes, p.SimplifiedPolyline(geo.DOUGLAS_PEUCKER_THRESHOLDS))
}

func parseLatLon(s string) (float64, float64, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, util.WrapErrorf(nil, util.ErrBadParamInput, "coordinate %q must be lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, util.WrapErrorf(err, util.ErrBadParamInput, "latitude %q", latStr)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, util.WrapErrorf(err, util.ErrBadParamInput, "longitude %q", lonStr)
	}
	return lat, lon, nil
}

func logMetrics(lg *zap.Logger, reg prometheus.Gatherer) {
	families, err := reg.Gather()
	if err != nil {
		lg.Warn("gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			fields := []zap.Field{zap.String("name", mf.GetName()), zap.Strings("labels", labels)}
			switch {
			case m.GetCounter() != nil:
				fields = append(fields, zap.Float64("value", m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fields = append(fields, zap.Uint64("count", h.GetSampleCount()), zap.Float64("sum", h.GetSampleSum()))
			}
			lg.Info("metric", fields...)
		}
	}
}
