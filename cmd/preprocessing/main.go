package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/lintang-b-s/roadrouter/pkg/contractor"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/lintang-b-s/roadrouter/pkg/kv"
	"github.com/lintang-b-s/roadrouter/pkg/logger"
	"github.com/lintang-b-s/roadrouter/pkg/osmparser"
	"github.com/lintang-b-s/roadrouter/pkg/storage"
	"github.com/lintang-b-s/roadrouter/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	configPath = flag.String("config", "./data", "directory berisi config.yaml")
	mapFile    = flag.String("f", "solo_jogja.osm.pbf", "openstreeetmap file buat road network graphnya")
	snapshot   = flag.String("snapshot", "", "export snapshot graph terkompresi (zstd) ke file ini")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()
	if *cpuprofile != "" {
		// ./bin/roadrouter-preprocessing -cpuprofile=cpu.prof -memprofile=mem.mprof
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

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("preprocessing failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *util.Config, lg *zap.Logger) error {
	start := time.Now()
	calc, err := geo.NewDistanceCalc(cfg.Distance.Mode)
	if err != nil {
		return err
	}

	dir := storage.NewGraphDirectory(cfg.Graph.Dir, cfg.Graph.MMap)
	g, err := dir.Create()
	if err != nil {
		return err
	}
	defer g.Close()

	lg.Info("reading osm file", zap.String("file", *mapFile))
	builder := osmparser.NewGraphBuilder(g, calc, lg)
	parsed, err := osmparser.NewOsmParser(builder, lg).Parse(ctx, *mapFile)
	if err != nil {
		return err
	}
	recordMemProfile(memprofile, "parsing_osm_data")

	scc := contractor.StronglyConnectedComponents(g)
	largest := 0
	if l := scc.Largest(); l >= 0 {
		largest = len(scc.Components[l])
	}
	lg.Info("strongly connected components",
		zap.Int("components", len(scc.Components)),
		zap.Int("largest", largest),
		zap.Int("nodes", g.NodeCount()))

	// turn cost db & h3 node index hanya baca graph, jalan paralel sebelum graph dimutasi contraction
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		tcdb, err := kv.OpenTurnCostDB(cfg.Graph.TurnCostDir)
		if err != nil {
			return err
		}
		defer tcdb.Close()
		if err := tcdb.SaveTable(parsed.TurnCosts); err != nil {
			return err
		}
		return tcdb.SaveConditional(parsed.Conditional)
	})
	eg.Go(func() error {
		nodeIndex, err := kv.OpenNodeIndexDB(cfg.Graph.NodeIndex, lg)
		if err != nil {
			return err
		}
		defer nodeIndex.Close()
		return nodeIndex.BuildH3IndexedNodes(egCtx, g)
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	cg := contractor.NewContractedGraph(g)
	res, err := contractor.NewContractor(cg, lg,
		contractor.WithProgressEvery(cfg.Contraction.ProgressEvery),
		contractor.WithMetrics(contractor.NewContractionMetrics(reg)),
	).Contract(ctx)
	if err != nil {
		return err
	}
	recordMemProfile(memprofile, "finish_contracting_graph")

	lg.Info("saving contracted graph", zap.String("dir", cfg.Graph.Dir))
	if err := dir.Flush(g); err != nil {
		return err
	}
	if err := dir.SaveRanks(cg.Ranks()); err != nil {
		return err
	}
	if *snapshot != "" {
		if err := storage.ExportSnapshot(g, *snapshot); err != nil {
			return err
		}
	}

	logMetrics(lg, reg)
	lg.Info("preprocessing done",
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()),
		zap.Int("shortcuts", res.Shortcuts),
		zap.Int("turn_restrictions", parsed.TurnCosts.Len()),
		zap.Int("conditional_edges", len(parsed.Conditional)),
		zap.Duration("took", time.Since(start)))
	return nil
}

func logMetrics(lg *zap.Logger, reg prometheus.Gatherer) {
	families, err := reg.Gather()
	if err != nil {
		lg.Warn("gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				lg.Info("metric", zap.String("name", mf.GetName()), zap.Float64("value", c.GetValue()))
			}
		}
	}
}

func recordMemProfile(memprofile *string, name string) {
	if *memprofile != "" {
		path := strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(path)
		if err != nil {
			panic(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
