package osmparser

import (
	"github.com/lintang-b-s/roadrouter/pkg"
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"go.uber.org/zap"
)

type BuilderStats struct {
	Nodes            int
	Edges            int
	ZeroDistance     int
	NegativeDistance int
	Unresolved       int
	Conditional      int
}

/*
GraphBuilder isi Graph dari data osm. node osm di mapping ke node internal (id naik terus mulai 0),
bobot edge = jarak dalam km dari DistanceCalc.
*/
type GraphBuilder struct {
	g           *datastructure.Graph
	calc        geo.DistanceCalc
	logger      *zap.Logger
	osmToNode   map[int64]datastructure.Index
	conditional routingalgorithm.ConditionalAccessMap
	stats       BuilderStats
}

func NewGraphBuilder(g *datastructure.Graph, calc geo.DistanceCalc, logger *zap.Logger) *GraphBuilder {
	if calc == nil {
		calc = geo.Haversine
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphBuilder{
		g:           g,
		calc:        calc,
		logger:      logger,
		osmToNode:   make(map[int64]datastructure.Index),
		conditional: make(routingalgorithm.ConditionalAccessMap),
	}
}

func (b *GraphBuilder) Graph() *datastructure.Graph {
	return b.g
}

func (b *GraphBuilder) Stats() BuilderStats {
	return b.stats
}

func (b *GraphBuilder) Conditional() routingalgorithm.ConditionalAccessMap {
	return b.conditional
}

// InternalNodeID implement turncost.OSMIDResolver.
func (b *GraphBuilder) InternalNodeID(osmID int64) (datastructure.Index, bool) {
	n, ok := b.osmToNode[osmID]
	return n, ok
}

// AddNode node osm yang sama hanya ditambahkan sekali.
func (b *GraphBuilder) AddNode(osmID int64, lat, lon float64) (datastructure.Index, error) {
	if n, ok := b.osmToNode[osmID]; ok {
		return n, nil
	}
	n, err := b.g.AddLocation(lat, lon)
	if err != nil {
		return datastructure.NO_NODE, err
	}
	b.osmToNode[osmID] = n
	b.stats.Nodes++
	return n, nil
}

// AddEdge edge lurus antara dua node osm, jarak dihitung dari koordinat node.
func (b *GraphBuilder) AddEdge(osmFrom, osmTo, wayID int64, bothDirections bool) (datastructure.EdgeID, error) {
	from, okFrom := b.osmToNode[osmFrom]
	to, okTo := b.osmToNode[osmTo]
	if !okFrom || !okTo {
		return b.unresolved(osmFrom, osmTo, wayID)
	}
	dist := b.calc.CalcDist(b.g.Lat(from), b.g.Lon(from), b.g.Lat(to), b.g.Lon(to))
	return b.addEdge(from, to, wayID, dist, bothDirections)
}

// AddEdgeWithDistance edge dengan jarak yang sudah dihitung (misal panjang polyline way antar junction).
func (b *GraphBuilder) AddEdgeWithDistance(osmFrom, osmTo, wayID int64, distKm float64,
	bothDirections bool) (datastructure.EdgeID, error) {
	from, okFrom := b.osmToNode[osmFrom]
	to, okTo := b.osmToNode[osmTo]
	if !okFrom || !okTo {
		return b.unresolved(osmFrom, osmTo, wayID)
	}
	return b.addEdge(from, to, wayID, distKm, bothDirections)
}

func (b *GraphBuilder) unresolved(osmFrom, osmTo, wayID int64) (datastructure.EdgeID, error) {
	b.stats.Unresolved++
	b.logger.Warn("skipping edge with unknown osm node",
		zap.Int64("from", osmFrom), zap.Int64("to", osmTo), zap.Int64("way", wayID))
	return datastructure.NO_EDGE, nil
}

func (b *GraphBuilder) addEdge(from, to datastructure.Index, wayID int64, dist float64,
	bothDirections bool) (datastructure.EdgeID, error) {
	switch {
	case dist < 0:
		b.stats.NegativeDistance++
		b.logger.Warn("negative distance edge, using epsilon",
			zap.Int32("from", int32(from)), zap.Int32("to", int32(to)), zap.Int64("way", wayID),
			zap.Float64("dist", dist))
		dist = pkg.EPSILON_DISTANCE
	case dist == 0:
		// node duplikat di koordinat yang sama, search butuh bobot > 0
		b.stats.ZeroDistance++
		b.logger.Debug("zero distance edge, using epsilon",
			zap.Int32("from", int32(from)), zap.Int32("to", int32(to)), zap.Int64("way", wayID))
		dist = pkg.EPSILON_DISTANCE
	}

	edge, err := b.g.Edge(from, to, dist, bothDirections)
	if err != nil {
		return datastructure.NO_EDGE, err
	}
	b.g.SetWayID(edge, wayID)
	b.stats.Edges++
	return edge, nil
}

// SetConditional simpan tag access:conditional untuk edge. value yang tidak bisa di parse tetap disimpan
// (edge dianggap selalu bisa dilewati).
func (b *GraphBuilder) SetConditional(edge datastructure.EdgeID, value string) {
	ca, err := routingalgorithm.ParseConditionalAccess(value)
	if err != nil {
		b.logger.Warn("cannot parse conditional access", zap.Int32("edge", int32(edge)), zap.String("value", value), zap.Error(err))
	}
	b.conditional[edge] = ca
	b.stats.Conditional++
}
