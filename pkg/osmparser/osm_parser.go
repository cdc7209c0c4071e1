package osmparser

import (
	"context"
	"io"
	"os"
	"runtime"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/roadrouter/pkg/turncost"
	"github.com/lintang-b-s/roadrouter/pkg/util"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"
)

type nodeType uint8

const (
	betweenNode nodeType = iota + 1
	endNode
	junctionNode
)

type nodeCoord struct {
	lat float64
	lon float64
}

var (
	skipHighway = map[string]struct{}{
		"footway":      {},
		"construction": {},
		"cycleway":     {},
		"path":         {},
		"pedestrian":   {},
		"busway":       {},
		"steps":        {},
		"bridleway":    {},
		"corridor":     {},
		"platform":     {},
		"proposed":     {},
		"bus_guideway": {},
		"elevator":     {},
		"raceway":      {},
	}

	// tag conditional dari yang paling spesifik
	conditionalTags = []string{
		"motorcar:conditional",
		"motor_vehicle:conditional",
		"vehicle:conditional",
		"access:conditional",
	}
)

type ParseResult struct {
	Graph        *datastructure.Graph
	TurnCosts    *turncost.Table
	Conditional  routingalgorithm.ConditionalAccessMap
	Stats        BuilderStats
	Ways         int
	Restrictions int
}

/*
OsmParser baca file osm pbf dua kali:

 1. way yang lolos filter highway dicatat node nya. node yang muncul di lebih dari satu way (atau
    dua kali di way yang sama) = junction. relation type restriction dikumpulkan.
 2. koordinat node yang dipakai way disimpan, lalu setiap way dipotong di node ujung & junction jadi edge.
    panjang edge = jumlah jarak antar node osm di potongan itu.

setelah itu relation restriction diubah jadi entry turn cost dengan edge id internal.
*/
type OsmParser struct {
	builder *GraphBuilder
	logger  *zap.Logger

	wayNodes  map[int64]nodeType
	coords    map[int64]nodeCoord
	relations []turncost.TurnRelation
	ways      int
}

func NewOsmParser(builder *GraphBuilder, logger *zap.Logger) *OsmParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OsmParser{
		builder:   builder,
		logger:    logger,
		wayNodes:  make(map[int64]nodeType),
		coords:    make(map[int64]nodeCoord),
		relations: make([]turncost.TurnRelation, 0),
	}
}

func (p *OsmParser) Parse(ctx context.Context, mapFile string) (*ParseResult, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrNotFound, "open osm file %s", mapFile)
	}
	defer f.Close()

	err = p.scan(ctx, f, func(o osm.Object) error {
		switch obj := o.(type) {
		case *osm.Way:
			p.collectWay(obj)
		case *osm.Relation:
			p.collectRelation(obj)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info("collected openstreetmap ways", zap.Int("ways", p.ways), zap.Int("nodes", len(p.wayNodes)),
		zap.Int("restrictions", len(p.relations)))

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "rewind osm file")
	}

	processed := 0
	err = p.scan(ctx, f, func(o osm.Object) error {
		switch obj := o.(type) {
		case *osm.Node:
			p.processNode(obj)
		case *osm.Way:
			if err := p.processWay(obj); err != nil {
				return err
			}
			processed++
			if processed%50000 == 0 {
				p.logger.Info("processing openstreetmap ways", zap.Int("processed", processed))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return p.Finish(), nil
}

func (p *OsmParser) scan(ctx context.Context, r io.Reader, fn func(osm.Object) error) error {
	// urutan object harus sama dengan di file: node, way, relation
	scanner := osmpbf.New(ctx, r, runtime.GOMAXPROCS(-1))
	defer scanner.Close()

	for scanner.Scan() {
		if err := fn(scanner.Object()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "scan osm pbf")
	}
	return nil
}

func (p *OsmParser) collectWay(way *osm.Way) {
	if len(way.Nodes) < 2 || !acceptOsmWay(way) {
		return
	}
	p.ways++
	for i, n := range way.Nodes {
		id := int64(n.ID)
		if _, ok := p.wayNodes[id]; ok {
			p.wayNodes[id] = junctionNode
			continue
		}
		if i == 0 || i == len(way.Nodes)-1 {
			p.wayNodes[id] = endNode
		} else {
			p.wayNodes[id] = betweenNode
		}
	}
}

func (p *OsmParser) collectRelation(rel *osm.Relation) {
	if rel.Tags.Find("type") != "restriction" {
		return
	}
	tr, ok := turncost.FromOSMRelation(rel)
	if !ok || tr.Type == turncost.TypeUnsupported {
		return
	}
	p.relations = append(p.relations, tr)
}

func (p *OsmParser) processNode(node *osm.Node) {
	if _, ok := p.wayNodes[int64(node.ID)]; ok {
		p.coords[int64(node.ID)] = nodeCoord{lat: node.Lat, lon: node.Lon}
	}
}

func (p *OsmParser) isTowerNode(id int64) bool {
	t := p.wayNodes[id]
	return t == junctionNode || t == endNode
}

func (p *OsmParser) processWay(way *osm.Way) error {
	if len(way.Nodes) < 2 || !acceptOsmWay(way) {
		return nil
	}
	forward, backward := wayDirection(way)
	if !forward && !backward {
		return nil
	}

	conditional := ""
	for _, key := range conditionalTags {
		if v := way.Tags.Find(key); v != "" {
			conditional = v
			break
		}
	}

	segment := make([]int64, 0, len(way.Nodes))
	for i, n := range way.Nodes {
		id := int64(n.ID)
		if _, ok := p.coords[id]; !ok {
			// node di luar extract
			p.logger.Debug("way node without coordinate", zap.Int64("way", int64(way.ID)), zap.Int64("node", id))
			continue
		}
		segment = append(segment, id)
		if i > 0 && p.isTowerNode(id) && len(segment) > 1 {
			if err := p.addSegment(segment, int64(way.ID), forward, backward, conditional); err != nil {
				return err
			}
			segment = []int64{id}
		}
	}
	if len(segment) > 1 {
		return p.addSegment(segment, int64(way.ID), forward, backward, conditional)
	}
	return nil
}

// addSegment satu potongan way jadi satu edge. potongan yang ujungnya sama (loop) dipecah dua di tengah.
func (p *OsmParser) addSegment(segment []int64, wayID int64, forward, backward bool, conditional string) error {
	last := len(segment) - 1
	if segment[0] == segment[last] {
		if len(segment) <= 2 {
			return nil
		}
		mid := len(segment) / 2
		if err := p.addSegment(segment[:mid+1], wayID, forward, backward, conditional); err != nil {
			return err
		}
		return p.addSegment(segment[mid:], wayID, forward, backward, conditional)
	}

	dist := 0.0
	for i := 1; i < len(segment); i++ {
		a, b := p.coords[segment[i-1]], p.coords[segment[i]]
		dist += p.builder.calc.CalcDist(a.lat, a.lon, b.lat, b.lon)
	}

	for _, id := range []int64{segment[0], segment[last]} {
		c := p.coords[id]
		if _, err := p.builder.AddNode(id, c.lat, c.lon); err != nil {
			return err
		}
	}

	from, to := segment[0], segment[last]
	if !forward {
		from, to = to, from
	}
	edge, err := p.builder.AddEdgeWithDistance(from, to, wayID, dist, forward && backward)
	if err != nil {
		return err
	}
	if conditional != "" && edge != datastructure.NO_EDGE {
		p.builder.SetConditional(edge, conditional)
	}
	return nil
}

// Finish ubah relation restriction jadi turn cost, dipanggil setelah semua way diproses.
func (p *OsmParser) Finish() *ParseResult {
	table := turncost.NewTable()
	for _, rel := range p.relations {
		table.AddAll(rel.GetRestrictionAsEntries(p.builder.Graph(), p.builder))
	}

	stats := p.builder.Stats()
	p.logger.Info("openstreetmap graph built",
		zap.Int("nodes", stats.Nodes),
		zap.Int("edges", stats.Edges),
		zap.Int("zero_distance_edges", stats.ZeroDistance),
		zap.Int("negative_distance_edges", stats.NegativeDistance),
		zap.Int("unresolved_edges", stats.Unresolved),
		zap.Int("conditional_edges", stats.Conditional),
		zap.Int("turn_restrictions", table.Len()))

	return &ParseResult{
		Graph:        p.builder.Graph(),
		TurnCosts:    table,
		Conditional:  p.builder.Conditional(),
		Stats:        stats,
		Ways:         p.ways,
		Restrictions: len(p.relations),
	}
}

func acceptOsmWay(way *osm.Way) bool {
	highway := way.Tags.Find("highway")
	if highway != "" {
		_, skip := skipHighway[highway]
		return !skip
	}
	return way.Tags.Find("route") == "road" || way.Tags.Find("junction") != ""
}

func isRestricted(value string) bool {
	switch value {
	case "no", "restricted", "military", "emergency", "private", "permit":
		return true
	}
	return false
}

// wayDirection arah yang boleh dilewati relatif ke urutan node way.
func wayDirection(way *osm.Way) (forward, backward bool) {
	forward, backward = true, true

	oneway := way.Tags.Find("oneway")
	switch oneway {
	case "yes", "true", "1":
		backward = false
	case "-1", "reverse":
		forward = false
	case "":
		junction := way.Tags.Find("junction")
		if junction == "roundabout" || junction == "circular" || way.Tags.Find("highway") == "motorway" {
			backward = false
		}
	}

	if isRestricted(way.Tags.Find("vehicle:forward")) || isRestricted(way.Tags.Find("motor_vehicle:forward")) {
		forward = false
	}
	if isRestricted(way.Tags.Find("vehicle:backward")) || isRestricted(way.Tags.Find("motor_vehicle:backward")) {
		backward = false
	}
	return forward, backward
}
