package datastructure

import (
	"errors"
	"fmt"
	"math"

	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/lintang-b-s/roadrouter/pkg/util"
)

type Index int32

type EdgeID int32

const (
	NO_EDGE EdgeID = -1
	NO_NODE Index  = -1
)

var (
	ErrCapacityExhausted = errors.New("graph capacity exhausted")
	ErrNodeOutOfRange    = errors.New("node index out of range")
)

/*
layout record node (NODE_SIZE byte):

	| lat float32 | lon float32 | firstEdge int32 | lastEdge int32 | flags int32 | reserved |
	0             4             8                 12               16            20

layout record edge (EDGE_SIZE byte):

	| nodeA | nodeB | nextA | nextB | weight float64 | wayID int64 | skipped1 | skipped2 | flags | reserved |
	0       4       8       12      16               24            32         36         40      44

setiap edge di link ke dua chain: chain milik nodeA (pakai nextA) dan chain milik nodeB (pakai nextB).
self-loop (nodeA == nodeB) cuma di link sekali lewat nextA.
flags edge: bit 0-1 direction relatif ke nodeA, bit 30 shortcut.
flags node: bit 30 removed.
*/
const (
	NODE_SIZE = 24
	EDGE_SIZE = 48

	nodeLat       = 0
	nodeLon       = 4
	nodeFirstEdge = 8
	nodeLastEdge  = 12
	nodeFlags     = 16

	edgeNodeA    = 0
	edgeNodeB    = 4
	edgeNextA    = 8
	edgeNextB    = 12
	edgeWeight   = 16
	edgeWayID    = 24
	edgeSkipped1 = 32
	edgeSkipped2 = 36
	edgeFlags    = 40

	removedBit  = 30
	shortcutBit = 30

	directionMask = 0b11

	initialNodeCapacity = 64
	initialEdgeCapacity = 128
)

// RoutingGraph kontrak baca yang dipakai algoritma routing, tidak peduli backing nya RAM atau mmap.
type RoutingGraph interface {
	NodeCount() int
	EdgeCount() int
	Lat(node Index) float64
	Lon(node Index) float64
	Outgoing(node Index, ignore *Bitset) *EdgeIterator
	Incoming(node Index, ignore *Bitset) *EdgeIterator
	Edges(node Index, ignore *Bitset) *EdgeIterator
	EdgeWeight(edge EdgeID) float64
	EdgeNodes(edge EdgeID) (Index, Index)
	EdgeDirection(edge EdgeID) Direction
	WayID(edge EdgeID) int64
	IsShortcut(edge EdgeID) bool
	SkippedEdges(edge EdgeID) (EdgeID, EdgeID)
	IsRemoved(node Index) bool
}

// Graph mutable multigraph dengan adjacency linked list di atas arena byte (array-of-records, "next" = index).
type Graph struct {
	nodes DataAccess
	edges DataAccess

	nodeCount int32
	edgeCount int32

	// 0 = unlimited
	maxNodes int32
	maxEdges int32
}

type GraphOption func(*Graph)

// WithFixedCapacity backing di pre-size, AddLocation/Edge gagal dengan ErrCapacityExhausted kalau penuh.
func WithFixedCapacity(maxNodes, maxEdges int) GraphOption {
	return func(g *Graph) {
		g.maxNodes = int32(maxNodes)
		g.maxEdges = int32(maxEdges)
	}
}

// WithBacking pakai DataAccess lain (misal mmap) untuk node & edge.
func WithBacking(nodes, edges DataAccess) GraphOption {
	return func(g *Graph) {
		g.nodes = nodes
		g.edges = edges
	}
}

func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{}
	for _, opt := range opts {
		opt(g)
	}

	if g.nodes == nil {
		nodeCap := int64(initialNodeCapacity)
		if g.maxNodes > 0 {
			nodeCap = int64(g.maxNodes)
		}
		g.nodes = NewRAMDataAccess("nodes", nodeCap*NODE_SIZE)
	}
	if g.edges == nil {
		edgeCap := int64(initialEdgeCapacity)
		if g.maxEdges > 0 {
			edgeCap = int64(g.maxEdges)
		}
		g.edges = NewRAMDataAccess("edges", edgeCap*EDGE_SIZE)
	}
	return g
}

// NewGraphFromBacking graph dari segment yang sudah terisi (hasil load dari disk).
func NewGraphFromBacking(nodes, edges DataAccess, nodeCount, edgeCount int) (*Graph, error) {
	if int64(len(nodes.Bytes())) < int64(nodeCount)*NODE_SIZE {
		return nil, fmt.Errorf("node segment %s too small for %d nodes", nodes.Name(), nodeCount)
	}
	if int64(len(edges.Bytes())) < int64(edgeCount)*EDGE_SIZE {
		return nil, fmt.Errorf("edge segment %s too small for %d edges", edges.Name(), edgeCount)
	}
	return &Graph{
		nodes:     nodes,
		edges:     edges,
		nodeCount: int32(nodeCount),
		edgeCount: int32(edgeCount),
	}, nil
}

func (g *Graph) NodeCount() int {
	return int(g.nodeCount)
}

func (g *Graph) EdgeCount() int {
	return int(g.edgeCount)
}

func (g *Graph) NodesBacking() DataAccess {
	return g.nodes
}

func (g *Graph) EdgesBacking() DataAccess {
	return g.edges
}

func nodePos(node Index) int64 {
	return int64(node) * NODE_SIZE
}

func edgePos(edge EdgeID) int64 {
	return int64(edge) * EDGE_SIZE
}

// AddLocation tambah node baru, id naik terus mulai 0.
func (g *Graph) AddLocation(lat, lon float64) (Index, error) {
	if g.maxNodes > 0 && g.nodeCount >= g.maxNodes {
		return NO_NODE, util.WrapErrorf(ErrCapacityExhausted, util.ErrBadParamInput,
			"cannot add location: node capacity %d reached", g.maxNodes)
	}

	node := Index(g.nodeCount)
	if err := g.nodes.EnsureCapacity(nodePos(node) + NODE_SIZE); err != nil {
		return NO_NODE, util.WrapErrorf(err, util.ErrInternalServerError, "grow node segment")
	}

	b := g.nodes.Bytes()
	pos := nodePos(node)
	putFloat32(b, pos+nodeLat, float32(lat))
	putFloat32(b, pos+nodeLon, float32(lon))
	putInt32(b, pos+nodeFirstEdge, int32(NO_EDGE))
	putInt32(b, pos+nodeLastEdge, int32(NO_EDGE))
	putInt32(b, pos+nodeFlags, 0)

	g.nodeCount++
	return node, nil
}

func (g *Graph) checkNode(node Index) error {
	if node < 0 || int32(node) >= g.nodeCount {
		return util.WrapErrorf(ErrNodeOutOfRange, util.ErrBadParamInput, "node %d out of range [0,%d)", node, g.nodeCount)
	}
	return nil
}

// Edge tambah edge a->b, dan b->a kalau bothDirections. weight diasumsikan >= 0 (dicek di loader).
func (g *Graph) Edge(a, b Index, weight float64, bothDirections bool) (EdgeID, error) {
	dir := FORWARD
	if bothDirections {
		dir = BOTH
	}
	return g.createEdge(a, b, weight, dir, NO_EDGE, NO_EDGE, false)
}

// AddShortcut tambah shortcut satu arah a->b yang menggantikan skipped1 + skipped2.
func (g *Graph) AddShortcut(a, b Index, weight float64, skipped1, skipped2 EdgeID) (EdgeID, error) {
	return g.createEdge(a, b, weight, FORWARD, skipped1, skipped2, true)
}

func (g *Graph) createEdge(a, b Index, weight float64, dir Direction, skipped1, skipped2 EdgeID,
	shortcut bool) (EdgeID, error) {
	if err := g.checkNode(a); err != nil {
		return NO_EDGE, err
	}
	if err := g.checkNode(b); err != nil {
		return NO_EDGE, err
	}
	if g.maxEdges > 0 && g.edgeCount >= g.maxEdges {
		return NO_EDGE, util.WrapErrorf(ErrCapacityExhausted, util.ErrBadParamInput,
			"cannot add edge %d->%d: edge capacity %d reached", a, b, g.maxEdges)
	}

	edge := EdgeID(g.edgeCount)
	if err := g.edges.EnsureCapacity(edgePos(edge) + EDGE_SIZE); err != nil {
		return NO_EDGE, util.WrapErrorf(err, util.ErrInternalServerError, "grow edge segment")
	}

	eb := g.edges.Bytes()
	pos := edgePos(edge)
	putInt32(eb, pos+edgeNodeA, int32(a))
	putInt32(eb, pos+edgeNodeB, int32(b))
	putInt32(eb, pos+edgeNextA, int32(NO_EDGE))
	putInt32(eb, pos+edgeNextB, int32(NO_EDGE))
	putFloat64(eb, pos+edgeWeight, weight)
	putInt64(eb, pos+edgeWayID, -1)
	putInt32(eb, pos+edgeSkipped1, int32(skipped1))
	putInt32(eb, pos+edgeSkipped2, int32(skipped2))
	putInt32(eb, pos+edgeFlags, util.BitPackIntBool(int32(dir), shortcut, shortcutBit))
	g.edgeCount++

	g.linkEdge(a, edge)
	if a != b {
		g.linkEdge(b, edge)
	}
	return edge, nil
}

// linkEdge append edge di akhir chain node, urutan iterasi = urutan insert.
func (g *Graph) linkEdge(node Index, edge EdgeID) {
	nb := g.nodes.Bytes()
	pos := nodePos(node)
	last := EdgeID(getInt32(nb, pos+nodeLastEdge))
	if last == NO_EDGE {
		putInt32(nb, pos+nodeFirstEdge, int32(edge))
	} else {
		g.setNext(last, node, edge)
	}
	putInt32(nb, pos+nodeLastEdge, int32(edge))
}

func (g *Graph) setNext(edge EdgeID, node Index, next EdgeID) {
	eb := g.edges.Bytes()
	pos := edgePos(edge)
	if Index(getInt32(eb, pos+edgeNodeA)) == node {
		putInt32(eb, pos+edgeNextA, int32(next))
		return
	}
	putInt32(eb, pos+edgeNextB, int32(next))
}

func (g *Graph) nextOf(edge EdgeID, node Index) EdgeID {
	eb := g.edges.Bytes()
	pos := edgePos(edge)
	if Index(getInt32(eb, pos+edgeNodeA)) == node {
		return EdgeID(getInt32(eb, pos+edgeNextA))
	}
	return EdgeID(getInt32(eb, pos+edgeNextB))
}

func (g *Graph) firstEdge(node Index) EdgeID {
	return EdgeID(getInt32(g.nodes.Bytes(), nodePos(node)+nodeFirstEdge))
}

func (g *Graph) Lat(node Index) float64 {
	return float64(getFloat32(g.nodes.Bytes(), nodePos(node)+nodeLat))
}

func (g *Graph) Lon(node Index) float64 {
	return float64(getFloat32(g.nodes.Bytes(), nodePos(node)+nodeLon))
}

func (g *Graph) Coordinate(node Index) geo.Coordinate {
	return geo.NewCoordinate(g.Lat(node), g.Lon(node))
}

// RemoveLocation tandai node inactive. O(1), tidak ada compaction; index yang dibangun dari
// graph lama harus dibangun ulang.
func (g *Graph) RemoveLocation(node Index) error {
	if err := g.checkNode(node); err != nil {
		return err
	}
	nb := g.nodes.Bytes()
	pos := nodePos(node) + nodeFlags
	putInt32(nb, pos, util.BitPackIntBool(getInt32(nb, pos), true, removedBit))
	return nil
}

func (g *Graph) IsRemoved(node Index) bool {
	_, removed := util.BitUnpackIntBool(getInt32(g.nodes.Bytes(), nodePos(node)+nodeFlags), removedBit)
	return removed
}

func (g *Graph) EdgeNodes(edge EdgeID) (Index, Index) {
	eb := g.edges.Bytes()
	pos := edgePos(edge)
	return Index(getInt32(eb, pos+edgeNodeA)), Index(getInt32(eb, pos+edgeNodeB))
}

func (g *Graph) EdgeWeight(edge EdgeID) float64 {
	return getFloat64(g.edges.Bytes(), edgePos(edge)+edgeWeight)
}

func (g *Graph) SetEdgeWeight(edge EdgeID, weight float64) {
	putFloat64(g.edges.Bytes(), edgePos(edge)+edgeWeight, weight)
}

func (g *Graph) edgeFlagsRaw(edge EdgeID) int32 {
	return getInt32(g.edges.Bytes(), edgePos(edge)+edgeFlags)
}

// EdgeDirection arah relatif ke nodeA.
func (g *Graph) EdgeDirection(edge EdgeID) Direction {
	return Direction(g.edgeFlagsRaw(edge) & directionMask)
}

func (g *Graph) IsShortcut(edge EdgeID) bool {
	_, shortcut := util.BitUnpackIntBool(g.edgeFlagsRaw(edge), shortcutBit)
	return shortcut
}

func (g *Graph) SkippedEdges(edge EdgeID) (EdgeID, EdgeID) {
	eb := g.edges.Bytes()
	pos := edgePos(edge)
	return EdgeID(getInt32(eb, pos+edgeSkipped1)), EdgeID(getInt32(eb, pos+edgeSkipped2))
}

func (g *Graph) SetSkippedEdges(edge EdgeID, skipped1, skipped2 EdgeID) {
	eb := g.edges.Bytes()
	pos := edgePos(edge)
	putInt32(eb, pos+edgeSkipped1, int32(skipped1))
	putInt32(eb, pos+edgeSkipped2, int32(skipped2))
}

// WayID osm way id sumber edge, -1 kalau tidak ada.
func (g *Graph) WayID(edge EdgeID) int64 {
	return getInt64(g.edges.Bytes(), edgePos(edge)+edgeWayID)
}

func (g *Graph) SetWayID(edge EdgeID, wayID int64) {
	putInt64(g.edges.Bytes(), edgePos(edge)+edgeWayID, wayID)
}

// Outgoing edge yang bisa dilewati dari node ke tetangga.
func (g *Graph) Outgoing(node Index, ignore *Bitset) *EdgeIterator {
	return newEdgeIterator(g, node, iterOutgoing, ignore)
}

// Incoming edge yang bisa dilewati dari tetangga ke node.
func (g *Graph) Incoming(node Index, ignore *Bitset) *EdgeIterator {
	return newEdgeIterator(g, node, iterIncoming, ignore)
}

// Edges semua edge yang menempel di node, tanpa peduli arah.
func (g *Graph) Edges(node Index, ignore *Bitset) *EdgeIterator {
	return newEdgeIterator(g, node, iterAll, ignore)
}

func (g *Graph) OutDegree(node Index, ignore *Bitset) int {
	count := 0
	it := g.Outgoing(node, ignore)
	for it.Next() {
		count++
	}
	return count
}

// Bounds bounding box semua node aktif.
func (g *Graph) Bounds() (minLat, maxLat, minLon, maxLon float64) {
	minLat, minLon = math.MaxFloat64, math.MaxFloat64
	maxLat, maxLon = -math.MaxFloat64, -math.MaxFloat64
	for n := Index(0); n < Index(g.nodeCount); n++ {
		if g.IsRemoved(n) {
			continue
		}
		lat, lon := g.Lat(n), g.Lon(n)
		minLat = math.Min(minLat, lat)
		maxLat = math.Max(maxLat, lat)
		minLon = math.Min(minLon, lon)
		maxLon = math.Max(maxLon, lon)
	}
	return
}

// Clone deep copy ke backing RAM baru.
func (g *Graph) Clone() *Graph {
	nodeBytes := make([]byte, int64(g.nodeCount)*NODE_SIZE)
	copy(nodeBytes, g.nodes.Bytes())
	edgeBytes := make([]byte, int64(g.edgeCount)*EDGE_SIZE)
	copy(edgeBytes, g.edges.Bytes())

	return &Graph{
		nodes:     NewRAMDataAccessFromBytes("nodes", nodeBytes),
		edges:     NewRAMDataAccessFromBytes("edges", edgeBytes),
		nodeCount: g.nodeCount,
		edgeCount: g.edgeCount,
		maxNodes:  g.maxNodes,
		maxEdges:  g.maxEdges,
	}
}

// Flush tulis backing (no-op untuk RAM).
func (g *Graph) Flush() error {
	if err := g.nodes.Flush(); err != nil {
		return err
	}
	return g.edges.Flush()
}

func (g *Graph) Close() error {
	errNodes := g.nodes.Close()
	errEdges := g.edges.Close()
	return errors.Join(errNodes, errEdges)
}
