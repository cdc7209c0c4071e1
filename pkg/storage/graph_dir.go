package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/storage/disk"
	"github.com/lintang-b-s/roadrouter/pkg/util"
)

var ErrBadGraphFile = errors.New("bad graph file")

/*
header page (HEADER_PAGE_SIZE byte):

	| magic (len + bytes) | version int32 | nodeCount int32 | edgeCount int32 |
	0                     20              24                28
*/
const (
	headerVersionOffset   = 20
	headerNodeCountOffset = 24
	headerEdgeCountOffset = 28
)

type graphHeader struct {
	version   int32
	nodeCount int32
	edgeCount int32
}

func encodeHeader(nodeCount, edgeCount int) *disk.Page {
	pg := disk.NewPage(HEADER_PAGE_SIZE)
	pg.PutString(0, GRAPH_MAGIC)
	pg.PutInt(headerVersionOffset, GRAPH_VERSION)
	pg.PutInt(headerNodeCountOffset, int32(nodeCount))
	pg.PutInt(headerEdgeCountOffset, int32(edgeCount))
	return pg
}

func decodeHeader(b []byte) (graphHeader, error) {
	if len(b) < HEADER_PAGE_SIZE {
		return graphHeader{}, util.WrapErrorf(ErrBadGraphFile, util.ErrBadParamInput,
			"header too short: %d bytes", len(b))
	}
	pg := disk.NewPageFromByteSlice(b[:HEADER_PAGE_SIZE])
	magic, err := pg.GetString(0)
	if err != nil || magic != GRAPH_MAGIC {
		return graphHeader{}, util.WrapErrorf(ErrBadGraphFile, util.ErrBadParamInput, "invalid magic")
	}
	h := graphHeader{
		version:   pg.GetInt(headerVersionOffset),
		nodeCount: pg.GetInt(headerNodeCountOffset),
		edgeCount: pg.GetInt(headerEdgeCountOffset),
	}
	if h.version != GRAPH_VERSION {
		return graphHeader{}, util.WrapErrorf(ErrBadGraphFile, util.ErrBadParamInput,
			"unsupported graph version %d", h.version)
	}
	if h.nodeCount < 0 || h.edgeCount < 0 {
		return graphHeader{}, util.WrapErrorf(ErrBadGraphFile, util.ErrBadParamInput,
			"negative counts in header: nodes=%d edges=%d", h.nodeCount, h.edgeCount)
	}
	return h, nil
}

// GraphDirectory direktori penyimpanan graph: satu file header + satu file per segment (nodes, edges).
type GraphDirectory struct {
	dir  string
	mmap bool
}

func NewGraphDirectory(dir string, mmap bool) *GraphDirectory {
	return &GraphDirectory{dir: dir, mmap: mmap}
}

func (d *GraphDirectory) path(name string) string {
	return filepath.Join(d.dir, name)
}

// Create graph kosong. Mode mmap: segment langsung di map dari file di direktori.
func (d *GraphDirectory) Create(opts ...datastructure.GraphOption) (*datastructure.Graph, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "create graph dir %s", d.dir)
	}
	if !d.mmap {
		return datastructure.NewGraph(opts...), nil
	}

	nodes, err := NewMMapDataAccess(d.path(NODES_FILE_NAME), INITIAL_SEGMENT_SIZE)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "create node segment")
	}
	edges, err := NewMMapDataAccess(d.path(EDGES_FILE_NAME), INITIAL_SEGMENT_SIZE)
	if err != nil {
		nodes.Close()
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "create edge segment")
	}
	return datastructure.NewGraph(append(opts, datastructure.WithBacking(nodes, edges))...), nil
}

// Flush tulis header + segment. Untuk backing mmap cukup msync, untuk RAM segment ditulis ulang ke file.
func (d *GraphDirectory) Flush(g *datastructure.Graph) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "create graph dir %s", d.dir)
	}

	if err := d.flushSegment(g.NodesBacking(), NODES_FILE_NAME, int64(g.NodeCount())*datastructure.NODE_SIZE); err != nil {
		return err
	}
	if err := d.flushSegment(g.EdgesBacking(), EDGES_FILE_NAME, int64(g.EdgeCount())*datastructure.EDGE_SIZE); err != nil {
		return err
	}

	header := encodeHeader(g.NodeCount(), g.EdgeCount())
	if err := writeFileSync(d.path(HEADER_FILE_NAME), header.Contents()); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "write graph header")
	}
	return nil
}

func (d *GraphDirectory) flushSegment(seg datastructure.DataAccess, name string, used int64) error {
	if m, ok := seg.(*MMapDataAccess); ok && m.Name() == d.path(name) {
		if err := m.Flush(); err != nil {
			return util.WrapErrorf(err, util.ErrInternalServerError, "flush segment %s", name)
		}
		return nil
	}
	if err := writeFileSync(d.path(name), seg.Bytes()[:used]); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "write segment %s", name)
	}
	return nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load baca graph dari direktori. Header yang rusak / tidak cocok menghasilkan ErrBadGraphFile.
func (d *GraphDirectory) Load() (*datastructure.Graph, error) {
	headerBytes, err := os.ReadFile(d.path(HEADER_FILE_NAME))
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrNotFound, "read graph header in %s", d.dir)
	}
	h, err := decodeHeader(headerBytes)
	if err != nil {
		return nil, err
	}

	var nodes, edges datastructure.DataAccess
	if d.mmap {
		nodes, edges, err = d.openMMapSegments()
	} else {
		nodes, edges, err = d.readRAMSegments()
	}
	if err != nil {
		return nil, err
	}

	g, err := datastructure.NewGraphFromBacking(nodes, edges, int(h.nodeCount), int(h.edgeCount))
	if err != nil {
		nodes.Close()
		edges.Close()
		return nil, util.WrapErrorf(errors.Join(ErrBadGraphFile, err), util.ErrBadParamInput, "load graph from %s", d.dir)
	}
	return g, nil
}

func (d *GraphDirectory) openMMapSegments() (datastructure.DataAccess, datastructure.DataAccess, error) {
	nodes, err := OpenMMapDataAccess(d.path(NODES_FILE_NAME))
	if err != nil {
		return nil, nil, util.WrapErrorf(err, util.ErrNotFound, "open node segment")
	}
	edges, err := OpenMMapDataAccess(d.path(EDGES_FILE_NAME))
	if err != nil {
		nodes.Close()
		return nil, nil, util.WrapErrorf(err, util.ErrNotFound, "open edge segment")
	}
	return nodes, edges, nil
}

func (d *GraphDirectory) readRAMSegments() (datastructure.DataAccess, datastructure.DataAccess, error) {
	nodeBytes, err := os.ReadFile(d.path(NODES_FILE_NAME))
	if err != nil {
		return nil, nil, util.WrapErrorf(err, util.ErrNotFound, "read node segment")
	}
	edgeBytes, err := os.ReadFile(d.path(EDGES_FILE_NAME))
	if err != nil {
		return nil, nil, util.WrapErrorf(err, util.ErrNotFound, "read edge segment")
	}
	return datastructure.NewRAMDataAccessFromBytes(NODES_FILE_NAME, nodeBytes),
		datastructure.NewRAMDataAccessFromBytes(EDGES_FILE_NAME, edgeBytes), nil
}

/*
ExportSnapshot. satu file portable berisi seluruh graph, di compress zstd:

	| header page | node records | edge records |
*/
func ExportSnapshot(g *datastructure.Graph, path string) error {
	nodeBytes := int64(g.NodeCount()) * datastructure.NODE_SIZE
	edgeBytes := int64(g.EdgeCount()) * datastructure.EDGE_SIZE

	raw := make([]byte, 0, HEADER_PAGE_SIZE+nodeBytes+edgeBytes)
	raw = append(raw, encodeHeader(g.NodeCount(), g.EdgeCount()).Contents()...)
	raw = append(raw, g.NodesBacking().Bytes()[:nodeBytes]...)
	raw = append(raw, g.EdgesBacking().Bytes()[:edgeBytes]...)

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "zstd encoder")
	}
	compressed := enc.EncodeAll(raw, make([]byte, 0, len(raw)/4))
	if err := enc.Close(); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "compress snapshot")
	}
	if err := writeFileSync(path, compressed); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "write snapshot %s", path)
	}
	return nil
}

// ImportSnapshot baca snapshot hasil ExportSnapshot ke graph RAM.
func ImportSnapshot(path string) (*datastructure.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrNotFound, "open snapshot %s", path)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, util.WrapErrorf(errors.Join(ErrBadGraphFile, err), util.ErrBadParamInput, "zstd decoder")
	}
	defer dec.Close()

	raw := new(bytes.Buffer)
	if _, err := raw.ReadFrom(dec); err != nil {
		return nil, util.WrapErrorf(errors.Join(ErrBadGraphFile, err), util.ErrBadParamInput, "decompress snapshot")
	}
	b := raw.Bytes()
	h, err := decodeHeader(b)
	if err != nil {
		return nil, err
	}

	nodeEnd := HEADER_PAGE_SIZE + int64(h.nodeCount)*datastructure.NODE_SIZE
	edgeEnd := nodeEnd + int64(h.edgeCount)*datastructure.EDGE_SIZE
	if int64(len(b)) < edgeEnd {
		return nil, util.WrapErrorf(ErrBadGraphFile, util.ErrBadParamInput,
			"snapshot truncated: want %d bytes, got %d", edgeEnd, len(b))
	}

	nodes := datastructure.NewRAMDataAccessFromBytes(NODES_FILE_NAME, append([]byte(nil), b[HEADER_PAGE_SIZE:nodeEnd]...))
	edges := datastructure.NewRAMDataAccessFromBytes(EDGES_FILE_NAME, append([]byte(nil), b[nodeEnd:edgeEnd]...))
	g, err := datastructure.NewGraphFromBacking(nodes, edges, int(h.nodeCount), int(h.edgeCount))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadGraphFile, err)
	}
	return g, nil
}

/*
SaveRanks simpan urutan contraction (rank per node):

	| count int32 | rank node 0 int32 | rank node 1 int32 | ...
*/
func (d *GraphDirectory) SaveRanks(ranks []int32) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "create graph dir %s", d.dir)
	}
	pg := disk.NewPage(4 + 4*len(ranks))
	pg.PutInt(0, int32(len(ranks)))
	for i, r := range ranks {
		pg.PutInt(int32(4+4*i), r)
	}
	if err := writeFileSync(d.path(RANKS_FILE_NAME), pg.Contents()); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "write ranks")
	}
	return nil
}

func (d *GraphDirectory) LoadRanks() ([]int32, error) {
	b, err := os.ReadFile(d.path(RANKS_FILE_NAME))
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrNotFound, "read ranks in %s", d.dir)
	}
	if len(b) < 4 {
		return nil, util.WrapErrorf(ErrBadGraphFile, util.ErrBadParamInput, "ranks file too short")
	}
	pg := disk.NewPageFromByteSlice(b)
	n := pg.GetInt(0)
	if n < 0 || int(n)*4+4 != len(b) {
		return nil, util.WrapErrorf(ErrBadGraphFile, util.ErrBadParamInput, "ranks count %d does not match file size %d", n, len(b))
	}
	ranks := make([]int32, n)
	for i := range ranks {
		ranks[i] = pg.GetInt(int32(4 + 4*i))
	}
	return ranks, nil
}
