package storage

const (
	DB_DIR = "roadrouter-graphdb"

	HEADER_FILE_NAME = "graph.header"
	NODES_FILE_NAME  = "graph.nodes"
	EDGES_FILE_NAME  = "graph.edges"

	SNAPSHOT_FILE_NAME = "graph.snapshot.zst"
	RANKS_FILE_NAME    = "graph.ranks"

	GRAPH_MAGIC   = "roadrouter-graph"
	GRAPH_VERSION = 1

	HEADER_PAGE_SIZE = 64

	// ukuran awal file segment mmap, dibulatkan ke page size os.
	INITIAL_SEGMENT_SIZE = 1 << 16
)
