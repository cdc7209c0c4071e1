package kv

import (
	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

type kvNode struct {
	ID  int32
	Lat float64
	Lon float64
}

type kvTurnCost struct {
	Via   int32
	Flags uint8
}

func encodeNodes(nodes []kvNode) ([]byte, error) {
	bb, err := binary.Marshal(nodes)
	if err != nil {
		return nil, err
	}
	// blok node satu way selalu dibaca utuh, jadi cukup satu frame zstd per value
	return zstd.CompressLevel(nil, bb, zstd.DefaultCompression)
}

func loadNodes(value []byte) ([]kvNode, error) {
	bb, err := zstd.Decompress(nil, value)
	if err != nil {
		return nil, err
	}
	var nodes []kvNode
	err = binary.Unmarshal(bb, &nodes)
	return nodes, err
}

func encodeTurnCost(tc kvTurnCost) ([]byte, error) {
	return binary.Marshal(tc)
}

func decodeTurnCost(bb []byte) (kvTurnCost, error) {
	var tc kvTurnCost
	err := binary.Unmarshal(bb, &tc)
	return tc, err
}
