package datastructure

import (
	"encoding/binary"
	"math"
)

// DataAccess. backing byte segment untuk arena graph. Bytes() bisa berubah setelah EnsureCapacity
// (resize / remap), jadi jangan simpan slice nya.
type DataAccess interface {
	Bytes() []byte
	EnsureCapacity(bytes int64) error
	Flush() error
	Close() error
	Name() string
}

// RAMDataAccess in-memory segment, tumbuh 2x.
type RAMDataAccess struct {
	name string
	data []byte
}

func NewRAMDataAccess(name string, initialBytes int64) *RAMDataAccess {
	return &RAMDataAccess{name: name, data: make([]byte, initialBytes)}
}

func NewRAMDataAccessFromBytes(name string, data []byte) *RAMDataAccess {
	return &RAMDataAccess{name: name, data: data}
}

func (r *RAMDataAccess) Bytes() []byte {
	return r.data
}

func (r *RAMDataAccess) EnsureCapacity(bytes int64) error {
	if int64(len(r.data)) >= bytes {
		return nil
	}
	newCap := int64(len(r.data)) * 2
	if newCap < bytes {
		newCap = bytes
	}
	grown := make([]byte, newCap)
	copy(grown, r.data)
	r.data = grown
	return nil
}

func (r *RAMDataAccess) Flush() error {
	return nil
}

func (r *RAMDataAccess) Close() error {
	r.data = nil
	return nil
}

func (r *RAMDataAccess) Name() string {
	return r.name
}

func getInt32(b []byte, pos int64) int32 {
	return int32(binary.LittleEndian.Uint32(b[pos:]))
}

func putInt32(b []byte, pos int64, v int32) {
	binary.LittleEndian.PutUint32(b[pos:], uint32(v))
}

func getInt64(b []byte, pos int64) int64 {
	return int64(binary.LittleEndian.Uint64(b[pos:]))
}

func putInt64(b []byte, pos int64, v int64) {
	binary.LittleEndian.PutUint64(b[pos:], uint64(v))
}

func getFloat32(b []byte, pos int64) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[pos:]))
}

func putFloat32(b []byte, pos int64, v float32) {
	binary.LittleEndian.PutUint32(b[pos:], math.Float32bits(v))
}

func getFloat64(b []byte, pos int64) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b[pos:]))
}

func putFloat64(b []byte, pos int64, v float64) {
	binary.LittleEndian.PutUint64(b[pos:], math.Float64bits(v))
}
