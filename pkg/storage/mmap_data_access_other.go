//go:build !unix

package storage

import "errors"

var errMMapUnsupported = errors.New("mmap backing not supported on this platform")

// MMapDataAccess tidak tersedia di platform non-unix, pakai mode RAM.
type MMapDataAccess struct{}

func NewMMapDataAccess(path string, initialBytes int64) (*MMapDataAccess, error) {
	return nil, errMMapUnsupported
}

func OpenMMapDataAccess(path string) (*MMapDataAccess, error) {
	return nil, errMMapUnsupported
}

func (m *MMapDataAccess) Bytes() []byte                    { return nil }
func (m *MMapDataAccess) EnsureCapacity(bytes int64) error { return errMMapUnsupported }
func (m *MMapDataAccess) Flush() error                     { return nil }
func (m *MMapDataAccess) Close() error                     { return nil }
func (m *MMapDataAccess) Name() string                     { return "" }
