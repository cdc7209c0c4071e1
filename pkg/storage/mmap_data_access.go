//go:build unix

package storage

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MMapDataAccess segment graph yang di map langsung dari file. Bytes() berubah setelah remap.
type MMapDataAccess struct {
	name string
	f    *os.File
	data []byte
}

// NewMMapDataAccess buat (atau truncate) file segment lalu map dengan ukuran awal initialBytes.
func NewMMapDataAccess(path string, initialBytes int64) (*MMapDataAccess, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open segment %s: %w", path, err)
	}
	m := &MMapDataAccess{name: path, f: f}
	if err := m.remap(roundToPage(max(initialBytes, INITIAL_SEGMENT_SIZE))); err != nil {
		f.Close()
		return nil, err
	}
	return m, nil
}

// OpenMMapDataAccess map file segment yang sudah ada.
func OpenMMapDataAccess(path string) (*MMapDataAccess, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open segment %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	m := &MMapDataAccess{name: path, f: f}
	size := info.Size()
	if size == 0 {
		size = INITIAL_SEGMENT_SIZE
	}
	if err := m.remap(roundToPage(size)); err != nil {
		f.Close()
		return nil, err
	}
	return m, nil
}

func roundToPage(size int64) int64 {
	pageSize := int64(os.Getpagesize())
	return (size + pageSize - 1) / pageSize * pageSize
}

func (m *MMapDataAccess) remap(size int64) error {
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			return fmt.Errorf("munmap %s: %w", m.name, err)
		}
		m.data = nil
	}
	if err := m.f.Truncate(size); err != nil {
		return fmt.Errorf("truncate %s to %d: %w", m.name, size, err)
	}
	data, err := unix.Mmap(int(m.f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap %s: %w", m.name, err)
	}
	m.data = data
	return nil
}

func (m *MMapDataAccess) Bytes() []byte {
	return m.data
}

func (m *MMapDataAccess) EnsureCapacity(bytes int64) error {
	if int64(len(m.data)) >= bytes {
		return nil
	}
	newSize := int64(len(m.data)) * 2
	if newSize < bytes {
		newSize = bytes
	}
	if err := m.Flush(); err != nil {
		return err
	}
	return m.remap(roundToPage(newSize))
}

func (m *MMapDataAccess) Flush() error {
	if m.data == nil {
		return nil
	}
	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("msync %s: %w", m.name, err)
	}
	return nil
}

func (m *MMapDataAccess) Close() error {
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			return fmt.Errorf("munmap %s: %w", m.name, err)
		}
		m.data = nil
	}
	return m.f.Close()
}

func (m *MMapDataAccess) Name() string {
	return m.name
}
