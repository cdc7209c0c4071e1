package disk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

const maxDecompressedPageSize = 1 << 20

// Page . menyimpan data satu block page di memori, dipakai untuk header file graph dan header snapshot.
type Page struct {
	bb *bytes.Buffer
}

func NewPage(blockSize int) *Page {
	bb := bytes.NewBuffer(make([]byte, blockSize))
	return &Page{bb}
}

func NewPageFromByteSlice(b []byte) *Page {
	return &Page{bytes.NewBuffer(b)}
}

func (p *Page) Size() int {
	return p.bb.Len()
}

func (p *Page) GetInt(offset int32) int32 {
	return int32(binary.LittleEndian.Uint32(p.bb.Bytes()[offset:]))
}

// PutInt. set int ke byte array page di posisi = offset.
func (p *Page) PutInt(offset int32, val int32) {
	binary.LittleEndian.PutUint32(p.bb.Bytes()[offset:], uint32(val))
}

func (p *Page) GetInt64(offset int32) int64 {
	return int64(binary.LittleEndian.Uint64(p.bb.Bytes()[offset:]))
}

func (p *Page) PutInt64(offset int32, val int64) {
	binary.LittleEndian.PutUint64(p.bb.Bytes()[offset:], uint64(val))
}

// GetBytes. return byte array dari page di posisi = offset. di awal ada panjang bytes nya (4 byte).
func (p *Page) GetBytes(offset int32) ([]byte, error) {
	if int(offset)+4 > p.bb.Len() {
		return nil, fmt.Errorf("offset %d outside page of %d bytes", offset, p.bb.Len())
	}
	length := p.GetInt(offset)
	if length < 0 || int(offset)+4+int(length) > p.bb.Len() {
		return nil, fmt.Errorf("corrupt length %d at offset %d", length, offset)
	}
	b := make([]byte, length)
	copy(b, p.bb.Bytes()[offset+4:offset+4+length])
	return b, nil
}

// PutBytes. set byte array ke page di posisi = offset, page di extend kalau kurang.
func (p *Page) PutBytes(offset int32, b []byte) int {
	if offset+int32(len(b)+4) > int32(p.bb.Len()) {
		padding := make([]byte, offset+int32(len(b)+4)-int32(p.bb.Len()))
		p.bb.Write(padding)
	}
	p.PutInt(offset, int32(len(b)))
	copy(p.bb.Bytes()[offset+4:], b)
	return len(b) + 4
}

func (p *Page) GetString(offset int32) (string, error) {
	b, err := p.GetBytes(offset)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p *Page) PutString(offset int32, s string) int {
	return p.PutBytes(offset, []byte(s))
}

func (p *Page) Contents() []byte {
	return p.bb.Bytes()
}

/*
Compress. isi page di compress pakai zstd, format hasil:

	| compressedSize int32 | zstd frame |
*/
func (p *Page) Compress() error {
	inputBuf := bytes.NewBuffer(append([]byte(nil), p.Contents()...))
	compressed := new(bytes.Buffer)
	encoder, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	_, err = io.Copy(encoder, inputBuf)
	if err != nil {
		encoder.Close()
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	size := make([]byte, 4)
	binary.LittleEndian.PutUint32(size, uint32(compressed.Len()))
	p.bb.Reset()
	p.bb.Write(size)
	p.bb.Write(compressed.Bytes())
	return nil
}

func (p *Page) Decompress() error {
	if p.bb.Len() < 4 {
		return fmt.Errorf("compressed page too short: %d bytes", p.bb.Len())
	}
	compressedSize := int32(binary.LittleEndian.Uint32(p.bb.Bytes()[:4]))
	if compressedSize < 0 || int(compressedSize)+4 > p.bb.Len() {
		return fmt.Errorf("corrupt compressed size %d", compressedSize)
	}
	in := bytes.NewBuffer(p.Contents()[4 : compressedSize+4])
	d, err := zstd.NewReader(in)
	if err != nil {
		return err
	}
	defer d.Close()

	bufOut := new(bytes.Buffer)
	_, err = io.Copy(bufOut, io.LimitReader(d, maxDecompressedPageSize))
	if err != nil {
		return err
	}

	p.bb.Reset()
	p.bb.Write(bufOut.Bytes())
	return nil
}
