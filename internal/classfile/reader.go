package classfile

import (
	"encoding/binary"
)

// BinaryReader reads big-endian values from an in-memory class file and
// tracks the absolute offset for error reporting.
type BinaryReader struct {
	data []byte
	pos  int
	base int // absolute offset of data[0]
}

func NewBinaryReader(data []byte) *BinaryReader {
	return &BinaryReader{data: data}
}

// Offset returns the absolute offset of the next byte.
func (br *BinaryReader) Offset() int {
	return br.base + br.pos
}

func (br *BinaryReader) Remaining() int {
	return len(br.data) - br.pos
}

// ReadNBytes returns the next n bytes without copying.
func (br *BinaryReader) ReadNBytes(n int) ([]byte, error) {
	if n < 0 || n > br.Remaining() {
		return nil, malformed(br.Offset(), "unexpected end of data reading %d bytes (%d left)", n, br.Remaining())
	}
	buf := br.data[br.pos : br.pos+n]
	br.pos += n
	return buf, nil
}

// Sub returns a reader over the next n bytes and advances past them.
// Offsets reported by the sub-reader stay absolute.
func (br *BinaryReader) Sub(n int) (*BinaryReader, error) {
	start := br.Offset()
	buf, err := br.ReadNBytes(n)
	if err != nil {
		return nil, err
	}
	return &BinaryReader{data: buf, base: start}, nil
}

func (br *BinaryReader) ReadU1() (uint8, error) {
	buf, err := br.ReadNBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadU2 reads a 2-byte unsigned integer (big-endian)
func (br *BinaryReader) ReadU2() (uint16, error) {
	buf, err := br.ReadNBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

// ReadU4 reads a 4-byte unsigned integer (big-endian)
func (br *BinaryReader) ReadU4() (uint32, error) {
	buf, err := br.ReadNBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

// ReadU8 reads an 8-byte unsigned integer (big-endian)
func (br *BinaryReader) ReadU8() (uint64, error) {
	buf, err := br.ReadNBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf), nil
}

func (br *BinaryReader) Skip(n int) error {
	_, err := br.ReadNBytes(n)
	return err
}
