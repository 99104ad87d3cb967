// Package stream decodes little-endian records from blocks of foreign
// memory that were fetched in one read.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Errors returned by Reader
var (
	ErrUnexpectedEOF = errors.New("stream: unexpected end of data")
	ErrPointerSize   = errors.New("stream: unsupported pointer size")
)

// Reader is a cursor over a byte block. All multi-byte values are read
// in little-endian order.
type Reader struct {
	data        []byte
	offset      int
	pointerSize int
}

// NewReader creates a Reader from a byte slice. Pointers are pointerSize
// bytes wide.
func NewReader(data []byte, pointerSize int) *Reader {
	return &Reader{data: data, pointerSize: pointerSize}
}

// Remaining returns the number of bytes remaining.
func (r *Reader) Remaining() int {
	if r.offset >= len(r.data) {
		return 0
	}
	return len(r.data) - r.offset
}

// ReadU32 reads an unsigned 32-bit integer.
func (r *Reader) ReadU32() (uint32, error) {
	if r.offset+4 > len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(r.data[r.offset:])
	r.offset += 4
	return v, nil
}

// ReadU64 reads an unsigned 64-bit integer.
func (r *Reader) ReadU64() (uint64, error) {
	if r.offset+8 > len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(r.data[r.offset:])
	r.offset += 8
	return v, nil
}

// ReadPtr reads a pointer of the configured width.
func (r *Reader) ReadPtr() (uint64, error) {
	switch r.pointerSize {
	case 4:
		v, err := r.ReadU32()
		return uint64(v), err
	case 8:
		return r.ReadU64()
	default:
		return 0, fmt.Errorf("%w: %d", ErrPointerSize, r.pointerSize)
	}
}
