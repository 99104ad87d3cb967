package stream

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPtr(t *testing.T) {
	block := make([]byte, 16)
	binary.LittleEndian.PutUint32(block[0:], 0x11223344)
	binary.LittleEndian.PutUint32(block[4:], 0x55667788)
	binary.LittleEndian.PutUint64(block[8:], 0x0102030405060708)

	tests := []struct {
		name        string
		pointerSize int
		want        []uint64
	}{
		{name: "32-bit", pointerSize: 4, want: []uint64{0x11223344, 0x55667788, 0x05060708, 0x01020304}},
		{name: "64-bit", pointerSize: 8, want: []uint64{0x5566778811223344, 0x0102030405060708}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(block, tt.pointerSize)
			var got []uint64
			for r.Remaining() > 0 {
				v, err := r.ReadPtr()
				require.NoError(t, err)
				got = append(got, v)
			}
			assert.Equal(t, tt.want, got)

			_, err := r.ReadPtr()
			assert.ErrorIs(t, err, ErrUnexpectedEOF)
		})
	}
}

func TestReadIntegers(t *testing.T) {
	block := make([]byte, 12)
	binary.LittleEndian.PutUint32(block[0:], 0xDEADBEEF)
	binary.LittleEndian.PutUint64(block[4:], 0x0123456789ABCDEF)

	r := NewReader(block, 4)
	assert.Equal(t, 12, r.Remaining())

	u32, err := r.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	u64, err := r.ReadU64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0123456789ABCDEF), u64)
	assert.Equal(t, 0, r.Remaining())
}

func TestReadShortBlock(t *testing.T) {
	tests := []struct {
		name string
		size int
		read func(r *Reader) error
	}{
		{name: "u32", size: 3, read: func(r *Reader) error { _, err := r.ReadU32(); return err }},
		{name: "u64", size: 7, read: func(r *Reader) error { _, err := r.ReadU64(); return err }},
		{name: "ptr", size: 3, read: func(r *Reader) error { _, err := r.ReadPtr(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(make([]byte, tt.size), 4)
			assert.ErrorIs(t, tt.read(r), ErrUnexpectedEOF)
			assert.Equal(t, tt.size, r.Remaining())
		})
	}
}

func TestReadPtrUnsupportedSize(t *testing.T) {
	r := NewReader(make([]byte, 16), 2)
	_, err := r.ReadPtr()
	assert.ErrorIs(t, err, ErrPointerSize)
	assert.Equal(t, 16, r.Remaining())
}
