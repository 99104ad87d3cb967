package memory

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReader(t *testing.T, base Addr, data []byte, opts ...ReaderOption) *Reader {
	t.Helper()

	img, err := NewImage(BytesRegion(base, data))
	require.NoError(t, err)

	r, err := NewReader(img, opts...)
	require.NoError(t, err)
	return r
}

func TestReaderIntegers(t *testing.T) {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint16(data[0:], 0xBEEF)
	binary.LittleEndian.PutUint32(data[4:], 0xDEADBEEF)
	binary.LittleEndian.PutUint64(data[8:], 0x0123456789ABCDEF)

	for _, pages := range []int{0, 4} {
		r := newTestReader(t, 0x1000, data, WithPageCache(pages))

		v16, err := r.U16(0x1000)
		require.NoError(t, err)
		assert.Equal(t, uint16(0xBEEF), v16)

		v32, err := r.U32(0x1004)
		require.NoError(t, err)
		assert.Equal(t, uint32(0xDEADBEEF), v32)

		v64, err := r.U64(0x1008)
		require.NoError(t, err)
		assert.Equal(t, uint64(0x0123456789ABCDEF), v64)
	}
}

func TestReaderPointerWidth(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, 0x1122334455667788)

	r32 := newTestReader(t, 0x1000, data, WithPointerSize(4))
	p, err := r32.Ptr(0x1000)
	require.NoError(t, err)
	assert.Equal(t, Addr(0x55667788), p)

	r64 := newTestReader(t, 0x1000, data, WithPointerSize(8))
	p, err = r64.Ptr(0x1000)
	require.NoError(t, err)
	assert.Equal(t, Addr(0x1122334455667788), p)

	_, err = NewReader(nil, WithPointerSize(2))
	assert.Error(t, err)
}

func TestReaderNullAndUnmapped(t *testing.T) {
	r := newTestReader(t, 0x1000, make([]byte, PageSize))

	_, err := r.U32(0)
	assert.ErrorIs(t, err, ErrNullPointer)

	_, err = r.U32(0x5000)
	assert.ErrorIs(t, err, ErrUnmapped)
}

func TestReaderPartialPageFallsBack(t *testing.T) {
	// Region ends mid-page, so the page read fails and the reader must
	// fall back to a direct read.
	data := []byte{1, 0, 0, 0, 2, 0, 0, 0}
	r := newTestReader(t, 0x1000, data)

	v, err := r.U32(0x1004)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), v)

	_, err = r.U32(0x1006)
	assert.ErrorIs(t, err, ErrUnmapped)
}

func TestReaderCrossPage(t *testing.T) {
	data := make([]byte, PageSize*2)
	binary.LittleEndian.PutUint32(data[PageSize-2:], 0xCAFEBABE)

	r := newTestReader(t, 0x10000, data)
	v, err := r.U32(0x10000 + PageSize - 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), v)
}

func TestReaderCString(t *testing.T) {
	data := make([]byte, PageSize*2)
	copy(data[PageSize-3:], "Across\x00")
	copy(data[0x10:], "NoTerminator")
	for i := 0x10 + len("NoTerminator"); i < 0x40; i++ {
		data[i] = 'x'
	}

	r := newTestReader(t, 0x10000, data)

	s, err := r.CString(0x10000+PageSize-3, 64)
	require.NoError(t, err)
	assert.Equal(t, "Across", s)

	_, err = r.CString(0x10010, 8)
	assert.ErrorIs(t, err, ErrStringTooLong)
}

func TestReaderUTF16(t *testing.T) {
	text := "Hé!"
	data := make([]byte, 0, 16)
	for _, r := range text {
		data = binary.LittleEndian.AppendUint16(data, uint16(r))
	}
	data = binary.LittleEndian.AppendUint16(data, 0)

	r := newTestReader(t, 0x1000, data)

	s, err := r.UTF16(0x1000, 4)
	require.NoError(t, err)
	assert.Equal(t, text, s)

	s, err = r.UTF16(0x1000, 0)
	require.NoError(t, err)
	assert.Empty(t, s)
}
