package memory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageReadAcrossAdjacentRegions(t *testing.T) {
	img, err := NewImage(
		BytesRegion(0x2000, []byte{5, 6, 7, 8}),
		BytesRegion(0x1ffc, []byte{1, 2, 3, 4}),
	)
	require.NoError(t, err)

	buf := make([]byte, 8)
	n, err := img.ReadAt(buf, 0x1ffc)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf)
}

func TestImageReadGap(t *testing.T) {
	img, err := NewImage(
		BytesRegion(0x1000, []byte{1, 2}),
		BytesRegion(0x1004, []byte{3, 4}),
	)
	require.NoError(t, err)

	buf := make([]byte, 6)
	n, err := img.ReadAt(buf, 0x1000)
	assert.Equal(t, 2, n)

	var fe *FaultError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, Addr(0x1002), fe.Addr)
	assert.ErrorIs(t, err, ErrUnmapped)
}

func TestImageOverlap(t *testing.T) {
	_, err := NewImage(
		BytesRegion(0x1000, make([]byte, 0x10)),
		BytesRegion(0x1008, make([]byte, 0x10)),
	)
	assert.ErrorIs(t, err, ErrOverlappingRegions)
}

func TestParseRegionSpec(t *testing.T) {
	tests := []struct {
		spec    string
		path    string
		base    Addr
		wantErr bool
	}{
		{spec: "dump.bin@0x400000", path: "dump.bin", base: 0x400000},
		{spec: "/tmp/a@b.bin@4096", path: "/tmp/a@b.bin", base: 4096},
		{spec: "dump.bin", wantErr: true},
		{spec: "dump.bin@", wantErr: true},
		{spec: "@0x10", wantErr: true},
		{spec: "dump.bin@zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			path, base, err := ParseRegionSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.base, base)
		})
	}
}

func TestOpenImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "region.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello\x00"), 0o600))

	img, err := OpenImage([]string{path + "@0x10000"})
	require.NoError(t, err)
	defer img.Close()

	r, err := NewReader(img, WithPointerSize(4))
	require.NoError(t, err)

	s, err := r.CString(0x10000, 64)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestOpenImageMissingFile(t *testing.T) {
	_, err := OpenImage([]string{filepath.Join(t.TempDir(), "nope.bin") + "@0x1000"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
