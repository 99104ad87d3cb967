// Package memory provides read-only access to the address space of a
// foreign process, either live or captured as raw image files.
package memory

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Addr is an address in the foreign address space.
type Addr uint64

func (a Addr) String() string {
	return fmt.Sprintf("%#x", uint64(a))
}

// IsNull reports whether the address is zero.
func (a Addr) IsNull() bool {
	return a == 0
}

// Add returns the address advanced by off bytes.
func (a Addr) Add(off uint32) Addr {
	return a + Addr(off)
}

// Source is random access to a foreign address space, where the
// io.ReaderAt offset is the foreign address.
type Source interface {
	io.ReaderAt
	io.Closer
}

// Region is a contiguous range of foreign memory backed by local data.
type Region struct {
	Base Addr
	Size int64

	data   io.ReaderAt
	closer io.Closer // may be nil if data doesn't need closing
}

// End returns the first address past the region.
func (r Region) End() Addr {
	return r.Base + Addr(r.Size)
}

// Contains reports whether addr lies inside the region.
func (r Region) Contains(addr Addr) bool {
	return addr >= r.Base && addr < r.End()
}

// BytesRegion maps data at base.
func BytesRegion(base Addr, data []byte) Region {
	return Region{
		Base: base,
		Size: int64(len(data)),
		data: byteReader(data),
	}
}

// FileRegion maps the contents of a raw memory dump file at base.
func FileRegion(base Addr, path string) (Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return Region{}, fmt.Errorf("memory: failed to open image: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return Region{}, fmt.Errorf("memory: failed to stat image: %w", err)
	}

	return Region{
		Base:   base,
		Size:   stat.Size(),
		data:   f,
		closer: f,
	}, nil
}

// ParseRegionSpec parses "path@0xbase" into its parts.
func ParseRegionSpec(spec string) (string, Addr, error) {
	i := strings.LastIndex(spec, "@")
	if i <= 0 || i == len(spec)-1 {
		return "", 0, fmt.Errorf("memory: invalid region %q, want path@base", spec)
	}

	base, err := strconv.ParseUint(spec[i+1:], 0, 64)
	if err != nil {
		return "", 0, fmt.Errorf("memory: invalid base in %q: %w", spec, err)
	}

	return spec[:i], Addr(base), nil
}

type byteReader []byte

func (b byteReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Image is a foreign address space assembled from non-overlapping regions.
// Reads may span adjacent regions; any gap is reported as unmapped.
type Image struct {
	regions []Region
}

// NewImage creates an Image from the given regions.
func NewImage(regions ...Region) (*Image, error) {
	sorted := slices.Clone(regions)
	slices.SortFunc(sorted, func(a, b Region) int {
		switch {
		case a.Base < b.Base:
			return -1
		case a.Base > b.Base:
			return 1
		}
		return 0
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Base < sorted[i-1].End() {
			return nil, fmt.Errorf("%w: %s and %s", ErrOverlappingRegions, sorted[i-1].Base, sorted[i].Base)
		}
	}

	return &Image{regions: sorted}, nil
}

// OpenImage maps every "path@base" spec into one Image.
func OpenImage(specs []string) (*Image, error) {
	regions := make([]Region, 0, len(specs))
	closeAll := func() {
		for _, r := range regions {
			if r.closer != nil {
				r.closer.Close()
			}
		}
	}

	for _, spec := range specs {
		path, base, err := ParseRegionSpec(spec)
		if err != nil {
			closeAll()
			return nil, err
		}
		region, err := FileRegion(base, path)
		if err != nil {
			closeAll()
			return nil, err
		}
		regions = append(regions, region)
	}

	img, err := NewImage(regions...)
	if err != nil {
		closeAll()
		return nil, err
	}
	return img, nil
}

// Regions returns the mapped regions ordered by base address.
func (m *Image) Regions() []Region {
	return m.regions
}

func (m *Image) find(addr Addr) (Region, bool) {
	i, found := slices.BinarySearchFunc(m.regions, addr, func(r Region, a Addr) int {
		switch {
		case r.End() <= a:
			return -1
		case r.Base > a:
			return 1
		}
		return 0
	})
	if !found {
		return Region{}, false
	}
	return m.regions[i], true
}

// ReadAt implements io.ReaderAt over foreign addresses. It reads across
// region boundaries transparently as long as the regions are adjacent.
func (m *Image) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, &FaultError{Addr: Addr(off), Size: len(p), Err: ErrUnmapped}
	}

	addr := Addr(off)
	total := 0

	for len(p) > 0 {
		region, ok := m.find(addr)
		if !ok {
			return total, &FaultError{Addr: addr, Size: len(p), Err: ErrUnmapped}
		}

		toRead := int64(len(p))
		if remaining := int64(region.End() - addr); toRead > remaining {
			toRead = remaining
		}

		n, err := region.data.ReadAt(p[:toRead], int64(addr-region.Base))
		total += n
		p = p[n:]
		addr += Addr(n)

		if err != nil && (err != io.EOF || int64(n) < toRead) {
			return total, &FaultError{Addr: addr, Size: len(p), Err: err}
		}
	}

	return total, nil
}

// Close releases every file backing the image.
func (m *Image) Close() error {
	var first error
	for _, r := range m.regions {
		if r.closer == nil {
			continue
		}
		if err := r.closer.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
