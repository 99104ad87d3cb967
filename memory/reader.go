package memory

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/encoding/unicode"
)

// PageSize is the granularity of the read cache.
const PageSize = 0x1000

// DefaultPageCache is the default number of cached pages (16 MiB).
const DefaultPageCache = 4096

type readerOptions struct {
	pointerSize int
	pages       int
}

// ReaderOption configures a Reader.
type ReaderOption func(*readerOptions)

// WithPointerSize sets the pointer width of the foreign process (4 or 8).
func WithPointerSize(n int) ReaderOption {
	return func(o *readerOptions) { o.pointerSize = n }
}

// WithPageCache sets the number of cached pages. Zero disables caching.
func WithPageCache(pages int) ReaderOption {
	return func(o *readerOptions) { o.pages = pages }
}

// Reader decodes little-endian values from a foreign address space.
// Whole pages are cached, since the reflection graph is read many times
// over during a single pass and is assumed not to change.
type Reader struct {
	src         io.ReaderAt
	pointerSize int
	pages       *lru.Cache[Addr, []byte]
}

// NewReader creates a Reader over src.
func NewReader(src io.ReaderAt, opts ...ReaderOption) (*Reader, error) {
	o := readerOptions{pointerSize: 8, pages: DefaultPageCache}
	for _, opt := range opts {
		opt(&o)
	}

	if o.pointerSize != 4 && o.pointerSize != 8 {
		return nil, fmt.Errorf("memory: unsupported pointer size %d", o.pointerSize)
	}

	r := &Reader{src: src, pointerSize: o.pointerSize}
	if o.pages > 0 {
		cache, err := lru.New[Addr, []byte](o.pages)
		if err != nil {
			return nil, fmt.Errorf("memory: failed to create page cache: %w", err)
		}
		r.pages = cache
	}
	return r, nil
}

// PointerSize returns the pointer width in bytes.
func (r *Reader) PointerSize() int {
	return r.pointerSize
}

// Read fills p with the bytes at addr.
func (r *Reader) Read(addr Addr, p []byte) error {
	if addr.IsNull() {
		return &FaultError{Addr: addr, Size: len(p), Err: ErrNullPointer}
	}
	if r.pages == nil {
		return r.direct(addr, p)
	}

	for len(p) > 0 {
		base := addr &^ (PageSize - 1)
		data, err := r.page(base)
		if err != nil {
			// Page straddles the end of a mapping.
			return r.direct(addr, p)
		}
		n := copy(p, data[addr-base:])
		p = p[n:]
		addr += Addr(n)
	}
	return nil
}

func (r *Reader) page(base Addr) ([]byte, error) {
	if data, ok := r.pages.Get(base); ok {
		return data, nil
	}

	data := make([]byte, PageSize)
	if _, err := r.src.ReadAt(data, int64(base)); err != nil {
		return nil, err
	}
	r.pages.Add(base, data)
	return data, nil
}

func (r *Reader) direct(addr Addr, p []byte) error {
	n, err := r.src.ReadAt(p, int64(addr))
	if err != nil {
		var fe *FaultError
		if errors.As(err, &fe) {
			return err
		}
		if err == io.EOF && n == len(p) {
			return nil
		}
		return &FaultError{Addr: addr + Addr(n), Size: len(p) - n, Err: err}
	}
	if n < len(p) {
		return &FaultError{Addr: addr + Addr(n), Size: len(p) - n, Err: ErrUnmapped}
	}
	return nil
}

// U8 reads an unsigned 8-bit integer.
func (r *Reader) U8(addr Addr) (uint8, error) {
	var b [1]byte
	if err := r.Read(addr, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads an unsigned 16-bit integer.
func (r *Reader) U16(addr Addr) (uint16, error) {
	var b [2]byte
	if err := r.Read(addr, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// U32 reads an unsigned 32-bit integer.
func (r *Reader) U32(addr Addr) (uint32, error) {
	var b [4]byte
	if err := r.Read(addr, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// U64 reads an unsigned 64-bit integer.
func (r *Reader) U64(addr Addr) (uint64, error) {
	var b [8]byte
	if err := r.Read(addr, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Ptr reads a pointer of the configured width.
func (r *Reader) Ptr(addr Addr) (Addr, error) {
	if r.pointerSize == 4 {
		v, err := r.U32(addr)
		return Addr(v), err
	}
	v, err := r.U64(addr)
	return Addr(v), err
}

// CString reads a NUL-terminated string of at most max bytes.
func (r *Reader) CString(addr Addr, max int) (string, error) {
	var buf []byte
	start := addr

	for len(buf) < max {
		chunk := int(PageSize - uint64(addr)%PageSize)
		if chunk > max-len(buf) {
			chunk = max - len(buf)
		}

		b := make([]byte, chunk)
		if err := r.Read(addr, b); err != nil {
			// The mapping may end right after the terminator.
			return r.cstringSlow(start, buf, addr, max)
		}
		if i := bytes.IndexByte(b, 0); i >= 0 {
			return string(append(buf, b[:i]...)), nil
		}

		buf = append(buf, b...)
		addr += Addr(chunk)
	}

	return "", &FaultError{Addr: start, Size: max, Err: ErrStringTooLong}
}

func (r *Reader) cstringSlow(start Addr, buf []byte, addr Addr, max int) (string, error) {
	for len(buf) < max {
		c, err := r.U8(addr)
		if err != nil {
			return "", err
		}
		if c == 0 {
			return string(buf), nil
		}
		buf = append(buf, c)
		addr++
	}
	return "", &FaultError{Addr: start, Size: max, Err: ErrStringTooLong}
}

// UTF16 reads units little-endian UTF-16 code units and decodes them,
// dropping anything from the first NUL on.
func (r *Reader) UTF16(addr Addr, units int) (string, error) {
	if units <= 0 {
		return "", nil
	}

	raw := make([]byte, units*2)
	if err := r.Read(addr, raw); err != nil {
		return "", err
	}

	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	text, err := dec.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("memory: invalid UTF-16 at %s: %w", addr, err)
	}

	s := string(text)
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s, nil
}
