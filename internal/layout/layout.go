// Package layout rebuilds the byte layout of structs and of function
// parameter records from their reflected properties.
package layout

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/internal/classify"
	"github.com/skdltmxn/sdkgen/internal/ident"
)

// BaseField is the name of the span holding the base struct.
const BaseField = "base"

// BitfieldField is the backing field name of the first bitfield group.
const BitfieldField = "bitfield"

// SpanKind identifies what a span holds.
type SpanKind uint8

const (
	SpanBase SpanKind = iota
	SpanField
	SpanPadding
	SpanBitfield
)

func (k SpanKind) String() string {
	switch k {
	case SpanBase:
		return "base"
	case SpanField:
		return "field"
	case SpanPadding:
		return "padding"
	case SpanBitfield:
		return "bitfield"
	default:
		return "unknown"
	}
}

// Span is one contiguous byte range of a struct.
type Span struct {
	Kind    SpanKind
	Offset  uint32
	Size    uint32
	Name    string // Emitted identifier
	Type    string // Emitted type, array-wrapped when Dim > 1
	Comment string
	Dim     uint32

	Property graph.Property // Zero for base and padding spans
	Group    *BitfieldGroup // Set for bitfield spans
}

// End returns the offset just past the span.
func (s Span) End() uint32 {
	return s.Offset + s.Size
}

// Bit is one boolean of a bitfield group.
type Bit struct {
	Name     string // Raw property name
	Mask     uint32
	Property graph.Property
}

// BitfieldGroup is a run of booleans sharing one 4-byte backing value.
// Bit i of the backing value belongs to Bits[i].
type BitfieldGroup struct {
	Offset uint32
	Field  string
	Bits   []Bit
}

// Descriptor is the reconstructed layout of one struct or class.
type Descriptor struct {
	Name     string // Emitted type name
	FullName string
	Size     uint32 // Declared size
	BaseSize uint32 // Zero without a base
	Base     string // Emitted name of the base, if any
	Spans    []Span
	Groups   []*BitfieldGroup
}

// RelativeSize returns the bytes the struct adds to its base.
func (d *Descriptor) RelativeSize() uint32 {
	return d.Size - d.BaseSize
}

// Verify checks that the spans cover [0, Size) without gaps or overlaps.
func (d *Descriptor) Verify() error {
	return verifySpans(d.Spans, 0, d.Size)
}

func verifySpans(spans []Span, start, end uint32) error {
	cursor := start
	for _, s := range spans {
		if s.Offset != cursor {
			return fmt.Errorf("%w: span %s at %#x, expected %#x", ErrGap, s.Name, s.Offset, cursor)
		}
		if s.Size == 0 {
			return fmt.Errorf("%w: empty span %s at %#x", ErrGap, s.Name, s.Offset)
		}
		cursor = s.End()
	}
	if cursor != end {
		return fmt.Errorf("%w: spans end at %#x, expected %#x", ErrGap, cursor, end)
	}
	return nil
}

// Reconstructor builds descriptors against one graph.
type Reconstructor struct {
	g          *graph.Graph
	markers    *graph.Markers
	classifier *classify.Classifier
}

// New creates a Reconstructor.
func New(g *graph.Graph, c *classify.Classifier) *Reconstructor {
	return &Reconstructor{g: g, markers: c.Markers(), classifier: c}
}

// entry is a storage property read once from foreign memory.
type entry struct {
	prop   graph.Property
	name   string
	offset uint32
	size   uint32 // element size
	dim    uint32
	isBool bool
	mask   uint32
}

func (e entry) total() uint32 {
	return e.size * e.dim
}

func (r *Reconstructor) read(p graph.Property) (entry, error) {
	e := entry{prop: p}
	var err error

	if e.size, err = p.ElementSize(); err != nil {
		return entry{}, err
	}
	if e.offset, err = p.Offset(); err != nil {
		return entry{}, err
	}
	if e.dim, err = p.ArrayDim(); err != nil {
		return entry{}, err
	}
	if e.name, err = p.Name(); err != nil {
		return entry{}, err
	}
	if r.markers.PropertyKind(p.Object) == graph.PropertyBool {
		e.isBool = true
		if e.mask, err = p.BoolMask(); err != nil {
			return entry{}, err
		}
	}
	return e, nil
}

// compare orders by offset, then by bitmask when both are booleans.
func compare(a, b entry) int {
	if c := cmp.Compare(a.offset, b.offset); c != 0 {
		return c
	}
	if a.isBool && b.isBool {
		return cmp.Compare(a.mask, b.mask)
	}
	return 0
}

// classify classifies e and checks the result against its declared size.
func (r *Reconstructor) classify(e entry) (classify.Info, error) {
	info, err := r.classifier.Classify(e.prop)
	if err != nil {
		return classify.Info{}, err
	}
	if delta := int64(e.total()) - int64(info.Size)*int64(e.dim); delta != 0 {
		return classify.Info{}, &SizeMismatchError{
			Addr:  e.prop.Addr,
			Name:  e.name,
			Delta: delta,
			Info:  info,
		}
	}
	return info, nil
}

// Reconstruct rebuilds the layout of s.
func (r *Reconstructor) Reconstruct(s graph.Struct) (*Descriptor, error) {
	d := &Descriptor{}
	var err error

	if d.Name, err = r.g.ResolveDuplicate(s.Object); err != nil {
		return nil, err
	}
	if d.FullName, err = s.FullName(); err != nil {
		return nil, err
	}
	if d.Size, err = s.Size(); err != nil {
		return nil, err
	}

	names := ident.NewUniquer()

	super, err := s.Super()
	if err != nil {
		return nil, err
	}
	if !super.IsNull() && super.Addr != s.Addr {
		if d.BaseSize, err = super.Size(); err != nil {
			return nil, err
		}
		if d.Base, err = r.g.ResolveDuplicate(super.Object); err != nil {
			return nil, err
		}
		if d.BaseSize > d.Size {
			return nil, fmt.Errorf("%w: base %s is %#x bytes, struct is %#x",
				ErrOverlap, d.Base, d.BaseSize, d.Size)
		}
		if d.BaseSize > 0 {
			d.Spans = append(d.Spans, Span{
				Kind: SpanBase,
				Size: d.BaseSize,
				Name: names.Name(BaseField),
				Type: d.Base,
				Dim:  1,
			})
		}
	}

	entries, err := r.fields(s, d.BaseSize)
	if err != nil {
		return nil, err
	}

	b := builder{r: r, names: names, cursor: d.BaseSize, spans: d.Spans}
	for _, e := range entries {
		if err := b.add(e); err != nil {
			return nil, err
		}
	}
	if b.cursor > d.Size {
		return nil, fmt.Errorf("%w: fields end at %#x past size %#x", ErrOverlap, b.cursor, d.Size)
	}
	b.pad(d.Size)

	d.Spans = b.spans
	d.Groups = b.groups
	return d, nil
}

// fields returns the storage properties of s at or above floor, sorted.
func (r *Reconstructor) fields(s graph.Struct, floor uint32) ([]entry, error) {
	var entries []entry
	for child, err := range s.Children() {
		if err != nil {
			return nil, err
		}
		if r.markers.IsTypeDefinition(child.Object) {
			continue
		}
		e, err := r.read(child)
		if err != nil {
			return nil, err
		}
		if e.size == 0 || e.offset < floor {
			continue
		}
		entries = append(entries, e)
	}
	slices.SortStableFunc(entries, compare)
	return entries, nil
}

// builder walks sorted entries with a cursor, emitting spans.
type builder struct {
	r      *Reconstructor
	names  *ident.Uniquer
	cursor uint32
	spans  []Span
	groups []*BitfieldGroup
	open   *BitfieldGroup // group at the end of spans, if any
}

func (b *builder) pad(upTo uint32) {
	if b.cursor >= upTo {
		return
	}
	size := upTo - b.cursor
	b.spans = append(b.spans, Span{
		Kind:   SpanPadding,
		Offset: b.cursor,
		Size:   size,
		Name:   b.names.Name(fmt.Sprintf("pad_at_%#x", b.cursor)),
		Type:   fmt.Sprintf("[u8; %#x]", size),
		Dim:    1,
	})
	b.cursor = upTo
	b.open = nil
}

func (b *builder) add(e entry) error {
	if e.isBool && b.open != nil && b.open.Offset == e.offset {
		if _, err := b.r.classify(e); err != nil {
			return err
		}
		b.open.Bits = append(b.open.Bits, Bit{Name: e.name, Mask: e.mask, Property: e.prop})
		return nil
	}

	if e.offset < b.cursor {
		return fmt.Errorf("%w: %s at %#x, previous field ends at %#x", ErrOverlap, e.name, e.offset, b.cursor)
	}
	b.pad(e.offset)

	info, err := b.r.classify(e)
	if err != nil {
		return err
	}

	if e.isBool {
		group := &BitfieldGroup{
			Offset: e.offset,
			Field:  b.names.Name(BitfieldField),
			Bits:   []Bit{{Name: e.name, Mask: e.mask, Property: e.prop}},
		}
		b.groups = append(b.groups, group)
		b.spans = append(b.spans, Span{
			Kind:     SpanBitfield,
			Offset:   e.offset,
			Size:     e.total(),
			Name:     group.Field,
			Type:     arrayOf(info.Type, e.dim),
			Dim:      e.dim,
			Property: e.prop,
			Group:    group,
		})
		b.cursor = e.offset + e.total()
		b.open = group
		return nil
	}

	b.spans = append(b.spans, Span{
		Kind:     SpanField,
		Offset:   e.offset,
		Size:     e.total(),
		Name:     b.names.Name(ident.Escape(e.name)),
		Type:     arrayOf(info.Type, e.dim),
		Comment:  info.Comment,
		Dim:      e.dim,
		Property: e.prop,
	})
	b.cursor = e.offset + e.total()
	b.open = nil
	return nil
}

func arrayOf(typ string, dim uint32) string {
	if dim > 1 {
		return fmt.Sprintf("[%s; %d]", typ, dim)
	}
	return typ
}
