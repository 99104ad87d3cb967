package layout

import (
	"fmt"
	"slices"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/internal/ident"
)

// Locals of an emitted wrapper body that parameters must not shadow.
var wrapperLocals = []string{"p", "function", "old_flags"}

// Direction tells whether a parameter is passed in or read back.
type Direction uint8

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// Param is one parameter of a function.
type Param struct {
	Name      string // Emitted identifier
	Type      string // Type in the wrapper signature
	Slot      string // Type of the field in the parameter record
	Comment   string
	Direction Direction
	Return    bool // Holds the return value
	IsBool    bool // Passed as bool, stored as a u32 slot
	Offset    uint32
	Size      uint32
	Property  graph.Property
}

// ParamBlock is the parameter record of one function.
type ParamBlock struct {
	Params []Param
	Spans  []Span // Record layout in offset order, padding included
	Size   uint32 // Bytes covered by the spans
}

// Inputs returns the parameters passed in, in record order.
func (b *ParamBlock) Inputs() []Param {
	return b.filter(In)
}

// Outputs returns the parameters read back, in record order.
func (b *ParamBlock) Outputs() []Param {
	return b.filter(Out)
}

func (b *ParamBlock) filter(d Direction) []Param {
	var ps []Param
	for _, p := range b.Params {
		if p.Direction == d {
			ps = append(ps, p)
		}
	}
	return ps
}

// Verify checks that the spans cover the record without gaps.
func (b *ParamBlock) Verify() error {
	return verifySpans(b.Spans, 0, b.Size)
}

// Parameters lays out the parameter record of fn. Children flagged as
// parameters are kept; out and return parameters are outputs.
func (r *Reconstructor) Parameters(fn graph.Function) (*ParamBlock, error) {
	var entries []entry
	var flags []graph.PropertyFlags

	for child, err := range fn.Children() {
		if err != nil {
			return nil, err
		}
		if r.markers.IsTypeDefinition(child.Object) {
			continue
		}
		f, err := child.Flags()
		if err != nil {
			return nil, err
		}
		if !f.IsParam() && !f.IsOut() && !f.IsReturn() {
			continue
		}
		e, err := r.read(child)
		if err != nil {
			return nil, err
		}
		if e.size == 0 {
			continue
		}
		entries = append(entries, e)
		flags = append(flags, f)
	}

	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return compare(entries[a], entries[b])
	})

	names := ident.NewUniquer()
	for _, local := range wrapperLocals {
		names.Name(local)
	}

	block := &ParamBlock{}
	cursor := uint32(0)

	for _, i := range order {
		e, f := entries[i], flags[i]

		if e.offset < cursor {
			return nil, fmt.Errorf("%w: parameter %s at %#x, previous ends at %#x",
				ErrOverlap, e.name, e.offset, cursor)
		}
		if e.offset > cursor {
			size := e.offset - cursor
			block.Spans = append(block.Spans, Span{
				Kind:   SpanPadding,
				Offset: cursor,
				Size:   size,
				Name:   names.Name(fmt.Sprintf("pad_at_%#x", cursor)),
				Type:   fmt.Sprintf("[u8; %#x]", size),
				Dim:    1,
			})
		}

		info, err := r.classify(e)
		if err != nil {
			return nil, err
		}

		p := Param{
			Name:     names.Name(ident.Escape(e.name)),
			Type:     arrayOf(info.Type, e.dim),
			Slot:     arrayOf(info.Type, e.dim),
			Comment:  info.Comment,
			Return:   f.IsReturn(),
			Offset:   e.offset,
			Size:     e.total(),
			Property: e.prop,
		}
		if f.IsOut() || f.IsReturn() {
			p.Direction = Out
		}
		if info.Kind == graph.PropertyBool && e.dim == 1 {
			p.IsBool = true
			p.Type = "bool"
		}

		block.Params = append(block.Params, p)
		block.Spans = append(block.Spans, Span{
			Kind:     SpanField,
			Offset:   e.offset,
			Size:     e.total(),
			Name:     p.Name,
			Type:     p.Slot,
			Comment:  p.Comment,
			Dim:      e.dim,
			Property: e.prop,
		})
		cursor = e.offset + e.total()
	}

	block.Size = cursor
	return block, nil
}
