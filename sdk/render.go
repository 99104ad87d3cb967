package sdk

import (
	"fmt"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/internal/bitfield"
	"github.com/skdltmxn/sdkgen/internal/emit"
	"github.com/skdltmxn/sdkgen/internal/layout"
)

// RootObject is the struct whose Deref target is the runtime's own
// object type.
const RootObject = "Object"

func (gen *Generator) writeConst(w *emit.Writer, c graph.Const) error {
	name, err := c.Name()
	if err != nil {
		return err
	}
	outer, err := constOuter(c)
	if err != nil {
		return err
	}
	value, err := c.Value()
	if err != nil {
		return err
	}

	w.Linef("// %s_%s = %s", outer, name, value)
	w.Line("")
	return nil
}

// constOuter returns the bare name of the object enclosing c.
func constOuter(c graph.Const) (string, error) {
	i := 0
	for o, err := range c.Outers() {
		if err != nil {
			return "", err
		}
		if i == 1 {
			return o.Name()
		}
		i++
	}
	return "", fmt.Errorf("%w: %s", ErrConstOuter, c.Addr)
}

func (gen *Generator) writeEnum(w *emit.Writer, e graph.Enum) (bool, error) {
	d, err := gen.enums.Normalize(e)
	if err != nil {
		return false, err
	}
	if d == nil {
		return false, nil
	}

	w.Line("#[repr(u8)]")
	g := w.Open(emit.Enum(emit.Public, d.Name))
	for _, v := range d.Variants {
		w.Variant(v)
	}
	return true, g.Close()
}

// structure is a reconstructed struct together with its accessors.
type structure struct {
	*layout.Descriptor
	accessors []bitfield.Accessor
}

func (s *structure) base() (layout.Span, bool) {
	if len(s.Spans) > 0 && s.Spans[0].Kind == layout.SpanBase {
		return s.Spans[0], true
	}
	return layout.Span{}, false
}

func (gen *Generator) reconstruct(s graph.Struct) (*structure, error) {
	d, err := gen.layouts.Reconstruct(s)
	if err != nil {
		return nil, err
	}
	if err := d.Verify(); err != nil {
		return nil, err
	}
	accessors, err := bitfield.Synthesize(d.Groups)
	if err != nil {
		return nil, err
	}
	return &structure{Descriptor: d, accessors: accessors}, nil
}

func (gen *Generator) writeStruct(w *emit.Writer, s graph.Struct) (*structure, error) {
	st, err := gen.reconstruct(s)
	if err != nil {
		return nil, err
	}

	if _, ok := st.base(); ok {
		w.Linef("// %s, %#x (%#x - %#x)", st.FullName, st.RelativeSize(), st.Size, st.BaseSize)
	} else {
		w.Linef("// %s, %#x", st.FullName, st.Size)
	}
	w.Line("#[repr(C)]")

	err = w.Scope(emit.Struct(emit.Public, st.Name), func() error {
		for _, span := range st.Spans {
			writeSpan(w, span)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := writeAccessors(w, st); err != nil {
		return nil, err
	}
	if err := writeDeref(w, st); err != nil {
		return nil, err
	}
	return st, w.Err()
}

func writeSpan(w *emit.Writer, span layout.Span) {
	w.Line("")
	w.Linef("// %#x(%#x)", span.Offset, span.Size)

	switch span.Kind {
	case layout.SpanBase, layout.SpanPadding:
		w.Field(span.Name, span.Type)
	default:
		if span.Comment != "" {
			w.Linef("pub %s: %s, // %s", span.Name, span.Type, span.Comment)
		} else {
			w.Field("pub "+span.Name, span.Type)
		}
	}
}

func writeAccessors(w *emit.Writer, st *structure) error {
	if len(st.accessors) == 0 {
		return nil
	}

	return w.Scope(emit.Impl(st.Name), func() error {
		for i, a := range st.accessors {
			if i > 0 {
				w.Line("")
			}

			get := w.Open(emit.Func(emit.Signature{
				Vis:  emit.Public,
				Name: a.Getter,
				Args: []emit.Arg{emit.Receiver("&self")},
				Ret:  "bool",
			}))
			w.Linef("(self.%s >> %d) & 1 == 1", a.Backing, a.Bit)
			get.Close()

			w.Line("")

			set := w.Open(emit.Func(emit.Signature{
				Vis:  emit.Public,
				Name: a.Setter,
				Args: []emit.Arg{emit.Receiver("&mut self"), {Name: "value", Type: "bool"}},
			}))
			cond := w.Open(emit.If("if value"))
			w.Linef("self.%s |= 1 << %d;", a.Backing, a.Bit)
			cond.Else("else")
			w.Linef("self.%s &= !(1 << %d);", a.Backing, a.Bit)
			cond.Close()
			set.Close()
		}
		return nil
	})
}

// writeDeref lets a struct be used as its base. The root object struct
// derefs to the runtime's object type instead.
func writeDeref(w *emit.Writer, st *structure) error {
	var target, get, getMut string
	if base, ok := st.base(); ok {
		target = base.Type
		get = "&self." + base.Name
		getMut = "&mut self." + base.Name
	} else if st.Name == RootObject {
		target = "game::Object"
		get = "unsafe { &*(self as *const Self as *const Self::Target) }"
		getMut = "unsafe { &mut *(self as *mut Self as *mut Self::Target) }"
	} else {
		return nil
	}

	err := w.Scope(emit.ImplTrait("Deref", st.Name), func() error {
		w.Linef("type Target = %s;", target)
		w.Line("")
		fn := w.Open(emit.Func(emit.Signature{
			Name: "deref",
			Args: []emit.Arg{emit.Receiver("&self")},
			Ret:  "&Self::Target",
		}))
		w.Line(get)
		return fn.Close()
	})
	if err != nil {
		return err
	}

	return w.Scope(emit.ImplTrait("DerefMut", st.Name), func() error {
		fn := w.Open(emit.Func(emit.Signature{
			Name: "deref_mut",
			Args: []emit.Arg{emit.Receiver("&mut self")},
			Ret:  "&mut Self::Target",
		}))
		w.Line(getMut)
		return fn.Close()
	})
}

func (gen *Generator) writeClass(w *emit.Writer, s graph.Struct) error {
	st, err := gen.writeStruct(w, s)
	if err != nil {
		return err
	}
	return gen.writeMethods(w, s, st)
}
