package sdk

import (
	"fmt"
	"strings"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/internal/emit"
	"github.com/skdltmxn/sdkgen/internal/ident"
	"github.com/skdltmxn/sdkgen/internal/layout"
)

// DispatchMethod is the runtime entry point every wrapper calls.
const DispatchMethod = "process_event"

// method is one function of a class, read and laid out.
type method struct {
	name     string
	fullName string
	native   bool
	params   *layout.ParamBlock
}

// methods reads the functions declared directly on s. Names are unique
// within the class and never shadow its bitfield accessors.
func (gen *Generator) methods(s graph.Struct, st *structure) ([]method, error) {
	names := ident.NewUniquer()
	names.Name(DispatchMethod)
	for _, a := range st.accessors {
		names.Name(a.Getter)
		names.Name(a.Setter)
	}

	var ms []method
	for child, err := range s.Children() {
		if err != nil {
			return nil, err
		}
		if gen.markers.Kind(child.Object) != graph.KindFunction {
			continue
		}

		fn := child.AsFunction()
		m, err := gen.method(fn)
		if err != nil {
			return nil, err
		}
		m.name = names.Name(m.name)
		ms = append(ms, m)
	}
	return ms, nil
}

func (gen *Generator) method(fn graph.Function) (method, error) {
	var m method

	name, err := fn.Name()
	if err != nil {
		return m, err
	}
	m.name = ident.Escape(name)

	if m.fullName, err = fn.FullName(); err != nil {
		return m, err
	}
	flags, err := fn.Flags()
	if err != nil {
		return m, err
	}
	m.native = flags.IsNative()

	if m.params, err = gen.layouts.Parameters(fn); err != nil {
		return m, err
	}
	if err := m.params.Verify(); err != nil {
		return m, err
	}
	return m, nil
}

// writeMethods writes one wrapper per function of the class. A class
// without functions gets no impl block.
func (gen *Generator) writeMethods(w *emit.Writer, s graph.Struct, st *structure) error {
	ms, err := gen.methods(s, st)
	if err != nil {
		return err
	}
	if len(ms) == 0 {
		return nil
	}

	return w.Scope(emit.Impl(st.Name), func() error {
		for i, m := range ms {
			if i > 0 {
				w.Line("")
			}
			writeWrapper(w, m)
		}
		return nil
	})
}

// returnType is the wrapper's result: none, one value, or a tuple.
func returnType(outs []layout.Param) string {
	switch len(outs) {
	case 0:
		return ""
	case 1:
		return "Option<" + outs[0].Type + ">"
	}
	types := make([]string, len(outs))
	for i, p := range outs {
		types[i] = p.Type
	}
	return "Option<(" + strings.Join(types, ", ") + ")>"
}

func readBack(p layout.Param) string {
	v := "p." + p.Name + ".assume_init()"
	if p.IsBool {
		v += " != 0"
	}
	return v
}

func returnValue(outs []layout.Param) string {
	if len(outs) == 1 {
		return "Some(" + readBack(outs[0]) + ")"
	}
	values := make([]string, len(outs))
	for i, p := range outs {
		values[i] = readBack(p)
	}
	return "Some((" + strings.Join(values, ", ") + "))"
}

func writeWrapper(w *emit.Writer, m method) {
	ins, outs := m.params.Inputs(), m.params.Outputs()

	params := make(map[string]layout.Param, len(m.params.Params))
	for _, p := range m.params.Params {
		params[p.Name] = p
	}

	args := []emit.Arg{emit.Receiver("&mut self")}
	for _, p := range ins {
		args = append(args, emit.Arg{Name: p.Name, Type: p.Type})
	}

	fn := w.Open(emit.Func(emit.Signature{
		Vis:        emit.Public,
		Qualifiers: "unsafe ",
		Name:       m.name,
		Args:       args,
		Ret:        returnType(outs),
	}))
	defer fn.Close()

	w.Line("static mut FUNCTION: Option<*mut game::Function> = None;")
	w.Line("")

	cond := w.Open(emit.If("if let Some(function) = FUNCTION"))

	w.Line("#[repr(C)]")
	record := w.Open(emit.Struct(emit.Private, "Parameters"))
	for _, span := range m.params.Spans {
		p, ok := params[span.Name]
		switch {
		case !ok:
			w.Field(span.Name, span.Type)
		case p.Direction == layout.Out:
			w.Field(p.Name, "MaybeUninit<"+p.Slot+">")
		default:
			w.Field(p.Name, p.Slot)
		}
	}
	record.Close()
	w.Line("")

	init := w.Open(emit.Block("let mut p = Parameters", ";"))
	for _, span := range m.params.Spans {
		p, ok := params[span.Name]
		switch {
		case !ok:
			w.Field(span.Name, fmt.Sprintf("[0; %#x]", span.Size))
		case p.Direction == layout.Out:
			w.Field(p.Name, "MaybeUninit::uninit()")
		case p.IsBool:
			w.Field(p.Name, p.Name+" as u32")
		default:
			w.Line(p.Name + ",")
		}
	}
	init.Close()
	w.Line("")

	w.Line("let old_flags = (*function).flags;")
	if m.native {
		w.Linef("(*function).flags |= %#x;", uint32(graph.FuncNative))
	}
	w.Line("")
	w.Linef("self.%s(function, &mut p as *mut Parameters as *mut _);", DispatchMethod)
	w.Line("")
	w.Line("(*function).flags = old_flags;")
	if len(outs) > 0 {
		w.Line("")
		w.Line(returnValue(outs))
	}

	cond.Else("else")
	w.Line("FUNCTION = (*GLOBAL_OBJECTS)")
	w.Indent()
	w.Linef(".find_mut(%q)", m.fullName)
	w.Line(".map(|o| o.cast());")
	w.Undent()
	if len(outs) > 0 {
		w.Line("")
		w.Line("None")
	}
	cond.Close()
}
