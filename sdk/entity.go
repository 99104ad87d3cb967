package sdk

import (
	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/internal/layout"
)

// Entity is the reconstructed model of one object, independent of the
// emitted source.
type Entity struct {
	Addr     string `json:"addr"`
	Index    uint32 `json:"index"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`

	Size     uint32 `json:"size,omitempty"`
	Base     string `json:"base,omitempty"`
	BaseSize uint32 `json:"base_size,omitempty"`

	Fields    []Field    `json:"fields,omitempty"`
	Accessors []Accessor `json:"accessors,omitempty"`
	Methods   []Method   `json:"methods,omitempty"`

	Prefix   string   `json:"prefix,omitempty"`
	Variants []string `json:"variants,omitempty"`

	Value string `json:"value,omitempty"`

	// Params is set for functions.
	Params []Param `json:"params,omitempty"`
	Native bool    `json:"native,omitempty"`
}

// Field is one span of a struct layout.
type Field struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Offset  uint32 `json:"offset"`
	Size    uint32 `json:"size"`
	Comment string `json:"comment,omitempty"`
}

// Accessor is one boolean of a bitfield group.
type Accessor struct {
	Property string `json:"property"`
	Getter   string `json:"getter"`
	Setter   string `json:"setter"`
	Backing  string `json:"backing"`
	Bit      uint   `json:"bit"`
}

// Method is one wrapper of a class.
type Method struct {
	Name     string  `json:"name"`
	FullName string  `json:"full_name"`
	Native   bool    `json:"native,omitempty"`
	Params   []Param `json:"params,omitempty"`
}

// Param is one parameter of a function.
type Param struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Direction string `json:"direction"`
	Return    bool   `json:"return,omitempty"`
	Offset    uint32 `json:"offset"`
	Size      uint32 `json:"size"`
}

func fieldsOf(spans []layout.Span) []Field {
	fields := make([]Field, len(spans))
	for i, s := range spans {
		fields[i] = Field{
			Kind:    s.Kind.String(),
			Name:    s.Name,
			Type:    s.Type,
			Offset:  s.Offset,
			Size:    s.Size,
			Comment: s.Comment,
		}
	}
	return fields
}

func paramsOf(b *layout.ParamBlock) []Param {
	params := make([]Param, len(b.Params))
	for i, p := range b.Params {
		params[i] = Param{
			Name:      p.Name,
			Type:      p.Type,
			Direction: p.Direction.String(),
			Return:    p.Return,
			Offset:    p.Offset,
			Size:      p.Size,
		}
	}
	return params
}

// Describe reconstructs obj without emitting it. Objects of kinds that
// have no model beyond their names are returned with only the common
// fields set.
func (gen *Generator) Describe(obj graph.Object) (*Entity, error) {
	kind := gen.markers.Kind(obj)
	e := &Entity{Addr: obj.Addr.String(), Kind: kind.String()}

	var err error
	if e.Index, err = obj.Index(); err != nil {
		return nil, err
	}
	if e.Name, err = obj.Name(); err != nil {
		return nil, err
	}
	if e.FullName, err = obj.FullName(); err != nil {
		return nil, err
	}

	switch kind {
	case graph.KindConst:
		if e.Value, err = obj.AsConst().Value(); err != nil {
			return nil, err
		}

	case graph.KindEnum:
		d, err := gen.enums.Normalize(obj.AsEnum())
		if err != nil {
			return nil, err
		}
		if d != nil {
			e.Name = d.Name
			e.Prefix = d.Prefix
			e.Variants = d.Variants
		}

	case graph.KindScriptStruct, graph.KindClass:
		st, err := gen.reconstruct(obj.AsStruct())
		if err != nil {
			return nil, err
		}
		e.Name = st.Name
		e.Size = st.Size
		e.Base = st.Base
		e.BaseSize = st.BaseSize
		e.Fields = fieldsOf(st.Spans)
		for _, a := range st.accessors {
			e.Accessors = append(e.Accessors, Accessor{
				Property: a.Field,
				Getter:   a.Getter,
				Setter:   a.Setter,
				Backing:  a.Backing,
				Bit:      a.Bit,
			})
		}

		if kind == graph.KindClass {
			ms, err := gen.methods(obj.AsStruct(), st)
			if err != nil {
				return nil, err
			}
			for _, m := range ms {
				e.Methods = append(e.Methods, Method{
					Name:     m.name,
					FullName: m.fullName,
					Native:   m.native,
					Params:   paramsOf(m.params),
				})
			}
		}

	case graph.KindFunction:
		m, err := gen.method(obj.AsFunction())
		if err != nil {
			return nil, err
		}
		e.Native = m.native
		e.Params = paramsOf(m.params)
	}

	return e, nil
}
