package graph

import (
	"fmt"
	"iter"

	"github.com/skdltmxn/sdkgen/internal/stream"
	"github.com/skdltmxn/sdkgen/memory"
)

// Struct is a UStruct: a ScriptStruct, Class, State or Function.
type Struct struct {
	Object
}

// Super returns the structural base, or a null handle.
func (s Struct) Super() (Struct, error) {
	o, err := s.ptr(s.g.layout.StructSuper, "super")
	return Struct{o}, err
}

// Size returns the declared size of the struct's properties in bytes.
func (s Struct) Size() (uint32, error) {
	if s.IsNull() {
		return 0, s.fail("size", memory.ErrNullPointer)
	}
	v, err := s.g.mem.U16(s.Addr.Add(s.g.layout.StructSize))
	if err != nil {
		return 0, s.fail("size", err)
	}
	return uint32(v), nil
}

// Children follows the children list through each field's next pointer.
// The list holds properties as well as nested functions, enums, consts
// and structs.
func (s Struct) Children() iter.Seq2[Property, error] {
	return func(yield func(Property, error) bool) {
		cur, err := s.ptr(s.g.layout.StructChildren, "children")
		if err != nil {
			yield(Property{}, err)
			return
		}

		for steps := 0; !cur.IsNull(); steps++ {
			if steps >= s.g.maxChain {
				yield(Property{}, s.fail("children", ErrChainTooLong))
				return
			}
			if !yield(Property{cur}, nil) {
				return
			}
			cur, err = cur.ptr(s.g.layout.FieldNext, "next")
			if err != nil {
				yield(Property{}, err)
				return
			}
		}
	}
}

// PropertyFlags holds UProperty flag bits.
type PropertyFlags uint64

const (
	FlagParm       PropertyFlags = 0x80
	FlagOutParm    PropertyFlags = 0x100
	FlagReturnParm PropertyFlags = 0x400
)

// IsParam returns true if the property is a function parameter.
func (f PropertyFlags) IsParam() bool { return f&FlagParm != 0 }

// IsOut returns true if the parameter is written by the callee.
func (f PropertyFlags) IsOut() bool { return f&FlagOutParm != 0 }

// IsReturn returns true if the parameter holds the return value.
func (f PropertyFlags) IsReturn() bool { return f&FlagReturnParm != 0 }

// Property is a UProperty.
type Property struct {
	Object
}

func (p Property) ArrayDim() (uint32, error) {
	return p.u32(p.g.layout.PropertyArrayDim, "array dim")
}

func (p Property) ElementSize() (uint32, error) {
	return p.u32(p.g.layout.PropertyElementSize, "element size")
}

func (p Property) Offset() (uint32, error) {
	return p.u32(p.g.layout.PropertyOffset, "offset")
}

func (p Property) Flags() (PropertyFlags, error) {
	if p.IsNull() {
		return 0, p.fail("flags", memory.ErrNullPointer)
	}
	v, err := p.g.mem.U64(p.Addr.Add(p.g.layout.PropertyFlags))
	if err != nil {
		return 0, p.fail("flags", err)
	}
	return PropertyFlags(v), nil
}

// BoolMask returns the bit a BoolProperty occupies in its backing value.
func (p Property) BoolMask() (uint32, error) {
	return p.u32(p.g.layout.PropertyPayload, "bool mask")
}

// Enum returns the enum backing a ByteProperty, or a null handle.
func (p Property) Enum() (Enum, error) {
	o, err := p.ptr(p.g.layout.PropertyPayload, "enum")
	return Enum{o}, err
}

// Inner returns the element property of an ArrayProperty.
func (p Property) Inner() (Property, error) {
	o, err := p.ptr(p.g.layout.PropertyPayload, "array inner")
	return Property{o}, err
}

// MapKey returns the key property of a MapProperty.
func (p Property) MapKey() (Property, error) {
	o, err := p.ptr(p.g.layout.PropertyPayload, "map key")
	return Property{o}, err
}

// MapValue returns the value property of a MapProperty.
func (p Property) MapValue() (Property, error) {
	o, err := p.ptr(p.g.layout.PropertyPayload2, "map value")
	return Property{o}, err
}

// PropertyClass returns the class referenced by an ObjectProperty or
// ClassProperty, or the interface of an InterfaceProperty.
func (p Property) PropertyClass() (Object, error) {
	return p.ptr(p.g.layout.PropertyPayload, "property class")
}

// MetaClass returns the class bound of a ClassProperty.
func (p Property) MetaClass() (Object, error) {
	return p.ptr(p.g.layout.PropertyPayload2, "meta class")
}

// Struct returns the struct of a StructProperty.
func (p Property) Struct() (Struct, error) {
	o, err := p.ptr(p.g.layout.PropertyPayload, "property struct")
	return Struct{o}, err
}

// Enum is a UEnum.
type Enum struct {
	Object
}

// Variants resolves every variant name in declaration order.
func (e Enum) Variants() ([]string, error) {
	names, err := e.VariantIndices()
	if err != nil {
		return nil, err
	}

	variants := make([]string, len(names))
	for i, idx := range names {
		text, err := e.g.NameText(idx.Index)
		if err != nil {
			return nil, e.fail(fmt.Sprintf("variant %d", i), err)
		}
		if idx.Number > 0 {
			text = fmt.Sprintf("%s_%d", text, idx.Number-1)
		}
		variants[i] = text
	}
	return variants, nil
}

// VariantIndices returns the raw FNames of the variants.
func (e Enum) VariantIndices() ([]NameIndex, error) {
	t, err := e.array(e.g.layout.EnumNames, "variants")
	if err != nil {
		return nil, err
	}
	if t.count == 0 {
		return nil, nil
	}

	block := make([]byte, int(t.count)*8)
	if err := e.g.mem.Read(t.data, block); err != nil {
		return nil, e.fail("variants", err)
	}

	r := stream.NewReader(block, int(e.g.layout.PointerSize))
	names := make([]NameIndex, 0, t.count)
	for r.Remaining() > 0 {
		index, err := r.ReadU32()
		if err != nil {
			return nil, e.fail("variants", err)
		}
		number, err := r.ReadU32()
		if err != nil {
			return nil, e.fail("variants", err)
		}
		names = append(names, NameIndex{Index: index, Number: number})
	}
	return names, nil
}

// array reads an inline TArray header.
func (o Object) array(off uint32, op string) (table, error) {
	data, err := o.ptr(off, op)
	if err != nil {
		return table{}, err
	}
	count, err := o.u32(off+o.g.layout.PointerSize, op)
	if err != nil {
		return table{}, err
	}
	if count > 0 && data.IsNull() {
		return table{}, o.fail(op, memory.ErrNullPointer)
	}
	if count > uint32(o.g.maxChain) {
		return table{}, o.fail(op, fmt.Errorf("%w: %d entries", ErrTableTooLarge, count))
	}
	return table{data: data.Addr, count: count}, nil
}

// Const is a UConst.
type Const struct {
	Object
}

// Value returns the constant's text with its terminator removed.
func (c Const) Value() (string, error) {
	t, err := c.array(c.g.layout.ConstValue, "value")
	if err != nil {
		return "", err
	}
	if t.count == 0 {
		return "", nil
	}
	s, err := c.g.mem.UTF16(t.data, int(t.count))
	if err != nil {
		return "", c.fail("value", err)
	}
	return s, nil
}

// FunctionFlags holds UFunction flag bits.
type FunctionFlags uint32

// FuncNative marks a function implemented in native code.
const FuncNative FunctionFlags = 0x400

// IsNative returns true if the function is implemented natively.
func (f FunctionFlags) IsNative() bool { return f&FuncNative != 0 }

// Function is a UFunction.
type Function struct {
	Struct
}

func (f Function) Flags() (FunctionFlags, error) {
	v, err := f.u32(f.g.layout.FunctionFlags, "function flags")
	return FunctionFlags(v), err
}
