package graph

import "fmt"

// Layout gives the byte offsets of the reflection structures inside the
// foreign process. The defaults describe a 32-bit UE3 build.
type Layout struct {
	PointerSize uint32 `yaml:"pointer_size" validate:"oneof=4 8"`

	// UObject
	ObjectIndex uint32 `yaml:"object_index"`
	ObjectOuter uint32 `yaml:"object_outer"`
	ObjectName  uint32 `yaml:"object_name"`
	ObjectClass uint32 `yaml:"object_class"`

	// UField
	FieldNext uint32 `yaml:"field_next"`

	// UStruct
	StructSuper    uint32 `yaml:"struct_super"`
	StructChildren uint32 `yaml:"struct_children"`
	StructSize     uint32 `yaml:"struct_size"`

	// UProperty
	PropertyArrayDim    uint32 `yaml:"property_array_dim"`
	PropertyElementSize uint32 `yaml:"property_element_size"`
	PropertyFlags       uint32 `yaml:"property_flags"`
	PropertyOffset      uint32 `yaml:"property_offset"`

	// First kind-specific slot: bool mask, byte enum, array inner, map
	// key, object/interface class or struct. The second slot holds the
	// class property meta class or the map value.
	PropertyPayload  uint32 `yaml:"property_payload"`
	PropertyPayload2 uint32 `yaml:"property_payload2"`

	EnumNames     uint32 `yaml:"enum_names"`
	ConstValue    uint32 `yaml:"const_value"`
	FunctionFlags uint32 `yaml:"function_flags"`
	NameEntryText uint32 `yaml:"name_entry_text"`

	// Opaque width of a TMap, which carries no usable structure.
	MapSize uint32 `yaml:"map_size" validate:"required"`
}

// DefaultLayout returns the 32-bit layout.
func DefaultLayout() Layout {
	return Layout{
		PointerSize: 4,

		ObjectIndex: 0x20,
		ObjectOuter: 0x28,
		ObjectName:  0x2C,
		ObjectClass: 0x34,

		FieldNext: 0x3C,

		StructSuper:    0x48,
		StructChildren: 0x4C,
		StructSize:     0x50,

		PropertyArrayDim:    0x40,
		PropertyElementSize: 0x44,
		PropertyFlags:       0x48,
		PropertyOffset:      0x60,
		PropertyPayload:     0x80,
		PropertyPayload2:    0x84,

		EnumNames:     0x40,
		ConstValue:    0x40,
		FunctionFlags: 0x8C,
		NameEntryText: 0x10,

		MapSize: 20,
	}
}

// Validate checks the pointer width.
func (l Layout) Validate() error {
	if l.PointerSize != 4 && l.PointerSize != 8 {
		return fmt.Errorf("%w: pointer size %d", ErrLayout, l.PointerSize)
	}
	if l.MapSize == 0 {
		return fmt.Errorf("%w: map size is zero", ErrLayout)
	}
	return nil
}

// ArraySize is the width of a TArray header: data pointer, count, max.
func (l Layout) ArraySize() uint32 {
	return l.PointerSize + 8
}

// StringSize is the width of an FString, which is a TArray of UTF-16 units.
func (l Layout) StringSize() uint32 {
	return l.ArraySize()
}

// NameSize is the width of an FName: index and number.
func (l Layout) NameSize() uint32 {
	return 8
}

// DelegateSize is the width of an FScriptDelegate: object and function name.
func (l Layout) DelegateSize() uint32 {
	return l.PointerSize + l.NameSize()
}

// InterfaceSize is the width of an FScriptInterface: object and vtable.
func (l Layout) InterfaceSize() uint32 {
	return 2 * l.PointerSize
}
