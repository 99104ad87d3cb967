// Package graphtest synthesizes 32-bit reflection graphs in memory for
// tests. The image contains the Core package and its static classes, so
// marker lookup and classification run against real foreign-memory reads.
package graphtest

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/memory"
)

// Base is the address the synthetic image is mapped at.
const Base memory.Addr = 0x10000000

// Unresolved is a variant name that is written as an invalid name index.
const Unresolved = "\x00unresolved"

const (
	objectSize = 0xA0
	headerSize = 0x40
	badName    = 0xFFFFFFFF
)

var coreClasses = []struct {
	name  string
	super string
	size  uint16
}{
	{"Object", "", 0x3C},
	{"Field", "Object", 0x40},
	{"Struct", "Field", 0x90},
	{"State", "Struct", 0x90},
	{"Class", "State", 0x90},
	{"ScriptStruct", "Struct", 0x90},
	{"Function", "Struct", 0x90},
	{"Const", "Field", 0x4C},
	{"Enum", "Field", 0x4C},
	{"Package", "Object", 0x3C},
	{"Property", "Field", 0x80},
	{"ArrayProperty", "Property", 0x84},
	{"BoolProperty", "Property", 0x84},
	{"ByteProperty", "Property", 0x84},
	{"ObjectProperty", "Property", 0x84},
	{"ClassProperty", "ObjectProperty", 0x88},
	{"DelegateProperty", "Property", 0x88},
	{"FloatProperty", "Property", 0x80},
	{"IntProperty", "Property", 0x80},
	{"InterfaceProperty", "Property", 0x84},
	{"MapProperty", "Property", 0x88},
	{"NameProperty", "Property", 0x80},
	{"StrProperty", "Property", 0x80},
	{"StructProperty", "Property", 0x84},
}

// Prop describes a property to add.
type Prop struct {
	Name        string
	Offset      uint32
	ElementSize uint32 // zero selects the natural size of the kind
	ArrayDim    uint32 // zero means 1
	Flags       graph.PropertyFlags
	Mask        uint32      // BoolProperty bit
	Ref         memory.Addr // enum, inner, key, class or struct
	Ref2        memory.Addr // meta class or map value
	Detached    bool        // do not link into the owner's children
}

// Builder lays out objects, names and tables in one byte image.
type Builder struct {
	layout graph.Layout

	buf       []byte
	nameIndex map[string]uint32
	names     []memory.Addr
	slots     []memory.Addr
	lastChild map[memory.Addr]memory.Addr

	core    memory.Addr
	classes map[string]memory.Addr
}

// New creates a Builder holding the Core package and its static classes.
func New() *Builder {
	b := &Builder{
		layout:    graph.DefaultLayout(),
		buf:       make([]byte, headerSize),
		nameIndex: make(map[string]uint32),
		lastChild: make(map[memory.Addr]memory.Addr),
		classes:   make(map[string]memory.Addr),
	}
	b.name("None")

	b.core = b.alloc(objectSize)
	for _, c := range coreClasses {
		b.classes[c.name] = b.alloc(objectSize)
	}

	b.initObject(b.core, "Core", 0, b.classes["Package"])
	for _, c := range coreClasses {
		addr := b.classes[c.name]
		b.initObject(addr, c.name, b.core, b.classes["Class"])
		if c.super != "" {
			b.SetPtr(addr, b.layout.StructSuper, b.classes[c.super])
		}
		b.SetU16(addr, b.layout.StructSize, c.size)
	}
	return b
}

// Layout returns the layout the image is written with.
func (b *Builder) Layout() graph.Layout {
	return b.layout
}

// Core returns the Core package.
func (b *Builder) Core() memory.Addr {
	return b.core
}

// CoreClass returns a static class by name, e.g. "IntProperty".
func (b *Builder) CoreClass(name string) memory.Addr {
	addr, ok := b.classes[name]
	if !ok {
		panic("graphtest: unknown core class " + name)
	}
	return addr
}

func (b *Builder) alloc(n int) memory.Addr {
	off := (len(b.buf) + 7) &^ 7
	b.buf = append(b.buf, make([]byte, off+n-len(b.buf))...)
	return Base + memory.Addr(off)
}

func (b *Builder) at(addr memory.Addr, off uint32) int {
	return int(addr-Base) + int(off)
}

func (b *Builder) name(text string) uint32 {
	if text == Unresolved {
		return badName
	}
	if idx, ok := b.nameIndex[text]; ok {
		return idx
	}

	entry := b.alloc(int(b.layout.NameEntryText) + len(text) + 1)
	copy(b.buf[b.at(entry, b.layout.NameEntryText):], text)

	idx := uint32(len(b.names))
	b.names = append(b.names, entry)
	b.nameIndex[text] = idx
	return idx
}

func (b *Builder) initObject(addr memory.Addr, name string, outer, class memory.Addr) {
	b.SetU32(addr, b.layout.ObjectIndex, uint32(len(b.slots)))
	b.SetPtr(addr, b.layout.ObjectOuter, outer)
	b.SetU32(addr, b.layout.ObjectName, b.name(name))
	b.SetPtr(addr, b.layout.ObjectClass, class)
	b.slots = append(b.slots, addr)
}

// Object adds an object of an arbitrary class.
func (b *Builder) Object(outer, class memory.Addr, name string) memory.Addr {
	addr := b.alloc(objectSize)
	b.initObject(addr, name, outer, class)
	return addr
}

// NullSlot appends an unused slot to the object table.
func (b *Builder) NullSlot() {
	b.slots = append(b.slots, 0)
}

// Package adds a root package.
func (b *Builder) Package(name string) memory.Addr {
	return b.Object(0, b.classes["Package"], name)
}

// Class adds a class. A null super makes it a root type.
func (b *Builder) Class(outer memory.Addr, name string, super memory.Addr, size uint16) memory.Addr {
	addr := b.Object(outer, b.classes["Class"], name)
	b.SetPtr(addr, b.layout.StructSuper, super)
	b.SetU16(addr, b.layout.StructSize, size)
	return addr
}

// ScriptStruct adds a struct.
func (b *Builder) ScriptStruct(outer memory.Addr, name string, super memory.Addr, size uint16) memory.Addr {
	addr := b.Object(outer, b.classes["ScriptStruct"], name)
	b.SetPtr(addr, b.layout.StructSuper, super)
	b.SetU16(addr, b.layout.StructSize, size)
	return addr
}

// Enum adds an enum with the given variant names.
func (b *Builder) Enum(outer memory.Addr, name string, variants ...string) memory.Addr {
	addr := b.Object(outer, b.classes["Enum"], name)
	if len(variants) == 0 {
		return addr
	}

	data := b.alloc(8 * len(variants))
	for i, v := range variants {
		b.SetU32(data, uint32(i*8), b.name(v))
	}
	b.SetPtr(addr, b.layout.EnumNames, data)
	b.SetU32(addr, b.layout.EnumNames+b.layout.PointerSize, uint32(len(variants)))
	b.SetU32(addr, b.layout.EnumNames+b.layout.PointerSize+4, uint32(len(variants)))
	return addr
}

// Const adds a constant holding value.
func (b *Builder) Const(outer memory.Addr, name, value string) memory.Addr {
	addr := b.Object(outer, b.classes["Const"], name)

	units := append(utf16.Encode([]rune(value)), 0)
	data := b.alloc(2 * len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(b.buf[b.at(data, uint32(i*2)):], u)
	}
	b.SetPtr(addr, b.layout.ConstValue, data)
	b.SetU32(addr, b.layout.ConstValue+b.layout.PointerSize, uint32(len(units)))
	b.SetU32(addr, b.layout.ConstValue+b.layout.PointerSize+4, uint32(len(units)))
	return addr
}

// Function adds a method to owner.
func (b *Builder) Function(owner memory.Addr, name string, flags graph.FunctionFlags) memory.Addr {
	addr := b.Object(owner, b.classes["Function"], name)
	b.SetU32(addr, b.layout.FunctionFlags, uint32(flags))
	b.Nest(owner, addr)
	return addr
}

// Property adds a property of the given kind to owner.
func (b *Builder) Property(owner memory.Addr, kind graph.PropertyKind, p Prop) memory.Addr {
	addr := b.Object(owner, b.classes[kind.ClassName()], p.Name)

	size := p.ElementSize
	if size == 0 {
		size = b.naturalSize(kind, p)
	}
	dim := p.ArrayDim
	if dim == 0 {
		dim = 1
	}

	b.SetU32(addr, b.layout.PropertyArrayDim, dim)
	b.SetU32(addr, b.layout.PropertyElementSize, size)
	b.SetU64(addr, b.layout.PropertyFlags, uint64(p.Flags))
	b.SetU32(addr, b.layout.PropertyOffset, p.Offset)

	if kind == graph.PropertyBool {
		b.SetU32(addr, b.layout.PropertyPayload, p.Mask)
	} else {
		b.SetPtr(addr, b.layout.PropertyPayload, p.Ref)
	}
	b.SetPtr(addr, b.layout.PropertyPayload2, p.Ref2)

	if !p.Detached {
		b.Nest(owner, addr)
	}
	return addr
}

func (b *Builder) naturalSize(kind graph.PropertyKind, p Prop) uint32 {
	l := b.layout
	switch kind {
	case graph.PropertyArray, graph.PropertyStr:
		return l.ArraySize()
	case graph.PropertyByte:
		return 1
	case graph.PropertyClass, graph.PropertyObject:
		return l.PointerSize
	case graph.PropertyDelegate:
		return l.DelegateSize()
	case graph.PropertyInterface:
		return l.InterfaceSize()
	case graph.PropertyMap:
		return l.MapSize
	case graph.PropertyName:
		return l.NameSize()
	case graph.PropertyStruct:
		if p.Ref == 0 {
			return 0
		}
		return uint32(binary.LittleEndian.Uint16(b.buf[b.at(p.Ref, l.StructSize):]))
	default:
		return 4
	}
}

// Nest appends child to owner's children list.
func (b *Builder) Nest(owner, child memory.Addr) {
	if last, ok := b.lastChild[owner]; ok {
		b.SetPtr(last, b.layout.FieldNext, child)
	} else {
		b.SetPtr(owner, b.layout.StructChildren, child)
	}
	b.lastChild[owner] = child
}

// SetU16 patches a 16-bit value.
func (b *Builder) SetU16(addr memory.Addr, off uint32, v uint16) {
	binary.LittleEndian.PutUint16(b.buf[b.at(addr, off):], v)
}

// SetU32 patches a 32-bit value.
func (b *Builder) SetU32(addr memory.Addr, off uint32, v uint32) {
	binary.LittleEndian.PutUint32(b.buf[b.at(addr, off):], v)
}

// SetU64 patches a 64-bit value.
func (b *Builder) SetU64(addr memory.Addr, off uint32, v uint64) {
	binary.LittleEndian.PutUint64(b.buf[b.at(addr, off):], v)
}

// SetPtr patches a pointer.
func (b *Builder) SetPtr(addr memory.Addr, off uint32, v memory.Addr) {
	b.SetU32(addr, off, uint32(v))
}

// Image writes the object and name tables and returns the mapped image
// with the addresses of both tables.
func (b *Builder) Image() (*memory.Image, memory.Addr, memory.Addr) {
	objects := b.alloc(4 * max(len(b.slots), 1))
	for i, slot := range b.slots {
		b.SetPtr(objects, uint32(i*4), slot)
	}
	names := b.alloc(4 * max(len(b.names), 1))
	for i, entry := range b.names {
		b.SetPtr(names, uint32(i*4), entry)
	}

	objectsTable, namesTable := Base, Base+0x10
	b.SetPtr(objectsTable, 0, objects)
	b.SetU32(objectsTable, 4, uint32(len(b.slots)))
	b.SetU32(objectsTable, 8, uint32(len(b.slots)))
	b.SetPtr(namesTable, 0, names)
	b.SetU32(namesTable, 4, uint32(len(b.names)))
	b.SetU32(namesTable, 8, uint32(len(b.names)))

	if rem := len(b.buf) % memory.PageSize; rem != 0 {
		b.buf = append(b.buf, make([]byte, memory.PageSize-rem)...)
	}

	img, err := memory.NewImage(memory.BytesRegion(Base, b.buf))
	if err != nil {
		panic(err)
	}
	return img, objectsTable, namesTable
}

// Graph maps the image and opens a graph over it.
func (b *Builder) Graph(t testing.TB, opts ...graph.Option) *graph.Graph {
	t.Helper()

	img, objects, names := b.Image()
	mem, err := memory.NewReader(img, memory.WithPointerSize(int(b.layout.PointerSize)))
	require.NoError(t, err)

	g, err := graph.New(mem, b.layout, objects, names, opts...)
	require.NoError(t, err)
	return g
}
