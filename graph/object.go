package graph

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/skdltmxn/sdkgen/memory"
)

// NameIndex is an FName: a name table index plus an instance number.
type NameIndex struct {
	Index  uint32
	Number uint32
}

// Object is a handle to one node of the reflection graph. It is a plain
// address; every accessor re-reads foreign memory and checks for null.
type Object struct {
	g    *Graph
	Addr memory.Addr
}

// IsNull reports whether the handle points nowhere.
func (o Object) IsNull() bool {
	return o.Addr.IsNull()
}

func (o Object) String() string {
	return o.Addr.String()
}

func (o Object) fail(op string, err error) error {
	return &NodeError{Addr: o.Addr, Op: op, Err: err}
}

func (o Object) ptr(off uint32, op string) (Object, error) {
	if o.IsNull() {
		return Object{}, o.fail(op, memory.ErrNullPointer)
	}
	addr, err := o.g.mem.Ptr(o.Addr.Add(off))
	if err != nil {
		return Object{}, o.fail(op, err)
	}
	return Object{g: o.g, Addr: addr}, nil
}

func (o Object) u32(off uint32, op string) (uint32, error) {
	if o.IsNull() {
		return 0, o.fail(op, memory.ErrNullPointer)
	}
	v, err := o.g.mem.U32(o.Addr.Add(off))
	if err != nil {
		return 0, o.fail(op, err)
	}
	return v, nil
}

// Index returns the object's slot in the global object table.
func (o Object) Index() (uint32, error) {
	return o.u32(o.g.layout.ObjectIndex, "index")
}

// NameIndex returns the raw FName of the object.
func (o Object) NameIndex() (NameIndex, error) {
	index, err := o.u32(o.g.layout.ObjectName, "name")
	if err != nil {
		return NameIndex{}, err
	}
	number, err := o.u32(o.g.layout.ObjectName+4, "name")
	if err != nil {
		return NameIndex{}, err
	}
	return NameIndex{Index: index, Number: number}, nil
}

// Name returns the object's name. A non-zero instance number is appended
// as "_{number-1}".
func (o Object) Name() (string, error) {
	idx, err := o.NameIndex()
	if err != nil {
		return "", err
	}
	text, err := o.g.NameText(idx.Index)
	if err != nil {
		return "", o.fail("name", err)
	}
	if idx.Number > 0 {
		text = fmt.Sprintf("%s_%d", text, idx.Number-1)
	}
	return text, nil
}

// Outer returns the enclosing object, or a null handle at the root.
func (o Object) Outer() (Object, error) {
	return o.ptr(o.g.layout.ObjectOuter, "outer")
}

// Class returns the runtime class of the object.
func (o Object) Class() (Object, error) {
	return o.ptr(o.g.layout.ObjectClass, "class")
}

// Outers yields the object itself followed by each enclosing object up to
// the root.
func (o Object) Outers() iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		cur := o
		for steps := 0; !cur.IsNull(); steps++ {
			if steps >= o.g.maxChain {
				yield(Object{}, o.fail("outer", ErrChainTooLong))
				return
			}
			if !yield(cur, nil) {
				return
			}
			next, err := cur.Outer()
			if err != nil {
				yield(Object{}, err)
				return
			}
			cur = next
		}
	}
}

// QualifiedName joins the outer chain root-to-leaf with ".".
func (o Object) QualifiedName() (string, error) {
	var parts []string
	for outer, err := range o.Outers() {
		if err != nil {
			return "", err
		}
		name, err := outer.Name()
		if err != nil {
			return "", err
		}
		parts = append(parts, name)
	}
	slices.Reverse(parts)
	return strings.Join(parts, "."), nil
}

// FullName returns "{ClassName} {QualifiedName}", e.g. "Class Core.Const".
func (o Object) FullName() (string, error) {
	class, err := o.Class()
	if err != nil {
		return "", err
	}
	if class.IsNull() {
		return "", o.fail("class", memory.ErrNullPointer)
	}
	className, err := class.Name()
	if err != nil {
		return "", err
	}
	qualified, err := o.QualifiedName()
	if err != nil {
		return "", err
	}
	return className + " " + qualified, nil
}

// Is reports whether the object's runtime class is marker or derives
// from it. Unreadable links count as a mismatch.
func (o Object) Is(marker Object) bool {
	if o.IsNull() || marker.IsNull() {
		return false
	}

	class, err := o.Class()
	if err != nil {
		return false
	}

	for steps := 0; !class.IsNull() && steps < o.g.maxChain; steps++ {
		if class.Addr == marker.Addr {
			return true
		}
		super, err := class.AsStruct().Super()
		if err != nil || super.Addr == class.Addr {
			return false
		}
		class = super.Object
	}
	return false
}

// AsStruct views the object as a UStruct.
func (o Object) AsStruct() Struct { return Struct{o} }

// AsProperty views the object as a UProperty.
func (o Object) AsProperty() Property { return Property{o} }

// AsEnum views the object as a UEnum.
func (o Object) AsEnum() Enum { return Enum{o} }

// AsConst views the object as a UConst.
func (o Object) AsConst() Const { return Const{o} }

// AsFunction views the object as a UFunction.
func (o Object) AsFunction() Function { return Function{o.AsStruct()} }
