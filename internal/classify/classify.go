// Package classify maps reflection properties to emitted types and their
// byte sizes in the foreign runtime.
package classify

import (
	"errors"
	"fmt"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/memory"
)

var (
	// ErrUnknownProperty indicates a property of no recognised kind.
	ErrUnknownProperty = errors.New("classify: unknown property type")

	// ErrNullReference indicates a property missing a required reference.
	ErrNullReference = errors.New("classify: null required reference")
)

// Ref names the reference a property kind depends on.
type Ref string

const (
	RefArrayInner     Ref = "array inner"
	RefMapKey         Ref = "map key"
	RefMapValue       Ref = "map value"
	RefInterfaceClass Ref = "interface class"
	RefMetaClass      Ref = "meta class"
	RefPropertyClass  Ref = "property class"
	RefPropertyStruct Ref = "property struct"
)

// NullReferenceError reports a property whose required reference is null.
type NullReferenceError struct {
	Addr memory.Addr
	Ref  Ref
}

func (e *NullReferenceError) Error() string {
	return fmt.Sprintf("classify: null %s for property %s", e.Ref, e.Addr)
}

func (e *NullReferenceError) Unwrap() error { return ErrNullReference }

// Info is the classification of one property.
type Info struct {
	Size    uint32             // Size of one element in the foreign runtime
	Type    string             // Emitted type
	Comment string             // Detail the type cannot carry
	Kind    graph.PropertyKind // Runtime kind
}

// Classifier classifies properties against a fixed set of markers.
type Classifier struct {
	g       *graph.Graph
	markers *graph.Markers
	layout  graph.Layout
}

// New creates a Classifier.
func New(g *graph.Graph, markers *graph.Markers) *Classifier {
	return &Classifier{g: g, markers: markers, layout: g.Layout()}
}

// Markers returns the static classes in use.
func (c *Classifier) Markers() *graph.Markers {
	return c.markers
}

// Classify returns the emitted type and element size of p.
func (c *Classifier) Classify(p graph.Property) (Info, error) {
	kind := c.markers.PropertyKind(p.Object)
	info := Info{Kind: kind}

	switch kind {
	case graph.PropertyArray:
		inner, err := p.Inner()
		if err != nil {
			return Info{}, err
		}
		if inner.IsNull() {
			return Info{}, &NullReferenceError{Addr: p.Addr, Ref: RefArrayInner}
		}
		innerInfo, err := c.Classify(inner)
		if err != nil {
			return Info{}, err
		}
		info.Size = c.layout.ArraySize()
		info.Type = "Array<" + innerInfo.Type + ">"
		info.Comment = innerInfo.Comment

	case graph.PropertyBool:
		// Booleans are bits of a 32-bit value, not bytes.
		info.Size = 4
		info.Type = "u32"

	case graph.PropertyByte:
		info.Size = 1
		info.Type = "u8"
		enum, err := p.Enum()
		if err != nil {
			return Info{}, err
		}
		if !enum.IsNull() {
			name, err := c.g.ResolveDuplicate(enum.Object)
			if err != nil {
				return Info{}, err
			}
			info.Type = name
		}

	case graph.PropertyClass:
		meta, err := p.MetaClass()
		if err != nil {
			return Info{}, err
		}
		if meta.IsNull() {
			return Info{}, &NullReferenceError{Addr: p.Addr, Ref: RefMetaClass}
		}
		name, err := c.g.ResolveDuplicate(meta)
		if err != nil {
			return Info{}, err
		}
		info.Size = c.layout.PointerSize
		info.Type = "Option<&'static " + name + ">"

	case graph.PropertyDelegate:
		info.Size = c.layout.DelegateSize()
		info.Type = "ScriptDelegate"

	case graph.PropertyFloat:
		info.Size = 4
		info.Type = "f32"

	case graph.PropertyInt:
		info.Size = 4
		info.Type = "i32"

	case graph.PropertyInterface:
		class, err := p.PropertyClass()
		if err != nil {
			return Info{}, err
		}
		if class.IsNull() {
			return Info{}, &NullReferenceError{Addr: p.Addr, Ref: RefInterfaceClass}
		}
		name, err := c.g.ResolveDuplicate(class)
		if err != nil {
			return Info{}, err
		}
		info.Size = c.layout.InterfaceSize()
		info.Type = "ScriptInterface"
		info.Comment = name

	case graph.PropertyMap:
		key, err := p.MapKey()
		if err != nil {
			return Info{}, err
		}
		if key.IsNull() {
			return Info{}, &NullReferenceError{Addr: p.Addr, Ref: RefMapKey}
		}
		value, err := p.MapValue()
		if err != nil {
			return Info{}, err
		}
		if value.IsNull() {
			return Info{}, &NullReferenceError{Addr: p.Addr, Ref: RefMapValue}
		}
		keyInfo, err := c.Classify(key)
		if err != nil {
			return Info{}, err
		}
		valueInfo, err := c.Classify(value)
		if err != nil {
			return Info{}, err
		}
		// The map's internals are not described by the graph; only its
		// width is kept and the element types survive as a comment.
		info.Size = c.layout.MapSize
		info.Type = fmt.Sprintf("[u8; %d]", c.layout.MapSize)
		info.Comment = "Map<" + keyInfo.Type + ", " + valueInfo.Type + ">"

	case graph.PropertyName:
		info.Size = c.layout.NameSize()
		info.Type = "NameIndex"

	case graph.PropertyObject:
		class, err := p.PropertyClass()
		if err != nil {
			return Info{}, err
		}
		if class.IsNull() {
			return Info{}, &NullReferenceError{Addr: p.Addr, Ref: RefPropertyClass}
		}
		name, err := c.g.ResolveDuplicate(class)
		if err != nil {
			return Info{}, err
		}
		info.Size = c.layout.PointerSize
		info.Type = "Option<&'static " + name + ">"

	case graph.PropertyStr:
		info.Size = c.layout.StringSize()
		info.Type = "FString"

	case graph.PropertyStruct:
		st, err := p.Struct()
		if err != nil {
			return Info{}, err
		}
		if st.IsNull() {
			return Info{}, &NullReferenceError{Addr: p.Addr, Ref: RefPropertyStruct}
		}
		name, err := c.g.ResolveDuplicate(st.Object)
		if err != nil {
			return Info{}, err
		}
		size, err := st.Size()
		if err != nil {
			return Info{}, err
		}
		info.Size = size
		info.Type = name

	default:
		return Info{}, fmt.Errorf("%w: property %s", ErrUnknownProperty, p.Addr)
	}

	return info, nil
}
