package graph

// Kind identifies what an object describes.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConst
	KindEnum
	KindScriptStruct
	KindClass
	KindFunction
	KindProperty
)

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "const"
	case KindEnum:
		return "enum"
	case KindScriptStruct:
		return "struct"
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindProperty:
		return "property"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := KindConst; k <= KindProperty; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return KindUnknown, false
}

// PropertyKind identifies a built-in property class.
type PropertyKind uint8

// The order is the classification order: ClassProperty derives from
// ObjectProperty, so it must be tested first.
const (
	PropertyUnknown PropertyKind = iota
	PropertyArray
	PropertyBool
	PropertyByte
	PropertyClass
	PropertyDelegate
	PropertyFloat
	PropertyInt
	PropertyInterface
	PropertyMap
	PropertyName
	PropertyObject
	PropertyStr
	PropertyStruct

	propertyKindCount
)

var propertyClassNames = [propertyKindCount]string{
	PropertyArray:     "ArrayProperty",
	PropertyBool:      "BoolProperty",
	PropertyByte:      "ByteProperty",
	PropertyClass:     "ClassProperty",
	PropertyDelegate:  "DelegateProperty",
	PropertyFloat:     "FloatProperty",
	PropertyInt:       "IntProperty",
	PropertyInterface: "InterfaceProperty",
	PropertyMap:       "MapProperty",
	PropertyName:      "NameProperty",
	PropertyObject:    "ObjectProperty",
	PropertyStr:       "StrProperty",
	PropertyStruct:    "StructProperty",
}

// ClassName returns the runtime class name, e.g. "BoolProperty".
func (k PropertyKind) ClassName() string {
	if k >= propertyKindCount {
		return ""
	}
	return propertyClassNames[k]
}

func (k PropertyKind) String() string {
	if k == PropertyUnknown || k >= propertyKindCount {
		return "unknown"
	}
	return propertyClassNames[k]
}

// PropertyKinds returns every known property kind in classification order.
func PropertyKinds() []PropertyKind {
	kinds := make([]PropertyKind, 0, propertyKindCount-1)
	for k := PropertyArray; k < propertyKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Full names of the static classes located at startup.
const (
	MarkerClass        = "Class Core.Class"
	MarkerConst        = "Class Core.Const"
	MarkerEnum         = "Class Core.Enum"
	MarkerScriptStruct = "Class Core.ScriptStruct"
	MarkerFunction     = "Class Core.Function"
)

// Markers holds the static classes every classification is made against.
// It is resolved once before any reconstruction and then passed explicitly.
type Markers struct {
	Class        Object
	Const        Object
	Enum         Object
	ScriptStruct Object
	Function     Object

	properties [propertyKindCount]Object
}

// FindMarkers locates every static class in one pass over the object table.
func (g *Graph) FindMarkers() (*Markers, error) {
	m := &Markers{}

	type want struct {
		name string
		dst  *Object
	}
	wanted := []want{
		{MarkerClass, &m.Class},
		{MarkerConst, &m.Const},
		{MarkerEnum, &m.Enum},
		{MarkerScriptStruct, &m.ScriptStruct},
		{MarkerFunction, &m.Function},
	}
	for _, k := range PropertyKinds() {
		wanted = append(wanted, want{"Class Core." + k.ClassName(), &m.properties[k]})
	}

	byName := make(map[string]*Object, len(wanted))
	for _, w := range wanted {
		byName[w.name] = w.dst
	}

	remaining := len(byName)
	for obj, err := range g.Objects() {
		if err != nil {
			return nil, err
		}
		name, err := obj.FullName()
		if err != nil {
			continue
		}
		if dst, ok := byName[name]; ok && dst.IsNull() {
			*dst = obj
			remaining--
			if remaining == 0 {
				break
			}
		}
	}

	for _, w := range wanted {
		if w.dst.IsNull() {
			return nil, &MarkerError{Name: w.name}
		}
	}
	return m, nil
}

// Property returns the static class of a property kind.
func (m *Markers) Property(k PropertyKind) Object {
	if k >= propertyKindCount {
		return Object{}
	}
	return m.properties[k]
}

// Kind classifies an object by its runtime class.
func (m *Markers) Kind(o Object) Kind {
	switch {
	case o.Is(m.Const):
		return KindConst
	case o.Is(m.Enum):
		return KindEnum
	case o.Is(m.ScriptStruct):
		return KindScriptStruct
	case o.Is(m.Class):
		return KindClass
	case o.Is(m.Function):
		return KindFunction
	case m.PropertyKind(o) != PropertyUnknown:
		return KindProperty
	}
	return KindUnknown
}

// IsTypeDefinition reports whether o is a nested definition (const, enum,
// struct or function) rather than a storage field.
func (m *Markers) IsTypeDefinition(o Object) bool {
	return o.Is(m.ScriptStruct) || o.Is(m.Const) || o.Is(m.Enum) || o.Is(m.Function)
}

// PropertyKind returns the built-in property kind of o.
func (m *Markers) PropertyKind(o Object) PropertyKind {
	for _, k := range PropertyKinds() {
		if o.Is(m.properties[k]) {
			return k
		}
	}
	return PropertyUnknown
}
