package emit

import "strings"

// Tag describes a scope: the header that opens it and the text that
// closes it. Tags hold no state.
type Tag struct {
	header string
	closer string
}

// Visibility is an item's visibility.
type Visibility uint8

const (
	Private Visibility = iota
	Public
)

func (v Visibility) String() string {
	if v == Public {
		return "pub "
	}
	return ""
}

// Struct opens a struct definition.
func Struct(vis Visibility, name string) Tag {
	return Tag{header: vis.String() + "struct " + name + " {", closer: "}"}
}

// Enum opens an enum definition.
func Enum(vis Visibility, name string) Tag {
	return Tag{header: vis.String() + "enum " + name + " {", closer: "}"}
}

// Impl opens an inherent impl block.
func Impl(target string) Tag {
	return Tag{header: "impl " + target + " {", closer: "}"}
}

// ImplTrait opens a trait impl block.
func ImplTrait(trait, target string) Tag {
	return Tag{header: "impl " + trait + " for " + target + " {", closer: "}"}
}

// If opens a conditional, e.g. "if let Some(x) = y".
func If(cond string) Tag {
	return Tag{header: cond + " {", closer: "}"}
}

// Block opens a brace block after header, e.g. "let p = Parameters",
// closed by "}" and suffix.
func Block(header, suffix string) Tag {
	if header != "" {
		header += " "
	}
	return Tag{header: header + "{", closer: "}" + suffix}
}

// Arg is one function argument. A receiver has no type.
type Arg struct {
	Name string
	Type string
}

// Receiver returns a method receiver such as "&self".
func Receiver(r string) Arg {
	return Arg{Name: r}
}

func (a Arg) String() string {
	if a.Type == "" {
		return a.Name
	}
	return a.Name + ": " + a.Type
}

// Signature describes a function header.
type Signature struct {
	Vis        Visibility
	Qualifiers string // e.g. "unsafe "
	Name       string
	Args       []Arg
	Ret        string // empty for unit
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteString(s.Vis.String())
	b.WriteString(s.Qualifiers)
	b.WriteString("fn ")
	b.WriteString(s.Name)
	b.WriteByte('(')
	for i, a := range s.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	if s.Ret != "" {
		b.WriteString(" -> ")
		b.WriteString(s.Ret)
	}
	return b.String()
}

// Func opens a function body.
func Func(sig Signature) Tag {
	return Tag{header: sig.String() + " {", closer: "}"}
}
