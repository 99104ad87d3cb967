// Package ident produces identifiers that are valid and unique in the
// emitted source.
package ident

import "strconv"

// Uniquer hands out unique names within one scope. The first occurrence
// of a name is returned bare; later ones get "_1", "_2", ... in the order
// they are seen.
type Uniquer struct {
	counts map[string]int
	taken  map[string]struct{}
}

// NewUniquer creates an empty scope.
func NewUniquer() *Uniquer {
	return &Uniquer{
		counts: make(map[string]int),
		taken:  make(map[string]struct{}),
	}
}

// Name returns a unique form of name and reserves it.
func (u *Uniquer) Name(name string) string {
	for {
		n := u.counts[name]
		u.counts[name] = n + 1

		candidate := name
		if n > 0 {
			candidate = name + "_" + strconv.Itoa(n)
		}
		if _, ok := u.taken[candidate]; ok {
			continue
		}
		u.taken[candidate] = struct{}{}
		return candidate
	}
}

// Seen reports whether name has already been handed out.
func (u *Uniquer) Seen(name string) bool {
	_, ok := u.taken[name]
	return ok
}

// Rust keywords that can be written as raw identifiers.
var rawKeywords = map[string]struct{}{
	"as": {}, "async": {}, "await": {}, "break": {}, "const": {}, "continue": {},
	"dyn": {}, "else": {}, "enum": {}, "extern": {}, "false": {}, "fn": {},
	"for": {}, "if": {}, "impl": {}, "in": {}, "let": {}, "loop": {}, "match": {},
	"mod": {}, "move": {}, "mut": {}, "pub": {}, "ref": {}, "return": {},
	"static": {}, "struct": {}, "trait": {}, "true": {}, "type": {}, "unsafe": {},
	"use": {}, "where": {}, "while": {}, "abstract": {}, "become": {}, "box": {},
	"do": {}, "final": {}, "macro": {}, "override": {}, "priv": {}, "try": {},
	"typeof": {}, "unsized": {}, "virtual": {}, "yield": {}, "gen": {},
}

// Keywords that cannot be raw identifiers.
var reservedPaths = map[string]struct{}{
	"self": {}, "Self": {}, "super": {}, "crate": {}, "_": {},
}

// Escape makes name usable as a field, parameter or method identifier.
func Escape(name string) string {
	if _, ok := rawKeywords[name]; ok {
		return "r#" + name
	}
	if _, ok := reservedPaths[name]; ok {
		return name + "_"
	}
	if name == "" {
		return "_unnamed"
	}
	if c := name[0]; c >= '0' && c <= '9' {
		return "_" + name
	}
	return name
}
