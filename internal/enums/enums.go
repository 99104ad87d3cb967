// Package enums turns reflected enum variants into display names.
package enums

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/internal/ident"
)

// Sentinel is the suffix of a max-value variant.
const Sentinel = "MAX"

// ErrBadVariant indicates a variant slot that does not resolve to a name.
var ErrBadVariant = errors.New("enums: unknown or ill-formed variant")

// Descriptor is a normalized enum.
type Descriptor struct {
	Name     string   // Emitted type name
	FullName string
	Prefix   string   // Common prefix that was stripped, with its trailing "_"
	Raw      []string // Variant names as reflected
	Variants []string // Display names, unique, in declaration order
}

// Normalizer reads enums from one graph.
type Normalizer struct {
	g *graph.Graph
}

// New creates a Normalizer.
func New(g *graph.Graph) *Normalizer {
	return &Normalizer{g: g}
}

// Normalize reads e and derives its display names. An enum without
// variants has no representation and yields a nil descriptor.
func (n *Normalizer) Normalize(e graph.Enum) (*Descriptor, error) {
	raw, err := e.Variants()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadVariant, e.Addr, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	bare, err := e.Name()
	if err != nil {
		return nil, err
	}
	name, err := n.g.ResolveDuplicate(e.Object)
	if err != nil {
		return nil, err
	}
	full, err := e.FullName()
	if err != nil {
		return nil, err
	}

	variants, prefix := NormalizeVariants(bare, raw)
	return &Descriptor{
		Name:     name,
		FullName: full,
		Prefix:   prefix,
		Raw:      raw,
		Variants: variants,
	}, nil
}

// NormalizeVariants strips the longest common "_"-delimited prefix from
// raw and returns the unique display names along with that prefix.
func NormalizeVariants(enumName string, raw []string) ([]string, string) {
	if len(raw) == 0 {
		return nil, ""
	}

	prefix := strings.Split(raw[0], "_")
	for _, v := range raw[1:] {
		parts := strings.Split(v, "_")
		n := 0
		for n < len(prefix) && n < len(parts) && prefix[n] == parts[n] {
			n++
		}
		prefix = prefix[:n]
	}

	strip := len(prefix)
	for _, c := range prefix {
		strip += len(c)
	}

	names := ident.NewUniquer()
	variants := make([]string, len(raw))
	for i, v := range raw {
		display := v
		if stripped, ok := stripPrefix(v, strip); ok {
			display = stripped
			if strings.HasPrefix(display, enumName) && strings.HasSuffix(display, Sentinel) {
				display = Sentinel
			}
		}
		variants[i] = names.Name(ident.Escape(display))
	}

	var shown string
	if len(prefix) > 0 {
		shown = strings.Join(prefix, "_") + "_"
	}
	return variants, shown
}

// stripPrefix drops the first n bytes of v unless that leaves an invalid
// identifier.
func stripPrefix(v string, n int) (string, bool) {
	if n > len(v) {
		return "", false
	}
	s := v[n:]
	if s == "" || s == "Self" || (s[0] >= '0' && s[0] <= '9') {
		return "", false
	}
	return s, true
}
