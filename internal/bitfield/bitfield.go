// Package bitfield derives accessor methods for booleans packed into a
// shared 32-bit backing value.
package bitfield

import (
	"errors"
	"fmt"

	"github.com/iancoleman/strcase"

	"github.com/skdltmxn/sdkgen/internal/ident"
	"github.com/skdltmxn/sdkgen/internal/layout"
)

// MaxBits is the number of booleans one backing value can hold.
const MaxBits = 32

// ErrOverflow indicates a group with more booleans than backing bits.
var ErrOverflow = errors.New("bitfield: too many booleans for one backing value")

// Accessor is the getter and setter pair of one boolean.
type Accessor struct {
	Field   string // Raw property name, uniqued
	Getter  string
	Setter  string
	Backing string // Backing field of the group
	Bit     uint
}

// Synthesize returns one accessor per boolean of groups, in group then bit
// order. Names are unique across all groups of one struct.
func Synthesize(groups []*layout.BitfieldGroup) ([]Accessor, error) {
	raw := ident.NewUniquer()
	normalized := ident.NewUniquer()

	var accessors []Accessor
	for _, group := range groups {
		if len(group.Bits) > MaxBits {
			return nil, fmt.Errorf("%w: %d booleans in %s at %#x",
				ErrOverflow, len(group.Bits), group.Field, group.Offset)
		}
		for i, bit := range group.Bits {
			field := raw.Name(bit.Name)
			name := normalized.Name(Normalize(field))
			accessors = append(accessors, Accessor{
				Field:   field,
				Getter:  "is_" + name,
				Setter:  "set_" + name,
				Backing: group.Field,
				Bit:     uint(i),
			})
		}
	}
	return accessors, nil
}

// Normalize strips a "b" prefix followed by an uppercase letter and
// converts the rest to snake case.
func Normalize(name string) string {
	if len(name) >= 2 && name[0] == 'b' && name[1] >= 'A' && name[1] <= 'Z' {
		name = name[1:]
	}
	return strcase.ToSnake(name)
}

// Get reports whether bit is set in backing.
func Get(backing uint32, bit uint) bool {
	return (backing>>bit)&1 == 1
}

// Set returns backing with bit set to v and every other bit unchanged.
func Set(backing uint32, bit uint, v bool) uint32 {
	if v {
		return backing | 1<<bit
	}
	return backing &^ (1 << bit)
}
