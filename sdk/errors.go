package sdk

import (
	"errors"
	"fmt"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/internal/bitfield"
	"github.com/skdltmxn/sdkgen/internal/classify"
	"github.com/skdltmxn/sdkgen/internal/enums"
	"github.com/skdltmxn/sdkgen/internal/layout"
	"github.com/skdltmxn/sdkgen/memory"
)

var (
	// ErrSink indicates the output could not be written.
	ErrSink = errors.New("sdk: output sink failure")

	// ErrConstOuter indicates a constant without an enclosing object.
	ErrConstOuter = errors.New("sdk: constant has no outer")
)

// Failure records one object whose output was abandoned.
type Failure struct {
	Addr memory.Addr
	Name string // Full name, when it could be read
	Kind graph.Kind
	Err  error
}

func (f Failure) Error() string {
	name := f.Name
	if name == "" {
		name = f.Addr.String()
	}
	return fmt.Sprintf("%s %s: %v", f.Kind, name, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

var reasons = []struct {
	err   error
	label string
}{
	{enums.ErrBadVariant, "bad_variant"},
	{graph.ErrMissingName, "missing_name"},
	{classify.ErrUnknownProperty, "unknown_property"},
	{classify.ErrNullReference, "null_reference"},
	{layout.ErrSizeMismatch, "size_mismatch"},
	{layout.ErrOverlap, "overlap"},
	{layout.ErrGap, "gap"},
	{bitfield.ErrOverflow, "bitfield_overflow"},
	{graph.ErrChainTooLong, "chain_too_long"},
	{graph.ErrNoOuter, "no_outer"},
	{graph.ErrTableTooLarge, "table_too_large"},
	{ErrConstOuter, "const_outer"},
	{memory.ErrNullPointer, "null_pointer"},
	{memory.ErrUnmapped, "unmapped"},
}

// Reason returns a short stable label for err, suitable for log
// attributes and metric labels.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.label
		}
	}
	return "other"
}
