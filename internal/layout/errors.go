package layout

import (
	"errors"
	"fmt"

	"github.com/skdltmxn/sdkgen/internal/classify"
	"github.com/skdltmxn/sdkgen/memory"
)

var (
	// ErrSizeMismatch indicates a classified size that disagrees with the
	// property's declared element size.
	ErrSizeMismatch = errors.New("layout: property size mismatch")

	// ErrOverlap indicates a property that starts inside bytes already
	// laid out.
	ErrOverlap = errors.New("layout: overlapping property")

	// ErrGap indicates a descriptor whose spans do not cover the struct.
	ErrGap = errors.New("layout: spans do not cover struct")
)

// SizeMismatchError reports a classifier result that cannot be right.
type SizeMismatchError struct {
	Addr  memory.Addr   // Property address
	Name  string        // Property name
	Delta int64         // Declared size minus classified size
	Info  classify.Info // Classification that disagreed
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("layout: property size mismatch of %d bytes for %s (%s); info = %+v",
		e.Delta, e.Name, e.Addr, e.Info)
}

func (e *SizeMismatchError) Unwrap() error { return ErrSizeMismatch }
