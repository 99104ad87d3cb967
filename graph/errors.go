// Package graph navigates a UE3-style reflection graph held in foreign
// memory: the global object and name tables, outer chains, class
// hierarchies and the per-kind payloads of fields and properties.
package graph

import (
	"errors"
	"fmt"

	"github.com/skdltmxn/sdkgen/memory"
)

// Sentinel errors for common conditions.
var (
	// ErrMissingName indicates a name index that does not resolve to text.
	ErrMissingName = errors.New("graph: missing name")

	// ErrMarkerNotFound indicates a required static class is absent.
	ErrMarkerNotFound = errors.New("graph: static class not found")

	// ErrObjectNotFound indicates no object has the requested full name.
	ErrObjectNotFound = errors.New("graph: object not found")

	// ErrChainTooLong indicates an outer, super or children chain that
	// does not terminate, usually a cycle.
	ErrChainTooLong = errors.New("graph: chain exceeds step limit")

	// ErrNoOuter indicates an object lacks the outers needed to qualify its name.
	ErrNoOuter = errors.New("graph: not enough outers")

	// ErrTableTooLarge indicates an implausible table count.
	ErrTableTooLarge = errors.New("graph: table too large")

	// ErrLayout indicates an unusable layout description.
	ErrLayout = errors.New("graph: invalid layout")
)

// NodeError records a failed access to one node of the graph.
type NodeError struct {
	Addr memory.Addr // Address of the node being read
	Op   string      // Accessor that failed
	Err  error       // Underlying error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("graph: %s of node %s: %v", e.Op, e.Addr, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// MarkerError reports a static class that could not be located.
type MarkerError struct {
	Name string // Full name searched for
}

func (e *MarkerError) Error() string {
	return fmt.Sprintf("graph: unable to find static class %q", e.Name)
}

func (e *MarkerError) Unwrap() error { return ErrMarkerNotFound }
