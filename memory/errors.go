package memory

import (
	"errors"
	"fmt"
)

// Sentinel errors for foreign memory access.
var (
	// ErrNullPointer indicates a read through a null address.
	ErrNullPointer = errors.New("memory: null pointer")

	// ErrUnmapped indicates the address range is not backed by any region.
	ErrUnmapped = errors.New("memory: address not mapped")

	// ErrOverlappingRegions indicates two image regions share addresses.
	ErrOverlappingRegions = errors.New("memory: overlapping regions")

	// ErrStringTooLong indicates a C string had no terminator within the limit.
	ErrStringTooLong = errors.New("memory: string exceeds limit")

	// ErrUnsupported indicates the memory source is not available on this platform.
	ErrUnsupported = errors.New("memory: unsupported on this platform")
)

// FaultError describes a failed read of foreign memory.
type FaultError struct {
	Addr Addr  // First address that could not be read
	Size int   // Number of bytes requested
	Err  error // Underlying error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("memory: read of %d bytes at %s failed: %v", e.Size, e.Addr, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }
