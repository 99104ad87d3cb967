//go:build linux

package memory

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Process reads the address space of a live process with process_vm_readv.
// The caller needs ptrace access to the target.
type Process struct {
	pid int
}

// OpenProcess attaches a reader to the process with the given pid.
func OpenProcess(pid int) (*Process, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("memory: invalid pid %d", pid)
	}
	if err := unix.Kill(pid, 0); err != nil && err != unix.EPERM {
		return nil, fmt.Errorf("memory: process %d: %w", pid, err)
	}
	return &Process{pid: pid}, nil
}

// Pid returns the target process id.
func (p *Process) Pid() int {
	return p.pid
}

// ReadAt implements io.ReaderAt over the process address space.
func (p *Process) ReadAt(b []byte, off int64) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	local := []unix.Iovec{{Base: &b[0]}}
	local[0].SetLen(len(b))
	remote := []unix.RemoteIovec{{Base: uintptr(off), Len: len(b)}}

	n, err := unix.ProcessVMReadv(p.pid, local, remote, 0)
	if err != nil {
		return 0, &FaultError{Addr: Addr(off), Size: len(b), Err: err}
	}
	if n < len(b) {
		return n, &FaultError{Addr: Addr(off) + Addr(n), Size: len(b) - n, Err: ErrUnmapped}
	}
	return n, nil
}

// Close is a no-op; the process is never modified.
func (p *Process) Close() error {
	return nil
}
