//go:build !linux

package memory

// Process reads the address space of a live process.
type Process struct {
	pid int
}

// OpenProcess is only implemented on Linux.
func OpenProcess(pid int) (*Process, error) {
	return nil, ErrUnsupported
}

// Pid returns the target process id.
func (p *Process) Pid() int {
	return p.pid
}

func (p *Process) ReadAt(b []byte, off int64) (int, error) {
	return 0, ErrUnsupported
}

func (p *Process) Close() error {
	return nil
}
