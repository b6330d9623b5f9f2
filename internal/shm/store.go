// Package shm manages the anonymous shared memory that backs pixel buffers
// handed to the compositor.
package shm

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Operations reported in Error.Op
const (
	OpCreate   = "create"
	OpTruncate = "truncate"
	OpMmap     = "mmap"
)

// ErrInvalidSize is returned for sizes that are not positive or do not fit
// the protocol's 32-bit signed size fields.
var ErrInvalidSize = errors.New("invalid buffer size")

// Error describes a failed step while acquiring shared memory.
type Error struct {
	Op   string
	Size int
	Err  error
}

func (e *Error) Error() string {
	switch e.Op {
	case OpCreate:
		return fmt.Sprintf("creating a buffer file for %d B failed: %v", e.Size, e.Err)
	case OpTruncate:
		return fmt.Sprintf("truncating a buffer file for %d B failed: %v", e.Size, e.Err)
	case OpMmap:
		return fmt.Sprintf("mapping a buffer file of %d B failed: %v", e.Size, e.Err)
	default:
		return fmt.Sprintf("shm %s for %d B failed: %v", e.Op, e.Size, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// OS is the set of system calls the backing store needs.
type OS interface {
	MemfdCreate(name string, flags int) (int, error)
	Ftruncate(fd int, size int64) error
	AddSeals(fd int, seals int) error
	Mmap(fd int, size int) ([]byte, error)
	Munmap(b []byte) error
	Close(fd int) error
}

// System implements OS with real Linux system calls.
type System struct{}

func (System) MemfdCreate(name string, flags int) (int, error) {
	return unix.MemfdCreate(name, flags)
}

func (System) Ftruncate(fd int, size int64) error {
	return unix.Ftruncate(fd, size)
}

func (System) AddSeals(fd int, seals int) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, seals)
	return err
}

func (System) Mmap(fd int, size int) ([]byte, error) {
	return unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func (System) Munmap(b []byte) error {
	return unix.Munmap(b)
}

func (System) Close(fd int) error {
	return unix.Close(fd)
}

const (
	memfdFlags = unix.MFD_CLOEXEC | unix.MFD_ALLOW_SEALING

	// The compositor maps the same pages; it must never see them shrink.
	seals = unix.F_SEAL_SHRINK | unix.F_SEAL_GROW | unix.F_SEAL_SEAL
)

// BackingStore is an anonymous memory file and its shared mapping.
//
// The descriptor is only needed until the compositor has received a copy;
// the mapping stays valid after CloseFD and is released by Unmap.
type BackingStore struct {
	sys    OS
	fd     int
	data   []byte
	size   int
	sealed bool

	fdClosed bool
	unmapped bool
}

// Create allocates size bytes of anonymous shared memory. The file has no
// path in any directory. If mapping fails the descriptor is closed before
// returning.
func Create(sys OS, name string, size int) (*BackingStore, error) {
	if sys == nil {
		sys = System{}
	}
	if size <= 0 || size > maxSize {
		return nil, &Error{Op: OpCreate, Size: size, Err: ErrInvalidSize}
	}

	fd, err := sys.MemfdCreate(name, memfdFlags)
	if err != nil {
		return nil, &Error{Op: OpCreate, Size: size, Err: err}
	}

	if err := sys.Ftruncate(fd, int64(size)); err != nil {
		sys.Close(fd)
		return nil, &Error{Op: OpTruncate, Size: size, Err: err}
	}

	// Sealing is best effort; older kernels or filesystems refuse it.
	sealed := sys.AddSeals(fd, seals) == nil

	data, err := sys.Mmap(fd, size)
	if err != nil {
		sys.Close(fd)
		return nil, &Error{Op: OpMmap, Size: size, Err: err}
	}

	return &BackingStore{
		sys:    sys,
		fd:     fd,
		data:   data,
		size:   size,
		sealed: sealed,
	}, nil
}

// FD returns the descriptor, or -1 once it has been closed.
func (s *BackingStore) FD() int {
	if s.fdClosed {
		return -1
	}
	return s.fd
}

// Bytes returns the mapped memory, or nil once unmapped.
func (s *BackingStore) Bytes() []byte {
	if s.unmapped {
		return nil
	}
	return s.data
}

// Size returns the size of the mapping in bytes.
func (s *BackingStore) Size() int { return s.size }

// Sealed reports whether the file was sealed against resizing.
func (s *BackingStore) Sealed() bool { return s.sealed }

// CloseFD closes the descriptor. It is safe to call more than once.
func (s *BackingStore) CloseFD() error {
	if s.fdClosed {
		return nil
	}
	s.fdClosed = true
	return s.sys.Close(s.fd)
}

// Unmap releases the mapping. It is safe to call more than once.
func (s *BackingStore) Unmap() error {
	if s.unmapped {
		return nil
	}
	s.unmapped = true
	err := s.sys.Munmap(s.data)
	s.data = nil
	return err
}

// Close closes the descriptor and releases the mapping.
func (s *BackingStore) Close() error {
	return errors.Join(s.CloseFD(), s.Unmap())
}
