//go:build unix

package sysmem

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Map asks the OS for a fresh, zero-filled, anonymous region of the given
// size and returns a pointer to its first byte. size must be a positive
// multiple of PageSize.
func Map(size int) (unsafe.Pointer, error) {
	if size <= 0 || size%PageSize != 0 {
		return nil, ErrUnsupportedSize
	}

	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("sysmem: mmap %d bytes: %w", size, err)
	}
	return unsafe.Pointer(&b[0]), nil
}

// Unmap releases a region previously returned by Map. size must match the
// size originally requested. A second Unmap of the same region gets EINVAL
// back from unix.Munmap, which tracks the mappings it handed out and
// rejects one it no longer knows; that is treated as a no-op rather than an
// error, same as mmfile's Map cleanup closure does for its double-unmap case.
func Unmap(addr unsafe.Pointer, size int) error {
	if size <= 0 || size%PageSize != 0 {
		return ErrUnsupportedSize
	}

	b := unsafe.Slice((*byte)(addr), size)
	if err := unix.Munmap(b); err != nil {
		if errors.Is(err, unix.EINVAL) {
			return nil
		}
		return fmt.Errorf("sysmem: munmap %d bytes: %w", size, err)
	}
	return nil
}
