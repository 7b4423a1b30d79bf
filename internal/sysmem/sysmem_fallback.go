//go:build !unix

package sysmem

import (
	"errors"
	"unsafe"
)

// ErrUnsupportedPlatform is returned by Map/Unmap on platforms without an
// anonymous-mmap facility.
var ErrUnsupportedPlatform = errors.New("sysmem: anonymous memory mapping is not supported on this platform")

func Map(size int) (unsafe.Pointer, error) {
	return nil, ErrUnsupportedPlatform
}

func Unmap(addr unsafe.Pointer, size int) error {
	return ErrUnsupportedPlatform
}
