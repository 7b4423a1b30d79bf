// Package sysmem is the sole point of contact between the allocator and the
// operating system. Every span PageCache ever hands out traces back to a
// Map call here; every byte returned to the OS goes through Unmap.
//
// The teacher's internal/mmfile maps an existing file MAP_SHARED so edits
// land on disk. We have no file and no persistence requirement, so we map
// anonymous, private pages instead — same syscall, different flags.
package sysmem

import "errors"

// ErrUnsupportedSize is returned when a caller asks for a region that is not
// a positive multiple of the OS page size.
var ErrUnsupportedSize = errors.New("sysmem: size must be a positive multiple of the page size")

// PageSize is the granularity Map and Unmap operate at.
const PageSize = 4096
