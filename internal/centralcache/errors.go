package centralcache

import "errors"

var (
	// ErrBadIndex is returned for a size-class index outside the valid range.
	ErrBadIndex = errors.New("centralcache: size class index out of range")

	// ErrOutOfMemory is returned when PageCache cannot supply a fresh span.
	ErrOutOfMemory = errors.New("centralcache: unable to carve a new span")
)
