package pagecache

import "errors"

// ErrOutOfMemory is returned when the OS refuses to hand over more pages.
var ErrOutOfMemory = errors.New("pagecache: system allocation failed")
