package fixedpool

import "errors"

var (
	// ErrNotInitialized is returned by Allocate/Deallocate on a FixedPool
	// that has never had Init called on it.
	ErrNotInitialized = errors.New("fixedpool: pool used before init")

	// ErrOutOfMemory is returned when the OS refuses to supply a new block.
	ErrOutOfMemory = errors.New("fixedpool: unable to map a new slab")

	// ErrOversize is returned by the HashBucket dispatch helpers when a
	// requested size is larger than any pool the bucket manages.
	ErrOversize = errors.New("fixedpool: size exceeds the largest pooled slot")
)
