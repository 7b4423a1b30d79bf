package fixedpool

import (
	"errors"
	"sync"
	"unsafe"
)

// SlotBaseSize and PoolCount fix the shape of the process-wide HashBucket:
// pool i (0-based) serves slots of (i+1)*SlotBaseSize bytes, so the bucket
// covers every size up to PoolCount*SlotBaseSize.
const (
	SlotBaseSize = 8
	PoolCount    = 64
	MaxPoolSize  = PoolCount * SlotBaseSize
)

// HashBucket is a process-wide array of fixed-size pools, one per
// SlotBaseSize-sized step, letting New/Delete serve any small type through
// the right pool without the caller naming a size class explicitly.
// Grounded on HashBucket::getMemoryPool /
// newElement<T>/deleteElement<T> (original_source/MemoryPoolv1/MemoryPool.cpp),
// reimplemented with Go generics in place of C++ templates.
type HashBucket struct {
	pools [PoolCount]Pool
	once  sync.Once
}

func (h *HashBucket) init() {
	h.once.Do(func() {
		for i := range h.pools {
			h.pools[i].Init((i + 1) * SlotBaseSize)
		}
	})
}

// poolFor returns the pool serving size, and whether size is within this
// bucket's range at all.
func (h *HashBucket) poolFor(size int) (*Pool, bool) {
	if size <= 0 {
		size = 1
	}
	if size > MaxPoolSize {
		return nil, false
	}
	h.init()
	return &h.pools[(size-1)/SlotBaseSize], true
}

// Allocate returns a block of at least size bytes, or ErrOversize if size
// exceeds MaxPoolSize. See Pool.Allocate for the zeroing caveat on reused
// slots.
func (h *HashBucket) Allocate(size int) (unsafe.Pointer, error) {
	pool, ok := h.poolFor(size)
	if !ok {
		return nil, ErrOversize
	}
	return pool.Allocate()
}

// Deallocate returns a block previously handed out by Allocate for the
// given size to its owning pool.
func (h *HashBucket) Deallocate(ptr unsafe.Pointer, size int) {
	if pool, ok := h.poolFor(size); ok {
		pool.Deallocate(ptr)
	}
}

var defaultBucket HashBucket

// New allocates space for one T from the process-wide default HashBucket
// and returns a pointer to it, the generic Go counterpart of the source
// allocator's newElement<T>(). Types larger than MaxPoolSize fall back to
// Go's own allocator, since those sizes never flow through a pool that
// Delete could later confuse with pool-owned memory. A genuine out-of-memory
// error from the OS is not something New papers over by handing back a
// Go-heap pointer that Delete would then push onto a pool free list as if
// it were OS-backed slot memory, so it panics instead.
func New[T any]() *T {
	size := int(unsafe.Sizeof(*new(T)))
	ptr, err := defaultBucket.Allocate(size)
	if err != nil {
		if errors.Is(err, ErrOversize) {
			return new(T)
		}
		panic(err)
	}
	return (*T)(ptr)
}

// Delete returns p to the pool it came from, the counterpart of
// deleteElement<T>(). Calling Delete on a *T not obtained from New[T] is
// undefined behavior, same as the source allocator's contract.
func Delete[T any](p *T) {
	if p == nil {
		return
	}
	size := int(unsafe.Sizeof(*p))
	if size > MaxPoolSize {
		return
	}
	defaultBucket.Deallocate(unsafe.Pointer(p), size)
}
