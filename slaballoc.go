package slaballoc

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/quartzmem/slaballoc/internal/centralcache"
	"github.com/quartzmem/slaballoc/internal/pagecache"
	"github.com/quartzmem/slaballoc/internal/sizeclass"
	"github.com/quartzmem/slaballoc/internal/sysmem"
	"github.com/quartzmem/slaballoc/threadcache"
)

var (
	pages   = pagecache.New()
	central = centralcache.New(pages)

	caches = sync.Pool{
		New: func() any { return threadcache.New(central) },
	}
)

// Allocate returns a pointer to at least size bytes. Memory fresh off the
// OS comes back zeroed; memory recycled through a free list still holds
// whatever its previous owner left in it. A size of zero is promoted to
// sizeclass.Alignment. Requests larger than sizeclass.MaxBytes bypass the
// cache tiers and map OS memory directly.
func Allocate(size int) (unsafe.Pointer, error) {
	if size < 0 {
		return nil, ErrInvalidSize
	}
	statsAllocations.Add(1)

	if size > sizeclass.MaxBytes {
		statsLargeAllocations.Add(1)
		n := sizeclass.AlignPages(size)
		ptr, err := sysmem.Map(n)
		if err != nil {
			return nil, fmt.Errorf("slaballoc: large allocation: %w", err)
		}
		return ptr, nil
	}

	tc := caches.Get().(*threadcache.Cache)
	defer caches.Put(tc)
	return tc.Allocate(size)
}

// Deallocate releases a block previously returned by Allocate. size must
// be the exact size passed to the matching Allocate call.
func Deallocate(ptr unsafe.Pointer, size int) error {
	if ptr == nil {
		return nil
	}
	statsDeallocations.Add(1)

	if size > sizeclass.MaxBytes {
		statsLargeDeallocations.Add(1)
		return sysmem.Unmap(ptr, sizeclass.AlignPages(size))
	}

	tc := caches.Get().(*threadcache.Cache)
	defer caches.Put(tc)
	return tc.Deallocate(ptr, size)
}
