// Package threadcache is the allocator's fast path: a per-owner free list
// per size class, designed to be used by exactly one goroutine at a time
// with no internal locking, the same non-thread-safety contract the
// teacher documents for its own FastAllocator/BumpAllocator instances.
//
// Go has nothing directly analogous to the source allocator's
// thread_local ThreadCache instance, so Cache is instead an explicit,
// caller-owned value: callers that want one cache per goroutine construct
// one per goroutine and call Release when that goroutine is done with it,
// draining whatever it still holds back to CentralCache. Package
// slaballoc builds the thread_local-like convenience on top of this with a
// sync.Pool.
//
// Grounded on ThreadCache::allocate/deallocate/fetchFromCentralCache/
// returnToCentralCache (original_source/MemoryPoolv3/src/ThreadCache.cpp).
package threadcache

import (
	"unsafe"

	"github.com/quartzmem/slaballoc/internal/centralcache"
	"github.com/quartzmem/slaballoc/internal/sizeclass"
)

// Cache is a single owner's local free lists, one per size class. The zero
// value is not ready to use; construct one with New. Cache is NOT safe for
// concurrent use — callers own exactly one Cache per goroutine (or
// equivalent unit of serial execution).
type Cache struct {
	central *centralcache.Cache

	heads [sizeclass.Count]unsafe.Pointer
	sizes [sizeclass.Count]int
}

// New returns a Cache that refills from and returns overflow to central.
func New(central *centralcache.Cache) *Cache {
	return &Cache{central: central}
}

func nextLink(block unsafe.Pointer) unsafe.Pointer {
	return *(*unsafe.Pointer)(block)
}

func setNextLink(block unsafe.Pointer, next unsafe.Pointer) {
	*(*unsafe.Pointer)(block) = next
}

// Allocate returns a block of at least size bytes. A size of zero is
// promoted to sizeclass.Alignment; a size larger than sizeclass.MaxBytes
// returns ErrOversize so the caller can route it around the cache tiers
// entirely (the allocator deliberately never caches anything that large).
func (c *Cache) Allocate(size int) (unsafe.Pointer, error) {
	if size == 0 {
		size = sizeclass.Alignment
	}
	if size > sizeclass.MaxBytes {
		return nil, ErrOversize
	}

	index := sizeclass.Index(size)
	if head := c.heads[index]; head != nil {
		c.heads[index] = nextLink(head)
		c.sizes[index]--
		return head, nil
	}

	return c.fetchFromCentral(index)
}

// fetchFromCentral refills local class index from CentralCache, keeps the
// whole batch but one block locally, and returns that one block.
func (c *Cache) fetchFromCentral(index int) (unsafe.Pointer, error) {
	blockSize := sizeclass.BlockSize(index)
	batchNum := sizeclass.BatchNum(blockSize)

	head, n, err := c.central.FetchRange(index, batchNum)
	if err != nil {
		return nil, err
	}
	if head == nil {
		return nil, centralcache.ErrOutOfMemory
	}

	result := head
	if n > 1 {
		c.heads[index] = nextLink(head)
		setNextLink(head, nil)
	}
	c.sizes[index] += n - 1
	return result, nil
}

// Deallocate returns a block of the given size to this cache's local free
// list, handing part of the list back to CentralCache once the class
// crosses sizeclass.ReturnThreshold blocks. size must be the same size
// passed to the matching Allocate call (oversized requests are the
// caller's responsibility, same as Allocate).
func (c *Cache) Deallocate(ptr unsafe.Pointer, size int) error {
	if ptr == nil {
		return nil
	}
	if size == 0 {
		size = sizeclass.Alignment
	}
	if size > sizeclass.MaxBytes {
		return ErrOversize
	}

	index := sizeclass.Index(size)
	setNextLink(ptr, c.heads[index])
	c.heads[index] = ptr
	c.sizes[index]++

	if c.sizes[index] > sizeclass.ReturnThreshold {
		return c.returnToCentral(index)
	}
	return nil
}

// returnToCentral hands all but a 1/ReturnKeepDenominator share of class
// index's local free list back to CentralCache.
func (c *Cache) returnToCentral(index int) error {
	batchNum := c.sizes[index]
	if batchNum <= 1 {
		return nil
	}

	keepNum := batchNum * sizeclass.ReturnKeepNumerator / sizeclass.ReturnKeepDenominator
	if keepNum < 1 {
		keepNum = 1
	}

	splitNode := c.heads[index]
	for i := 0; i < keepNum-1; i++ {
		next := nextLink(splitNode)
		if next == nil {
			break
		}
		splitNode = next
	}

	rest := nextLink(splitNode)
	if rest == nil {
		return nil
	}
	setNextLink(splitNode, nil)
	c.sizes[index] = keepNum

	returnNum := batchNum - keepNum
	return c.central.ReturnRange(rest, returnNum, index)
}

// Release drains every size class this cache still holds back to
// CentralCache. Callers must call Release when a Cache's owning goroutine
// is finished with it; an abandoned Cache whose blocks are never released
// strands that memory until the process exits.
func (c *Cache) Release() error {
	for index := 0; index < sizeclass.Count; index++ {
		head, n := c.heads[index], c.sizes[index]
		if head == nil || n == 0 {
			continue
		}
		if err := c.central.ReturnRange(head, n, index); err != nil {
			return err
		}
		c.heads[index] = nil
		c.sizes[index] = 0
	}
	return nil
}
