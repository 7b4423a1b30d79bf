// Package centralcache is the middle tier shared by every ThreadCache: a
// per-size-class free list, guarded by a per-class spinlock rather than one
// lock for the whole cache, so unrelated size classes never contend with
// each other.
//
// Grounded on CentralCache::fetchRange/returnRange
// (original_source/MemoryPoolv3/src/CentralCache.cpp): an index is a size
// class, a batch of blocks is carved from a span fetched from PageCache
// when the class's list runs dry, and blocks are linked by overwriting
// their own first machine word with the address of the next free block —
// the same embedded free-list trick the Go runtime's own fixalloc uses,
// except here it is an in-process pointer, not a serialized file offset,
// so we dereference it directly through unsafe.Pointer instead of reaching
// for encoding/binary.
package centralcache

import (
	"fmt"
	"os"
	"time"
	"unsafe"

	"github.com/quartzmem/slaballoc/internal/pagecache"
	"github.com/quartzmem/slaballoc/internal/sizeclass"
)

const debugCentralCache = false

var logCentralCache = os.Getenv("SLABALLOC_LOG") != ""

func nowNanos() int64 { return time.Now().UnixNano() }

// Cache is the process-wide, size-class-partitioned central free store. The
// zero value is not ready to use; construct one with New.
type Cache struct {
	pages *pagecache.Cache

	locks    [sizeclass.Count]spinLock
	heads    [sizeclass.Count]unsafe.Pointer
	trackers [sizeclass.Count]spanTracker

	returnsSinceSweep [sizeclass.Count]int32
	lastSweepNanos    [sizeclass.Count]int64
}

// New returns a Cache drawing spans from pages.
func New(pages *pagecache.Cache) *Cache {
	return &Cache{pages: pages}
}

// nextLink reads the embedded next-pointer stored in the first word of
// block.
func nextLink(block unsafe.Pointer) unsafe.Pointer {
	return *(*unsafe.Pointer)(block)
}

// setNextLink overwrites the embedded next-pointer stored in the first
// word of block.
func setNextLink(block unsafe.Pointer, next unsafe.Pointer) {
	*(*unsafe.Pointer)(block) = next
}

// FetchRange removes up to batchNum blocks of size class index from the
// central free list, refilling from PageCache if the list is empty, and
// returns the head of the resulting chain plus how many blocks it holds.
func (c *Cache) FetchRange(index int, batchNum int) (unsafe.Pointer, int, error) {
	if index < 0 || index >= sizeclass.Count {
		return nil, 0, ErrBadIndex
	}
	if batchNum <= 0 {
		return nil, 0, nil
	}

	lock := &c.locks[index]
	lock.Lock()
	defer lock.Unlock()

	head := c.heads[index]
	if head == nil {
		if err := c.refillLocked(index); err != nil {
			return nil, 0, err
		}
		head = c.heads[index]
		if head == nil {
			return nil, 0, nil
		}
	}

	// Blocks on one class's free list can have been carved from different
	// spans once a ThreadCache's returns mix spans together, so each block
	// is attributed to its own owning span rather than assuming the whole
	// chain came from whatever span contains head.
	var prev unsafe.Pointer
	cur := head
	count := 0
	for cur != nil && count < batchNum {
		c.trackers[index].recordTaken(uintptr(cur), 1)
		prev = cur
		cur = nextLink(cur)
		count++
	}
	if prev != nil {
		setNextLink(prev, nil)
	}
	c.heads[index] = cur

	c.debugf("fetched %d blocks of class %d", count, index)
	return head, count, nil
}

// refillLocked carves a fresh span from PageCache into blocks of this
// class's size and chains every one of them onto c.heads[index]; the caller
// (FetchRange) then detaches its batch from that list. Caller must hold
// c.locks[index].
func (c *Cache) refillLocked(index int) error {
	blockSize := sizeclass.BlockSize(index)
	numPages := sizeclass.SpanPages
	if numPages*sizeclass.PageSize < blockSize {
		numPages = sizeclass.AlignPages(blockSize) / sizeclass.PageSize
	}

	addr, err := c.pages.AllocateSpan(numPages)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}

	totalBlocks := (numPages * sizeclass.PageSize) / blockSize
	start := uintptr(addr)
	for i := 0; i < totalBlocks-1; i++ {
		cur := unsafe.Pointer(start + uintptr(i*blockSize))
		next := unsafe.Pointer(start + uintptr((i+1)*blockSize))
		setNextLink(cur, next)
	}
	setNextLink(unsafe.Pointer(start+uintptr((totalBlocks-1)*blockSize)), nil)

	c.heads[index] = addr
	// Every block carved from a fresh span starts out on the free list;
	// freeCount begins at blockCount and only drops as FetchRange hands
	// blocks out.
	c.trackers[index].add(&spanInfo{addr: start, numPages: numPages, blockCount: int64(totalBlocks), freeCount: int64(totalBlocks)})
	c.debugf("carved span of %d pages into %d blocks for class %d", numPages, totalBlocks, index)
	return nil
}

// ReturnRange splices a chain of count blocks of size class index, starting
// at start, back onto the head of the central free list, and opportunistically
// sweeps any span that has gone wholly idle back to PageCache.
func (c *Cache) ReturnRange(start unsafe.Pointer, count int, index int) error {
	if start == nil || index < 0 || index >= sizeclass.Count {
		return ErrBadIndex
	}

	idle := func() []*spanInfo {
		lock := &c.locks[index]
		lock.Lock()
		defer lock.Unlock()

		// Same reasoning as FetchRange: attribute each block in the
		// returned chain to its own owning span, not just the span
		// containing start.
		end := start
		c.trackers[index].recordFree(uintptr(start), 1)
		for i := 1; i < count; i++ {
			if n := nextLink(end); n != nil {
				end = n
				c.trackers[index].recordFree(uintptr(end), 1)
			} else {
				break
			}
		}

		setNextLink(end, c.heads[index])
		c.heads[index] = start

		return c.sweepIfDueLocked(index)
	}()

	for _, sp := range idle {
		if err := c.pages.DeallocateSpan(unsafe.Pointer(sp.addr), sp.numPages); err != nil {
			return err
		}
		c.debugf("swept idle span of %d pages back to pagecache for class %d", sp.numPages, index)
	}
	return nil
}

// sweepIfDueLocked reports the spans worth reclaiming for index, if the
// per-class return count and wall-clock gates have both been satisfied,
// unlinking their blocks from the free list before returning them. Caller
// must hold c.locks[index] for the whole call, so no other goroutine can
// re-fetch a block out of a span between the idle check and the unlink.
func (c *Cache) sweepIfDueLocked(index int) []*spanInfo {
	c.returnsSinceSweep[index]++
	if c.returnsSinceSweep[index] < maxDelayCount {
		return nil
	}

	now := nowNanos()
	if last := c.lastSweepNanos[index]; last != 0 && time.Duration(now-last) < delayInterval {
		return nil
	}

	idle := c.trackers[index].idleSpans()
	if len(idle) == 0 {
		return nil
	}
	c.returnsSinceSweep[index] = 0
	c.lastSweepNanos[index] = now

	for _, sp := range idle {
		c.unlinkSpanLocked(index, sp)
	}
	return idle
}

// unlinkSpanLocked removes every block belonging to sp from the central
// free list of index. Caller must hold c.locks[index].
func (c *Cache) unlinkSpanLocked(index int, sp *spanInfo) {
	lo, hi := sp.addr, sp.addr+uintptr(sp.numPages*sizeclass.PageSize)

	var newHead, tail unsafe.Pointer
	for cur := c.heads[index]; cur != nil; {
		next := nextLink(cur)
		addr := uintptr(cur)
		if addr < lo || addr >= hi {
			if tail == nil {
				newHead = cur
			} else {
				setNextLink(tail, cur)
			}
			tail = cur
		}
		cur = next
	}
	if tail != nil {
		setNextLink(tail, nil)
	}
	c.heads[index] = newHead
}

func (c *Cache) debugf(format string, args ...any) {
	if !debugCentralCache || !logCentralCache {
		return
	}
	fmt.Fprintf(os.Stderr, "centralcache: "+format+"\n", args...)
}
