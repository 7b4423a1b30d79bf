// Package pagecache is the bottom tier of the allocator: the only place
// that ever talks to the operating system. It hands out and reclaims spans
// — contiguous runs of pages — to CentralCache, splitting oversized spans on
// allocation and, on the way back, coalescing a freed span with the free
// span that immediately follows it (there is no backward coalescing).
//
// Grounded on the original PageCache::allocateSpan/deallocateSpan pair
// (original_source/MemoryPoolv3/src/PageCache.cpp), translated from an
// intrusive Span linked list keyed by a std::map<size_t, Span*> into Go
// maps of *span, since Go has no equivalent to a sorted multimap with
// lower_bound: we keep a free list per page count instead and scan every
// bucket for the smallest page count that is at least the requested size.
package pagecache

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/quartzmem/slaballoc/internal/sizeclass"
	"github.com/quartzmem/slaballoc/internal/sysmem"
)

const debugPageCache = false

var logPageCache = os.Getenv("SLABALLOC_LOG") != ""

// span describes one contiguous run of pages. next links free spans of the
// same page count together; spans in use are reachable only through
// spanByAddr and carry a nil next.
type span struct {
	addr     uintptr
	numPages int
	next     *span
}

// Cache is the process-wide page source. The zero value is not ready to
// use; construct one with New.
type Cache struct {
	mu         sync.Mutex
	freeSpans  map[int]*span     // page count -> head of free list
	spanByAddr map[uintptr]*span // every live span (free or in use), by address
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{
		freeSpans:  make(map[int]*span),
		spanByAddr: make(map[uintptr]*span),
	}
}

// AllocateSpan returns the address of a span covering at least numPages
// contiguous pages. It first looks for a free span of that size or larger,
// splitting off and re-banking any excess; failing that it maps fresh pages
// from the OS.
func (c *Cache) AllocateSpan(numPages int) (unsafe.Pointer, error) {
	if numPages <= 0 {
		numPages = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if sp := c.takeFreeSpanLocked(numPages); sp != nil {
		return unsafe.Pointer(sp.addr), nil
	}

	addr, err := sysmem.Map(numPages * sizeclass.PageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}

	sp := &span{addr: uintptr(addr), numPages: numPages}
	c.spanByAddr[sp.addr] = sp
	c.debugf("grew by %d pages at %#x", numPages, sp.addr)
	return addr, nil
}

// takeFreeSpanLocked removes and returns a free span of at least numPages
// pages, splitting the remainder back into the free lists when the match is
// larger than requested. Returns nil if no free span is big enough.
func (c *Cache) takeFreeSpanLocked(numPages int) *span {
	best := -1
	for n := range c.freeSpans {
		if n >= numPages && (best == -1 || n < best) {
			best = n
		}
	}
	if best == -1 {
		return nil
	}

	sp := c.freeSpans[best]
	if sp.next != nil {
		c.freeSpans[best] = sp.next
	} else {
		delete(c.freeSpans, best)
	}
	sp.next = nil

	if sp.numPages > numPages {
		rest := &span{
			addr:     sp.addr + uintptr(numPages*sizeclass.PageSize),
			numPages: sp.numPages - numPages,
		}
		c.pushFreeLocked(rest)
		c.spanByAddr[rest.addr] = rest
		sp.numPages = numPages
	}

	c.spanByAddr[sp.addr] = sp
	return sp
}

// DeallocateSpan returns a span of numPages pages starting at addr to the
// free lists, coalescing it forward with its immediate neighbor if that
// neighbor is itself free. An addr never handed out by AllocateSpan is
// silently ignored rather than reported as an error, since PageCache has
// no way to distinguish "never ours" from "already freed" and the caller
// has nothing actionable to do with either.
func (c *Cache) DeallocateSpan(addr unsafe.Pointer, numPages int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := uintptr(addr)
	sp, ok := c.spanByAddr[a]
	if !ok {
		return nil
	}
	sp.numPages = numPages

	nextAddr := a + uintptr(numPages*sizeclass.PageSize)
	if next, ok := c.spanByAddr[nextAddr]; ok && c.removeFromFreeListLocked(next) {
		sp.numPages += next.numPages
		delete(c.spanByAddr, nextAddr)
	}

	c.pushFreeLocked(sp)
	c.debugf("freed span at %#x (%d pages)", a, sp.numPages)
	return nil
}

// removeFromFreeListLocked removes target from its free list if present,
// reporting whether it was found there (i.e. it was actually free, not
// still in use).
func (c *Cache) removeFromFreeListLocked(target *span) bool {
	head := c.freeSpans[target.numPages]
	if head == nil {
		return false
	}
	if head == target {
		if target.next != nil {
			c.freeSpans[target.numPages] = target.next
		} else {
			delete(c.freeSpans, target.numPages)
		}
		target.next = nil
		return true
	}
	for prev := head; prev.next != nil; prev = prev.next {
		if prev.next == target {
			prev.next = target.next
			target.next = nil
			return true
		}
	}
	return false
}

func (c *Cache) pushFreeLocked(sp *span) {
	sp.next = c.freeSpans[sp.numPages]
	c.freeSpans[sp.numPages] = sp
}

func (c *Cache) debugf(format string, args ...any) {
	if !debugPageCache || !logPageCache {
		return
	}
	fmt.Fprintf(os.Stderr, "pagecache: "+format+"\n", args...)
}
