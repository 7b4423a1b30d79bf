// Package fixedpool is a standalone, single-size allocator: a chain of
// OS-mapped blocks carved into fixed-size slots by a bump pointer, with
// reclaimed slots pushed onto a lock-free stack instead of flowing through
// any of the three tiers in package threadcache/centralcache/pagecache.
// It exists for callers that only ever need one object size and want to
// skip the size-class machinery entirely.
//
// Grounded on MemoryPoolv1 (original_source/MemoryPoolv1/MemoryPool.cpp):
// the bump-pointer block-carving discipline and the lock-free push/pop
// pair are carried over verbatim in spirit, translated from
// std::atomic<Slot*> double-checked CAS loops into sync/atomic's generic
// atomic.Pointer, which is the modern idiomatic equivalent of the same
// pattern (see the lockFreeStack in the retrieved slabby reference for the
// Go shape of this exact idiom).
package fixedpool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/quartzmem/slaballoc/internal/sysmem"
)

// blockSize is the size of each OS mapping a FixedPool carves into slots.
// It is independent of slot size; a pool with small slots just fits more
// of them per block.
const blockSize = 64 * 1024

const pointerSize = int(unsafe.Sizeof(uintptr(0)))

// Pool is a single-size allocator. The zero value must be initialized with
// Init before use.
type Pool struct {
	slotSize int

	mu         sync.Mutex
	blockChain unsafe.Pointer // head of most recently mapped block; first word is the previous block's address
	curSlot    unsafe.Pointer
	lastSlot   unsafe.Pointer

	freeHead atomic.Pointer[byte]
}

// Init fixes the slot size a Pool serves. It must be called exactly once,
// before the first Allocate.
func (p *Pool) Init(slotSize int) {
	if slotSize < pointerSize {
		slotSize = pointerSize
	}
	p.slotSize = slotSize
}

// Allocate returns a slot of this pool's configured size. A slot fresh off
// the bump pointer is zero-filled, courtesy of the OS-mapped page it came
// from; a slot recycled off the free list still holds whatever the
// previous owner left in it. It first tries the lock-free free list, then
// falls back to the bump allocator under a mutex, mapping a fresh block
// from the OS if the current one is exhausted.
func (p *Pool) Allocate() (unsafe.Pointer, error) {
	if p.slotSize == 0 {
		return nil, ErrNotInitialized
	}

	if slot := p.pop(); slot != nil {
		return slot, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if uintptr(p.curSlot) >= uintptr(p.lastSlot) {
		if err := p.allocateNewBlockLocked(); err != nil {
			return nil, err
		}
	}

	slot := p.curSlot
	p.curSlot = unsafe.Add(p.curSlot, p.slotSize)
	return slot, nil
}

// Deallocate returns a slot previously handed out by Allocate to the
// free list. A nil pointer is a no-op.
func (p *Pool) Deallocate(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	p.push(ptr)
}

// allocateNewBlockLocked maps a fresh block, prepends it to the block
// chain (for Release to walk later), and repositions the bump pointers at
// the first properly aligned slot within it. Caller must hold p.mu.
func (p *Pool) allocateNewBlockLocked() error {
	mem, err := sysmem.Map(alignToPage(blockSize))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}

	*(*unsafe.Pointer)(mem) = p.blockChain
	p.blockChain = mem

	body := unsafe.Add(mem, pointerSize)
	padding := padPointer(uintptr(body), uintptr(p.slotSize))
	p.curSlot = unsafe.Add(body, int(padding))
	p.lastSlot = unsafe.Add(mem, alignToPage(blockSize)-p.slotSize+1)
	return nil
}

// padPointer returns the number of padding bytes needed to advance addr to
// the next multiple of align.
func padPointer(addr, align uintptr) uintptr {
	return (align - (addr % align)) % align
}

func alignToPage(n int) int {
	const mask = sysmem.PageSize - 1
	return (n + mask) &^ mask
}

// push is the lock-free MPMC stack push: read the old head, link the new
// node to it, then CAS the head from old to new, retrying on contention.
func (p *Pool) push(slot unsafe.Pointer) {
	node := (*byte)(slot)
	for {
		old := p.freeHead.Load()
		*(*unsafe.Pointer)(slot) = unsafe.Pointer(old)
		if p.freeHead.CompareAndSwap(old, node) {
			return
		}
	}
}

// pop is the lock-free MPMC stack pop. See spec.md's own callout: this is
// vulnerable to the classic ABA hazard if a
// popped node is re-pushed by another goroutine before the CAS below
// completes. Go's atomic.Pointer gives sequentially consistent ordering,
// which is at least as strong as the acquire/release pairing the source
// design calls for.
func (p *Pool) pop() unsafe.Pointer {
	for {
		old := p.freeHead.Load()
		if old == nil {
			return nil
		}
		next := *(*unsafe.Pointer)(unsafe.Pointer(old))
		if p.freeHead.CompareAndSwap(old, (*byte)(next)) {
			return unsafe.Pointer(old)
		}
	}
}

// Release unmaps every block this pool ever carved from the OS. Any slot
// still referenced by a caller after Release becomes a dangling pointer;
// this is intended for teardown of a pool nobody holds slots from anymore.
func (p *Pool) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	block := p.blockChain
	for block != nil {
		prev := *(*unsafe.Pointer)(block)
		if err := sysmem.Unmap(block, alignToPage(blockSize)); err != nil {
			return err
		}
		block = prev
	}
	p.blockChain = nil
	p.curSlot = nil
	p.lastSlot = nil
	p.freeHead.Store(nil)
	return nil
}
