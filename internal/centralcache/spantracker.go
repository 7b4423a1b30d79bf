package centralcache

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/quartzmem/slaballoc/internal/sizeclass"
)

// maxDelayCount and delayInterval gate how eagerly a size class's wholly
// free spans are swept back to PageCache: a class must see this many
// returnRange calls, and this much wall time must have passed since the
// last sweep, before we bother walking its spans. This finishes v3's
// (commented-out) SpanTracker / MAX_DELAY_COUNT design, which the
// allocator never wired up.
const (
	maxDelayCount = 48
	delayInterval = time.Second
)

// spanInfo tracks one span carved for a single size class: how many blocks
// it holds in total and how many of those currently sit in the class's
// free list. A span whose freeCount reaches blockCount is wholly idle and a
// candidate for return to PageCache.
type spanInfo struct {
	addr       uintptr
	numPages   int
	blockCount int64
	freeCount  int64 // atomic
}

func (sp *spanInfo) idle() bool {
	return atomic.LoadInt64(&sp.freeCount) >= sp.blockCount
}

// spanTracker maintains the spans live within one size class, sorted by
// address so a freed block can be mapped back to its owning span in
// O(log spans) rather than a linear scan, per the allocator's own
// recommendation for this exact spot.
type spanTracker struct {
	spans []*spanInfo // sorted by addr
}

func (t *spanTracker) add(info *spanInfo) {
	i := sort.Search(len(t.spans), func(i int) bool { return t.spans[i].addr >= info.addr })
	t.spans = append(t.spans, nil)
	copy(t.spans[i+1:], t.spans[i:])
	t.spans[i] = info
}

// find returns the span whose page range contains addr, or nil.
func (t *spanTracker) find(addr uintptr) *spanInfo {
	i := sort.Search(len(t.spans), func(i int) bool { return t.spans[i].addr > addr }) - 1
	if i < 0 || i >= len(t.spans) {
		return nil
	}
	sp := t.spans[i]
	if addr < sp.addr+uintptr(sp.numPages*sizeclass.PageSize) {
		return sp
	}
	return nil
}

// recordFree marks n more blocks within addr's owning span as free.
func (t *spanTracker) recordFree(addr uintptr, n int64) {
	if sp := t.find(addr); sp != nil {
		atomic.AddInt64(&sp.freeCount, n)
	}
}

// recordTaken marks n blocks within addr's owning span as no longer free.
func (t *spanTracker) recordTaken(addr uintptr, n int64) {
	if sp := t.find(addr); sp != nil {
		atomic.AddInt64(&sp.freeCount, -n)
	}
}

// idleSpans returns every span in the tracker that is currently wholly
// free, removing them from the tracker as it finds them.
func (t *spanTracker) idleSpans() []*spanInfo {
	var idle []*spanInfo
	kept := t.spans[:0]
	for _, sp := range t.spans {
		if sp.idle() {
			idle = append(idle, sp)
		} else {
			kept = append(kept, sp)
		}
	}
	t.spans = kept
	return idle
}
