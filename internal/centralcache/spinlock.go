package centralcache

import (
	"runtime"
	"sync/atomic"
)

// spinLock is a tiny test-and-set lock: a short bounded spin followed by a
// runtime.Gosched yield, favoring the common case where the per-class
// critical section is held for only a handful of pointer writes. Reserved
// for the hot, per-size-class paths; coarser operations elsewhere in the
// allocator use sync.Mutex, same as the teacher does.
type spinLock struct {
	state uint32
}

const spinIterationsBeforeYield = 32

func (l *spinLock) Lock() {
	for i := 0; ; i++ {
		if atomic.CompareAndSwapUint32(&l.state, 0, 1) {
			return
		}
		if i < spinIterationsBeforeYield {
			continue
		}
		runtime.Gosched()
	}
}

func (l *spinLock) Unlock() {
	atomic.StoreUint32(&l.state, 0)
}
