package fixedpool

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestAllocateBeforeInitErrors(t *testing.T) {
	var p Pool
	_, err := p.Allocate()
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestAllocateReturnsDistinctSlots(t *testing.T) {
	var p Pool
	p.Init(32)

	const n = 500
	seen := make(map[unsafe.Pointer]bool, n)
	for i := 0; i < n; i++ {
		ptr, err := p.Allocate()
		require.NoError(t, err)
		require.False(t, seen[ptr])
		seen[ptr] = true
	}
}

func TestAllocateReusesDeallocatedSlot(t *testing.T) {
	var p Pool
	p.Init(16)

	ptr, err := p.Allocate()
	require.NoError(t, err)
	p.Deallocate(ptr)

	ptr2, err := p.Allocate()
	require.NoError(t, err)
	require.Equal(t, ptr, ptr2)
}

func TestAllocateGrowsAcrossMultipleBlocks(t *testing.T) {
	var p Pool
	p.Init(64)

	var last unsafe.Pointer
	for i := 0; i < 5000; i++ {
		ptr, err := p.Allocate()
		require.NoError(t, err)
		require.NotEqual(t, last, ptr)
		last = ptr
	}
}

func TestDeallocateNilIsNoOp(t *testing.T) {
	var p Pool
	p.Init(8)
	p.Deallocate(nil) // must not panic
}

func TestConcurrentPushPopNoDuplicateOrLoss(t *testing.T) {
	var p Pool
	p.Init(24)

	const goroutines = 32
	const perGoroutine = 200

	var wg sync.WaitGroup
	var mu sync.Mutex
	live := make(map[unsafe.Pointer]bool)
	everSeen := make(map[unsafe.Pointer]bool)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				ptr, err := p.Allocate()
				require.NoError(t, err)

				mu.Lock()
				require.False(t, live[ptr], "slot allocated while still live")
				live[ptr] = true
				everSeen[ptr] = true
				mu.Unlock()

				mu.Lock()
				delete(live, ptr)
				mu.Unlock()
				p.Deallocate(ptr)
			}
		}()
	}
	wg.Wait()

	// Every slot ever handed out has been deallocated, so each one must now
	// sit on the free list exactly once.
	free := 0
	for free <= len(everSeen) && p.pop() != nil {
		free++
	}
	require.Equal(t, len(everSeen), free, "slot lost from or duplicated on the free list")
}

func TestReleaseUnmapsAllBlocks(t *testing.T) {
	var p Pool
	p.Init(8)
	for i := 0; i < 10000; i++ {
		_, err := p.Allocate()
		require.NoError(t, err)
	}
	require.NoError(t, p.Release())
}

type smallStruct struct {
	a, b int64
}

type bigStruct struct {
	data [1024]byte
}

func TestGenericNewDeleteRoundTrips(t *testing.T) {
	s := New[smallStruct]()
	require.NotNil(t, s)
	s.a, s.b = 1, 2
	Delete(s)
}

func TestGenericNewDeleteOversizeFallsBackToGoHeap(t *testing.T) {
	b := New[bigStruct]()
	require.NotNil(t, b)
	b.data[0] = 7
	Delete(b) // must not panic even though it falls outside the bucket
}

func TestGenericDeleteNilIsNoOp(t *testing.T) {
	var s *smallStruct
	Delete(s) // must not panic
}
