package slaballoc

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/quartzmem/slaballoc/internal/sizeclass"
)

func TestAllocateDeallocateSmall(t *testing.T) {
	ptr, err := Allocate(48)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	require.Zero(t, uintptr(ptr)%sizeclass.Alignment)

	require.NoError(t, Deallocate(ptr, 48))
}

func TestAllocateNegativeSizeErrors(t *testing.T) {
	_, err := Allocate(-1)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestAllocateLargeBypassesCache(t *testing.T) {
	before := GetStats().LargeAllocations

	ptr, err := Allocate(sizeclass.MaxBytes + 1)
	require.NoError(t, err)
	require.NotNil(t, ptr)

	require.Equal(t, before+1, GetStats().LargeAllocations)
	require.NoError(t, Deallocate(ptr, sizeclass.MaxBytes+1))
}

func TestDeallocateNilIsNoOp(t *testing.T) {
	require.NoError(t, Deallocate(nil, 8))
}

func TestStatsCountAllocationsAndDeallocations(t *testing.T) {
	before := GetStats()

	ptr, err := Allocate(16)
	require.NoError(t, err)
	require.NoError(t, Deallocate(ptr, 16))

	after := GetStats()
	require.Equal(t, before.Allocations+1, after.Allocations)
	require.Equal(t, before.Deallocations+1, after.Deallocations)
}

func TestConcurrentAllocateDeallocate(t *testing.T) {
	const goroutines = 32
	const perGoroutine = 200

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			live := make([]unsafe.Pointer, 0, perGoroutine)
			sizes := make([]int, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				size := (seed+i)%2048 + 1
				ptr, err := Allocate(size)
				require.NoError(t, err)
				live = append(live, ptr)
				sizes = append(sizes, size)
			}
			for i, ptr := range live {
				require.NoError(t, Deallocate(ptr, sizes[i]))
			}
		}(g)
	}
	wg.Wait()
}
