// Package slaballoc provides a thread-aware, three-tier slab allocator for
// small-to-medium object sizes, plus a standalone single-size FixedPool for
// callers that only ever need one footprint.
//
// # Overview
//
// Allocation is layered bottom-up:
//
//   - PageCache (internal/pagecache): the only tier that talks to the OS.
//     Owns contiguous runs of pages ("spans"), splitting and coalescing
//     them as CentralCache borrows and returns them.
//   - CentralCache (internal/centralcache): one free list per size class,
//     each guarded by its own spin-then-yield lock, so classes never
//     contend with each other.
//   - ThreadCache (threadcache): one unsynchronized instance per caller,
//     batching transfers to and from CentralCache.
//   - FixedPool (fixedpool): an independent bump-pointer-and-lock-free-
//     stack allocator for a single configured slot size.
//
// # Usage
//
//	ptr, err := slaballoc.Allocate(128)
//	if err != nil {
//	    return err
//	}
//	defer slaballoc.Deallocate(ptr, 128)
//
// Deallocate requires the exact size passed to the matching Allocate call;
// no per-block size metadata is kept, so passing the wrong size is
// undefined behavior, same as the allocator this package models.
//
// # Thread-local caches
//
// Go has nothing directly analogous to a thread_local ThreadCache
// instance. Allocate/Deallocate draw a *threadcache.Cache from a
// sync.Pool for the duration of a single call and return it immediately
// after, so the fast path never needs a goroutine-affine handle. Callers
// that want a sticky cache across many calls on one goroutine can
// construct their own threadcache.Cache directly with threadcache.New and
// call Release when done with it.
//
// # Large allocations
//
// Requests larger than sizeclass.MaxBytes (256 KiB) bypass all three
// tiers and map anonymous OS memory directly; Deallocate for such a
// request unmaps it directly. Everything in between goes through the full
// ThreadCache -> CentralCache -> PageCache hand-off chain.
package slaballoc
