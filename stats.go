package slaballoc

import "sync/atomic"

var (
	statsAllocations        atomic.Int64
	statsDeallocations      atomic.Int64
	statsLargeAllocations   atomic.Int64
	statsLargeDeallocations atomic.Int64
)

// Stats is a snapshot of allocator-wide counters, useful for tests and
// instrumentation. It is not part of the allocation hot path: no counter
// here gates or orders an Allocate/Deallocate call.
//
// Grounded on hive/alloc/fastalloc.go's allocatorStats struct and
// GetStats() accessor: a plain counter struct, incremented inline,
// snapshotted on demand, no metrics library involved.
type Stats struct {
	Allocations        int64
	Deallocations      int64
	LargeAllocations   int64
	LargeDeallocations int64
}

// GetStats returns a snapshot of the current allocator-wide counters.
func GetStats() Stats {
	return Stats{
		Allocations:        statsAllocations.Load(),
		Deallocations:      statsDeallocations.Load(),
		LargeAllocations:   statsLargeAllocations.Load(),
		LargeDeallocations: statsLargeDeallocations.Load(),
	}
}
