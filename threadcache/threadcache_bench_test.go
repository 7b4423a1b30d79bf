package threadcache

import (
	"testing"

	"github.com/quartzmem/slaballoc/internal/centralcache"
	"github.com/quartzmem/slaballoc/internal/pagecache"
)

func BenchmarkThreadCacheAllocateDeallocate(b *testing.B) {
	c := New(centralcache.New(pagecache.New()))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ptr, err := c.Allocate(64)
		if err != nil {
			b.Fatal(err)
		}
		if err := c.Deallocate(ptr, 64); err != nil {
			b.Fatal(err)
		}
	}
}
