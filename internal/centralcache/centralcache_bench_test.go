package centralcache

import (
	"testing"

	"github.com/quartzmem/slaballoc/internal/pagecache"
)

func BenchmarkFetchReturnRange(b *testing.B) {
	c := New(pagecache.New())
	const index = 7 // 64-byte class
	batchNum := 8

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		head, n, err := c.FetchRange(index, batchNum)
		if err != nil {
			b.Fatal(err)
		}
		if err := c.ReturnRange(head, n, index); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFetchRangeRefill(b *testing.B) {
	c := New(pagecache.New())
	const index = 0 // smallest class: one block per fetch, a fresh 4096-block span every 4096 iterations

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := c.FetchRange(index, 1); err != nil {
			b.Fatal(err)
		}
	}
}
