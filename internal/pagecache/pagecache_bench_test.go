package pagecache

import "testing"

func BenchmarkAllocateDeallocateSpan(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		addr, err := c.AllocateSpan(1)
		if err != nil {
			b.Fatal(err)
		}
		if err := c.DeallocateSpan(addr, 1); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAllocateSpanGrowth(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.AllocateSpan(1); err != nil {
			b.Fatal(err)
		}
	}
}
