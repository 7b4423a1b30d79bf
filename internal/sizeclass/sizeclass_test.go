package sizeclass

import "testing"

func TestRoundUp(t *testing.T) {
	cases := map[int]int{0: 0, 1: 8, 8: 8, 9: 16, 16: 16, 17: 24}
	for in, want := range cases {
		if got := RoundUp(in); got != want {
			t.Errorf("RoundUp(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestIndexZeroPromotedToAlignment(t *testing.T) {
	if Index(0) != Index(Alignment) {
		t.Errorf("Index(0) should match Index(Alignment)")
	}
}

func TestIndexBlockSizeRoundTrip(t *testing.T) {
	for i := 0; i < Count; i++ {
		bs := BlockSize(i)
		if got := Index(bs); got != i {
			t.Errorf("Index(BlockSize(%d)=%d) = %d, want %d", i, bs, got, i)
		}
	}
}

func TestBatchNumClampedByCap(t *testing.T) {
	for _, bs := range []int{8, 16, 32, 64, 128, 256, 512, 1024, 2048, 262144} {
		n := BatchNum(bs)
		if n < 1 {
			t.Fatalf("BatchNum(%d) = %d, want >= 1", bs, n)
		}
		if n*bs > BatchCapBytes && n > 1 {
			t.Errorf("BatchNum(%d) = %d exceeds BatchCapBytes (%d*%d=%d)", bs, n, n, bs, n*bs)
		}
	}
}

func TestAlignPages(t *testing.T) {
	cases := map[int]int{1: PageSize, PageSize: PageSize, PageSize + 1: 2 * PageSize}
	for in, want := range cases {
		if got := AlignPages(in); got != want {
			t.Errorf("AlignPages(%d) = %d, want %d", in, got, want)
		}
	}
}
