//go:build unix

package sysmem

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestMapReturnsZeroedPage(t *testing.T) {
	addr, err := Map(PageSize)
	require.NoError(t, err)
	require.NotNil(t, addr)
	defer func() { require.NoError(t, Unmap(addr, PageSize)) }()

	b := unsafe.Slice((*byte)(addr), PageSize)
	for i, v := range b {
		require.Zerof(t, v, "byte %d not zero", i)
	}
}

func TestMapMultiPage(t *testing.T) {
	const n = 4
	addr, err := Map(PageSize * n)
	require.NoError(t, err)
	defer func() { require.NoError(t, Unmap(addr, PageSize*n)) }()

	b := unsafe.Slice((*byte)(addr), PageSize*n)
	b[0] = 0xAB
	b[PageSize*n-1] = 0xCD
	require.Equal(t, byte(0xAB), b[0])
	require.Equal(t, byte(0xCD), b[PageSize*n-1])
}

func TestMapRejectsBadSize(t *testing.T) {
	_, err := Map(0)
	require.ErrorIs(t, err, ErrUnsupportedSize)

	_, err = Map(PageSize + 1)
	require.ErrorIs(t, err, ErrUnsupportedSize)
}

func TestUnmapRejectsBadSize(t *testing.T) {
	err := Unmap(nil, 0)
	require.ErrorIs(t, err, ErrUnsupportedSize)
}
