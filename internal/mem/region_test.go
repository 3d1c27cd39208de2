package mem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewHasHeader(t *testing.T) {
	r := New(16)
	require.Equal(t, HeaderSize, r.Len())
	data, ok := r.Read(0, HeaderSize)
	require.True(t, ok)
	require.Equal(t, []byte{0, 0, 0}, data)
}

func TestMallocAppendsAndReturnsOffset(t *testing.T) {
	r := New(8)
	addr, ok := r.Malloc([]byte{1, 2, 3})
	require.True(t, ok)
	require.Equal(t, HeaderSize, addr)
	require.Equal(t, HeaderSize+3, r.Len())

	data, ok := r.Read(addr, 3)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, data)
}

func TestReadPastLengthFails(t *testing.T) {
	r := New(8)
	_, ok := r.Read(100, 4)
	require.False(t, ok)
}

func TestImmutableRegionRejectsWrites(t *testing.T) {
	r := ImmutableRef([]byte{0, 0, 0, 9, 9})
	_, ok := r.Malloc([]byte{1})
	require.False(t, ok)
	ok = r.Write(3, []byte{1})
	require.False(t, ok)

	data, ok := r.Read(3, 2)
	require.True(t, ok)
	require.Equal(t, []byte{9, 9}, data)
}

func TestMutableBorrowRespectsCeiling(t *testing.T) {
	r := MutableRef(make([]byte, HeaderSize), HeaderSize+4)
	_, ok := r.Malloc([]byte{1, 2, 3, 4})
	require.True(t, ok)

	_, ok = r.Malloc([]byte{5})
	require.False(t, ok, "malloc beyond ceiling must fail")
}

func TestWriteInPlace(t *testing.T) {
	r := New(8)
	addr, ok := r.Malloc([]byte{0, 0, 0, 0})
	require.True(t, ok)
	require.True(t, r.Write(addr, []byte{1, 2, 3, 4}))

	data, ok := r.Read(addr, 4)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestExistingAdoptsBytesVerbatim(t *testing.T) {
	buf := []byte{0, 0, 0, 7, 8, 9}
	r := Existing(buf)
	require.Equal(t, 6, r.Len())
	data, ok := r.Read(RootAddr, 3)
	require.True(t, ok)
	require.Equal(t, []byte{7, 8, 9}, data)
}
