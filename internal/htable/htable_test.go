package htable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupHitsAndMisses(t *testing.T) {
	entries := []Entry[string, int]{
		{"name", 0},
		{"age", 1},
		{"tags", 2},
	}
	tbl := New(entries...)

	for _, e := range entries {
		v, ok := tbl.Lookup(e.Key)
		require.True(t, ok)
		require.Equal(t, e.Value, v)
	}

	_, ok := tbl.Lookup("missing")
	require.False(t, ok)
}

func TestEmptyTable(t *testing.T) {
	var tbl Table[string, int]
	_, ok := tbl.Lookup("anything")
	require.False(t, ok)
}

func TestManyEntries(t *testing.T) {
	entries := make([]Entry[string, int], 0, 500)
	for i := 0; i < 500; i++ {
		entries = append(entries, Entry[string, int]{fmt.Sprintf("key-%d", i), i})
	}
	tbl := New(entries...)
	for _, e := range entries {
		v, ok := tbl.Lookup(e.Key)
		require.True(t, ok)
		require.Equal(t, e.Value, v)
	}
}

func TestIntKeys(t *testing.T) {
	tbl := New(
		Entry[int32, string]{1, "a"},
		Entry[int32, string]{2, "b"},
	)
	v, ok := tbl.Lookup(int32(2))
	require.True(t, ok)
	require.Equal(t, "b", v)
}
