// Package htable provides a small, immutable, open-addressing map
// specialized for the schema compiler's name-lookup tables: the
// struct/union field-name -> index table that ComputeOffsets builds.
//
// The bucket-sizing and quadratic probe sequence are adapted from
// the teacher's internal/table package, minus its unsafe pointer layout:
// this module's tables back plain Go slices, not an arena, so there is no
// need to hand-roll memory layout.
package htable

import "github.com/dolthub/maphash"

// Entry is one key/value pair used to build a Table.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Table is an immutable open-addressing map keyed by any comparable type.
//
// The zero Table is empty and safe to query (always misses).
type Table[K comparable, V any] struct {
	keys   []K
	vals   []V
	occ    []bool
	hasher maphash.Hasher[K]
}

// New builds a Table from the given entries. Keys must be unique; a later
// duplicate silently overwrites an earlier one, matching how the schema
// compiler treats redeclared field names (the parser itself is expected to
// reject duplicates before calling New).
func New[K comparable, V any](entries ...Entry[K, V]) *Table[K, V] {
	t := &Table[K, V]{hasher: maphash.NewHasher[K]()}
	if len(entries) == 0 {
		return t
	}

	n := buckets(len(entries))
	t.keys = make([]K, n)
	t.vals = make([]V, n)
	t.occ = make([]bool, n)

	for _, e := range entries {
		t.insert(e.Key, e.Value)
	}
	return t
}

func (t *Table[K, V]) insert(key K, val V) {
	n := len(t.occ)
	h := int(t.hasher.Hash(key) % uint64(n))
	for i := 0; i < n; i++ {
		h = probe(h, i, n)
		if !t.occ[h] {
			t.occ[h] = true
			t.keys[h] = key
			t.vals[h] = val
			return
		}
		if t.keys[h] == key {
			t.vals[h] = val
			return
		}
	}
}

// Lookup returns the value associated with key, if present.
func (t *Table[K, V]) Lookup(key K) (V, bool) {
	var zero V
	n := len(t.occ)
	if n == 0 {
		return zero, false
	}

	h := int(t.hasher.Hash(key) % uint64(n))
	for i := 0; i < n; i++ {
		h = probe(h, i, n)
		if !t.occ[h] {
			return zero, false
		}
		if t.keys[h] == key {
			return t.vals[h], true
		}
	}
	return zero, false
}

// Len returns the number of buckets backing this table (not the number of
// live entries, which callers are expected to already know).
func (t *Table[K, V]) Len() int { return len(t.occ) }

// probe implements quadratic probing via triangular numbers, identical in
// shape to the teacher's internal/table probe sequence.
func probe(prev, i, buckets int) int {
	return (prev + i) % buckets
}

// buckets picks a bucket count giving a load factor of about 7/8, rounded
// up to the next power of two (teacher's internal/table sizing formula).
func buckets(entries int) int {
	n := entries * 8 / 7
	if n < 1 {
		n = 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
