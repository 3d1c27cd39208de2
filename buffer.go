// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package noproto

import (
	"github.com/noproto-go/noproto/internal/cursor"
	"github.com/noproto-go/noproto/internal/mem"
	"github.com/noproto-go/noproto/internal/schema"
)

// Buffer is a schema-typed, in-place-mutable byte buffer (spec.md §3.2,
// §6.1 "Buffer"). Every Get/Set/Del is a bounds-checked, zero-copy
// operation on the same underlying []byte.
type Buffer struct {
	region *mem.Region
	schema *Schema
}

func rootWidth(t *schema.Table) int {
	root := t.At(t.Root())
	if root.ValueKind == schema.Pointer {
		return schema.PointerWidth
	}
	return root.FixedWidth
}

func newBufferAround(r *mem.Region, s *Schema) (*Buffer, error) {
	if r.Len() == mem.RootAddr {
		addr, ok := r.Reserve(rootWidth(s.table))
		if !ok {
			return nil, errBufferOverflow(r.Len())
		}
		// A root whose own type is Fixed with a non-zero declared default
		// needs the same allocation-time treatment collection.AllocateRecord
		// gives a nested field's slot (spec.md §4.4 "Defaults"): zero-init
		// and "unset" are indistinguishable for Fixed kinds, so the default
		// must be baked in here rather than left to be applied lazily on
		// read.
		root := s.table.At(s.table.Root())
		if def, ok := root.DefaultBytes(); ok {
			r.Write(addr, def)
		}
	}
	return &Buffer{region: r, schema: s}, nil
}

// NewBuffer allocates an empty buffer typed by s.
func NewBuffer(s *Schema, options ...BufferOption) (*Buffer, error) {
	cfg := defaultBufferConfig()
	for _, opt := range options {
		opt.apply(&cfg)
	}
	r := mem.New(cfg.initialCapacity)
	return newBufferAround(r, s)
}

// OpenBuffer adopts data (a previously-Finish'd buffer's bytes) as an
// owned, growable buffer (spec.md §6.1 "open_buffer").
func OpenBuffer(s *Schema, data []byte) (*Buffer, error) {
	return &Buffer{region: mem.Existing(data), schema: s}, nil
}

// OpenBufferRef wraps data as a read-only buffer; every mutating call
// fails with a KindImmutable error (spec.md "open_buffer_ref").
func OpenBufferRef(s *Schema, data []byte) *Buffer {
	return &Buffer{region: mem.ImmutableRef(data), schema: s}
}

// OpenBufferRefMut wraps a caller-provided slab as a buffer that may grow
// up to cfg's mutable ceiling (spec.md "open_buffer_ref_mut"). Growth
// appends to data, so it stays in the caller's backing array only while
// it fits within cap(data).
func OpenBufferRefMut(s *Schema, data []byte, options ...BufferOption) *Buffer {
	cfg := defaultBufferConfig()
	for _, opt := range options {
		opt.apply(&cfg)
	}
	ceiling := cfg.mutableCeiling
	if ceiling <= 0 {
		ceiling = len(data)
	}
	return &Buffer{region: mem.MutableRef(data, ceiling), schema: s}
}

// Schema returns the schema this buffer is typed by.
func (b *Buffer) Schema() *Schema { return b.schema }

// Bytes returns the buffer's raw backing bytes (spec.md "finish"). The
// returned slice must not be retained across a call that may grow the
// buffer.
func (b *Buffer) Bytes() []byte { return b.region.Bytes() }

// Len returns the buffer's current total size in bytes.
func (b *Buffer) Len() int { return b.region.Len() }

func (b *Buffer) root() *cursor.Cursor {
	return cursor.Root(b.region, b.schema.table)
}

// checkMutable rejects any mutating call up front on an Immutable region
// (spec.md §5 "Shared resources": "open_buffer_ref disables all mutating
// operations ... with a distinguished error"), so that Set/Del/
// SetFromJSON never need to distinguish "failed because read-only" from
// "failed because out of bounds" once they're already inside
// internal/cursor.
func (b *Buffer) checkMutable(path string) error {
	if b.region.Mode() == mem.Immutable {
		return errImmutable(path)
	}
	return nil
}

func (b *Buffer) select_(path []string, create bool) (*cursor.Cursor, error) {
	c, err := b.root().Select(path, create)
	if err == cursor.ErrNotPresent {
		return nil, nil
	}
	if err != nil {
		return nil, errBufferMalformed(joinPath(path), -1, err)
	}
	return c, nil
}

// Get reads the scalar value at path. It returns (nil, nil) if the value
// is unset.
func (b *Buffer) Get(path ...string) (any, error) {
	c, err := b.select_(path, false)
	if err != nil || c == nil {
		return nil, err
	}
	v, err := c.Get()
	if err != nil {
		return nil, errTypeMismatch(joinPath(path))
	}
	return v, nil
}

// Set writes v at path, materializing any intermediate struct/union
// pointers and list/map cells along the way.
func (b *Buffer) Set(value any, path ...string) error {
	if err := b.checkMutable(joinPath(path)); err != nil {
		return err
	}
	c, err := b.root().Select(path, true)
	if err != nil {
		return errBufferMalformed(joinPath(path), -1, err)
	}
	if err := c.Set(value); err != nil {
		return errTypeMismatch(joinPath(path))
	}
	return nil
}

// Del clears the value at path: a scalar is reset to unset, a map entry
// is spliced out of its chain, and a union is reset to no variant
// selected.
func (b *Buffer) Del(path ...string) error {
	if err := b.checkMutable(joinPath(path)); err != nil {
		return err
	}
	if len(path) == 0 {
		return b.root().Del()
	}
	parent, err := b.root().Select(path[:len(path)-1], false)
	if err == cursor.ErrNotPresent {
		return nil
	}
	if err != nil {
		return errBufferMalformed(joinPath(path), -1, err)
	}

	last := path[len(path)-1]
	switch parent.Kind() {
	case schema.KindMap:
		_, err := parent.DelMapKey(last)
		return err
	case schema.KindUnion:
		if variant, ok := parent.UnionVariant(); ok && variant == last {
			return parent.ClearUnion()
		}
		return nil
	default:
		child, err := parent.Select([]string{last}, false)
		if err == cursor.ErrNotPresent {
			return nil
		}
		if err != nil {
			return errBufferMalformed(joinPath(path), -1, err)
		}
		return child.Del()
	}
}

// ToJSON renders the value at path (the whole buffer if path is empty) as
// JSON text (spec.md "to_json").
func (b *Buffer) ToJSON(path ...string) ([]byte, error) {
	c, err := b.select_(path, false)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return []byte("null"), nil
	}
	data, err := c.ToJSON()
	if err != nil {
		return nil, errTypeMismatch(joinPath(path))
	}
	return data, nil
}

// SetFromJSON decodes data and writes it at path (spec.md
// "set_from_json").
func (b *Buffer) SetFromJSON(data []byte, path ...string) error {
	if err := b.checkMutable(joinPath(path)); err != nil {
		return err
	}
	c, err := b.root().Select(path, true)
	if err != nil {
		return errBufferMalformed(joinPath(path), -1, err)
	}
	if err := c.SetFromJSON(data); err != nil {
		return errTypeMismatch(joinPath(path))
	}
	return nil
}

// Clear resets the whole buffer back to empty.
func (b *Buffer) Clear(options ...BufferOption) {
	cfg := defaultBufferConfig()
	for _, opt := range options {
		opt.apply(&cfg)
	}
	b.region = mem.New(cfg.initialCapacity)
	if _, ok := b.region.Reserve(rootWidth(b.schema.table)); !ok {
		panic("noproto: Clear failed to reserve root slot")
	}
}

// CalcBytes reports the buffer's current total size and, for comparison,
// the size it would shrink to after Compact (spec.md §4.7 "maybe
// compact").
type CalcBytes struct {
	Current int
	AfterCompaction int
	Wasted          int
}

// CalcBytes estimates compaction's payoff without actually compacting.
func (b *Buffer) CalcBytes() (CalcBytes, error) {
	compacted, err := cursor.Compact(b.root())
	if err != nil {
		return CalcBytes{}, errBufferMalformed("", -1, err)
	}
	current := b.region.Len()
	after := compacted.Len()
	return CalcBytes{Current: current, AfterCompaction: after, Wasted: current - after}, nil
}

// Compact rebuilds the buffer's storage from scratch, discarding every
// allocation unreachable from the root (spec.md §4.7). The buffer's
// identity (its Schema) is unchanged; only its bytes are replaced.
func (b *Buffer) Compact() error {
	compacted, err := cursor.Compact(b.root())
	if err != nil {
		return errBufferMalformed("", -1, err)
	}
	b.region = compacted
	return nil
}

func joinPath(path []string) string {
	out := ""
	for i, seg := range path {
		if i > 0 {
			out += "."
		}
		out += seg
	}
	return out
}
