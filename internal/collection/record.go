// Package collection implements the struct/tuple/list/map/union engines
// (spec.md §4.5, §4.6): the byte-level layout and navigation algorithms for
// every collection kind, operating directly on a mem.Region and a
// schema.Table so that internal/cursor (which owns path-based navigation)
// can build on top of these without an import cycle.
package collection

import (
	"github.com/noproto-go/noproto/internal/mem"
	"github.com/noproto-go/noproto/internal/schema"
)

// RecordSize returns the total allocation size of a Struct or Tuple node,
// the byte offset just past its last field (spec.md §4.5 "Struct": "a
// single allocation containing, in schema field order, each field's
// inlined fixed value or a 4-byte pointer").
func RecordSize(t *schema.Table, idx int) int {
	offs := t.At(idx).FieldOffsets
	if len(offs) == 0 {
		return 0
	}
	last := offs[len(offs)-1]
	return last.Offset + last.Width
}

// AllocateRecord reserves an allocation sized for the Struct/Tuple/Union
// node at idx, pre-filling each Fixed field's slot with its declared
// default (spec.md §4.4 "Defaults"): a field's zero-init bytes and its
// "unset" state are indistinguishable for Fixed kinds, so a non-zero
// default must be baked in at allocation time rather than applied lazily
// on read.
func AllocateRecord(r *mem.Region, t *schema.Table, idx int) (addr int, ok bool) {
	size := RecordSize(t, idx)
	addr, ok = r.Reserve(size)
	if !ok {
		return 0, false
	}

	n := t.At(idx)
	childAt := func(pos int) int {
		if len(n.Elements) > 0 {
			return n.Elements[pos]
		}
		return n.Fields[pos].Child
	}
	for i, off := range n.FieldOffsets {
		if !off.Fixed {
			continue
		}
		child := t.At(childAt(i))
		if def, ok := child.DefaultBytes(); ok {
			r.Write(addr+off.Offset, def)
		}
	}
	return addr, true
}

// FieldIndexByName returns the position of name in a Struct's field list,
// via the schema's htable.Table-backed lookup when available.
func FieldIndexByName(t *schema.Table, idx int, name string) (pos int, ok bool) {
	return schema.LookupField(t, idx, name)
}

// FieldSlot returns the byte offset, width, and Fixed-ness of the pos'th
// field/element of a Struct/Tuple node, relative to the record's base
// address (spec.md §4.3 "Struct": "child slot is at cursor.base + ...").
func FieldSlot(t *schema.Table, idx int, pos int) (offset, width int, fixed bool, ok bool) {
	offs := t.At(idx).FieldOffsets
	if pos < 0 || pos >= len(offs) {
		return 0, 0, false, false
	}
	o := offs[pos]
	return o.Offset, o.Width, o.Fixed, true
}
