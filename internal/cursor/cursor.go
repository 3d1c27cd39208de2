// Package cursor implements path-based navigation over a buffer (spec.md
// §3.3, §4.3): the Cursor triple (buffer address, schema address, parent
// schema address) and the Select/Get/Set/Del operations built on top of
// internal/collection's struct/tuple/list/map/union primitives and
// internal/value's scalar codecs.
//
// internal/collection is deliberately schema/cursor-agnostic (see its
// package doc), so this package owns the one place where "what kind of
// schema node is this, and how is its value addressed" gets decided.
package cursor

import (
	"encoding/binary"
	"fmt"

	"github.com/noproto-go/noproto/internal/collection"
	"github.com/noproto-go/noproto/internal/mem"
	"github.com/noproto-go/noproto/internal/ndbg"
	"github.com/noproto-go/noproto/internal/schema"
)

// Cursor is a live reference to one schema-typed value within a buffer.
// Addr is always the address of this value's *slot*: for a Fixed node,
// the inlined bytes start there; for a Pointer node, a 4-byte address to
// the actual payload is stored there (spec.md §3.4).
type Cursor struct {
	Region          *mem.Region
	Table           *schema.Table
	Addr            int
	SchemaIdx       int
	ParentSchemaIdx int // -1 for the root

	// Slotted marks a cursor whose Addr is a 4-byte cell/union-cell value
	// field rather than a full struct/tuple field or the root slot. Such a
	// field can only inline a Fixed value up to 4 bytes wide; wider Fixed
	// values and every Pointer-kind value are stored indirectly even
	// though an ordinary struct field of the same kind would inline them
	// (spec.md §4.5: the list/map cell and §4.6 union cell are both fixed
	// at a constant size regardless of the element/variant's own width).
	Slotted bool
}

// Root returns a cursor over the buffer's root value.
func Root(r *mem.Region, t *schema.Table) *Cursor {
	return &Cursor{Region: r, Table: t, Addr: mem.RootAddr, SchemaIdx: t.Root(), ParentSchemaIdx: -1}
}

// node returns the schema node this cursor addresses, after following any
// Portal indirection (Portals are schema-level aliases, not buffer-level
// indirection: a Portal cursor's Addr/SchemaIdx point straight through to
// the resolved target, spec.md §4.1 "Portal").
func (c *Cursor) node() *schema.Node {
	n := c.Table.At(c.SchemaIdx)
	for n.Kind == schema.KindPortal {
		if n.PortalTarget < 0 {
			return n // unresolved; caller will surface an error
		}
		n = c.Table.At(n.PortalTarget)
	}
	return n
}

// resolvedIdx is node()'s schema index (post-Portal).
func (c *Cursor) resolvedIdx() int {
	idx := c.SchemaIdx
	n := c.Table.At(idx)
	for n.Kind == schema.KindPortal && n.PortalTarget >= 0 {
		idx = n.PortalTarget
		n = c.Table.At(idx)
	}
	return idx
}

func (c *Cursor) readPointer() (uint32, bool) {
	data, ok := c.Region.Read(c.Addr, schema.PointerWidth)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(data), true
}

func (c *Cursor) writePointer(addr uint32) bool {
	var buf [schema.PointerWidth]byte
	binary.BigEndian.PutUint32(buf[:], addr)
	return c.Region.Write(c.Addr, buf[:])
}

// payload returns the address of this cursor's actual value storage: its
// own slot for a Fixed node, or the dereferenced (and, if create is set,
// lazily allocated) target for a Pointer node. present is false when the
// value is a Pointer node with a null pointer and create is false.
func (c *Cursor) payload(create bool) (addr int, present bool, err error) {
	n := c.node()
	if c.inlineEligible(n) {
		return c.Addr, true, nil
	}

	raw, ok := c.readPointer()
	if !ok {
		return 0, false, fmt.Errorf("cursor: slot at %d is out of bounds", c.Addr)
	}
	if raw != 0 {
		return int(raw), true, nil
	}
	if !create {
		return 0, false, nil
	}

	newAddr, err := c.allocate(n)
	if err != nil {
		return 0, false, err
	}
	if !c.writePointer(uint32(newAddr)) {
		return 0, false, fmt.Errorf("cursor: failed writing pointer at %d", c.Addr)
	}
	return newAddr, true, nil
}

// inlineEligible reports whether this cursor's value lives directly at
// Addr (true) or behind a pointer stored at Addr (false).
func (c *Cursor) inlineEligible(n *schema.Node) bool {
	if n.ValueKind != schema.Fixed {
		return false
	}
	if !c.Slotted {
		return true
	}
	return n.FixedWidth <= schema.PointerWidth
}

// allocate reserves fresh storage for a just-created value that lives
// behind a pointer: either a Pointer-kind container (Struct/Tuple/Union)
// or a Fixed value too wide for a Slotted 4-byte cell field. List/Map
// have no container allocation of their own: their "payload" is simply
// the head cell pointer, and an empty list/map is legitimately
// represented by a null head, so List/Map never reach this path — Select
// handles their create-on-demand entirely via collection.ListInsert/
// MapInsert, which hand back a new head for the caller to write.
func (c *Cursor) allocate(n *schema.Node) (int, error) {
	if n.ValueKind == schema.Fixed {
		addr, ok := c.Region.Reserve(n.FixedWidth)
		if !ok {
			return 0, fmt.Errorf("cursor: allocation failed for %s", n.Kind)
		}
		return addr, nil
	}

	idx := c.resolvedIdx()
	switch n.Kind {
	case schema.KindStruct, schema.KindTuple:
		addr, ok := collection.AllocateRecord(c.Region, c.Table, idx)
		if !ok {
			return 0, fmt.Errorf("cursor: allocation failed for %s", n.Kind)
		}
		return addr, nil
	case schema.KindUnion:
		addr, ok := collection.AllocateUnion(c.Region)
		if !ok {
			return 0, fmt.Errorf("cursor: allocation failed for union")
		}
		return addr, nil
	case schema.KindString, schema.KindBytes, schema.KindAny:
		return 0, fmt.Errorf("cursor: %s has no value to allocate; use Set", n.Kind)
	default:
		// A resolved node reaching here would mean ComputeOffsets/Select
		// routed a List/Map/scalar through the pointer-container
		// allocation path, which should be impossible for a schema that
		// passed compilation.
		ndbg.Assert(false, "cursor: unexpected container allocation for kind %s", n.Kind)
		return 0, fmt.Errorf("cursor: cannot allocate a container for kind %s", n.Kind)
	}
}

// IsContainer reports whether this cursor's node is navigated into via
// Select (Struct/Tuple/List/Map/Union) rather than read/written directly
// via Get/Set.
func (c *Cursor) IsContainer() bool {
	switch c.node().Kind {
	case schema.KindStruct, schema.KindTuple, schema.KindList, schema.KindMap, schema.KindUnion:
		return true
	default:
		return false
	}
}

// Kind returns the resolved (post-Portal) schema kind of this cursor.
func (c *Cursor) Kind() schema.Kind { return c.node().Kind }
