package cursor

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/noproto-go/noproto/internal/collection"
	"github.com/noproto-go/noproto/internal/schema"
)

// ErrNotPresent is returned by Select when create is false and the path
// crosses an unset pointer, an absent map key, or an out-of-range/missing
// list index.
var ErrNotPresent = errors.New("cursor: value not present")

// cellChild builds a cursor over a list/map/union cell's value field
// (spec.md §3.4: the cell's addr_value/variant-pointer field, a 4-byte
// slot that inlines small Fixed values directly and indirects everything
// else).
func cellChild(c *Cursor, cellAddr int, valueFieldOffset int, childIdx int, parentIdx int) *Cursor {
	return &Cursor{
		Region:          c.Region,
		Table:           c.Table,
		Addr:            cellAddr + valueFieldOffset,
		SchemaIdx:       childIdx,
		ParentSchemaIdx: parentIdx,
		Slotted:         true,
	}
}

// Select walks path (one schema-level step per element: a struct field
// name, a tuple/list numeric index, a map key, or a union variant name)
// from c and returns a cursor over the value found. When create is true,
// absent intermediate structure (unset struct/union pointers, missing
// list/map entries) is allocated along the way; when false, Select
// returns ErrNotPresent instead of allocating.
func (c *Cursor) Select(path []string, create bool) (*Cursor, error) {
	cur := c
	for _, seg := range path {
		next, err := cur.step(seg, create)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func (c *Cursor) step(seg string, create bool) (*Cursor, error) {
	idx := c.resolvedIdx()
	n := c.Table.At(idx)

	switch n.Kind {
	case schema.KindStruct:
		pos, ok := collection.FieldIndexByName(c.Table, idx, seg)
		if !ok {
			return nil, fmt.Errorf("cursor: struct has no field %q", seg)
		}
		recordAddr, present, err := c.payload(create)
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, ErrNotPresent
		}
		offset, _, _, _ := collection.FieldSlot(c.Table, idx, pos)
		childIdx := n.Fields[pos].Child
		return &Cursor{Region: c.Region, Table: c.Table, Addr: recordAddr + offset, SchemaIdx: childIdx, ParentSchemaIdx: idx}, nil

	case schema.KindTuple:
		pos, err := strconv.Atoi(seg)
		if err != nil || pos < 0 || pos >= len(n.Elements) {
			return nil, fmt.Errorf("cursor: tuple index %q out of range", seg)
		}
		recordAddr, present, err := c.payload(create)
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, ErrNotPresent
		}
		offset, _, _, _ := collection.FieldSlot(c.Table, idx, pos)
		return &Cursor{Region: c.Region, Table: c.Table, Addr: recordAddr + offset, SchemaIdx: n.Elements[pos], ParentSchemaIdx: idx}, nil

	case schema.KindList:
		index, err := strconv.Atoi(seg)
		if err != nil || index < 0 {
			return nil, fmt.Errorf("cursor: list index %q invalid", seg)
		}
		head, ok := c.readPointer()
		if !ok {
			return nil, fmt.Errorf("cursor: list slot at %d is out of bounds", c.Addr)
		}
		cellAddr, _, found, capEx := collection.ListFind(c.Region, head, uint32(index))
		if capEx {
			return nil, fmt.Errorf("cursor: list chain exceeds %d cells", collection.MaxChainSteps)
		}
		if !found {
			if !create {
				return nil, ErrNotPresent
			}
			newHead, newCell, ok := collection.ListInsert(c.Region, head, uint32(index))
			if !ok {
				return nil, fmt.Errorf("cursor: list insert failed at index %d", index)
			}
			if newHead != head {
				if !c.writePointer(newHead) {
					return nil, fmt.Errorf("cursor: failed writing list head at %d", c.Addr)
				}
			}
			cellAddr = newCell
		}
		return cellChild(c, int(cellAddr), 0, n.Child, idx), nil

	case schema.KindMap:
		head, ok := c.readPointer()
		if !ok {
			return nil, fmt.Errorf("cursor: map slot at %d is out of bounds", c.Addr)
		}
		key := []byte(seg)
		cellAddr, found, capEx := collection.MapFind(c.Region, head, key)
		if capEx {
			return nil, fmt.Errorf("cursor: map chain exceeds %d cells", collection.MaxChainSteps)
		}
		if !found {
			if !create {
				return nil, ErrNotPresent
			}
			newHead, newCell, err := collection.MapInsert(c.Region, head, key)
			if err != nil {
				return nil, err
			}
			if newHead != head {
				if !c.writePointer(newHead) {
					return nil, fmt.Errorf("cursor: failed writing map head at %d", c.Addr)
				}
			}
			cellAddr = newCell
		}
		return cellChild(c, int(cellAddr), 0, n.Child, idx), nil

	case schema.KindUnion:
		pos, ok := collection.FieldIndexByName(c.Table, idx, seg)
		if !ok {
			return nil, fmt.Errorf("cursor: union has no variant %q", seg)
		}
		cellAddr, present, err := c.payload(create)
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, ErrNotPresent
		}
		curVariant, set := collection.UnionDiscriminant(c.Region, cellAddr)
		if set && curVariant != pos {
			return nil, fmt.Errorf("cursor: union holds variant %q, not %q; delete before switching", n.Fields[curVariant].Name, seg)
		}
		if !set {
			if !create {
				return nil, ErrNotPresent
			}
			if err := collection.SelectUnion(c.Region, cellAddr, pos, 0); err != nil {
				return nil, err
			}
		}
		return cellChild(c, cellAddr, 1, n.Fields[pos].Child, idx), nil

	default:
		return nil, fmt.Errorf("cursor: cannot select %q into a %s value", seg, n.Kind)
	}
}

// UnionVariant reports the name of a union cursor's currently-selected
// variant, or ("", false) if unset.
func (c *Cursor) UnionVariant() (string, bool) {
	idx := c.resolvedIdx()
	n := c.Table.At(idx)
	if n.Kind != schema.KindUnion {
		return "", false
	}
	cellAddr, present, err := c.payload(false)
	if err != nil || !present {
		return "", false
	}
	pos, set := collection.UnionDiscriminant(c.Region, cellAddr)
	if !set || pos >= len(n.Fields) {
		return "", false
	}
	return n.Fields[pos].Name, true
}

// ListLen reports a list cursor's cell count, i.e. the number of indices
// actually present. A sparse list's logical length (its last present index
// + 1) can be larger than this; use ListIndices for that.
func (c *Cursor) ListLen() (int, error) {
	head, ok := c.readPointer()
	if !ok {
		return 0, fmt.Errorf("cursor: list slot at %d is out of bounds", c.Addr)
	}
	n, capEx := collection.ListLen(c.Region, head)
	if capEx {
		return n, fmt.Errorf("cursor: list chain exceeds %d cells", collection.MaxChainSteps)
	}
	return n, nil
}

// ListIndices reports a list cursor's present indices, ascending, so that
// callers walking the whole list can tell a gap (no cell for that index,
// spec.md:174 "unset") from the list's logical length (its last present
// index + 1), which is not the same as the cell count ListLen reports.
func (c *Cursor) ListIndices() ([]uint32, error) {
	head, ok := c.readPointer()
	if !ok {
		return nil, fmt.Errorf("cursor: list slot at %d is out of bounds", c.Addr)
	}
	indices, capEx := collection.ListIndices(c.Region, head)
	if capEx {
		return nil, fmt.Errorf("cursor: list chain exceeds %d cells", collection.MaxChainSteps)
	}
	return indices, nil
}

// MapKeys reports a map cursor's keys, most-recently-inserted first.
func (c *Cursor) MapKeys() ([]string, error) {
	head, ok := c.readPointer()
	if !ok {
		return nil, fmt.Errorf("cursor: map slot at %d is out of bounds", c.Addr)
	}
	raw, capEx := collection.MapKeys(c.Region, head)
	if capEx {
		return nil, fmt.Errorf("cursor: map chain exceeds %d cells", collection.MaxChainSteps)
	}
	keys := make([]string, len(raw))
	for i, k := range raw {
		keys[i] = string(k)
	}
	return keys, nil
}

// DelMapKey removes key from a map cursor. ok is false if the key was
// absent.
func (c *Cursor) DelMapKey(key string) (ok bool, err error) {
	head, readOK := c.readPointer()
	if !readOK {
		return false, fmt.Errorf("cursor: map slot at %d is out of bounds", c.Addr)
	}
	cellAddr, found, capEx := collection.MapFind(c.Region, head, []byte(key))
	if capEx {
		return false, fmt.Errorf("cursor: map chain exceeds %d cells", collection.MaxChainSteps)
	}
	if !found {
		return false, nil
	}
	newHead, ok := collection.MapDelete(c.Region, head, cellAddr)
	if !ok {
		return false, fmt.Errorf("cursor: map delete failed")
	}
	if newHead != head {
		if !c.writePointer(newHead) {
			return false, fmt.Errorf("cursor: failed writing map head at %d", c.Addr)
		}
	}
	return true, nil
}

// ClearUnion resets a union cursor to the unset state, discarding its
// selected variant (spec.md §4.6: "delete and recreate" is the only way
// to switch variants).
func (c *Cursor) ClearUnion() error {
	idx := c.resolvedIdx()
	if c.Table.At(idx).Kind != schema.KindUnion {
		return fmt.Errorf("cursor: ClearUnion called on a %s value", c.Table.At(idx).Kind)
	}
	cellAddr, present, err := c.payload(false)
	if err != nil {
		return err
	}
	if !present {
		return nil
	}
	if !collection.ClearUnion(c.Region, cellAddr) {
		return fmt.Errorf("cursor: failed clearing union cell at %d", cellAddr)
	}
	return nil
}
