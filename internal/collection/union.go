package collection

import (
	"encoding/binary"
	"fmt"

	"github.com/noproto-go/noproto/internal/mem"
	"github.com/noproto-go/noproto/internal/schema"
)

// UnionCellSize is the fixed allocation size of a Union value: a 1-byte
// variant discriminant followed by a PointerWidth-byte pointer to the
// selected variant's value (spec.md §4.6 "Union", resolving the literal
// "3-byte cell" text against the canonical 32-bit pointer adopted
// elsewhere in the format — see DESIGN.md).
const UnionCellSize = 1 + schema.PointerWidth

// UnsetDiscriminant marks a Union cell with no variant selected yet.
const UnsetDiscriminant = 0xFF

// AllocateUnion reserves a fresh Union cell (discriminant
// UnsetDiscriminant, null pointer).
func AllocateUnion(r *mem.Region) (addr int, ok bool) {
	buf := make([]byte, UnionCellSize)
	buf[0] = UnsetDiscriminant
	return r.Malloc(buf)
}

// UnionDiscriminant reads a Union cell's selected-variant index, or
// (0, false) if unset.
func UnionDiscriminant(r *mem.Region, cellAddr int) (variant int, set bool) {
	data, ok := r.Read(cellAddr, 1)
	if !ok || data[0] == UnsetDiscriminant {
		return 0, false
	}
	return int(data[0]), true
}

// UnionValueAddr reads a Union cell's variant-value pointer.
func UnionValueAddr(r *mem.Region, cellAddr int) (uint32, bool) {
	data, ok := r.Read(cellAddr+1, schema.PointerWidth)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(data), true
}

// SelectUnion assigns variant as the active variant of the cell at
// cellAddr and sets its value pointer to valueAddr. Per spec.md §4.6
// ("switching a union away from its currently-selected variant is not
// supported by simple mutation; the caller must Del the union and
// recreate it"), SelectUnion refuses to overwrite an already-set
// discriminant that disagrees with variant.
func SelectUnion(r *mem.Region, cellAddr int, variant int, valueAddr uint32) error {
	cur, set := UnionDiscriminant(r, cellAddr)
	if set && cur != variant {
		return fmt.Errorf("value: union already holds variant %d, cannot switch to %d without delete", cur, variant)
	}
	buf := make([]byte, UnionCellSize)
	buf[0] = byte(variant)
	binary.BigEndian.PutUint32(buf[1:], valueAddr)
	if !r.Write(cellAddr, buf) {
		return fmt.Errorf("value: write failed for union cell at %d", cellAddr)
	}
	return nil
}

// ClearUnion resets a Union cell to the unset state, discarding its
// variant pointer. The pointed-to allocation becomes unreachable garbage
// until compaction.
func ClearUnion(r *mem.Region, cellAddr int) bool {
	buf := make([]byte, UnionCellSize)
	buf[0] = UnsetDiscriminant
	return r.Write(cellAddr, buf)
}
