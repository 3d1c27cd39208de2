package collection

import (
	"encoding/binary"

	"github.com/noproto-go/noproto/internal/mem"
)

// CellSize is the fixed size of a list/map linked cell (spec.md §3.4:
// "For collection cells (list, map) the slot is 12 bytes").
const CellSize = 12

// MaxChainSteps bounds list/map chain traversal as a corruption defense
// (spec.md §4.5 "Traversal invariant": "Iteration aborts after 2^16
// steps").
const MaxChainSteps = 1 << 16

// cell field offsets within a 12-byte cell.
const (
	cellValueOff = 0
	cellNextOff  = 4
	cellKeyOff   = 8
)

// AllocateCell reserves a new 12-byte cell with the given fields and
// returns its address.
func AllocateCell(r *mem.Region, valueAddr, next, key uint32) (addr int, ok bool) {
	buf := make([]byte, CellSize)
	binary.BigEndian.PutUint32(buf[cellValueOff:], valueAddr)
	binary.BigEndian.PutUint32(buf[cellNextOff:], next)
	binary.BigEndian.PutUint32(buf[cellKeyOff:], key)
	return r.Malloc(buf)
}

func cellField(r *mem.Region, cellAddr, fieldOff int) (uint32, bool) {
	data, ok := r.Read(cellAddr+fieldOff, 4)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(data), true
}

// CellValueAddr reads a cell's addr_value field.
func CellValueAddr(r *mem.Region, cellAddr int) (uint32, bool) {
	return cellField(r, cellAddr, cellValueOff)
}

// CellNextAddr reads a cell's next_addr field.
func CellNextAddr(r *mem.Region, cellAddr int) (uint32, bool) {
	return cellField(r, cellAddr, cellNextOff)
}

// CellKey reads a cell's key_addr/index field.
func CellKey(r *mem.Region, cellAddr int) (uint32, bool) {
	return cellField(r, cellAddr, cellKeyOff)
}

// SetCellValueAddr overwrites a cell's addr_value field in place.
func SetCellValueAddr(r *mem.Region, cellAddr int, v uint32) bool {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return r.Write(cellAddr+cellValueOff, buf[:])
}

// SetCellNext overwrites a cell's next_addr field in place.
func SetCellNext(r *mem.Region, cellAddr int, next uint32) bool {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], next)
	return r.Write(cellAddr+cellNextOff, buf[:])
}

// ListFind walks the chain starting at head looking for a cell whose key
// field equals index (spec.md §4.5 "List": "cells are chained via
// next_addr in ascending index order"). prevAddr is the address of the
// cell immediately before the returned one (0 if it would be the new
// head), used by callers that need to splice in a new cell.
func ListFind(r *mem.Region, head uint32, index uint32) (cellAddr, prevAddr uint32, found, capExceeded bool) {
	cur := head
	var prev uint32
	for steps := 0; cur != 0; steps++ {
		if steps >= MaxChainSteps {
			return 0, 0, false, true
		}
		key, ok := CellKey(r, int(cur))
		if !ok {
			return 0, 0, false, false
		}
		if key == index {
			return cur, prev, true, false
		}
		if key > index {
			// Ascending order: the target index, if present, would have
			// appeared by now.
			return 0, prev, false, false
		}
		next, ok := CellNextAddr(r, int(cur))
		if !ok {
			return 0, 0, false, false
		}
		prev = cur
		cur = next
	}
	return 0, prev, false, false
}

// ListInsert splices a new cell for index into the chain rooted at head,
// preserving ascending key order, and returns the (possibly updated) head
// and the new cell's address. The caller is responsible for writing the
// cell's value after allocation.
func ListInsert(r *mem.Region, head uint32, index uint32) (newHead, cellAddr uint32, ok bool) {
	_, prev, found, capExceeded := ListFind(r, head, index)
	if found || capExceeded {
		return head, 0, false
	}

	var nextAddr uint32
	if prev == 0 {
		nextAddr = head
	} else {
		next, _ := CellNextAddr(r, int(prev))
		nextAddr = next
	}

	addr, ok := AllocateCell(r, 0, nextAddr, index)
	if !ok {
		return head, 0, false
	}
	cellAddr = uint32(addr)

	if prev == 0 {
		return cellAddr, cellAddr, true
	}
	if !SetCellNext(r, int(prev), cellAddr) {
		return head, 0, false
	}
	return head, cellAddr, true
}

// ListLen counts the cells in the chain rooted at head.
func ListLen(r *mem.Region, head uint32) (n int, capExceeded bool) {
	cur := head
	for steps := 0; cur != 0; steps++ {
		if steps >= MaxChainSteps {
			return n, true
		}
		n++
		next, ok := CellNextAddr(r, int(cur))
		if !ok {
			return n, false
		}
		cur = next
	}
	return n, false
}

// ListIndices returns the indices actually present in the chain rooted at
// head, in ascending order (spec.md:173 "cells are chained ... in
// ascending index order"). A list is index-addressed, not cell-counted —
// inserting at index 5 without indices 1-4 leaves those as gaps (spec.md:174
// "gaps are permitted and decode to unset"), so ListLen's cell count is not
// the same thing as the list's logical length (its last present index + 1).
// Callers that need to render or copy a whole list walk this instead of
// probing synthetic indices 0..ListLen-1.
func ListIndices(r *mem.Region, head uint32) (indices []uint32, capExceeded bool) {
	cur := head
	for steps := 0; cur != 0; steps++ {
		if steps >= MaxChainSteps {
			return indices, true
		}
		key, ok := CellKey(r, int(cur))
		if !ok {
			return indices, false
		}
		indices = append(indices, key)
		next, ok := CellNextAddr(r, int(cur))
		if !ok {
			return indices, false
		}
		cur = next
	}
	return indices, false
}
