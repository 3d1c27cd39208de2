package collection

import (
	"fmt"

	"github.com/noproto-go/noproto/internal/mem"
)

// MaxKeyLen bounds a map key's encoded length (spec.md §4.5 "Map": "keys
// are limited to 255 bytes so the out-of-band key allocation can be
// addressed with a single length byte").
const MaxKeyLen = 255

// allocateKey stores key as a 1-byte-length-prefixed out-of-band
// allocation and returns its address.
func allocateKey(r *mem.Region, key []byte) (addr int, ok bool) {
	if len(key) > MaxKeyLen {
		return 0, false
	}
	buf := make([]byte, 1+len(key))
	buf[0] = byte(len(key))
	copy(buf[1:], key)
	return r.Malloc(buf)
}

// readKey reads back a key allocated by allocateKey.
func readKey(r *mem.Region, addr uint32) ([]byte, bool) {
	lenByte, ok := r.Read(int(addr), 1)
	if !ok {
		return nil, false
	}
	n := int(lenByte[0])
	data, ok := r.Read(int(addr)+1, n)
	if !ok {
		return nil, false
	}
	return data, true
}

// MapFind performs a bounded linear scan of the chain rooted at head
// looking for a cell whose out-of-band key equals key (spec.md §4.5
// "Map": "unordered chain; lookup is O(n) via equality on the out-of-band
// key allocation").
func MapFind(r *mem.Region, head uint32, key []byte) (cellAddr uint32, found, capExceeded bool) {
	cur := head
	for steps := 0; cur != 0; steps++ {
		if steps >= MaxChainSteps {
			return 0, false, true
		}
		keyAddr, ok := CellKey(r, int(cur))
		if !ok {
			return 0, false, false
		}
		stored, ok := readKey(r, keyAddr)
		if ok && string(stored) == string(key) {
			return cur, true, false
		}
		next, ok := CellNextAddr(r, int(cur))
		if !ok {
			return 0, false, false
		}
		cur = next
	}
	return 0, false, false
}

// MapInsert head-inserts a new cell for key into the chain rooted at
// head and returns the new head and the new cell's address. Callers must
// check MapFind first; MapInsert does not itself guard against duplicate
// keys.
func MapInsert(r *mem.Region, head uint32, key []byte) (newHead, cellAddr uint32, err error) {
	keyAddr, ok := allocateKey(r, key)
	if !ok {
		return head, 0, fmt.Errorf("value: map key of %d bytes exceeds %d byte limit", len(key), MaxKeyLen)
	}
	addr, ok := AllocateCell(r, 0, head, uint32(keyAddr))
	if !ok {
		return head, 0, fmt.Errorf("value: allocation failed for map cell")
	}
	return uint32(addr), uint32(addr), nil
}

// MapDelete splices the cell at cellAddr out of the chain rooted at head.
// The cell's storage is left as unreachable garbage, reclaimed only by
// compaction.
func MapDelete(r *mem.Region, head uint32, cellAddr uint32) (newHead uint32, ok bool) {
	if head == cellAddr {
		next, ok := CellNextAddr(r, int(cellAddr))
		if !ok {
			return head, false
		}
		return next, true
	}
	cur := head
	for steps := 0; cur != 0; steps++ {
		if steps >= MaxChainSteps {
			return head, false
		}
		next, ok := CellNextAddr(r, int(cur))
		if !ok {
			return head, false
		}
		if next == cellAddr {
			afterDeleted, ok := CellNextAddr(r, int(cellAddr))
			if !ok {
				return head, false
			}
			if !SetCellNext(r, int(cur), afterDeleted) {
				return head, false
			}
			return head, true
		}
		cur = next
	}
	return head, false
}

// MapLen counts the cells in the chain rooted at head.
func MapLen(r *mem.Region, head uint32) (n int, capExceeded bool) {
	return ListLen(r, head)
}

// MapKeys returns the decoded keys of every cell in the chain rooted at
// head, in chain (most-recently-inserted-first) order.
func MapKeys(r *mem.Region, head uint32) (keys [][]byte, capExceeded bool) {
	cur := head
	for steps := 0; cur != 0; steps++ {
		if steps >= MaxChainSteps {
			return keys, true
		}
		keyAddr, ok := CellKey(r, int(cur))
		if !ok {
			return keys, false
		}
		k, ok := readKey(r, keyAddr)
		if ok {
			keys = append(keys, k)
		}
		next, ok := CellNextAddr(r, int(cur))
		if !ok {
			return keys, false
		}
		cur = next
	}
	return keys, false
}
