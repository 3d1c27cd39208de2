package cursor

import (
	"fmt"

	"github.com/noproto-go/noproto/internal/schema"
	"github.com/noproto-go/noproto/internal/value"
)

// isScalarPointer reports whether n is a Pointer-kind scalar (String/
// Bytes/Any), whose payload is a length-prefixed allocation rather than a
// fixed-width one.
func isScalarPointer(n *schema.Node) bool {
	switch n.Kind {
	case schema.KindString, schema.KindBytes, schema.KindAny:
		return true
	default:
		return false
	}
}

// Get decodes this cursor's scalar value. It returns (nil, nil) if the
// value is a Pointer-kind scalar with no value set.
func (c *Cursor) Get() (any, error) {
	n := c.node()
	if c.IsContainer() {
		return nil, fmt.Errorf("cursor: Get called on a %s value; use Select", n.Kind)
	}
	codec := value.CodecFor(n.Kind)
	if codec == nil {
		return nil, fmt.Errorf("cursor: no scalar codec for kind %s", n.Kind)
	}

	if c.inlineEligible(n) {
		data, ok := c.Region.Read(c.Addr, n.FixedWidth)
		if !ok {
			return nil, fmt.Errorf("cursor: read out of bounds at %d", c.Addr)
		}
		return codec.Decode(n, data)
	}

	ptr, ok := c.readPointer()
	if !ok {
		return nil, fmt.Errorf("cursor: slot at %d is out of bounds", c.Addr)
	}
	if ptr == 0 {
		return nil, nil
	}

	if isScalarPointer(n) {
		lenPrefix, ok := c.Region.Read(int(ptr), value.LengthPrefixSize)
		if !ok {
			return nil, fmt.Errorf("cursor: malformed length prefix at %d", ptr)
		}
		l := value.DecodeVarWidthLen(lenPrefix)
		full, ok := c.Region.Read(int(ptr), value.LengthPrefixSize+l)
		if !ok {
			return nil, fmt.Errorf("cursor: truncated payload at %d", ptr)
		}
		return codec.Decode(n, full)
	}

	// Slotted Fixed value too wide for the 4-byte cell: stored verbatim at
	// the pointed-to address.
	data, ok := c.Region.Read(int(ptr), n.FixedWidth)
	if !ok {
		return nil, fmt.Errorf("cursor: read out of bounds at %d", ptr)
	}
	return codec.Decode(n, data)
}

// Set encodes v and writes it at this cursor, allocating new storage if
// the value is Pointer-kind or a Slotted wide Fixed value (growing the
// region never moves any other existing value — spec.md §8 invariant
// "setting a value never invalidates other live cursors").
func (c *Cursor) Set(v any) error {
	n := c.node()
	if c.IsContainer() {
		return fmt.Errorf("cursor: Set called on a %s value; use Select", n.Kind)
	}
	codec := value.CodecFor(n.Kind)
	if codec == nil {
		return fmt.Errorf("cursor: no scalar codec for kind %s", n.Kind)
	}

	encoded, err := codec.Encode(n, v)
	if err != nil {
		return err
	}

	if c.inlineEligible(n) {
		if !c.Region.Write(c.Addr, encoded) {
			return fmt.Errorf("cursor: write out of bounds at %d", c.Addr)
		}
		return nil
	}

	if isScalarPointer(n) {
		// In-place mutation rule (spec.md §4.4, Testable Property 8): a
		// same-or-smaller-size replacement reuses the existing allocation
		// rather than orphaning it, mirroring the Slotted wide-Fixed
		// branch below.
		ptr, ok := c.readPointer()
		if !ok {
			return fmt.Errorf("cursor: slot at %d is out of bounds", c.Addr)
		}
		if ptr != 0 {
			lenPrefix, ok := c.Region.Read(int(ptr), value.LengthPrefixSize)
			if ok {
				oldTotal := value.LengthPrefixSize + value.DecodeVarWidthLen(lenPrefix)
				if len(encoded) <= oldTotal && c.Region.Write(int(ptr), encoded) {
					return nil
				}
			}
		}
		addr, ok := c.Region.Malloc(encoded)
		if !ok {
			return fmt.Errorf("cursor: allocation failed for %s value", n.Kind)
		}
		if !c.writePointer(uint32(addr)) {
			return fmt.Errorf("cursor: failed writing pointer at %d", c.Addr)
		}
		return nil
	}

	// Slotted wide Fixed value: reuse the existing allocation in place
	// when already set (spec.md §8: "setting a same-width value never
	// reallocates"), otherwise allocate fresh.
	ptr, ok := c.readPointer()
	if !ok {
		return fmt.Errorf("cursor: slot at %d is out of bounds", c.Addr)
	}
	if ptr != 0 {
		if c.Region.Write(int(ptr), encoded) {
			return nil
		}
	}
	addr, ok := c.Region.Malloc(encoded)
	if !ok {
		return fmt.Errorf("cursor: allocation failed for %s value", n.Kind)
	}
	if !c.writePointer(uint32(addr)) {
		return fmt.Errorf("cursor: failed writing pointer at %d", c.Addr)
	}
	return nil
}

// Del clears this cursor's value back to unset: a null pointer for any
// Pointer-kind node (scalar or container alike — clearing a whole
// struct/tuple/list/map/union drops its entire subtree as unreachable,
// reclaimable by Compact), or a zeroed encoding for an inlined Fixed
// value.
func (c *Cursor) Del() error {
	n := c.node()
	if c.inlineEligible(n) {
		zero := make([]byte, n.FixedWidth)
		if !c.Region.Write(c.Addr, zero) {
			return fmt.Errorf("cursor: write out of bounds at %d", c.Addr)
		}
		return nil
	}
	if !c.writePointer(0) {
		return fmt.Errorf("cursor: failed clearing pointer at %d", c.Addr)
	}
	return nil
}
