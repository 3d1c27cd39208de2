package cursor

import (
	"fmt"
	"strconv"

	"github.com/noproto-go/noproto/internal/mem"
	"github.com/noproto-go/noproto/internal/schema"
)

// Compact rebuilds src's buffer from scratch by recursively copying only
// the values still reachable from the root, discarding every unreachable
// allocation (a stale map cell spliced out by MapDelete, a string's old
// backing bytes left behind by a grow-triggered reallocation, a union
// variant abandoned by ClearUnion) — spec.md §4.7: "compaction is the
// only garbage collection this format performs."
func Compact(src *Cursor) (*mem.Region, error) {
	t := src.Table
	rootIdx := t.Root()
	rootNode := t.At(rootIdx)

	width := rootNode.FixedWidth
	if rootNode.ValueKind == schema.Pointer {
		width = schema.PointerWidth
	}

	dst := mem.New(src.Region.Len())
	if _, ok := dst.Reserve(width); !ok {
		return nil, fmt.Errorf("cursor: compaction failed to reserve root slot")
	}
	dstCursor := &Cursor{Region: dst, Table: t, Addr: mem.RootAddr, SchemaIdx: rootIdx, ParentSchemaIdx: -1}

	if err := copyValue(src, dstCursor); err != nil {
		return nil, err
	}
	return dst, nil
}

func copyValue(src, dst *Cursor) error {
	n := src.node()
	switch n.Kind {
	case schema.KindStruct:
		for _, f := range n.Fields {
			srcChild, err := src.Select([]string{f.Name}, false)
			if err == ErrNotPresent {
				continue
			}
			if err != nil {
				return err
			}
			dstChild, err := dst.Select([]string{f.Name}, true)
			if err != nil {
				return err
			}
			if err := copyValue(srcChild, dstChild); err != nil {
				return err
			}
		}
		return nil

	case schema.KindTuple:
		for i := range n.Elements {
			seg := strconv.Itoa(i)
			srcChild, err := src.Select([]string{seg}, false)
			if err == ErrNotPresent {
				continue
			}
			if err != nil {
				return err
			}
			dstChild, err := dst.Select([]string{seg}, true)
			if err != nil {
				return err
			}
			if err := copyValue(srcChild, dstChild); err != nil {
				return err
			}
		}
		return nil

	case schema.KindList:
		// Walk the chain's actual present indices rather than probing
		// 0..ListLen-1: a list is index-addressed and permits gaps
		// (spec.md:174), so ListLen's cell count does not cover the same
		// range as the list's logical indices.
		indices, err := src.ListIndices()
		if err != nil {
			return err
		}
		for _, i := range indices {
			seg := strconv.Itoa(int(i))
			srcChild, err := src.Select([]string{seg}, false)
			if err == ErrNotPresent {
				continue
			}
			if err != nil {
				return err
			}
			dstChild, err := dst.Select([]string{seg}, true)
			if err != nil {
				return err
			}
			if err := copyValue(srcChild, dstChild); err != nil {
				return err
			}
		}
		return nil

	case schema.KindMap:
		keys, err := src.MapKeys()
		if err != nil {
			return err
		}
		for _, k := range keys {
			srcChild, err := src.Select([]string{k}, false)
			if err != nil {
				return err
			}
			dstChild, err := dst.Select([]string{k}, true)
			if err != nil {
				return err
			}
			if err := copyValue(srcChild, dstChild); err != nil {
				return err
			}
		}
		return nil

	case schema.KindUnion:
		variant, ok := src.UnionVariant()
		if !ok {
			return nil
		}
		srcChild, err := src.Select([]string{variant}, false)
		if err != nil {
			return err
		}
		dstChild, err := dst.Select([]string{variant}, true)
		if err != nil {
			return err
		}
		return copyValue(srcChild, dstChild)

	default:
		v, err := src.Get()
		if err != nil {
			return err
		}
		if v == nil {
			return nil
		}
		return dst.Set(v)
	}
}
