package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noproto-go/noproto/internal/htable"
)

// Names maps a declared schema name (e.g. the `name` option on a struct,
// tuple, or union node) to its schema index. Built during parsing and
// consumed by ResolvePortals, implementing the two-phase recursive-type
// resolution described in spec.md §9 ("Recursive schemas (Portal)").
type Names map[string]int

// ResolvePortals walks the table and resolves every Portal node's symbolic
// PortalPath to a concrete (target, parent) schema-index pair. Cyclic
// portals are permitted: the cycle lives only as an index cycle in the
// table, never as a runtime allocation cycle (spec.md §4.1).
func ResolvePortals(t *Table, names Names) error {
	for i := range t.Nodes {
		if t.Nodes[i].Kind != KindPortal {
			continue
		}
		target, parent, err := resolvePath(t, names, t.Nodes[i].PortalPath)
		if err != nil {
			return err
		}
		t.Nodes[i].PortalTarget = target
		t.Nodes[i].PortalParent = parent
		// A portal's own storage kind mirrors its target: navigating
		// through a portal does not change the buffer address (spec.md
		// §4.3), so the portal node must agree with the target on
		// whether a slot holds an inlined value or a pointer.
		t.Nodes[i].ValueKind = t.Nodes[target].ValueKind
	}
	return nil
}

func resolvePath(t *Table, names Names, path string) (target, parent int, err error) {
	segs := strings.Split(path, ".")
	if len(segs) == 0 || segs[0] == "" {
		return 0, 0, fmt.Errorf("schema: empty portal path")
	}

	root, ok := names[segs[0]]
	if !ok {
		return 0, 0, fmt.Errorf("schema: portal target %q not found", path)
	}

	cur := root
	par := root
	for _, seg := range segs[1:] {
		n := &t.Nodes[cur]
		next, ok := lookupChild(n, seg)
		if !ok {
			return 0, 0, fmt.Errorf("schema: portal target %q not found", path)
		}
		par = cur
		cur = next
	}
	return cur, par, nil
}

// lookupChild finds the schema index of the named field/element of n.
func lookupChild(n *Node, seg string) (int, bool) {
	switch n.Kind {
	case KindStruct, KindUnion:
		for _, f := range n.Fields {
			if f.Name == seg {
				return f.Child, true
			}
		}
		return 0, false
	case KindTuple:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(n.Elements) {
			return 0, false
		}
		return n.Elements[idx], true
	default:
		return 0, false
	}
}

// ComputeOffsets lays out the fields of a Struct, the elements of a Tuple,
// or the variants of a Union, in declaration order, per spec.md §4.3:
// "Fixed fields are inlined; Pointer fields occupy a 4-byte pointer" and
// "Setting a field never moves other fields" (true of any fixed, in-order
// layout). Returns the total allocation size for the node.
func ComputeOffsets(t *Table, idx int) int {
	n := t.At(idx)

	var fields []FieldDef
	switch n.Kind {
	case KindStruct, KindUnion:
		fields = n.Fields
	case KindTuple:
		fields = make([]FieldDef, len(n.Elements))
		for i, c := range n.Elements {
			fields[i] = FieldDef{Child: c}
		}
	default:
		return 0
	}

	offsets := make([]FieldOffset, len(fields))
	off := 0
	for i, f := range fields {
		child := t.At(f.Child)
		if child.ValueKind == Fixed {
			w := child.FixedWidth
			offsets[i] = FieldOffset{Offset: off, Fixed: true, Width: w}
			off += w
		} else {
			offsets[i] = FieldOffset{Offset: off, Fixed: false, Width: PointerWidth}
			off += PointerWidth
		}
	}

	n.FieldOffsets = offsets
	if (n.Kind == KindStruct || n.Kind == KindUnion) && len(fields) > 0 {
		entries := make([]htable.Entry[string, int], len(fields))
		for i, f := range fields {
			entries[i] = htable.Entry[string, int]{Key: f.Name, Value: i}
		}
		n.FieldIndex = htable.New(entries...)
	}
	return off
}

// LookupField returns the position of name among node idx's Fields,
// preferring the htable.Table built by ComputeOffsets and falling back to
// a linear scan for nodes built by hand (e.g. in tests) without it.
func LookupField(t *Table, idx int, name string) (pos int, ok bool) {
	n := t.At(idx)
	if n.FieldIndex != nil {
		return n.FieldIndex.Lookup(name)
	}
	for i, f := range n.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// ComputeSortability recursively derives the Sortable flag for every node
// (spec.md §3.1: "Sortability is true only if every transitively
// referenced child is sortable and all children are Fixed" — generalized
// here to mean "sortable" as defined recursively below; List/Map/Any are
// never sortable, and cyclic Portals are treated as not sortable to avoid
// an unbounded recursive comparison).
func ComputeSortability(t *Table) {
	state := make([]int8, len(t.Nodes)) // 0=unvisited, 1=visiting, 2=done
	var visit func(i int) bool
	visit = func(i int) bool {
		switch state[i] {
		case 2:
			return t.Nodes[i].Sortable
		case 1:
			return false // cycle: treat as non-sortable.
		}
		state[i] = 1

		n := &t.Nodes[i]
		var sortable bool
		switch n.Kind {
		case KindBool, KindInt8, KindInt16, KindInt32, KindInt64,
			KindUint8, KindUint16, KindUint32, KindUint64,
			KindDate, KindUuid, KindUlid, KindEnum, KindDec:
			sortable = true
		case KindFloat, KindDouble, KindGeo, KindList, KindMap, KindAny:
			sortable = false
		case KindString, KindBytes:
			sortable = n.FixedWidth > 0 // fixed-width only; length-prefixed breaks ordering.
		case KindStruct, KindTuple:
			sortable = true
			for _, f := range n.Fields {
				if !visit(f.Child) {
					sortable = false
				}
			}
			for _, c := range n.Elements {
				if !visit(c) {
					sortable = false
				}
			}
		case KindUnion:
			sortable = false // discriminant + variant union is not totally ordered.
		case KindPortal:
			sortable = visit(n.PortalTarget)
		default:
			sortable = false
		}

		n.Sortable = sortable
		state[i] = 2
		return sortable
	}

	for i := range t.Nodes {
		visit(i)
	}
}

// CheckDepth re-derives the nesting depth of t from root and rejects it
// if that depth exceeds maxDepth, letting a Schema constructed with
// WithMaxDepth apply a stricter ceiling than the parser's own fixed
// MaxDepth limit. A cycle (through a recursive Portal) ends the
// depth count along that branch rather than recursing forever, matching
// spec.md §4.1's "the cycle exists only in the schema table, never in
// memory allocation."
func CheckDepth(t *Table, maxDepth int) error {
	onPath := make([]bool, len(t.Nodes))
	var visit func(i, depth int) error
	visit = func(i, depth int) error {
		if depth > maxDepth {
			return fmt.Errorf("schema: nested deeper than %d levels", maxDepth)
		}
		if onPath[i] {
			return nil // cycle: this branch's depth is already accounted for.
		}
		onPath[i] = true
		defer func() { onPath[i] = false }()

		n := &t.Nodes[i]
		switch n.Kind {
		case KindStruct, KindTuple, KindUnion:
			for _, f := range n.Fields {
				if err := visit(f.Child, depth+1); err != nil {
					return err
				}
			}
			for _, c := range n.Elements {
				if err := visit(c, depth+1); err != nil {
					return err
				}
			}
		case KindList, KindMap:
			if err := visit(n.Child, depth+1); err != nil {
				return err
			}
		case KindPortal:
			if err := visit(n.PortalTarget, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(t.Root(), 0)
}
