package schema

import "github.com/noproto-go/noproto/internal/htable"

// GeoPrecision is the byte width of a geo node's lat/lng pair, preserving
// the original_source Rust crate's geo4/geo8/geo16 precision tiers
// (SPEC_FULL.md §2.2 item 2). geo8 (float32 pair) is the default when an
// IDL/JSON schema omits an explicit precision.
type GeoPrecision uint8

const (
	Geo4  GeoPrecision = 4  // two int16, fixed-point
	Geo8  GeoPrecision = 8  // two float32
	Geo16 GeoPrecision = 16 // two float64
)

// FieldDef is one (name, child schema index) pair, used for Struct fields
// and Union variants. ComputeOffsets also builds unnamed FieldDefs from a
// Tuple's Elements while laying it out.
type FieldDef struct {
	Name  string
	Child int
}

// FieldOffset is precomputed struct/tuple/union layout information: the
// byte offset of this field's slot within its parent's single allocation,
// and whether that slot holds an inlined Fixed value or a PointerWidth
// pointer (spec.md §4.3, "Struct").
type FieldOffset struct {
	Offset int
	Fixed  bool
	Width  int
}

// Node is one entry in a Table (spec.md §3.1).
type Node struct {
	Kind      Kind
	ValueKind ValueKind
	Sortable  bool

	// FixedWidth is the number of bytes this node occupies when inlined
	// (ValueKind == Fixed). Unused when ValueKind == Pointer, except for
	// String/Bytes, which use FixedWidth to record a schema-declared
	// fixed size (0 means variable-width).
	FixedWidth int

	// Default holds the pre-encoded default value's bytes, or nil if the
	// schema declares no default. Enum leaves Default nil and records its
	// default choice in EnumDefaultIndex instead (see DefaultBytes).
	Default []byte

	// Dec-specific.
	DecExp   int8
	DecWidth int // mantissa width: 1, 2, 4, or 8 bytes

	// Geo-specific.
	GeoPrecision GeoPrecision

	// Enum-specific.
	EnumChoices      []string
	EnumDefaultIndex int // -1 if no default

	// Name is the declared `name:"..."` option on a Struct/Tuple/Union
	// node, if any. Empty for anonymous nodes. Kept so that the IDL/JSON
	// emitters can reproduce it, which is required for portal paths
	// (schema-table cycles) to resolve after a compile/emit/parse round
	// trip (spec.md §8 invariant 4).
	Name string

	// Struct/Tuple/Union-specific.
	Fields       []FieldDef // Struct: named fields. Union: variants.
	FieldOffsets []FieldOffset

	// FieldIndex is a name -> position lookup table over Fields, built by
	// ComputeOffsets. Structs and unions with many fields resolve a path
	// segment through this instead of scanning Fields linearly; nil until
	// ComputeOffsets runs, in which case LookupField falls back to a scan.
	FieldIndex *htable.Table[string, int]

	// Tuple-specific: element schema indices, in order, populated at parse
	// time. Tuples leave Fields empty.
	Elements []int

	// List/Map-specific: index of the element/value schema node.
	Child int

	// Map-specific.
	KeyIsString bool // always true; reserved for future key kinds.

	// Portal-specific.
	PortalPath   string // symbolic path, pre-resolution.
	PortalTarget int    // resolved target schema index, -1 until resolved.
	PortalParent int    // resolved parent-of-target schema index, -1 until resolved.
}

// DefaultBytes returns the bytes a freshly-allocated Fixed slot for n
// should be initialized with, if n declares a non-zero default (spec.md
// §4.4 "Defaults"). Enum stores its default as EnumDefaultIndex rather
// than in Default, since its declared choices aren't known until the
// enum's own node exists; every other Fixed kind stores pre-encoded
// bytes directly in Default.
func (n *Node) DefaultBytes() ([]byte, bool) {
	if n.ValueKind != Fixed {
		return nil, false
	}
	if n.Kind == KindEnum {
		if n.EnumDefaultIndex < 0 {
			return nil, false
		}
		return []byte{byte(n.EnumDefaultIndex)}, true
	}
	if len(n.Default) != n.FixedWidth {
		return nil, false
	}
	return n.Default, true
}

// Table is the flat, ordered schema node array (spec.md §3.1). Index 0 is
// always the root.
type Table struct {
	Nodes []Node
}

// Root returns the root node index, always 0.
func (t *Table) Root() int { return 0 }

// Push appends a zero-valued node and returns its index. Callers push a
// node for themselves before recursively parsing/pushing their children,
// which guarantees parent indices precede child indices (spec.md §4.1).
func (t *Table) Push(n Node) int {
	t.Nodes = append(t.Nodes, n)
	return len(t.Nodes) - 1
}

// At returns a pointer to the node at index i, so that callers can finish
// populating fields that depend on children pushed after the initial Push
// (e.g. a Struct's FieldOffsets, computed only once all fields exist).
func (t *Table) At(i int) *Node { return &t.Nodes[i] }

// MaxDepth is the default schema nesting ceiling (spec.md §4.1 failure
// modes: "schema deeper than 255 levels").
const MaxDepth = 255
