// Package schema implements the flat schema table described in spec.md
// §3.1: an ordered array of nodes, each with a kind, kind-specific data,
// and child references expressed as indices into the same table.
//
// This mirrors the teacher's type.go/typeHeader design (a flattened,
// offset-addressed compiled graph) but over a plain []Node slice instead
// of an unsafe-pointer arena, since a schema table must itself be
// serializable to the compiled-bytes wire format (§6.2).
package schema

import "fmt"

// Kind identifies the shape of a schema node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat
	KindDouble
	KindDec
	KindString
	KindBytes
	KindGeo
	KindDate
	KindUuid
	KindUlid
	KindEnum
	KindStruct
	KindTuple
	KindList
	KindMap
	KindPortal
	KindUnion
	KindAny
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindInt8:    "i8",
	KindInt16:   "i16",
	KindInt32:   "i32",
	KindInt64:   "i64",
	KindUint8:   "u8",
	KindUint16:  "u16",
	KindUint32:  "u32",
	KindUint64:  "u64",
	KindFloat:   "float",
	KindDouble:  "double",
	KindDec:     "dec",
	KindString:  "string",
	KindBytes:   "bytes",
	KindGeo:     "geo",
	KindDate:    "date",
	KindUuid:    "uuid",
	KindUlid:    "ulid",
	KindEnum:    "enum",
	KindStruct:  "struct",
	KindTuple:   "tuple",
	KindList:    "list",
	KindMap:     "map",
	KindPortal:  "portal",
	KindUnion:   "union",
	KindAny:     "any",
}

// String implements fmt.Stringer. It also doubles as the IDL type keyword
// and the JSON schema "type" value for this kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindByName looks up a Kind by its IDL/JSON type name.
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name && Kind(k) != KindInvalid {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}

// ValueKind is whether a node's value is inlined in its parent's slot
// (Fixed) or heap-addressed via a pointer into the memory region's tail
// (Pointer). Computed once at parse time (spec.md §9, "Fixed vs Pointer").
type ValueKind uint8

const (
	Fixed ValueKind = iota
	Pointer
)

// PointerWidth is the canonical pointer width in bytes (spec.md §9 adopts
// 32-bit throughout; the 16-bit no_proto_js variant is documented as an
// optional size-constrained variant, not implemented here).
const PointerWidth = 4

// IntWidth returns the encoded byte width of an integer/float/bool/date
// kind. Panics if k is not one of those kinds; callers must only call this
// for kinds known to be fixed-width scalars.
func IntWidth(k Kind) int {
	switch k {
	case KindBool, KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat:
		return 4
	case KindInt64, KindUint64, KindDouble, KindDate:
		return 8
	case KindUuid, KindUlid:
		return 16
	default:
		panic(fmt.Sprintf("schema: IntWidth called on non-scalar kind %v", k))
	}
}

// Signed reports whether k is a signed integer kind, which determines
// whether the sign-flip sortability transform (spec.md §4.4) applies.
func Signed(k Kind) bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	default:
		return false
	}
}
