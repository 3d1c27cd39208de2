package idl

import (
	"fmt"
	"strings"

	"github.com/noproto-go/noproto/internal/schema"
)

// Emit renders the node at idx (and, transitively, its children) back into
// IDL text. Portals are emitted as `portal({path:"..."})` using whatever
// path string was originally stored on the node — re-parsing and
// re-resolving reproduces the same target, satisfying spec.md §8
// invariant 4 (compile/parse round trip).
func Emit(t *schema.Table, idx int) string {
	var b strings.Builder
	emitNode(&b, t, idx)
	return b.String()
}

func emitNode(b *strings.Builder, t *schema.Table, idx int) {
	n := t.At(idx)
	switch n.Kind {
	case schema.KindBool:
		b.WriteString("bool(")
		if n.Default != nil {
			fmt.Fprintf(b, "{default:%v}", n.Default[0] == 1)
		}
		b.WriteString(")")
	case schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64,
		schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64:
		fmt.Fprintf(b, "%s(", n.Kind)
		if n.Default != nil {
			fmt.Fprintf(b, "{default:%d}", decodeIntDefault(n))
		}
		b.WriteString(")")
	case schema.KindFloat, schema.KindDouble:
		fmt.Fprintf(b, "%s()", n.Kind)
	case schema.KindDec:
		fmt.Fprintf(b, "dec({exp:%d,mantissa_width:%d})", n.DecExp, n.DecWidth)
	case schema.KindString, schema.KindBytes:
		b.WriteString(n.Kind.String())
		b.WriteString("(")
		if n.ValueKind == schema.Fixed {
			fmt.Fprintf(b, "{size:%d}", n.FixedWidth)
		}
		b.WriteString(")")
	case schema.KindGeo:
		fmt.Fprintf(b, "geo({size:%d})", int(n.GeoPrecision))
	case schema.KindDate, schema.KindUuid, schema.KindUlid, schema.KindAny:
		fmt.Fprintf(b, "%s()", n.Kind)
	case schema.KindEnum:
		b.WriteString("enum({choices:[")
		for i, c := range n.EnumChoices {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(b, "%q", c)
		}
		b.WriteString("]")
		if n.EnumDefaultIndex >= 0 {
			fmt.Fprintf(b, ",default:%q", n.EnumChoices[n.EnumDefaultIndex])
		}
		b.WriteString("})")
	case schema.KindStruct:
		b.WriteString("struct({")
		if n.Name != "" {
			fmt.Fprintf(b, "name:%q,", n.Name)
		}
		b.WriteString("fields:{")
		for i, f := range n.Fields {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(b, "%s:", f.Name)
			emitNode(b, t, f.Child)
		}
		b.WriteString("}})")
	case schema.KindTuple:
		b.WriteString("tuple({")
		if n.Name != "" {
			fmt.Fprintf(b, "name:%q,", n.Name)
		}
		b.WriteString("values:[")
		for i, c := range n.Elements {
			if i > 0 {
				b.WriteString(",")
			}
			emitNode(b, t, c)
		}
		b.WriteString("]})")
	case schema.KindList:
		b.WriteString("list({of:")
		emitNode(b, t, n.Child)
		b.WriteString("})")
	case schema.KindMap:
		b.WriteString("map({value:")
		emitNode(b, t, n.Child)
		b.WriteString("})")
	case schema.KindUnion:
		b.WriteString("union({")
		if n.Name != "" {
			fmt.Fprintf(b, "name:%q,", n.Name)
		}
		b.WriteString("variants:{")
		for i, f := range n.Fields {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(b, "%s:", f.Name)
			emitNode(b, t, f.Child)
		}
		b.WriteString("}})")
	case schema.KindPortal:
		fmt.Fprintf(b, "portal({path:%q})", n.PortalPath)
	default:
		b.WriteString("any()")
	}
}

func decodeIntDefault(n *schema.Node) int64 {
	buf := append([]byte(nil), n.Default...)
	if schema.Signed(n.Kind) {
		buf[0] ^= 0x80
	}
	var u uint64
	for _, b := range buf {
		u = u<<8 | uint64(b)
	}
	if schema.Signed(n.Kind) {
		width := len(buf)
		shift := uint(64 - 8*width)
		return int64(u<<shift) >> shift
	}
	return int64(u)
}
