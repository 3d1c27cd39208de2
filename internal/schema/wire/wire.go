// Package wire implements the compiled schema byte format (spec.md §6.2):
// a canonical, bidirectional encoding of a schema.Table, prefixed by a
// one-byte type key per node. Structurally this mirrors the teacher's
// typeHeader layout comments (prefix-tagged, length-prefixed nested
// structures); encoding/binary is used directly since the format is
// bit-exact and bespoke to this specification.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/noproto-go/noproto/internal/schema"
)

// Type keys, assigned in the order spec.md §6.2 begins to enumerate
// (1 = Bool, 2..11 = integer and float kinds, 12 = String, 13 = Bytes,
// 14 = Geo, 15 = Date, ...); kinds the prose doesn't explicitly number
// are assigned the next free key, in table declaration order.
const (
	keyBool Key = 1 + iota
	keyInt8
	keyInt16
	keyInt32
	keyInt64
	keyUint8
	keyUint16
	keyUint32
	keyUint64
	keyFloat
	keyDouble
	keyString
	keyBytes
	keyGeo
	keyDate
	keyUuid
	keyUlid
	keyEnum
	keyStruct
	keyTuple
	keyList
	keyMap
	keyPortal
	keyUnion
	keyAny
	keyDec
)

// Key is the one-byte type tag prefixing every encoded node.
type Key byte

var kindToKey = map[schema.Kind]Key{
	schema.KindBool:   keyBool,
	schema.KindInt8:   keyInt8,
	schema.KindInt16:  keyInt16,
	schema.KindInt32:  keyInt32,
	schema.KindInt64:  keyInt64,
	schema.KindUint8:  keyUint8,
	schema.KindUint16: keyUint16,
	schema.KindUint32: keyUint32,
	schema.KindUint64: keyUint64,
	schema.KindFloat:  keyFloat,
	schema.KindDouble: keyDouble,
	schema.KindString: keyString,
	schema.KindBytes:  keyBytes,
	schema.KindGeo:    keyGeo,
	schema.KindDate:   keyDate,
	schema.KindUuid:   keyUuid,
	schema.KindUlid:   keyUlid,
	schema.KindEnum:   keyEnum,
	schema.KindStruct: keyStruct,
	schema.KindTuple:  keyTuple,
	schema.KindList:   keyList,
	schema.KindMap:    keyMap,
	schema.KindPortal: keyPortal,
	schema.KindUnion:  keyUnion,
	schema.KindAny:    keyAny,
	schema.KindDec:    keyDec,
}

var keyToKind = func() map[Key]schema.Kind {
	m := make(map[Key]schema.Kind, len(kindToKey))
	for k, v := range kindToKey {
		m[v] = k
	}
	return m
}()

// Encode renders the node at idx (and its children, transitively) into the
// compiled byte format.
func Encode(t *schema.Table, idx int) []byte {
	var b []byte
	return appendNode(b, t, idx)
}

func appendNode(b []byte, t *schema.Table, idx int) []byte {
	n := t.At(idx)
	key, ok := kindToKey[n.Kind]
	if !ok {
		panic(fmt.Sprintf("wire: no type key for kind %v", n.Kind))
	}
	b = append(b, byte(key))

	switch n.Kind {
	case schema.KindBool:
		switch {
		case n.Default == nil:
			b = append(b, 0)
		case n.Default[0] == 1:
			b = append(b, 1)
		default:
			b = append(b, 2)
		}

	case schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64,
		schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64,
		schema.KindFloat, schema.KindDouble:
		if n.Default == nil {
			b = append(b, 0)
		} else {
			b = append(b, 1)
			b = append(b, n.Default...)
		}

	case schema.KindString, schema.KindBytes:
		var fixed uint32
		if n.ValueKind == schema.Fixed {
			fixed = uint32(n.FixedWidth)
		}
		b = appendU32(b, fixed)
		if n.Default == nil {
			b = appendU16(b, 0)
		} else {
			b = appendU16(b, uint16(len(n.Default)+1))
			b = append(b, n.Default...)
		}

	case schema.KindGeo:
		b = append(b, byte(n.GeoPrecision))

	case schema.KindDec:
		b = append(b, byte(n.DecExp))
		b = append(b, byte(n.DecWidth))
		if n.Default == nil {
			b = append(b, 0)
		} else {
			b = append(b, 1)
			b = append(b, n.Default...)
		}

	case schema.KindDate, schema.KindUuid, schema.KindUlid, schema.KindAny:
		// No payload.

	case schema.KindEnum:
		b = append(b, byte(n.EnumDefaultIndex+1))
		b = append(b, byte(len(n.EnumChoices)))
		for _, c := range n.EnumChoices {
			b = append(b, byte(len(c)))
			b = append(b, c...)
		}

	case schema.KindStruct:
		b = appendNamedOption(b, n.Name)
		b = append(b, byte(len(n.Fields)))
		for _, f := range n.Fields {
			b = appendField(b, t, f)
		}

	case schema.KindUnion:
		b = appendNamedOption(b, n.Name)
		b = append(b, byte(len(n.Fields)))
		for _, f := range n.Fields {
			b = appendField(b, t, f)
		}

	case schema.KindTuple:
		b = appendNamedOption(b, n.Name)
		b = append(b, byte(len(n.Elements)))
		for _, c := range n.Elements {
			child := appendNode(nil, t, c)
			b = appendU16(b, uint16(len(child)))
			b = append(b, child...)
		}

	case schema.KindList, schema.KindMap:
		child := appendNode(nil, t, n.Child)
		b = append(b, child...)

	case schema.KindPortal:
		b = appendU16(b, uint16(len(n.PortalPath)))
		b = append(b, n.PortalPath...)

	default:
		panic(fmt.Sprintf("wire: unsupported kind %v", n.Kind))
	}

	return b
}

func appendField(b []byte, t *schema.Table, f schema.FieldDef) []byte {
	b = append(b, byte(len(f.Name)))
	b = append(b, f.Name...)
	child := appendNode(nil, t, f.Child)
	b = appendU16(b, uint16(len(child)))
	b = append(b, child...)
	return b
}

// appendNamedOption prepends a name-length-prefixed string ahead of the
// field/element count, an extension beyond the literal §6.2 text (which
// doesn't number struct/tuple/union names) needed to round-trip named
// (i.e. portal-targetable) nodes through the compiled format.
func appendNamedOption(b []byte, name string) []byte {
	b = appendU16(b, uint16(len(name)))
	return append(b, name...)
}

func appendU16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// Decode parses the compiled byte format back into a fully resolved
// schema.Table (portals resolved, offsets and sortability computed).
func Decode(data []byte) (*schema.Table, error) {
	t := &schema.Table{}
	names := schema.Names{}
	d := &decoder{buf: data}
	if _, err := d.node(t, names); err != nil {
		return nil, err
	}
	if d.pos != len(d.buf) {
		return nil, fmt.Errorf("wire: %d trailing bytes", len(d.buf)-d.pos)
	}
	if err := schema.ResolvePortals(t, names); err != nil {
		return nil, err
	}
	for i := range t.Nodes {
		switch t.Nodes[i].Kind {
		case schema.KindStruct, schema.KindTuple, schema.KindUnion:
			schema.ComputeOffsets(t, i)
		}
	}
	schema.ComputeSortability(t)
	return t, nil
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) u8() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, fmt.Errorf("wire: truncated input")
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) bytes(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, fmt.Errorf("wire: truncated input")
	}
	v := d.buf[d.pos : d.pos+n]
	d.pos += n
	return v, nil
}

func (d *decoder) u16() (uint16, error) {
	b, err := d.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *decoder) node(t *schema.Table, names schema.Names) (int, error) {
	keyByte, err := d.u8()
	if err != nil {
		return 0, err
	}
	kind, ok := keyToKind[Key(keyByte)]
	if !ok {
		return 0, fmt.Errorf("wire: unknown type key %d", keyByte)
	}

	switch kind {
	case schema.KindBool:
		hasDefault, err := d.u8()
		if err != nil {
			return 0, err
		}
		n := schema.Node{Kind: kind, ValueKind: schema.Fixed, FixedWidth: 1}
		switch hasDefault {
		case 1:
			n.Default = []byte{1}
		case 2:
			n.Default = []byte{0}
		}
		return t.Push(n), nil

	case schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64,
		schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64,
		schema.KindFloat, schema.KindDouble:
		w := schema.IntWidth(kind)
		hasDefault, err := d.u8()
		if err != nil {
			return 0, err
		}
		n := schema.Node{Kind: kind, ValueKind: schema.Fixed, FixedWidth: w}
		if hasDefault == 1 {
			def, err := d.bytes(w)
			if err != nil {
				return 0, err
			}
			n.Default = append([]byte(nil), def...)
		}
		return t.Push(n), nil

	case schema.KindString, schema.KindBytes:
		fixed, err := d.u32()
		if err != nil {
			return 0, err
		}
		defLen, err := d.u16()
		if err != nil {
			return 0, err
		}
		n := schema.Node{Kind: kind, ValueKind: schema.Pointer}
		if fixed > 0 {
			n.ValueKind = schema.Fixed
			n.FixedWidth = int(fixed)
		}
		if defLen > 0 {
			def, err := d.bytes(int(defLen - 1))
			if err != nil {
				return 0, err
			}
			n.Default = append([]byte(nil), def...)
		}
		return t.Push(n), nil

	case schema.KindGeo:
		p, err := d.u8()
		if err != nil {
			return 0, err
		}
		return t.Push(schema.Node{Kind: kind, ValueKind: schema.Fixed, FixedWidth: int(p), GeoPrecision: schema.GeoPrecision(p)}), nil

	case schema.KindDec:
		exp, err := d.u8()
		if err != nil {
			return 0, err
		}
		width, err := d.u8()
		if err != nil {
			return 0, err
		}
		hasDefault, err := d.u8()
		if err != nil {
			return 0, err
		}
		n := schema.Node{Kind: kind, ValueKind: schema.Fixed, FixedWidth: int(width), DecExp: int8(exp), DecWidth: int(width)}
		if hasDefault == 1 {
			def, err := d.bytes(int(width))
			if err != nil {
				return 0, err
			}
			n.Default = append([]byte(nil), def...)
		}
		return t.Push(n), nil

	case schema.KindDate, schema.KindUuid, schema.KindUlid, schema.KindAny:
		w := 0
		if kind == schema.KindDate {
			w = 8
		} else if kind == schema.KindUuid || kind == schema.KindUlid {
			w = 16
		}
		vk := schema.Fixed
		if kind == schema.KindAny {
			vk = schema.Pointer
		}
		return t.Push(schema.Node{Kind: kind, ValueKind: vk, FixedWidth: w}), nil

	case schema.KindEnum:
		defPlusOne, err := d.u8()
		if err != nil {
			return 0, err
		}
		count, err := d.u8()
		if err != nil {
			return 0, err
		}
		choices := make([]string, count)
		for i := range choices {
			l, err := d.u8()
			if err != nil {
				return 0, err
			}
			s, err := d.bytes(int(l))
			if err != nil {
				return 0, err
			}
			choices[i] = string(s)
		}
		return t.Push(schema.Node{
			Kind: kind, ValueKind: schema.Fixed, FixedWidth: 1,
			EnumChoices: choices, EnumDefaultIndex: int(defPlusOne) - 1,
		}), nil

	case schema.KindStruct, schema.KindUnion:
		name, err := d.name()
		if err != nil {
			return 0, err
		}
		idx := t.Push(schema.Node{Kind: kind, ValueKind: schema.Pointer, Name: name})
		if name != "" {
			names[name] = idx
		}
		count, err := d.u8()
		if err != nil {
			return 0, err
		}
		fields := make([]schema.FieldDef, count)
		for i := range fields {
			f, err := d.field(t, names)
			if err != nil {
				return 0, err
			}
			fields[i] = f
		}
		t.At(idx).Fields = fields
		return idx, nil

	case schema.KindTuple:
		name, err := d.name()
		if err != nil {
			return 0, err
		}
		idx := t.Push(schema.Node{Kind: kind, ValueKind: schema.Pointer, Name: name})
		if name != "" {
			names[name] = idx
		}
		count, err := d.u8()
		if err != nil {
			return 0, err
		}
		elems := make([]int, count)
		for i := range elems {
			if _, err := d.u16(); err != nil { // child_schema_len, unused by recursive decode
				return 0, err
			}
			child, err := d.node(t, names)
			if err != nil {
				return 0, err
			}
			elems[i] = child
		}
		t.At(idx).Elements = elems
		return idx, nil

	case schema.KindList, schema.KindMap:
		idx := t.Push(schema.Node{Kind: kind, ValueKind: schema.Pointer, KeyIsString: kind == schema.KindMap})
		child, err := d.node(t, names)
		if err != nil {
			return 0, err
		}
		t.At(idx).Child = child
		return idx, nil

	case schema.KindPortal:
		l, err := d.u16()
		if err != nil {
			return 0, err
		}
		path, err := d.bytes(int(l))
		if err != nil {
			return 0, err
		}
		return t.Push(schema.Node{Kind: kind, ValueKind: schema.Pointer, PortalPath: string(path), PortalTarget: -1, PortalParent: -1}), nil

	default:
		return 0, fmt.Errorf("wire: unsupported kind %v", kind)
	}
}

func (d *decoder) name() (string, error) {
	l, err := d.u16()
	if err != nil {
		return "", err
	}
	b, err := d.bytes(int(l))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) field(t *schema.Table, names schema.Names) (schema.FieldDef, error) {
	nameLen, err := d.u8()
	if err != nil {
		return schema.FieldDef{}, err
	}
	nameBytes, err := d.bytes(int(nameLen))
	if err != nil {
		return schema.FieldDef{}, err
	}
	if _, err := d.u16(); err != nil { // child_schema_len, unused by recursive decode
		return schema.FieldDef{}, err
	}
	child, err := d.node(t, names)
	if err != nil {
		return schema.FieldDef{}, err
	}
	return schema.FieldDef{Name: string(nameBytes), Child: child}, nil
}
