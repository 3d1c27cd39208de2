package idl

import (
	"fmt"
	"math"

	"github.com/noproto-go/noproto/internal/schema"
)

// Compile parses IDL text into a fully resolved schema.Table: portals are
// resolved and field offsets/sortability are computed before returning.
func Compile(src string) (*schema.Table, error) {
	ast, err := parse(src)
	if err != nil {
		return nil, err
	}

	t := &schema.Table{}
	names := schema.Names{}
	if _, err := compileValue(t, names, ast, 0); err != nil {
		return nil, err
	}
	if err := schema.ResolvePortals(t, names); err != nil {
		return nil, err
	}
	for i := range t.Nodes {
		if t.Nodes[i].Kind == schema.KindStruct || t.Nodes[i].Kind == schema.KindTuple || t.Nodes[i].Kind == schema.KindUnion {
			schema.ComputeOffsets(t, i)
		}
	}
	schema.ComputeSortability(t)
	return t, nil
}

func compileValue(t *schema.Table, names schema.Names, v value, depth int) (int, error) {
	if depth > schema.MaxDepth {
		return 0, fmt.Errorf("idl: schema nested deeper than %d levels", schema.MaxDepth)
	}
	if v.kind != valCall {
		return 0, fmt.Errorf("idl: expected a type constructor call")
	}

	kind, ok := schema.KindByName(v.call)
	if !ok {
		return 0, fmt.Errorf("idl: unknown type %q", v.call)
	}

	switch kind {
	case schema.KindBool:
		return compileBool(t, v.args)
	case schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64,
		schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64:
		return compileInt(t, kind, v.args)
	case schema.KindFloat, schema.KindDouble:
		return compileFloat(t, kind, v.args)
	case schema.KindDec:
		return compileDec(t, v.args)
	case schema.KindString, schema.KindBytes:
		return compileStringBytes(t, kind, v.args)
	case schema.KindGeo:
		return compileGeo(t, v.args)
	case schema.KindDate:
		return t.Push(schema.Node{Kind: schema.KindDate, ValueKind: schema.Fixed, FixedWidth: schema.IntWidth(schema.KindDate)}), nil
	case schema.KindUuid:
		return t.Push(schema.Node{Kind: schema.KindUuid, ValueKind: schema.Fixed, FixedWidth: schema.IntWidth(schema.KindUuid)}), nil
	case schema.KindUlid:
		return t.Push(schema.Node{Kind: schema.KindUlid, ValueKind: schema.Fixed, FixedWidth: schema.IntWidth(schema.KindUlid)}), nil
	case schema.KindEnum:
		return compileEnum(t, v.args)
	case schema.KindStruct:
		return compileStruct(t, names, v.args, depth)
	case schema.KindTuple:
		return compileTuple(t, names, v.args, depth)
	case schema.KindList:
		return compileList(t, names, v.args, depth)
	case schema.KindMap:
		return compileMap(t, names, v.args, depth)
	case schema.KindPortal:
		return compilePortal(t, v.args)
	case schema.KindUnion:
		return compileUnion(t, names, v.args, depth)
	case schema.KindAny:
		return t.Push(schema.Node{Kind: schema.KindAny, ValueKind: schema.Pointer}), nil
	default:
		return 0, fmt.Errorf("idl: unsupported type %q", v.call)
	}
}

func compileBool(t *schema.Table, args *argMap) (int, error) {
	n := schema.Node{Kind: schema.KindBool, ValueKind: schema.Fixed, FixedWidth: 1}
	if d, ok := args.get("default"); ok {
		if d.kind != valBool {
			return 0, fmt.Errorf("idl: bool default must be a boolean")
		}
		if d.flag {
			n.Default = []byte{1}
		} else {
			n.Default = []byte{0}
		}
	}
	return t.Push(n), nil
}

func compileInt(t *schema.Table, kind schema.Kind, args *argMap) (int, error) {
	w := schema.IntWidth(kind)
	n := schema.Node{Kind: kind, ValueKind: schema.Fixed, FixedWidth: w}
	if d, ok := args.get("default"); ok {
		if d.kind != valNumber {
			return 0, fmt.Errorf("idl: %s default must be a number", kind)
		}
		n.Default = encodeIntDefault(kind, w, int64(d.num))
	}
	return t.Push(n), nil
}

func compileFloat(t *schema.Table, kind schema.Kind, args *argMap) (int, error) {
	w := schema.IntWidth(kind)
	n := schema.Node{Kind: kind, ValueKind: schema.Fixed, FixedWidth: w}
	if d, ok := args.get("default"); ok {
		if d.kind != valNumber {
			return 0, fmt.Errorf("idl: %s default must be a number", kind)
		}
		n.Default = encodeFloatDefault(kind, d.num)
	}
	return t.Push(n), nil
}

func compileDec(t *schema.Table, args *argMap) (int, error) {
	width := 8
	var exp int8
	if w, ok := args.get("mantissa_width"); ok {
		width = int(w.num)
		switch width {
		case 1, 2, 4, 8:
		default:
			return 0, fmt.Errorf("idl: dec mantissa_width must be 1, 2, 4, or 8")
		}
	}
	if e, ok := args.get("exp"); ok {
		exp = int8(e.num)
	}
	n := schema.Node{Kind: schema.KindDec, ValueKind: schema.Fixed, FixedWidth: width, DecExp: exp, DecWidth: width}
	if d, ok := args.get("default"); ok {
		n.Default = encodeIntDefault(schema.KindInt64, width, int64(d.num))
	}
	return t.Push(n), nil
}

func compileStringBytes(t *schema.Table, kind schema.Kind, args *argMap) (int, error) {
	n := schema.Node{Kind: kind, ValueKind: schema.Pointer}
	if s, ok := args.get("size"); ok {
		n.FixedWidth = int(s.num)
		n.ValueKind = schema.Fixed
	}
	if d, ok := args.get("default"); ok {
		if d.kind != valString {
			return 0, fmt.Errorf("idl: %s default must be a string", kind)
		}
		n.Default = []byte(d.str)
	}
	return t.Push(n), nil
}

func compileGeo(t *schema.Table, args *argMap) (int, error) {
	prec := schema.Geo8
	if s, ok := args.get("size"); ok {
		switch int(s.num) {
		case 4:
			prec = schema.Geo4
		case 8:
			prec = schema.Geo8
		case 16:
			prec = schema.Geo16
		default:
			return 0, fmt.Errorf("idl: geo size must be 4, 8, or 16")
		}
	}
	return t.Push(schema.Node{Kind: schema.KindGeo, ValueKind: schema.Fixed, FixedWidth: int(prec), GeoPrecision: prec}), nil
}

func compileEnum(t *schema.Table, args *argMap) (int, error) {
	choicesV, ok := args.get("choices")
	if !ok || choicesV.kind != valList {
		return 0, fmt.Errorf("idl: enum requires a choices list")
	}
	if len(choicesV.list) == 0 {
		return 0, fmt.Errorf("idl: enum choices must not be empty")
	}
	if len(choicesV.list) > 254 {
		return 0, fmt.Errorf("idl: enum has too many choices (max 254)")
	}

	choices := make([]string, len(choicesV.list))
	seen := map[string]bool{}
	for i, c := range choicesV.list {
		if c.kind != valString {
			return 0, fmt.Errorf("idl: enum choices must be strings")
		}
		if len(c.str) > 255 {
			return 0, fmt.Errorf("idl: enum choice %q too long", c.str)
		}
		if seen[c.str] {
			return 0, fmt.Errorf("idl: duplicate enum choice %q", c.str)
		}
		seen[c.str] = true
		choices[i] = c.str
	}

	n := schema.Node{
		Kind: schema.KindEnum, ValueKind: schema.Fixed, FixedWidth: 1,
		EnumChoices: choices, EnumDefaultIndex: -1,
	}
	if d, ok := args.get("default"); ok {
		if d.kind != valString {
			return 0, fmt.Errorf("idl: enum default must be a string")
		}
		idx := -1
		for i, c := range choices {
			if c == d.str {
				idx = i
			}
		}
		if idx < 0 {
			return 0, fmt.Errorf("idl: enum default %q is not a declared choice", d.str)
		}
		n.EnumDefaultIndex = idx
	}
	return t.Push(n), nil
}

func compileStruct(t *schema.Table, names schema.Names, args *argMap, depth int) (int, error) {
	idx := t.Push(schema.Node{Kind: schema.KindStruct, ValueKind: schema.Pointer})
	if name, ok := args.get("name"); ok {
		if name.kind != valString {
			return 0, fmt.Errorf("idl: struct name must be a string")
		}
		names[name.str] = idx
		t.At(idx).Name = name.str
	}

	fieldsV, ok := args.get("fields")
	if !ok || fieldsV.kind != valMap {
		return 0, fmt.Errorf("idl: struct requires a fields map")
	}
	if len(fieldsV.m.keys) > 255 {
		return 0, fmt.Errorf("idl: struct has too many fields (max 255)")
	}

	seen := map[string]bool{}
	fields := make([]schema.FieldDef, 0, len(fieldsV.m.keys))
	for i, name := range fieldsV.m.keys {
		if len(name) > 255 {
			return 0, fmt.Errorf("idl: field name %q too long", name)
		}
		if seen[name] {
			return 0, fmt.Errorf("idl: duplicate field name %q", name)
		}
		seen[name] = true

		child, err := compileValue(t, names, fieldsV.m.vals[i], depth+1)
		if err != nil {
			return 0, err
		}
		fields = append(fields, schema.FieldDef{Name: name, Child: child})
	}

	t.At(idx).Fields = fields
	return idx, nil
}

func compileTuple(t *schema.Table, names schema.Names, args *argMap, depth int) (int, error) {
	idx := t.Push(schema.Node{Kind: schema.KindTuple, ValueKind: schema.Pointer})
	if name, ok := args.get("name"); ok {
		if name.kind != valString {
			return 0, fmt.Errorf("idl: tuple name must be a string")
		}
		names[name.str] = idx
		t.At(idx).Name = name.str
	}

	valuesV, ok := args.get("values")
	if !ok || valuesV.kind != valList {
		return 0, fmt.Errorf("idl: tuple requires a values list")
	}
	if len(valuesV.list) > 255 {
		return 0, fmt.Errorf("idl: tuple has too many elements (max 255)")
	}

	elems := make([]int, 0, len(valuesV.list))
	for _, v := range valuesV.list {
		child, err := compileValue(t, names, v, depth+1)
		if err != nil {
			return 0, err
		}
		elems = append(elems, child)
	}

	t.At(idx).Elements = elems
	return idx, nil
}

func compileList(t *schema.Table, names schema.Names, args *argMap, depth int) (int, error) {
	idx := t.Push(schema.Node{Kind: schema.KindList, ValueKind: schema.Pointer})
	ofV, ok := args.get("of")
	if !ok {
		return 0, fmt.Errorf("idl: list requires an 'of' child type")
	}
	child, err := compileValue(t, names, ofV, depth+1)
	if err != nil {
		return 0, err
	}
	t.At(idx).Child = child
	return idx, nil
}

func compileMap(t *schema.Table, names schema.Names, args *argMap, depth int) (int, error) {
	idx := t.Push(schema.Node{Kind: schema.KindMap, ValueKind: schema.Pointer, KeyIsString: true})
	valV, ok := args.get("value")
	if !ok {
		return 0, fmt.Errorf("idl: map requires a 'value' child type")
	}
	child, err := compileValue(t, names, valV, depth+1)
	if err != nil {
		return 0, err
	}
	t.At(idx).Child = child
	return idx, nil
}

func compilePortal(t *schema.Table, args *argMap) (int, error) {
	pathV, ok := args.get("path")
	if !ok || pathV.kind != valString {
		return 0, fmt.Errorf("idl: portal requires a string path")
	}
	// ValueKind is filled in by schema.ResolvePortals once the target is
	// known; default to Pointer since every valid portal target in this
	// module (struct/tuple/list/map/union) is itself Pointer-kinded.
	return t.Push(schema.Node{Kind: schema.KindPortal, ValueKind: schema.Pointer, PortalPath: pathV.str, PortalTarget: -1, PortalParent: -1}), nil
}

func compileUnion(t *schema.Table, names schema.Names, args *argMap, depth int) (int, error) {
	idx := t.Push(schema.Node{Kind: schema.KindUnion, ValueKind: schema.Pointer})
	if name, ok := args.get("name"); ok {
		if name.kind != valString {
			return 0, fmt.Errorf("idl: union name must be a string")
		}
		names[name.str] = idx
		t.At(idx).Name = name.str
	}

	variantsV, ok := args.get("variants")
	if !ok || variantsV.kind != valMap {
		return 0, fmt.Errorf("idl: union requires a variants map")
	}
	if len(variantsV.m.keys) > 254 {
		return 0, fmt.Errorf("idl: union has too many variants (max 254)")
	}

	seen := map[string]bool{}
	variants := make([]schema.FieldDef, 0, len(variantsV.m.keys))
	for i, name := range variantsV.m.keys {
		if seen[name] {
			return 0, fmt.Errorf("idl: duplicate union variant %q", name)
		}
		seen[name] = true
		child, err := compileValue(t, names, variantsV.m.vals[i], depth+1)
		if err != nil {
			return 0, err
		}
		variants = append(variants, schema.FieldDef{Name: name, Child: child})
	}

	t.At(idx).Fields = variants
	return idx, nil
}

func encodeIntDefault(kind schema.Kind, width int, v int64) []byte {
	buf := make([]byte, width)
	u := uint64(v)
	for i := 0; i < width; i++ {
		buf[width-1-i] = byte(u >> (8 * i))
	}
	if schema.Signed(kind) {
		buf[0] ^= 0x80
	}
	return buf
}

func encodeFloatDefault(kind schema.Kind, v float64) []byte {
	if kind == schema.KindFloat {
		bits := math.Float32bits(float32(v))
		return []byte{byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits)}
	}
	bits := math.Float64bits(v)
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[7-i] = byte(bits >> (8 * i))
	}
	return buf
}
