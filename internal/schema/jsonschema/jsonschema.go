// Package jsonschema implements the JSON surface syntax for schemas: each
// node is a JSON object dispatched on its "type" member, and struct fields
// and union variants are objects keyed by member name
// (`{"type":"struct","fields":{...}}`). Members are compiled in name order,
// not document order. Structural validation of the top-level node, before
// any type-specific dispatch runs, is done
// with github.com/google/jsonschema-go, grounded on
// MacroPower-x/magicschema's use of the same library to validate generated
// schema documents.
package jsonschema

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/noproto-go/noproto/internal/schema"
)

// surfaceShape is the structural (not semantic) shape every node in a
// NoProto JSON schema document must have: an object with a "type" string.
// Anything past that — which of "fields"/"values"/"choices"/"of"/etc. is
// required — depends on the type and is checked during Compile, mirroring
// how the IDL compiler checks argument shape per type rather than in the
// grammar.
var surfaceShape = &jsonschema.Schema{
	Type:                 "object",
	Required:             []string{"type"},
	Properties:           map[string]*jsonschema.Schema{"type": {Type: "string"}},
	AdditionalProperties: &jsonschema.Schema{},
}

var resolvedSurfaceShape = mustResolve(surfaceShape)

func mustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	r, err := s.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("jsonschema: failed to resolve surface meta-schema: %v", err))
	}
	return r
}

// Validate checks that data is structurally a NoProto JSON schema document
// (an object carrying at least a string "type"), without yet interpreting
// what that type requires.
func Validate(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("jsonschema: invalid JSON: %w", err)
	}
	if err := resolvedSurfaceShape.Validate(v); err != nil {
		return fmt.Errorf("jsonschema: %w", err)
	}
	return nil
}

// Compile parses a NoProto JSON schema document into a fully resolved
// schema.Table (portals resolved, offsets and sortability computed), the
// JSON-surface counterpart to idl.Compile.
func Compile(data []byte) (*schema.Table, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("jsonschema: invalid JSON: %w", err)
	}

	t := &schema.Table{}
	names := schema.Names{}
	if _, err := compileNode(t, names, root, 0); err != nil {
		return nil, err
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

func compileNode(t *schema.Table, names schema.Names, v any, depth int) (int, error) {
	if depth > schema.MaxDepth {
		return 0, fmt.Errorf("jsonschema: schema nested deeper than %d levels", schema.MaxDepth)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return 0, fmt.Errorf("jsonschema: expected an object node")
	}
	typeName, _ := obj["type"].(string)
	kind, ok := schema.KindByName(typeName)
	if !ok {
		return 0, fmt.Errorf("jsonschema: unknown type %q", typeName)
	}

	switch kind {
	case schema.KindBool:
		n := schema.Node{Kind: kind, ValueKind: schema.Fixed, FixedWidth: 1}
		if d, ok := obj["default"]; ok {
			b, ok := d.(bool)
			if !ok {
				return 0, fmt.Errorf("jsonschema: bool default must be a boolean")
			}
			if b {
				n.Default = []byte{1}
			} else {
				n.Default = []byte{0}
			}
		}
		return t.Push(n), nil

	case schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64,
		schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64:
		w := schema.IntWidth(kind)
		n := schema.Node{Kind: kind, ValueKind: schema.Fixed, FixedWidth: w}
		if d, ok := obj["default"]; ok {
			num, ok := d.(float64)
			if !ok {
				return 0, fmt.Errorf("jsonschema: %s default must be a number", kind)
			}
			n.Default = encodeIntDefault(kind, w, int64(num))
		}
		return t.Push(n), nil

	case schema.KindFloat, schema.KindDouble:
		w := schema.IntWidth(kind)
		n := schema.Node{Kind: kind, ValueKind: schema.Fixed, FixedWidth: w}
		if d, ok := obj["default"]; ok {
			num, ok := d.(float64)
			if !ok {
				return 0, fmt.Errorf("jsonschema: %s default must be a number", kind)
			}
			n.Default = encodeFloatDefault(kind, num)
		}
		return t.Push(n), nil

	case schema.KindDec:
		width := 8
		if w, ok := obj["mantissa_width"]; ok {
			num, _ := w.(float64)
			width = int(num)
			switch width {
			case 1, 2, 4, 8:
			default:
				return 0, fmt.Errorf("jsonschema: dec mantissa_width must be 1, 2, 4, or 8")
			}
		}
		var exp int8
		if e, ok := obj["exp"]; ok {
			num, _ := e.(float64)
			exp = int8(num)
		}
		n := schema.Node{Kind: kind, ValueKind: schema.Fixed, FixedWidth: width, DecExp: exp, DecWidth: width}
		if d, ok := obj["default"]; ok {
			num, _ := d.(float64)
			n.Default = encodeIntDefault(schema.KindInt64, width, int64(num))
		}
		return t.Push(n), nil

	case schema.KindString, schema.KindBytes:
		n := schema.Node{Kind: kind, ValueKind: schema.Pointer}
		if s, ok := obj["size"]; ok {
			num, _ := s.(float64)
			n.FixedWidth = int(num)
			n.ValueKind = schema.Fixed
		}
		if d, ok := obj["default"]; ok {
			str, ok := d.(string)
			if !ok {
				return 0, fmt.Errorf("jsonschema: %s default must be a string", kind)
			}
			n.Default = []byte(str)
		}
		return t.Push(n), nil

	case schema.KindGeo:
		prec := schema.Geo8
		if s, ok := obj["size"]; ok {
			num, _ := s.(float64)
			switch int(num) {
			case 4:
				prec = schema.Geo4
			case 8:
				prec = schema.Geo8
			case 16:
				prec = schema.Geo16
			default:
				return 0, fmt.Errorf("jsonschema: geo size must be 4, 8, or 16")
			}
		}
		return t.Push(schema.Node{Kind: schema.KindGeo, ValueKind: schema.Fixed, FixedWidth: int(prec), GeoPrecision: prec}), nil

	case schema.KindDate:
		return t.Push(schema.Node{Kind: kind, ValueKind: schema.Fixed, FixedWidth: schema.IntWidth(kind)}), nil
	case schema.KindUuid:
		return t.Push(schema.Node{Kind: kind, ValueKind: schema.Fixed, FixedWidth: schema.IntWidth(kind)}), nil
	case schema.KindUlid:
		return t.Push(schema.Node{Kind: kind, ValueKind: schema.Fixed, FixedWidth: schema.IntWidth(kind)}), nil
	case schema.KindAny:
		return t.Push(schema.Node{Kind: kind, ValueKind: schema.Pointer}), nil

	case schema.KindEnum:
		return compileEnum(t, obj)

	case schema.KindStruct:
		return compileFields(t, names, kind, obj, depth, "fields")
	case schema.KindUnion:
		return compileFields(t, names, kind, obj, depth, "variants")

	case schema.KindTuple:
		idx := t.Push(schema.Node{Kind: schema.KindTuple, ValueKind: schema.Pointer})
		if name, ok := obj["name"].(string); ok {
			names[name] = idx
			t.At(idx).Name = name
		}
		valuesV, ok := obj["values"].([]any)
		if !ok {
			return 0, fmt.Errorf("jsonschema: tuple requires a values array")
		}
		elems := make([]int, 0, len(valuesV))
		for _, v := range valuesV {
			child, err := compileNode(t, names, v, depth+1)
			if err != nil {
				return 0, err
			}
			elems = append(elems, child)
		}
		t.At(idx).Elements = elems
		return idx, nil

	case schema.KindList:
		idx := t.Push(schema.Node{Kind: schema.KindList, ValueKind: schema.Pointer})
		ofV, ok := obj["of"]
		if !ok {
			return 0, fmt.Errorf("jsonschema: list requires an 'of' child type")
		}
		child, err := compileNode(t, names, ofV, depth+1)
		if err != nil {
			return 0, err
		}
		t.At(idx).Child = child
		return idx, nil

	case schema.KindMap:
		idx := t.Push(schema.Node{Kind: schema.KindMap, ValueKind: schema.Pointer, KeyIsString: true})
		valV, ok := obj["value"]
		if !ok {
			return 0, fmt.Errorf("jsonschema: map requires a 'value' child type")
		}
		child, err := compileNode(t, names, valV, depth+1)
		if err != nil {
			return 0, err
		}
		t.At(idx).Child = child
		return idx, nil

	case schema.KindPortal:
		path, ok := obj["path"].(string)
		if !ok {
			return 0, fmt.Errorf("jsonschema: portal requires a string path")
		}
		return t.Push(schema.Node{Kind: schema.KindPortal, ValueKind: schema.Pointer, PortalPath: path, PortalTarget: -1, PortalParent: -1}), nil

	default:
		return 0, fmt.Errorf("jsonschema: unsupported type %q", typeName)
	}
}

// compileFields handles Struct and Union, which share a "named-children
// object, optional name option" shape; membersKey is "fields" for Struct,
// "variants" for Union.
func compileFields(t *schema.Table, names schema.Names, kind schema.Kind, obj map[string]any, depth int, membersKey string) (int, error) {
	idx := t.Push(schema.Node{Kind: kind, ValueKind: schema.Pointer})
	if name, ok := obj["name"].(string); ok {
		names[name] = idx
		t.At(idx).Name = name
	}

	membersV, ok := obj[membersKey].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("jsonschema: %s requires a %q object", kind, membersKey)
	}

	fields := make([]schema.FieldDef, 0, len(membersV))
	seen := map[string]bool{}
	for name, v := range membersV {
		if seen[name] {
			return 0, fmt.Errorf("jsonschema: duplicate %s member %q", kind, name)
		}
		seen[name] = true
		child, err := compileNode(t, names, v, depth+1)
		if err != nil {
			return 0, err
		}
		fields = append(fields, schema.FieldDef{Name: name, Child: child})
	}
	// map iteration order is unspecified; sort for determinism so repeated
	// compiles of the same document produce byte-identical tables.
	sortFieldDefs(fields)

	t.At(idx).Fields = fields
	return idx, nil
}

func sortFieldDefs(fields []schema.FieldDef) {
	for i := 1; i < len(fields); i++ {
		for j := i; j > 0 && fields[j].Name < fields[j-1].Name; j-- {
			fields[j], fields[j-1] = fields[j-1], fields[j]
		}
	}
}

func compileEnum(t *schema.Table, obj map[string]any) (int, error) {
	choicesV, ok := obj["choices"].([]any)
	if !ok || len(choicesV) == 0 {
		return 0, fmt.Errorf("jsonschema: enum requires a non-empty choices array")
	}
	if len(choicesV) > 254 {
		return 0, fmt.Errorf("jsonschema: enum has too many choices (max 254)")
	}

	choices := make([]string, len(choicesV))
	seen := map[string]bool{}
	for i, c := range choicesV {
		s, ok := c.(string)
		if !ok {
			return 0, fmt.Errorf("jsonschema: enum choices must be strings")
		}
		if seen[s] {
			return 0, fmt.Errorf("jsonschema: duplicate enum choice %q", s)
		}
		seen[s] = true
		choices[i] = s
	}

	n := schema.Node{
		Kind: schema.KindEnum, ValueKind: schema.Fixed, FixedWidth: 1,
		EnumChoices: choices, EnumDefaultIndex: -1,
	}
	if d, ok := obj["default"].(string); ok {
		idx := -1
		for i, c := range choices {
			if c == d {
				idx = i
			}
		}
		if idx < 0 {
			return 0, fmt.Errorf("jsonschema: enum default %q is not a declared choice", d)
		}
		n.EnumDefaultIndex = idx
	}
	return t.Push(n), nil
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

// Emit renders the node at idx (and, transitively, its children) back into
// a NoProto JSON schema document, the JSON-surface counterpart to idl.Emit.
func Emit(t *schema.Table, idx int) ([]byte, error) {
	return json.Marshal(emitNode(t, idx))
}

func emitNode(t *schema.Table, idx int) map[string]any {
	n := t.At(idx)
	m := map[string]any{"type": n.Kind.String()}

	switch n.Kind {
	case schema.KindBool:
		if n.Default != nil {
			m["default"] = n.Default[0] == 1
		}
	case schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64,
		schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64:
		if n.Default != nil {
			m["default"] = decodeIntDefault(n)
		}
	case schema.KindDec:
		m["exp"] = n.DecExp
		m["mantissa_width"] = n.DecWidth
	case schema.KindString, schema.KindBytes:
		if n.ValueKind == schema.Fixed {
			m["size"] = n.FixedWidth
		}
		if n.Default != nil {
			m["default"] = string(n.Default)
		}
	case schema.KindGeo:
		m["size"] = int(n.GeoPrecision)
	case schema.KindEnum:
		m["choices"] = n.EnumChoices
		if n.EnumDefaultIndex >= 0 {
			m["default"] = n.EnumChoices[n.EnumDefaultIndex]
		}
	case schema.KindStruct:
		if n.Name != "" {
			m["name"] = n.Name
		}
		fields := map[string]any{}
		for _, f := range n.Fields {
			fields[f.Name] = emitNode(t, f.Child)
		}
		m["fields"] = fields
	case schema.KindUnion:
		if n.Name != "" {
			m["name"] = n.Name
		}
		variants := map[string]any{}
		for _, f := range n.Fields {
			variants[f.Name] = emitNode(t, f.Child)
		}
		m["variants"] = variants
	case schema.KindTuple:
		if n.Name != "" {
			m["name"] = n.Name
		}
		values := make([]any, len(n.Elements))
		for i, c := range n.Elements {
			values[i] = emitNode(t, c)
		}
		m["values"] = values
	case schema.KindList:
		m["of"] = emitNode(t, n.Child)
	case schema.KindMap:
		m["value"] = emitNode(t, n.Child)
	case schema.KindPortal:
		m["path"] = n.PortalPath
	}
	return m
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
