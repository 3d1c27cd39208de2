package value

import (
	"fmt"
	"time"

	"github.com/noproto-go/noproto/internal/schema"
)

// Codec is the per-kind scalar capability set, grounded on
// solidcoredata-dca's ts.FieldCoder (BitSize/Encode) — generalized here
// with a Decode method, which fieldcoder.go itself notes ("TODO: write
// decoder interface") was never added to that codebase.
type Codec interface {
	// BitSize returns the node's fixed encoded width in bytes, or 0 if
	// variable-length.
	BitSize(n *schema.Node) int
	// Encode renders a caller value (bool, int64, float64, string, []byte,
	// Geo, or the UUID/ULID/time.Time forms documented per kind) to bytes.
	Encode(n *schema.Node, v any) ([]byte, error)
	// Decode inverts Encode.
	Decode(n *schema.Node, buf []byte) (any, error)
}

// CodecFor returns the Codec implementing kind's scalar encoding rules, or
// nil for kinds with no scalar codec (Struct/Tuple/List/Map/Union/Portal,
// which are handled by internal/collection instead).
func CodecFor(kind schema.Kind) Codec {
	switch kind {
	case schema.KindBool:
		return coderBool{}
	case schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64,
		schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64:
		return coderInt{}
	case schema.KindFloat, schema.KindDouble:
		return coderFloat{}
	case schema.KindDec:
		return coderDec{}
	case schema.KindString:
		return coderString{}
	case schema.KindBytes:
		return coderBytes{}
	case schema.KindGeo:
		return coderGeoCodec{}
	case schema.KindDate:
		return coderDate{}
	case schema.KindUuid:
		return coderUUID{}
	case schema.KindUlid:
		return coderULID{}
	case schema.KindEnum:
		return coderEnum{}
	case schema.KindAny:
		return coderAny{}
	default:
		return nil
	}
}

type coderBool struct{}

func (coderBool) BitSize(*schema.Node) int { return 1 }
func (coderBool) Encode(_ *schema.Node, v any) ([]byte, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("value: expected bool, got %T", v)
	}
	return EncodeBool(b), nil
}
func (coderBool) Decode(_ *schema.Node, buf []byte) (any, error) { return DecodeBool(buf), nil }

type coderInt struct{}

func (coderInt) BitSize(n *schema.Node) int { return schema.IntWidth(n.Kind) }
func (c coderInt) Encode(n *schema.Node, v any) ([]byte, error) {
	i, ok := asInt64(v)
	if !ok {
		return nil, fmt.Errorf("value: expected integer, got %T", v)
	}
	if !schema.Signed(n.Kind) && i < 0 {
		return nil, fmt.Errorf("value: negative value for unsigned kind %s", n.Kind)
	}
	return EncodeInt(n.Kind, i), nil
}
func (coderInt) Decode(n *schema.Node, buf []byte) (any, error) {
	return DecodeInt(n.Kind, buf), nil
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

type coderFloat struct{}

func (coderFloat) BitSize(n *schema.Node) int { return schema.IntWidth(n.Kind) }
func (coderFloat) Encode(n *schema.Node, v any) ([]byte, error) {
	switch x := v.(type) {
	case float64:
		return EncodeFloat(n.Kind, x), nil
	case float32:
		return EncodeFloat(n.Kind, float64(x)), nil
	default:
		return nil, fmt.Errorf("value: expected float, got %T", v)
	}
}
func (coderFloat) Decode(n *schema.Node, buf []byte) (any, error) {
	return DecodeFloat(n.Kind, buf), nil
}

type coderDec struct{}

func (coderDec) BitSize(n *schema.Node) int { return n.DecWidth }
func (coderDec) Encode(n *schema.Node, v any) ([]byte, error) {
	i, ok := asInt64(v)
	if !ok {
		return nil, fmt.Errorf("value: dec expects an integer mantissa, got %T", v)
	}
	return EncodeDec(n.DecWidth, i), nil
}
func (coderDec) Decode(_ *schema.Node, buf []byte) (any, error) { return DecodeDec(buf), nil }

type coderString struct{}

func (coderString) BitSize(n *schema.Node) int {
	if n.ValueKind == schema.Fixed {
		return n.FixedWidth
	}
	return 0
}
func (c coderString) Encode(n *schema.Node, v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("value: expected string, got %T", v)
	}
	return encodeVarOrFixed(n, []byte(s))
}
func (coderString) Decode(n *schema.Node, buf []byte) (any, error) {
	return string(decodeVarOrFixed(n, buf)), nil
}

type coderBytes struct{}

func (coderBytes) BitSize(n *schema.Node) int {
	if n.ValueKind == schema.Fixed {
		return n.FixedWidth
	}
	return 0
}
func (coderBytes) Encode(n *schema.Node, v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("value: expected []byte, got %T", v)
	}
	return encodeVarOrFixed(n, b)
}
func (coderBytes) Decode(n *schema.Node, buf []byte) (any, error) {
	return decodeVarOrFixed(n, buf), nil
}

func encodeVarOrFixed(n *schema.Node, payload []byte) ([]byte, error) {
	if n.ValueKind == schema.Fixed {
		if len(payload) > n.FixedWidth {
			return nil, fmt.Errorf("value: payload of %d bytes exceeds fixed width %d", len(payload), n.FixedWidth)
		}
		buf := make([]byte, n.FixedWidth)
		copy(buf, payload)
		return buf, nil
	}
	return EncodeVarWidth(payload), nil
}

func decodeVarOrFixed(n *schema.Node, buf []byte) []byte {
	if n.ValueKind == schema.Fixed {
		return buf
	}
	l := DecodeVarWidthLen(buf)
	return buf[LengthPrefixSize : LengthPrefixSize+l]
}

type coderGeoCodec struct{}

func (coderGeoCodec) BitSize(n *schema.Node) int { return int(n.GeoPrecision) }
func (coderGeoCodec) Encode(n *schema.Node, v any) ([]byte, error) {
	switch x := v.(type) {
	case Geo:
		return EncodeGeo(n.GeoPrecision, x), nil
	case map[string]any:
		lat, latOK := x["Lat"].(float64)
		lng, lngOK := x["Lng"].(float64)
		if !latOK || !lngOK {
			return nil, fmt.Errorf("value: geo object must have numeric Lat and Lng")
		}
		return EncodeGeo(n.GeoPrecision, Geo{Lat: lat, Lng: lng}), nil
	default:
		return nil, fmt.Errorf("value: expected value.Geo, got %T", v)
	}
}
func (coderGeoCodec) Decode(n *schema.Node, buf []byte) (any, error) {
	return DecodeGeo(n.GeoPrecision, buf), nil
}

type coderDate struct{}

func (coderDate) BitSize(*schema.Node) int { return 8 }
func (coderDate) Encode(_ *schema.Node, v any) ([]byte, error) {
	switch x := v.(type) {
	case time.Time:
		return EncodeDate(uint64(x.UnixMilli())), nil
	case uint64:
		return EncodeDate(x), nil
	case int64:
		return EncodeDate(uint64(x)), nil
	case float64:
		return EncodeDate(uint64(x)), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return nil, fmt.Errorf("value: invalid RFC3339 date %q: %w", x, err)
		}
		return EncodeDate(uint64(t.UnixMilli())), nil
	default:
		return nil, fmt.Errorf("value: expected time.Time, millisecond int, or RFC3339 string, got %T", v)
	}
}
func (coderDate) Decode(_ *schema.Node, buf []byte) (any, error) {
	return time.UnixMilli(int64(DecodeDate(buf))).UTC(), nil
}

type coderUUID struct{}

func (coderUUID) BitSize(*schema.Node) int { return 16 }
func (coderUUID) Encode(_ *schema.Node, v any) ([]byte, error) {
	switch x := v.(type) {
	case string:
		b, ok := ParseUUID(x)
		if !ok {
			return nil, fmt.Errorf("value: invalid UUID string %q", x)
		}
		return b[:], nil
	case [16]byte:
		return x[:], nil
	default:
		return nil, fmt.Errorf("value: expected string or [16]byte, got %T", v)
	}
}
func (coderUUID) Decode(_ *schema.Node, buf []byte) (any, error) { return UUIDString(buf), nil }

type coderULID struct{}

func (coderULID) BitSize(*schema.Node) int { return 16 }
func (coderULID) Encode(_ *schema.Node, v any) ([]byte, error) {
	switch x := v.(type) {
	case string:
		b, ok := ParseULID(x)
		if !ok {
			return nil, fmt.Errorf("value: invalid ULID string %q", x)
		}
		return b[:], nil
	case [16]byte:
		return x[:], nil
	default:
		return nil, fmt.Errorf("value: expected string or [16]byte, got %T", v)
	}
}
func (coderULID) Decode(_ *schema.Node, buf []byte) (any, error) { return ULIDString(buf), nil }

type coderEnum struct{}

func (coderEnum) BitSize(*schema.Node) int { return 1 }
func (coderEnum) Encode(n *schema.Node, v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("value: expected string choice, got %T", v)
	}
	for i, c := range n.EnumChoices {
		if c == s {
			return []byte{byte(i)}, nil
		}
	}
	return nil, fmt.Errorf("value: %q is not a declared enum choice", s)
}
func (coderEnum) Decode(n *schema.Node, buf []byte) (any, error) {
	idx := int(buf[0])
	if idx < 0 || idx >= len(n.EnumChoices) {
		return nil, fmt.Errorf("value: enum index %d out of range", idx)
	}
	return n.EnumChoices[idx], nil
}

type coderAny struct{}

func (coderAny) BitSize(*schema.Node) int { return 0 }
func (coderAny) Encode(_ *schema.Node, v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("value: Any expects pre-encoded []byte, got %T", v)
	}
	return EncodeVarWidth(b), nil
}
func (coderAny) Decode(_ *schema.Node, buf []byte) (any, error) {
	l := DecodeVarWidthLen(buf)
	return buf[LengthPrefixSize : LengthPrefixSize+l], nil
}
