package value

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noproto-go/noproto/internal/schema"
)

func TestSignedIntSortability(t *testing.T) {
	neg := EncodeInt(schema.KindInt32, -1)
	zero := EncodeInt(schema.KindInt32, 0)
	pos := EncodeInt(schema.KindInt32, 1)

	require.True(t, bytesLess(neg, zero), "negative must sort before zero")
	require.True(t, bytesLess(zero, pos), "zero must sort before positive")

	require.Equal(t, int64(-1), DecodeInt(schema.KindInt32, neg))
	require.Equal(t, int64(0), DecodeInt(schema.KindInt32, zero))
	require.Equal(t, int64(1), DecodeInt(schema.KindInt32, pos))
}

func bytesLess(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func TestUnsignedIntRoundTrip(t *testing.T) {
	buf := EncodeInt(schema.KindUint64, 1<<40)
	require.Equal(t, int64(1<<40), DecodeInt(schema.KindUint64, buf))
}

func TestFloatRoundTrip(t *testing.T) {
	buf := EncodeFloat(schema.KindDouble, 3.14159)
	require.InDelta(t, 3.14159, DecodeFloat(schema.KindDouble, buf), 1e-12)
}

func TestUUIDRoundTrip(t *testing.T) {
	raw := NewUUID()
	s := UUIDString(raw[:])
	parsed, ok := ParseUUID(s)
	require.True(t, ok)
	require.Equal(t, raw, parsed)
}

func TestULIDRoundTrip(t *testing.T) {
	raw := NewULID(1700000000000)
	s := ULIDString(raw[:])
	require.Len(t, s, 26)
	parsed, ok := ParseULID(s)
	require.True(t, ok)
	require.Equal(t, raw, parsed)
}

func TestGeoPrecisionTiers(t *testing.T) {
	g := Geo{Lat: 37.7749, Lng: -122.4194}
	for _, prec := range []schema.GeoPrecision{schema.Geo4, schema.Geo8, schema.Geo16} {
		buf := EncodeGeo(prec, g)
		require.Len(t, buf, int(prec))
		got := DecodeGeo(prec, buf)
		require.InDelta(t, g.Lat, got.Lat, 0.1)
		require.InDelta(t, g.Lng, got.Lng, 0.1)
	}
}

func TestEnumCodec(t *testing.T) {
	n := &schema.Node{Kind: schema.KindEnum, EnumChoices: []string{"red", "green", "blue"}}
	c := CodecFor(schema.KindEnum)
	buf, err := c.Encode(n, "green")
	require.NoError(t, err)
	require.Equal(t, []byte{1}, buf)

	v, err := c.Decode(n, buf)
	require.NoError(t, err)
	require.Equal(t, "green", v)

	_, err = c.Encode(n, "purple")
	require.Error(t, err)
}

func TestStringCodecFixedAndVariable(t *testing.T) {
	variable := &schema.Node{Kind: schema.KindString, ValueKind: schema.Pointer}
	c := CodecFor(schema.KindString)
	buf, err := c.Encode(variable, "hello")
	require.NoError(t, err)
	v, err := c.Decode(variable, buf)
	require.NoError(t, err)
	require.Equal(t, "hello", v)

	fixed := &schema.Node{Kind: schema.KindString, ValueKind: schema.Fixed, FixedWidth: 8}
	buf, err = c.Encode(fixed, "hi")
	require.NoError(t, err)
	require.Len(t, buf, 8)
}

func TestUnsignedRejectsNegative(t *testing.T) {
	n := &schema.Node{Kind: schema.KindUint8}
	_, err := CodecFor(schema.KindUint8).Encode(n, -1)
	require.Error(t, err)
}
