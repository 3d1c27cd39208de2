// Package value implements the per-kind scalar and variable-width value
// codecs (spec.md §4.4 "Value codecs", §4.4 "Scalar encoding rules").
// Grounded on solidcoredata-dca's ts.FieldCoder interface (BitSize/Encode),
// which this package's Codec mirrors as a small per-kind capability table
// dispatched by schema.Kind, and on original_source's pointer/*.rs scalar
// encoders for the exact bit-layouts (sign-flip, UUID version bit, ULID
// timestamp prefix).
package value

import (
	"encoding/binary"
	"math"

	"github.com/noproto-go/noproto/internal/schema"
)

// EncodeInt renders v as a big-endian integer of the given kind's width,
// sign-flipping the high byte for signed kinds so the encoding is
// byte-wise sortable (spec.md §4.4: "the involution b ⊕ 0x80").
func EncodeInt(kind schema.Kind, v int64) []byte {
	w := schema.IntWidth(kind)
	buf := make([]byte, w)
	u := uint64(v)
	for i := 0; i < w; i++ {
		buf[w-1-i] = byte(u >> (8 * i))
	}
	if schema.Signed(kind) {
		buf[0] ^= 0x80
	}
	return buf
}

// DecodeInt inverts EncodeInt.
func DecodeInt(kind schema.Kind, buf []byte) int64 {
	tmp := append([]byte(nil), buf...)
	if schema.Signed(kind) {
		tmp[0] ^= 0x80
	}
	var u uint64
	for _, b := range tmp {
		u = u<<8 | uint64(b)
	}
	if schema.Signed(kind) {
		shift := uint(64 - 8*len(tmp))
		return int64(u<<shift) >> shift
	}
	return int64(u)
}

// EncodeFloat renders v as IEEE-754 big-endian bytes (not sortable-encoded;
// float sort order is an explicit non-goal, spec.md §4.4).
func EncodeFloat(kind schema.Kind, v float64) []byte {
	if kind == schema.KindFloat {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, math.Float32bits(float32(v)))
		return buf
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(v))
	return buf
}

// DecodeFloat inverts EncodeFloat.
func DecodeFloat(kind schema.Kind, buf []byte) float64 {
	if kind == schema.KindFloat {
		return float64(math.Float32frombits(binary.BigEndian.Uint32(buf)))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf))
}

// EncodeBool renders a 1-byte bool (0 or 1).
func EncodeBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// DecodeBool inverts EncodeBool.
func DecodeBool(buf []byte) bool { return buf[0] != 0 }

// EncodeDate renders an unsigned 64-bit millisecond timestamp, the same
// rules as u64 (spec.md §4.4).
func EncodeDate(millis uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, millis)
	return buf
}

// DecodeDate inverts EncodeDate.
func DecodeDate(buf []byte) uint64 { return binary.BigEndian.Uint64(buf) }

// EncodeDec renders a fixed-point decimal as a sign-flipped big-endian
// mantissa of the schema's declared width (SPEC_FULL.md §2.2 item 3,
// supplementing spec.md's scalar table with the original crate's `dec`
// type: an exponent carried in the schema, plus a signed mantissa).
func EncodeDec(width int, mantissa int64) []byte {
	buf := make([]byte, width)
	u := uint64(mantissa)
	for i := 0; i < width; i++ {
		buf[width-1-i] = byte(u >> (8 * i))
	}
	buf[0] ^= 0x80
	return buf
}

// DecodeDec inverts EncodeDec.
func DecodeDec(buf []byte) int64 {
	tmp := append([]byte(nil), buf...)
	tmp[0] ^= 0x80
	var u uint64
	for _, b := range tmp {
		u = u<<8 | uint64(b)
	}
	shift := uint(64 - 8*len(tmp))
	return int64(u<<shift) >> shift
}
