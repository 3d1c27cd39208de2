package value

import "encoding/binary"

// LengthPrefixSize is the width of the length prefix on a variable-width
// string/bytes allocation (spec.md §4.4: "4-byte big-endian length
// followed by the payload").
const LengthPrefixSize = 4

// EncodeVarWidth renders payload as a length-prefixed allocation.
func EncodeVarWidth(payload []byte) []byte {
	buf := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[LengthPrefixSize:], payload)
	return buf
}

// DecodeVarWidthLen reads just the length prefix at the start of buf.
func DecodeVarWidthLen(buf []byte) int {
	return int(binary.BigEndian.Uint32(buf))
}
