package value

import "github.com/google/uuid"

// NewUUID generates a fresh random (version 4) UUID's 16 raw bytes.
func NewUUID() [16]byte {
	return [16]byte(uuid.New())
}

// UUIDString stringifies 16 raw UUID bytes as
// XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX (spec.md §4.4).
func UUIDString(b []byte) string {
	var id uuid.UUID
	copy(id[:], b)
	return id.String()
}

// ParseUUID parses the canonical hyphenated form back into 16 raw bytes.
func ParseUUID(s string) ([16]byte, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return [16]byte{}, false
	}
	return [16]byte(id), true
}
