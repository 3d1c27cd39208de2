// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package noproto

import "encoding/binary"

// packMagic is the leading byte of a packed buffer (spec.md §4.8). Opening
// a packed buffer whose first byte isn't packMagic fails with
// KindBufferMalformed.
const packMagic = 0x01

// Factory wraps one parsed Schema and is the entry point for constructing
// and opening buffers against it (spec.md §4.8 "Factory façade"). A
// Factory is immutable after construction and safe to share across
// goroutines.
type Factory struct {
	schema *Schema
}

// NewFactory wraps s as a Factory.
func NewFactory(s *Schema) *Factory {
	return &Factory{schema: s}
}

// Schema returns the schema this factory was built from.
func (f *Factory) Schema() *Schema { return f.schema }

// NewBuffer allocates an empty buffer typed by the factory's schema.
func (f *Factory) NewBuffer(options ...BufferOption) (*Buffer, error) {
	return NewBuffer(f.schema, options...)
}

// OpenBuffer adopts data as an owned, growable buffer.
func (f *Factory) OpenBuffer(data []byte) (*Buffer, error) {
	return OpenBuffer(f.schema, data)
}

// OpenBufferRef wraps data as a read-only buffer.
func (f *Factory) OpenBufferRef(data []byte) *Buffer {
	return OpenBufferRef(f.schema, data)
}

// OpenBufferRefMut wraps a caller-provided slab as a growable buffer
// capped at the configured mutable ceiling.
func (f *Factory) OpenBufferRefMut(data []byte, options ...BufferOption) *Buffer {
	return OpenBufferRefMut(f.schema, data, options...)
}

// PackBuffer prepends the factory's compiled schema to buf's bytes,
// producing a single self-describing blob suitable for transport without
// a side channel carrying the schema (spec.md §4.8 "pack_buffer"):
//
//	[0x01][u16 schema_len][schema bytes][buffer bytes]
func (f *Factory) PackBuffer(buf *Buffer) ([]byte, error) {
	return PackBuffer(buf)
}

// ExportSchemaBytes renders the factory's schema to its compiled byte
// form (spec.md "export_schema_bytes").
func (f *Factory) ExportSchemaBytes() []byte { return f.schema.Bytes() }

// ExportSchemaJSON renders the factory's schema as a JSON schema-surface
// document (spec.md "export_schema_json").
func (f *Factory) ExportSchemaJSON() ([]byte, error) { return f.schema.JSON() }

// ExportSchemaIDL renders the factory's schema back to its IDL text form
// (spec.md "export_schema_idl").
func (f *Factory) ExportSchemaIDL() string { return f.schema.IDL() }

// PackBuffer prepends buf's schema (in compiled byte form) to buf's raw
// bytes, per the packMagic-prefixed wire format documented on
// Factory.PackBuffer. The schema must encode to no more than 65535 bytes.
func PackBuffer(buf *Buffer) ([]byte, error) {
	schemaBytes := buf.Schema().Bytes()
	if len(schemaBytes) > 0xFFFF {
		return nil, errBufferMalformed("", -1, errUnreachable("packed schema too large: %d bytes", len(schemaBytes)))
	}

	out := make([]byte, 0, 1+2+len(schemaBytes)+buf.Len())
	out = append(out, packMagic)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(schemaBytes)))
	out = append(out, lenBuf[:]...)
	out = append(out, schemaBytes...)
	out = append(out, buf.Bytes()...)
	return out, nil
}

// UnpackBuffer splits a packed blob (produced by PackBuffer) back into its
// Schema and Buffer. Opening fails with KindBufferMalformed if the first
// byte isn't packMagic or the blob is truncated (spec.md §4.8, and the
// table scenario "opening with wrong magic byte yields BufferMalformed").
func UnpackBuffer(packed []byte, options ...SchemaOption) (*Buffer, *Schema, error) {
	if len(packed) < 3 || packed[0] != packMagic {
		return nil, nil, errBufferMalformed("", 0, nil)
	}
	schemaLen := int(binary.BigEndian.Uint16(packed[1:3]))
	if len(packed) < 3+schemaLen {
		return nil, nil, errBufferMalformed("", 3, nil)
	}
	schemaBytes := packed[3 : 3+schemaLen]
	bufferBytes := packed[3+schemaLen:]

	s, err := FromBytes(schemaBytes, options...)
	if err != nil {
		return nil, nil, err
	}
	buf, err := OpenBuffer(s, append([]byte(nil), bufferBytes...))
	if err != nil {
		return nil, nil, err
	}
	return buf, s, nil
}
