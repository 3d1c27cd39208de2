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

import (
	"github.com/noproto-go/noproto/internal/schema"
	"github.com/noproto-go/noproto/internal/schema/idl"
	"github.com/noproto-go/noproto/internal/schema/jsonschema"
	"github.com/noproto-go/noproto/internal/schema/wire"
)

// Schema is a compiled, fully-resolved schema table: every Portal has
// been linked to its target, and every Struct/Tuple/Union's field
// offsets and sortability have been precomputed (spec.md §4.1).
type Schema struct {
	table *schema.Table
	cfg   schemaConfig
}

// FromIDL compiles src, the function-call schema IDL (spec.md §6.1), into
// a Schema.
func FromIDL(src string, options ...SchemaOption) (*Schema, error) {
	cfg := defaultSchemaConfig()
	for _, opt := range options {
		opt.apply(&cfg)
	}
	t, err := idl.Compile(src)
	if err != nil {
		return nil, errSchema("%w", err)
	}
	if err := schema.CheckDepth(t, cfg.maxDepth); err != nil {
		return nil, errSchema("%w", err)
	}
	return &Schema{table: t, cfg: cfg}, nil
}

// FromJSON compiles a JSON schema-surface document (spec.md §6.1) into a
// Schema.
func FromJSON(data []byte, options ...SchemaOption) (*Schema, error) {
	cfg := defaultSchemaConfig()
	for _, opt := range options {
		opt.apply(&cfg)
	}
	t, err := jsonschema.Compile(data)
	if err != nil {
		return nil, errSchema("%w", err)
	}
	if err := schema.CheckDepth(t, cfg.maxDepth); err != nil {
		return nil, errSchema("%w", err)
	}
	return &Schema{table: t, cfg: cfg}, nil
}

// FromBytes decodes a compiled schema byte blob (spec.md §6.2) into a
// Schema.
func FromBytes(data []byte, options ...SchemaOption) (*Schema, error) {
	cfg := defaultSchemaConfig()
	for _, opt := range options {
		opt.apply(&cfg)
	}
	t, err := wire.Decode(data)
	if err != nil {
		return nil, errSchema("%w", err)
	}
	if err := schema.CheckDepth(t, cfg.maxDepth); err != nil {
		return nil, errSchema("%w", err)
	}
	return &Schema{table: t, cfg: cfg}, nil
}

// IDL renders the schema back to its IDL text form.
func (s *Schema) IDL() string {
	return idl.Emit(s.table, s.table.Root())
}

// JSON renders the schema as a JSON schema-surface document.
func (s *Schema) JSON() ([]byte, error) {
	return jsonschema.Emit(s.table, s.table.Root())
}

// Bytes renders the schema to its compiled byte form.
func (s *Schema) Bytes() []byte {
	return wire.Encode(s.table, s.table.Root())
}
