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

// schemaConfig holds the resolved settings for FromIDL/FromJSON/FromBytes.
type schemaConfig struct {
	maxDepth int
}

func defaultSchemaConfig() schemaConfig {
	return schemaConfig{maxDepth: 255}
}

// SchemaOption configures schema compilation by [FromIDL], [FromJSON] and
// [FromBytes].
type SchemaOption struct{ apply func(*schemaConfig) }

// WithMaxDepth overrides the default 255-level schema nesting ceiling.
func WithMaxDepth(depth int) SchemaOption {
	return SchemaOption{func(c *schemaConfig) { c.maxDepth = depth }}
}

// bufferConfig holds the resolved settings for NewBuffer/OpenBuffer*.
type bufferConfig struct {
	initialCapacity int
	mutableCeiling  int // 0 or less means the slab's own length
}

func defaultBufferConfig() bufferConfig {
	return bufferConfig{initialCapacity: 64}
}

// BufferOption configures buffer construction.
type BufferOption struct{ apply func(*bufferConfig) }

// WithInitialCapacity sets the initial allocation size for a new buffer.
func WithInitialCapacity(n int) BufferOption {
	return BufferOption{func(c *bufferConfig) { c.initialCapacity = n }}
}

// WithMutableCeiling caps how large a caller-provided mutable slab may grow
// (used by OpenBufferRefMut); mutations that would exceed the ceiling fail.
// The failure is not reported as KindBufferOverflow: Set and SetFromJSON
// return it as a KindBufferMalformed or KindTypeMismatch error.
func WithMutableCeiling(n int) BufferOption {
	return BufferOption{func(c *bufferConfig) { c.mutableCeiling = n }}
}
