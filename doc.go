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

// Package noproto is a flexible, schema-driven binary serialization engine
// that supports in-place mutation of a buffer without a full
// deserialize/reserialize round trip.
//
// Compile a [Schema] once with [FromIDL], [FromJSON], or [FromBytes], wrap
// it in a [Factory], and construct or open [Buffer]s against it with
// [Factory.NewBuffer], [Factory.OpenBuffer], [Factory.OpenBufferRef], or
// [Factory.OpenBufferRefMut]. Every [Buffer.Get]/[Buffer.Set]/[Buffer.Del]
// addresses a value by an ordered path of field names, list indices, map
// keys, and union variant names; writes mutate the buffer's own bytes in
// place wherever the existing layout has room, falling back to
// bump-allocating a fresh slab only when a value outgrows its existing slot.
//
// # Support status
//
// A few corners of the conceptual spec this package implements are not
// exposed as distinct knobs:
//
//   - Sortable byte encoding is derived automatically from a schema's
//     field kinds ([Schema]); there is no separate opt-in for it.
//   - Compaction ([Buffer.Compact]) always rebuilds the whole buffer from
//     the root; there is no partial/subtree compaction.
package noproto
