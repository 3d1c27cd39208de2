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

package noproto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noproto-go/noproto"
)

// scenario 1: struct with a string, a defaulted u16, and a list<string>.
func TestScenarioStructStringDefaultedIntAndList(t *testing.T) {
	s, err := noproto.FromIDL(personIDL)
	require.NoError(t, err)

	buf, err := noproto.NewBuffer(s)
	require.NoError(t, err)

	require.NoError(t, buf.Set("Billy Joel", "name"))
	require.NoError(t, buf.Set("first tag", "tags", "0"))

	name, err := buf.Get("name")
	require.NoError(t, err)
	require.Equal(t, "Billy Joel", name)

	age, err := buf.Get("age")
	require.NoError(t, err)
	require.EqualValues(t, 0, age)

	tag, err := buf.Get("tags", "0")
	require.NoError(t, err)
	require.Equal(t, "first tag", tag)
}

// scenario 2: a second same-or-smaller-size string Set rewrites in place.
func TestScenarioStringSetInPlace(t *testing.T) {
	s, err := noproto.FromIDL(`string()`)
	require.NoError(t, err)
	buf, err := noproto.NewBuffer(s)
	require.NoError(t, err)

	require.NoError(t, buf.Set("abc"))
	lenAfterFirst := buf.Len()

	require.NoError(t, buf.Set("ab"))
	v, err := buf.Get()
	require.NoError(t, err)
	require.Equal(t, "ab", v)
	require.Equal(t, lenAfterFirst, buf.Len(), "rewriting a shorter string must not grow the buffer")
}

// scenario 3: a longer replacement string reallocates, leaving the old
// slab orphaned until compaction reclaims it.
func TestScenarioStringGrowReallocates(t *testing.T) {
	s, err := noproto.FromIDL(`string()`)
	require.NoError(t, err)
	buf, err := noproto.NewBuffer(s)
	require.NoError(t, err)

	require.NoError(t, buf.Set("ab"))
	require.NoError(t, buf.Set("abcd"))

	v, err := buf.Get()
	require.NoError(t, err)
	require.Equal(t, "abcd", v)

	calc, err := buf.CalcBytes()
	require.NoError(t, err)
	require.Greater(t, calc.Wasted, 0)
}

// scenario 4: deleting every map entry and compacting collapses the
// buffer back down to just the header plus an empty root pointer.
func TestScenarioMapSetDelCompact(t *testing.T) {
	s, err := noproto.FromIDL(`map({value:string()})`)
	require.NoError(t, err)
	buf, err := noproto.NewBuffer(s)
	require.NoError(t, err)

	require.NoError(t, buf.Set("1", "a"))
	require.NoError(t, buf.Set("2", "b"))
	require.NoError(t, buf.Del())
	require.NoError(t, buf.Compact())

	require.Equal(t, 3+4, buf.Len(), "3-byte header + empty 4-byte root pointer")
}

// scenario 5: enum values store as a single byte and render as their
// choice name in JSON.
func TestScenarioEnumSingleByteAndJSON(t *testing.T) {
	s, err := noproto.FromIDL(`enum({choices:["red","green","blue"]})`)
	require.NoError(t, err)
	buf, err := noproto.NewBuffer(s)
	require.NoError(t, err)

	require.NoError(t, buf.Set("green"))

	v, err := buf.Get()
	require.NoError(t, err)
	require.Equal(t, "green", v)

	out, err := buf.ToJSON()
	require.NoError(t, err)
	require.JSONEq(t, `"green"`, string(out))
}

// A declared non-zero default on a Fixed field must be visible before any
// Set, since zero-init and "unset" are indistinguishable for Fixed slots.
func TestNonZeroFixedDefaultAppliesWithoutSet(t *testing.T) {
	s, err := noproto.FromIDL(`struct({fields:{status:enum({choices:["ok","degraded","down"],default:"ok"})}})`)
	require.NoError(t, err)
	buf, err := noproto.NewBuffer(s)
	require.NoError(t, err)

	v, err := buf.Get("status")
	require.NoError(t, err)
	require.Equal(t, "ok", v)
}

// A non-zero default index (so it can't be confused with zero-init) must
// apply at the root itself, not just to nested struct/tuple/union fields.
func TestNonZeroFixedDefaultAppliesAtRoot(t *testing.T) {
	s, err := noproto.FromIDL(`enum({choices:["ok","degraded","down"],default:"degraded"})`)
	require.NoError(t, err)
	buf, err := noproto.NewBuffer(s)
	require.NoError(t, err)

	v, err := buf.Get()
	require.NoError(t, err)
	require.Equal(t, "degraded", v)
}

func TestDelClearsValue(t *testing.T) {
	s, err := noproto.FromIDL(`string()`)
	require.NoError(t, err)
	buf, err := noproto.NewBuffer(s)
	require.NoError(t, err)

	require.NoError(t, buf.Set("x"))
	require.NoError(t, buf.Del())

	v, err := buf.Get()
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestOpenBufferRefRejectsMutation(t *testing.T) {
	s, err := noproto.FromIDL(`string()`)
	require.NoError(t, err)
	owned, err := noproto.NewBuffer(s)
	require.NoError(t, err)
	require.NoError(t, owned.Set("x"))

	ref := noproto.OpenBufferRef(s, owned.Bytes())
	err = ref.Set("y")
	require.Error(t, err)
	require.ErrorIs(t, err, noproto.ErrImmutable)
}

// scenario 6: a self-referential portal lets a path walk into the same
// struct shape arbitrarily deep without the schema table itself
// recursing.
func TestScenarioRecursivePortalNestedSet(t *testing.T) {
	s, err := noproto.FromIDL(`struct({name:"Node",fields:{val:string(),more:portal({path:"Node"})}})`)
	require.NoError(t, err)
	buf, err := noproto.NewBuffer(s)
	require.NoError(t, err)

	require.NoError(t, buf.Set("leaf", "more", "more", "more", "val"))

	v, err := buf.Get("more", "more", "more", "val")
	require.NoError(t, err)
	require.Equal(t, "leaf", v)

	// The top-level val, which was never set, remains unset.
	top, err := buf.Get("val")
	require.NoError(t, err)
	require.Nil(t, top)
}

func TestSetFromJSONAndToJSONRoundTrip(t *testing.T) {
	s, err := noproto.FromIDL(personIDL)
	require.NoError(t, err)
	buf, err := noproto.NewBuffer(s)
	require.NoError(t, err)

	require.NoError(t, buf.SetFromJSON([]byte(`{"name":"Grace","age":85,"tags":["navy","compiler"]}`)))
	out, err := buf.ToJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Grace","age":85,"tags":["navy","compiler"]}`, string(out))
}
